package pipeline

import (
	"github.com/typesugar/typesugar/internal/ast"
	"github.com/typesugar/typesugar/internal/diag"
	"github.com/typesugar/typesugar/internal/hygiene"
	"github.com/typesugar/typesugar/internal/metrics"
	"github.com/typesugar/typesugar/internal/registry"
	"github.com/typesugar/typesugar/internal/scope"
)

// expandStmtList expands one statement list (a file's top level or a
// block body). Decorator and labeled-block macros need sibling context
// (the decorated declaration, or continuation-labeled statements) that
// a single-node walk doesn't have, so this level handles their grouping
// directly instead of delegating to expandNode (spec.md §4.7 dispatch
// rules for attribute/derive/labeled-block macros).
func (r *run) expandStmtList(stmts []ast.Stmt, depth int) ([]ast.Stmt, error) {
	var out []ast.Stmt
	i := 0
	for i < len(stmts) {
		switch v := stmts[i].(type) {
		case *ast.Decorator:
			group, consumed, err := r.expandDecoratorGroup(v, stmts, i, depth)
			if err != nil {
				return nil, err
			}
			out = append(out, group...)
			i += consumed
		case *ast.LabeledStatement:
			group, consumed, err := r.expandLabeledGroup(v, stmts, i, depth)
			if err != nil {
				return nil, err
			}
			out = append(out, group...)
			i += consumed
		default:
			s, err := r.expandStmt(stmts[i], depth)
			if err != nil {
				return nil, err
			}
			out = append(out, s)
			i++
		}
	}
	return out, nil
}

func targetKindOf(s ast.Stmt) (registry.TargetKind, bool) {
	switch s.(type) {
	case *ast.FuncDecl:
		return registry.TargetFunction, true
	case *ast.ClassDecl:
		return registry.TargetClass, true
	case *ast.InterfaceDecl:
		return registry.TargetInterface, true
	case *ast.TypeAliasDecl:
		return registry.TargetTypeAlias, true
	case *ast.EnumDecl:
		return registry.TargetEnum, true
	case *ast.VarDecl:
		return registry.TargetVarDecl, true
	default:
		return 0, false
	}
}

// expandDecoratorGroup handles `@name(...)` immediately followed by the
// declaration it decorates (spec.md §4.7 "a decorator whose name
// resolves to a registered attribute macro" / "a decorator of a fixed
// surface name derive"). It returns the replacement statements and how
// many entries of stmts it consumed.
func (r *run) expandDecoratorGroup(dec *ast.Decorator, stmts []ast.Stmt, i int, depth int) ([]ast.Stmt, int, error) {
	args, err := r.expandExprSlice(dec.Args, depth+1)
	if err != nil {
		return nil, 0, err
	}
	passthroughDec := &ast.Decorator{Name: dec.Name, Args: args, Target: dec.Target}

	if i+1 >= len(stmts) {
		return []ast.Stmt{passthroughDec}, 1, nil
	}
	target, err := r.expandStmt(stmts[i+1], depth+1)
	if err != nil {
		return nil, 0, err
	}

	if dec.Name == "derive" {
		return r.expandDeriveGroup(passthroughDec, args, target, depth)
	}
	return r.expandAttributeGroup(passthroughDec, args, target, depth)
}

func (r *run) expandDeriveGroup(dec *ast.Decorator, args []ast.Expr, target ast.Stmt, depth int) ([]ast.Stmt, int, error) {
	if r.optedOut(dec, scope.FeatureDerive) {
		return []ast.Stmt{dec, target}, 2, nil
	}
	if len(args) == 0 {
		return []ast.Stmt{dec, target}, 2, nil
	}
	name, ok := args[0].(*ast.Identifier)
	if !ok {
		return []ast.Stmt{dec, target}, 2, nil
	}
	def, ok := r.lookupMacro(registry.KindDerive, name.Name)
	if !ok {
		return []ast.Stmt{dec, target}, 2, nil
	}
	macro := def.(*registry.DeriveMacro)

	result, err := hygiene.WithScope(r.hy, func(*hygiene.Scope) ([]ast.Stmt, error) {
		ctx := r.newContext(dec, def)
		return macro.Callback(ctx, target, nil)
	})
	if err != nil {
		metrics.RecordExpansionFailure()
		r.bus.Report(diag.New(diag.ExpMacroCallbackFailed, r.diagPos(dec), err.Error()))
		return []ast.Stmt{dec, target}, 2, nil
	}
	metrics.RecordExpansion()

	r.globalCount++
	if r.globalCount > r.maxGlobal {
		r.bus.Report(diag.New(diag.ExpIterationsExceeded, r.diagPos(dec), "file exceeded the global expansion budget"))
		return append([]ast.Stmt{target}, result...), 2, nil
	}
	expanded, err := r.expandStmtList(result, depth+1)
	if err != nil {
		return nil, 0, err
	}
	return append([]ast.Stmt{target}, expanded...), 2, nil
}

func (r *run) expandAttributeGroup(dec *ast.Decorator, args []ast.Expr, target ast.Stmt, depth int) ([]ast.Stmt, int, error) {
	if r.optedOut(dec, scope.FeatureMacros) {
		return []ast.Stmt{dec, target}, 2, nil
	}
	def, ok := r.lookupMacro(registry.KindAttribute, dec.Name)
	if !ok {
		return []ast.Stmt{dec, target}, 2, nil
	}
	macro := def.(*registry.AttributeMacro)

	kind, ok := targetKindOf(target)
	if !ok || !macro.ValidTargets[kind] {
		r.bus.Report(diag.New(diag.ExpKindMismatch, r.diagPos(dec), "attribute macro is not valid for this declaration kind"))
		return []ast.Stmt{dec, target}, 2, nil
	}

	result, err := hygiene.WithScope(r.hy, func(*hygiene.Scope) ([]ast.Node, error) {
		ctx := r.newContext(dec, def)
		return macro.Callback(ctx, dec, target, args)
	})
	if err != nil {
		metrics.RecordExpansionFailure()
		r.bus.Report(diag.New(diag.ExpMacroCallbackFailed, r.diagPos(dec), err.Error()))
		return []ast.Stmt{dec, target}, 2, nil
	}
	metrics.RecordExpansion()

	r.globalCount++
	if r.globalCount > r.maxGlobal {
		r.bus.Report(diag.New(diag.ExpIterationsExceeded, r.diagPos(dec), "file exceeded the global expansion budget"))
		return nodesToStmts(result), 2, nil
	}
	expanded, err := r.expandStmtList(nodesToStmts(result), depth+1)
	if err != nil {
		return nil, 0, err
	}
	return expanded, 2, nil
}

func nodesToStmts(nodes []ast.Node) []ast.Stmt {
	out := make([]ast.Stmt, 0, len(nodes))
	for _, n := range nodes {
		if s, ok := n.(ast.Stmt); ok {
			out = append(out, s)
		}
	}
	return out
}

// expandLabeledGroup handles a labeled statement, consuming any
// following labeled statements whose label is one of the macro's
// declared continuation labels (spec.md §4.7 "continuation labels
// consume following labeled statements").
func (r *run) expandLabeledGroup(main *ast.LabeledStatement, stmts []ast.Stmt, i int, depth int) ([]ast.Stmt, int, error) {
	body, err := r.expandStmt(main.Body, depth+1)
	if err != nil {
		return nil, 0, err
	}
	expandedMain := &ast.LabeledStatement{Label: main.Label, Body: body}

	if r.optedOut(main, scope.FeatureMacros) {
		return []ast.Stmt{expandedMain}, 1, nil
	}
	def, ok := r.lookupMacro(registry.KindLabeledBlock, main.Label)
	if !ok {
		return []ast.Stmt{expandedMain}, 1, nil
	}
	macro := def.(*registry.LabeledBlockMacro)

	contSet := make(map[string]bool, len(macro.ContinuationLabels))
	for _, l := range macro.ContinuationLabels {
		contSet[l] = true
	}

	consumed := 1
	var continuations []*ast.LabeledStatement
	j := i + 1
	for j < len(stmts) {
		ls, ok := stmts[j].(*ast.LabeledStatement)
		if !ok || !contSet[ls.Label] {
			break
		}
		contBody, err := r.expandStmt(ls.Body, depth+1)
		if err != nil {
			return nil, 0, err
		}
		continuations = append(continuations, &ast.LabeledStatement{Label: ls.Label, Body: contBody})
		j++
		consumed++
	}

	result, err := hygiene.WithScope(r.hy, func(*hygiene.Scope) ([]ast.Stmt, error) {
		ctx := r.newContext(main, def)
		return macro.Callback(ctx, expandedMain, continuations)
	})
	if err != nil {
		metrics.RecordExpansionFailure()
		r.bus.Report(diag.New(diag.ExpMacroCallbackFailed, r.diagPos(main), err.Error()))
		fallback := []ast.Stmt{expandedMain}
		for _, c := range continuations {
			fallback = append(fallback, c)
		}
		return fallback, consumed, nil
	}
	metrics.RecordExpansion()

	r.globalCount++
	if r.globalCount > r.maxGlobal {
		r.bus.Report(diag.New(diag.ExpIterationsExceeded, r.diagPos(main), "file exceeded the global expansion budget"))
		return result, consumed, nil
	}
	expanded, err := r.expandStmtList(result, depth+1)
	if err != nil {
		return nil, 0, err
	}
	return expanded, consumed, nil
}
