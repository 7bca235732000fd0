package pipeline

import (
	"fmt"

	"github.com/typesugar/typesugar/internal/ast"
	"github.com/typesugar/typesugar/internal/diag"
	"github.com/typesugar/typesugar/internal/metrics"
)

// expandNode expands node's children post-order (spec.md §4.7 "Phase 2
// ... post-order walk"), then, if node is itself one of the three
// dispatch sites that can appear anywhere in an expression/type tree
// (call, tagged template, type reference), runs the fixed-point
// dispatch loop at this tree position. Decorator and labeled-statement
// dispatch need sibling context and are handled at the statement-list
// level instead (stmtlist.go).
func (r *run) expandNode(node ast.Node, depth int) (ast.Node, error) {
	if node == nil {
		return nil, nil
	}
	if depth > r.maxDepth {
		r.bus.Report(diag.New(diag.ExpDepthExceeded, r.diagPos(node), "macro expansion depth ceiling exceeded"))
		return node, nil
	}
	if r.cancelled() {
		r.bus.Report(diag.New(diag.ExpCancelled, r.diagPos(node), "expansion cancelled"))
		return node, nil
	}

	node, err := r.expandChildren(node, depth)
	if err != nil {
		return nil, err
	}

	if !isDispatchSite(node) {
		return node, nil
	}

	siteCount := 0
	for {
		if r.cancelled() {
			r.bus.Report(diag.New(diag.ExpCancelled, r.diagPos(node), "expansion cancelled"))
			return node, nil
		}
		replaced, expanded, err := r.tryDispatch(node)
		if err != nil {
			metrics.RecordExpansionFailure()
			r.bus.Report(diag.New(diag.ExpMacroCallbackFailed, r.diagPos(node), err.Error()))
			return node, nil
		}
		if !expanded {
			return node, nil
		}
		metrics.RecordExpansion()
		siteCount++
		r.globalCount++
		if siteCount > r.maxPerSite {
			r.bus.Report(diag.New(diag.ExpPerSiteLimitHit, r.diagPos(node), fmt.Sprintf("macro call site exceeded %d consecutive expansions", r.maxPerSite)))
			return replaced, nil
		}
		if r.globalCount > r.maxGlobal {
			r.bus.Report(diag.New(diag.ExpIterationsExceeded, r.diagPos(node), fmt.Sprintf("file exceeded the global expansion budget of %d", r.maxGlobal)))
			return replaced, nil
		}
		// Re-descend: the expansion output may itself contain further
		// macro invocations (spec.md §4.7 "if the result contains further
		// macro invocations (nested), the pipeline re-descends into it").
		node, err = r.expandChildren(replaced, depth+1)
		if err != nil {
			return nil, err
		}
		if !isDispatchSite(node) {
			return node, nil
		}
	}
}

func isDispatchSite(node ast.Node) bool {
	switch node.(type) {
	case *ast.Call, *ast.TaggedTemplate, *ast.TypeReference:
		return true
	default:
		return false
	}
}

// expandChildren rebuilds node with every child sub-tree expanded, but
// does not itself check whether node is a dispatch site.
func (r *run) expandChildren(node ast.Node, depth int) (ast.Node, error) {
	switch n := node.(type) {
	case *ast.Call:
		callee, err := r.expandExpr(n.Callee, depth+1)
		if err != nil {
			return nil, err
		}
		args, err := r.expandExprSlice(n.Args, depth+1)
		if err != nil {
			return nil, err
		}
		out := &ast.Call{Callee: callee, Args: args, TypeArgs: n.TypeArgs}
		ast.Attach(out, callee)
		for _, a := range args {
			ast.Attach(out, a)
		}
		return out, nil

	case *ast.PropertyAccess:
		obj, err := r.expandExpr(n.Object, depth+1)
		if err != nil {
			return nil, err
		}
		computed, err := r.expandExpr(n.Computed, depth+1)
		if err != nil {
			return nil, err
		}
		out := &ast.PropertyAccess{Object: obj, Property: n.Property, Computed: computed}
		ast.Attach(out, obj)
		ast.Attach(out, computed)
		return out, nil

	case *ast.ArrowFunction:
		params, err := r.expandParams(n.Params, depth+1)
		if err != nil {
			return nil, err
		}
		body, err := r.expandArrowBody(n.Body, depth+1)
		if err != nil {
			return nil, err
		}
		out := &ast.ArrowFunction{Params: params, Body: body, IsAsync: n.IsAsync}
		ast.Attach(out, body)
		return out, nil

	case *ast.ObjectLiteral:
		props := make([]*ast.ObjectProperty, len(n.Properties))
		for i, p := range n.Properties {
			computed, err := r.expandExpr(p.Computed, depth+1)
			if err != nil {
				return nil, err
			}
			value, err := r.expandExpr(p.Value, depth+1)
			if err != nil {
				return nil, err
			}
			props[i] = &ast.ObjectProperty{Key: p.Key, Computed: computed, Value: value, Spread: p.Spread}
		}
		out := &ast.ObjectLiteral{Properties: props}
		for _, p := range props {
			ast.Attach(out, p.Value)
		}
		return out, nil

	case *ast.ArrayLiteral:
		elems, err := r.expandExprSlice(n.Elements, depth+1)
		if err != nil {
			return nil, err
		}
		out := &ast.ArrayLiteral{Elements: elems}
		for _, e := range elems {
			ast.Attach(out, e)
		}
		return out, nil

	case *ast.TemplateLiteral:
		exprs, err := r.expandExprSlice(n.Expressions, depth+1)
		if err != nil {
			return nil, err
		}
		out := &ast.TemplateLiteral{Quasis: n.Quasis, Expressions: exprs}
		for _, e := range exprs {
			ast.Attach(out, e)
		}
		return out, nil

	case *ast.TaggedTemplate:
		tag, err := r.expandExpr(n.Tag, depth+1)
		if err != nil {
			return nil, err
		}
		tmpl, err := r.expandChildren(n.Template, depth+1)
		if err != nil {
			return nil, err
		}
		tmplLit, _ := tmpl.(*ast.TemplateLiteral)
		out := &ast.TaggedTemplate{Tag: tag, Template: tmplLit}
		ast.Attach(out, tag)
		ast.Attach(out, tmplLit)
		return out, nil

	case *ast.ExprStatement:
		e, err := r.expandExpr(n.Expr, depth+1)
		if err != nil {
			return nil, err
		}
		out := &ast.ExprStatement{Expr: e}
		ast.Attach(out, e)
		return out, nil

	case *ast.Block:
		stmts, err := r.expandStmtList(n.Statements, depth+1)
		if err != nil {
			return nil, err
		}
		out := &ast.Block{Statements: stmts}
		for _, s := range stmts {
			ast.Attach(out, s)
		}
		return out, nil

	case *ast.VarDecl:
		init, err := r.expandExpr(n.Init, depth+1)
		if err != nil {
			return nil, err
		}
		out := &ast.VarDecl{Kind: n.Kind, Pattern: n.Pattern, Type: n.Type, Init: init}
		ast.Attach(out, init)
		return out, nil

	case *ast.FuncDecl:
		params, err := r.expandParams(n.Params, depth+1)
		if err != nil {
			return nil, err
		}
		var body *ast.Block
		if n.Body != nil {
			b, err := r.expandChildren(n.Body, depth+1)
			if err != nil {
				return nil, err
			}
			body, _ = b.(*ast.Block)
		}
		out := &ast.FuncDecl{Name: n.Name, Params: params, Body: body, Exports: n.Exports}
		ast.Attach(out, body)
		return out, nil

	case *ast.TypeAliasDecl:
		target, err := r.expandTypeNode(n.Target, depth+1)
		if err != nil {
			return nil, err
		}
		out := &ast.TypeAliasDecl{Name: n.Name, Target: target}
		ast.Attach(out, target)
		return out, nil

	case *ast.TypeReference:
		args := make([]ast.TypeNode, len(n.TypeArgs))
		for i, a := range n.TypeArgs {
			ta, err := r.expandTypeNode(a, depth+1)
			if err != nil {
				return nil, err
			}
			args[i] = ta
		}
		out := &ast.TypeReference{Name: n.Name, TypeArgs: args}
		for _, a := range args {
			ast.Attach(out, a)
		}
		return out, nil

	case *ast.LabeledStatement:
		// Reached only when a LabeledStatement is not itself at the top
		// of a statement list (e.g. synthetic output); its own label
		// dispatch runs at the list level, so only its body recurses here.
		body, err := r.expandStmt(n.Body, depth+1)
		if err != nil {
			return nil, err
		}
		out := &ast.LabeledStatement{Label: n.Label, Body: body}
		ast.Attach(out, body)
		return out, nil

	case *ast.BinaryExpr:
		left, err := r.expandExpr(n.Left, depth+1)
		if err != nil {
			return nil, err
		}
		right, err := r.expandExpr(n.Right, depth+1)
		if err != nil {
			return nil, err
		}
		out := ast.NewBinaryExpr(n.Op, left, right, n.Position())
		return out, nil

	case *ast.UnaryExpr:
		operand, err := r.expandExpr(n.Operand, depth+1)
		if err != nil {
			return nil, err
		}
		out := ast.NewUnaryExpr(n.Op, operand, n.Position())
		return out, nil

	case *ast.ConditionalExpr:
		cond, err := r.expandExpr(n.Cond, depth+1)
		if err != nil {
			return nil, err
		}
		then, err := r.expandExpr(n.Then, depth+1)
		if err != nil {
			return nil, err
		}
		otherwise, err := r.expandExpr(n.Otherwise, depth+1)
		if err != nil {
			return nil, err
		}
		out := &ast.ConditionalExpr{Cond: cond, Then: then, Otherwise: otherwise}
		ast.Attach(out, cond)
		ast.Attach(out, then)
		ast.Attach(out, otherwise)
		return out, nil

	default:
		// Identifier, Literal, ImportDecl, ClassDecl, InterfaceDecl,
		// EnumDecl, NamespaceDecl, Decorator: no macro-bearing children.
		return node, nil
	}
}

func (r *run) expandExpr(e ast.Expr, depth int) (ast.Expr, error) {
	if e == nil {
		return nil, nil
	}
	out, err := r.expandNode(e, depth)
	if err != nil {
		return nil, err
	}
	expr, ok := out.(ast.Expr)
	if !ok {
		return nil, fmt.Errorf("pipeline: expansion of an expression produced a non-expression %T", out)
	}
	return expr, nil
}

func (r *run) expandStmt(s ast.Stmt, depth int) (ast.Stmt, error) {
	if s == nil {
		return nil, nil
	}
	out, err := r.expandNode(s, depth)
	if err != nil {
		return nil, err
	}
	stmt, ok := out.(ast.Stmt)
	if !ok {
		return nil, fmt.Errorf("pipeline: expansion of a statement produced a non-statement %T", out)
	}
	return stmt, nil
}

func (r *run) expandTypeNode(t ast.TypeNode, depth int) (ast.TypeNode, error) {
	if t == nil {
		return nil, nil
	}
	out, err := r.expandNode(t, depth)
	if err != nil {
		return nil, err
	}
	tn, ok := out.(ast.TypeNode)
	if !ok {
		return nil, fmt.Errorf("pipeline: expansion of a type node produced a non-type %T", out)
	}
	return tn, nil
}

func (r *run) expandExprSlice(exprs []ast.Expr, depth int) ([]ast.Expr, error) {
	out := make([]ast.Expr, len(exprs))
	for i, e := range exprs {
		ex, err := r.expandExpr(e, depth)
		if err != nil {
			return nil, err
		}
		out[i] = ex
	}
	return out, nil
}

func (r *run) expandParams(params []*ast.Param, depth int) ([]*ast.Param, error) {
	out := make([]*ast.Param, len(params))
	for i, p := range params {
		def, err := r.expandExpr(p.Default, depth)
		if err != nil {
			return nil, err
		}
		typ, err := r.expandTypeNode(p.Type, depth)
		if err != nil {
			return nil, err
		}
		out[i] = &ast.Param{Name: p.Name, Type: typ, Default: def}
	}
	return out, nil
}

func (r *run) expandArrowBody(body ast.Node, depth int) (ast.Node, error) {
	switch b := body.(type) {
	case *ast.Block:
		return r.expandChildren(b, depth)
	case ast.Expr:
		return r.expandExpr(b, depth)
	default:
		return body, nil
	}
}
