package pattern

import (
	"fmt"

	"github.com/typesugar/typesugar/internal/ast"
	"github.com/typesugar/typesugar/internal/hygiene"
)

// Expand substitutes bound fragments into template, producing a new
// AST. It runs inside a fresh hygiene scope (spec.md §4.6 "Expansion
// runs inside a fresh hygiene scope automatically"): plain identifiers
// the template introduces via a `const`/`let` binding pattern or arrow
// parameter are hygienically mangled so two expansions of the same
// macro never collide; identifiers the template uses only in reference
// position, and every fragment-bound sub-tree, pass through unchanged
// (spec.md §4.1 "create_unhygienic_identifier ... intentional
// capture").
func Expand(hy *hygiene.Context, template ast.Node, b Bindings) (ast.Node, error) {
	return hygiene.WithScope(hy, func(_ *hygiene.Scope) (ast.Node, error) {
		rename := map[string]string{}
		collectIntroducedNames(template, hy, rename)
		return substitute(template, b, rename)
	})
}

// collectIntroducedNames finds the plain (non-fragment) names the
// template binds via `const`/`let`/`var` or an arrow parameter, and
// mints each a hygienic replacement for the rest of the pass.
func collectIntroducedNames(node ast.Node, hy *hygiene.Context, rename map[string]string) {
	switch n := node.(type) {
	case *ast.VarDecl:
		if bp, ok := n.Pattern.(*ast.BindingPattern); ok {
			if _, exists := rename[bp.Name]; !exists {
				rename[bp.Name] = hy.MangleName(bp.Name)
			}
		}
		collectIntroducedNames(n.Init, hy, rename)
	case *ast.ArrowFunction:
		for _, p := range n.Params {
			if _, exists := rename[p.Name]; !exists {
				rename[p.Name] = hy.MangleName(p.Name)
			}
		}
		collectIntroducedNames(n.Body, hy, rename)
	case *ast.Block:
		for _, s := range n.Statements {
			collectIntroducedNames(s, hy, rename)
		}
	case *ast.ExprStatement:
		collectIntroducedNames(n.Expr, hy, rename)
	case *ast.Call:
		collectIntroducedNames(n.Callee, hy, rename)
		for _, a := range n.Args {
			collectIntroducedNames(a, hy, rename)
		}
	}
}

func substitute(node ast.Node, b Bindings, rename map[string]string) (ast.Node, error) {
	if node == nil {
		return nil, nil
	}
	if frag, ok := node.(*ast.FragmentVar); ok {
		if frag.Repeated {
			return nil, fmt.Errorf("pattern: repeated fragment %q used outside of a list context", frag.Name)
		}
		bind, ok := b[frag.Name]
		if !ok || bind.Multi {
			return nil, fmt.Errorf("pattern: no single binding for fragment %q", frag.Name)
		}
		return bind.Node, nil
	}

	switch n := node.(type) {
	case *ast.Identifier:
		if mangled, ok := rename[n.Name]; ok {
			return ast.NewIdentifier(mangled, ast.Span{}), nil
		}
		return ast.NewIdentifier(n.Name, ast.Span{}), nil

	case *ast.Literal:
		return ast.NewLiteral(n.Kind, n.Value, ast.Span{}), nil

	case *ast.Call:
		callee, err := substituteExpr(n.Callee, b, rename)
		if err != nil {
			return nil, err
		}
		args, err := substituteExprList(n.Args, b, rename)
		if err != nil {
			return nil, err
		}
		return ast.NewCall(callee, args, ast.Span{}), nil

	case *ast.PropertyAccess:
		obj, err := substituteExpr(n.Object, b, rename)
		if err != nil {
			return nil, err
		}
		if n.Computed != nil {
			computed, err := substituteExpr(n.Computed, b, rename)
			if err != nil {
				return nil, err
			}
			out := &ast.PropertyAccess{Object: obj, Computed: computed}
			ast.Attach(out, obj)
			ast.Attach(out, computed)
			return out, nil
		}
		out := &ast.PropertyAccess{Object: obj, Property: n.Property}
		ast.Attach(out, obj)
		return out, nil

	case *ast.ArrayLiteral:
		elems, err := substituteExprList(n.Elements, b, rename)
		if err != nil {
			return nil, err
		}
		out := &ast.ArrayLiteral{Elements: elems}
		for _, e := range elems {
			ast.Attach(out, e)
		}
		return out, nil

	case *ast.ExprStatement:
		e, err := substituteExpr(n.Expr, b, rename)
		if err != nil {
			return nil, err
		}
		out := &ast.ExprStatement{Expr: e}
		ast.Attach(out, e)
		return out, nil

	case *ast.Block:
		stmts, err := substituteStmtList(n.Statements, b, rename)
		if err != nil {
			return nil, err
		}
		out := &ast.Block{Statements: stmts}
		for _, s := range stmts {
			ast.Attach(out, s)
		}
		return out, nil

	case *ast.TaggedTemplate:
		tag, err := substituteExpr(n.Tag, b, rename)
		if err != nil {
			return nil, err
		}
		tmpl, err := substitute(n.Template, b, rename)
		if err != nil {
			return nil, err
		}
		tmplLit, ok := tmpl.(*ast.TemplateLiteral)
		if !ok {
			return nil, fmt.Errorf("pattern: tagged template substitution did not yield a template literal")
		}
		out := &ast.TaggedTemplate{Tag: tag, Template: tmplLit}
		ast.Attach(out, tag)
		ast.Attach(out, tmplLit)
		return out, nil

	case *ast.TemplateLiteral:
		exprs, err := substituteExprList(n.Expressions, b, rename)
		if err != nil {
			return nil, err
		}
		out := &ast.TemplateLiteral{Quasis: append([]string{}, n.Quasis...), Expressions: exprs}
		for _, e := range exprs {
			ast.Attach(out, e)
		}
		return out, nil

	case *ast.LabeledStatement:
		body, err := substituteStmt(n.Body, b, rename)
		if err != nil {
			return nil, err
		}
		out := &ast.LabeledStatement{Label: n.Label, Body: body}
		ast.Attach(out, body)
		return out, nil

	case *ast.TypeReference:
		args := make([]ast.TypeNode, len(n.TypeArgs))
		for i, a := range n.TypeArgs {
			sub, err := substitute(a, b, rename)
			if err != nil {
				return nil, err
			}
			tn, ok := sub.(ast.TypeNode)
			if !ok {
				return nil, fmt.Errorf("pattern: type-reference argument %d did not substitute to a type node", i)
			}
			args[i] = tn
		}
		return &ast.TypeReference{Name: n.Name, TypeArgs: args}, nil

	case *ast.VarDecl:
		pattern := n.Pattern
		if bp, ok := n.Pattern.(*ast.BindingPattern); ok {
			name := bp.Name
			if mangled, ok := rename[bp.Name]; ok {
				name = mangled
			}
			pattern = &ast.BindingPattern{Name: name}
		}
		init, err := substituteExpr(n.Init, b, rename)
		if err != nil {
			return nil, err
		}
		out := &ast.VarDecl{Kind: n.Kind, Pattern: pattern, Type: n.Type, Init: init}
		ast.Attach(out, init)
		return out, nil

	case *ast.ArrowFunction:
		params := make([]*ast.Param, len(n.Params))
		for i, p := range n.Params {
			params[i] = &ast.Param{Name: p.Name, Type: p.Type, Default: p.Default}
			if mangled, ok := rename[p.Name]; ok {
				params[i].Name = mangled
			}
		}
		body, err := substitute(n.Body, b, rename)
		if err != nil {
			return nil, err
		}
		out := &ast.ArrowFunction{Params: params, Body: body, IsAsync: n.IsAsync}
		ast.Attach(out, body)
		return out, nil

	default:
		if !containsFragment(node) {
			return node, nil
		}
		return nil, fmt.Errorf("pattern: node type %T is not supported as a macro template shape", node)
	}
}

func substituteExpr(e ast.Expr, b Bindings, rename map[string]string) (ast.Expr, error) {
	n, err := substitute(e, b, rename)
	if err != nil {
		return nil, err
	}
	expr, ok := n.(ast.Expr)
	if !ok {
		return nil, fmt.Errorf("pattern: substituted node is not an expression")
	}
	return expr, nil
}

func substituteStmt(s ast.Stmt, b Bindings, rename map[string]string) (ast.Stmt, error) {
	n, err := substitute(s, b, rename)
	if err != nil {
		return nil, err
	}
	stmt, ok := n.(ast.Stmt)
	if !ok {
		return nil, fmt.Errorf("pattern: substituted node is not a statement")
	}
	return stmt, nil
}

// substituteExprList mirrors matchExprList's repeated-group handling in
// reverse: a trailing FragmentVar with Repeated splices every bound
// repetition in place.
func substituteExprList(pats []ast.Expr, b Bindings, rename map[string]string) ([]ast.Expr, error) {
	var out []ast.Expr
	for i, p := range pats {
		if frag, ok := p.(*ast.FragmentVar); ok && frag.Repeated {
			if i != len(pats)-1 {
				return nil, fmt.Errorf("pattern: repeated fragment %q must be the last element of its list", frag.Name)
			}
			bind, ok := b[frag.Name]
			if !ok || !bind.Multi {
				return nil, fmt.Errorf("pattern: no repeated binding for fragment %q", frag.Name)
			}
			for _, n := range bind.Nodes {
				e, ok := n.(ast.Expr)
				if !ok {
					return nil, fmt.Errorf("pattern: repeated binding for %q is not an expression", frag.Name)
				}
				out = append(out, e)
			}
			return out, nil
		}
		e, err := substituteExpr(p, b, rename)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func substituteStmtList(pats []ast.Stmt, b Bindings, rename map[string]string) ([]ast.Stmt, error) {
	var out []ast.Stmt
	for i, p := range pats {
		if frag, ok := p.(*ast.FragmentVar); ok && frag.Repeated {
			if i != len(pats)-1 {
				return nil, fmt.Errorf("pattern: repeated fragment %q must be the last element of its list", frag.Name)
			}
			bind, ok := b[frag.Name]
			if !ok || !bind.Multi {
				return nil, fmt.Errorf("pattern: no repeated binding for fragment %q", frag.Name)
			}
			for _, n := range bind.Nodes {
				s, ok := n.(ast.Stmt)
				if !ok {
					return nil, fmt.Errorf("pattern: repeated binding for %q is not a statement", frag.Name)
				}
				out = append(out, s)
			}
			return out, nil
		}
		s, err := substituteStmt(p, b, rename)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// containsFragment reports whether node or any descendant the rest of
// this package knows how to walk is a fragment variable. Used only to
// let template shapes this package doesn't specially handle pass
// through untouched when they're constant (no fragments to resolve).
func containsFragment(node ast.Node) bool {
	if node == nil {
		return false
	}
	if _, ok := node.(*ast.FragmentVar); ok {
		return true
	}
	switch n := node.(type) {
	case *ast.Call:
		if containsFragment(n.Callee) {
			return true
		}
		for _, a := range n.Args {
			if containsFragment(a) {
				return true
			}
		}
	case *ast.PropertyAccess:
		return containsFragment(n.Object) || containsFragment(n.Computed)
	case *ast.ArrayLiteral:
		for _, e := range n.Elements {
			if containsFragment(e) {
				return true
			}
		}
	case *ast.ExprStatement:
		return containsFragment(n.Expr)
	case *ast.Block:
		for _, s := range n.Statements {
			if containsFragment(s) {
				return true
			}
		}
	case *ast.TaggedTemplate:
		return containsFragment(n.Tag) || containsFragment(n.Template)
	case *ast.TemplateLiteral:
		for _, e := range n.Expressions {
			if containsFragment(e) {
				return true
			}
		}
	case *ast.LabeledStatement:
		return containsFragment(n.Body)
	case *ast.TypeReference:
		for _, a := range n.TypeArgs {
			if containsFragment(a) {
				return true
			}
		}
	case *ast.VarDecl:
		return containsFragment(n.Init)
	}
	return false
}
