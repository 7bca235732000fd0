package pattern

import "github.com/typesugar/typesugar/internal/ast"

// structurallyEqual compares two sub-trees ignoring source position,
// used to enforce "same-named variables in one pattern must bind
// structurally-equal sub-trees" (spec.md §4.6).
func structurallyEqual(a, b ast.Node) bool {
	return ast.Golden(a) == ast.Golden(b)
}

// Match attempts to bind pattern against input, a greedy left-to-right
// structural walk (spec.md §4.6). It records bindings into b as it goes
// and reports whether the whole pattern matched.
func Match(p ast.Node, input ast.Node, b Bindings) bool {
	if p == nil {
		return input == nil
	}
	if frag, ok := p.(*ast.FragmentVar); ok {
		return bindFragment(frag, input, b)
	}
	if input == nil {
		return false
	}

	switch pt := p.(type) {
	case *ast.Identifier:
		it, ok := input.(*ast.Identifier)
		return ok && it.Name == pt.Name

	case *ast.Literal:
		it, ok := input.(*ast.Literal)
		return ok && pt.Kind == it.Kind && literalEqual(pt.Value, it.Value)

	case *ast.Call:
		it, ok := input.(*ast.Call)
		return ok && Match(pt.Callee, it.Callee, b) && matchExprList(pt.Args, it.Args, b)

	case *ast.PropertyAccess:
		it, ok := input.(*ast.PropertyAccess)
		if !ok || pt.Property != it.Property {
			return false
		}
		if pt.Computed != nil || it.Computed != nil {
			return Match(pt.Computed, it.Computed, b) && Match(pt.Object, it.Object, b)
		}
		return Match(pt.Object, it.Object, b)

	case *ast.ArrayLiteral:
		it, ok := input.(*ast.ArrayLiteral)
		return ok && matchExprList(pt.Elements, it.Elements, b)

	case *ast.ExprStatement:
		it, ok := input.(*ast.ExprStatement)
		return ok && Match(pt.Expr, it.Expr, b)

	case *ast.Block:
		it, ok := input.(*ast.Block)
		return ok && matchStmtList(pt.Statements, it.Statements, b)

	case *ast.TaggedTemplate:
		it, ok := input.(*ast.TaggedTemplate)
		return ok && Match(pt.Tag, it.Tag, b) && Match(pt.Template, it.Template, b)

	case *ast.TemplateLiteral:
		it, ok := input.(*ast.TemplateLiteral)
		if !ok || len(pt.Quasis) != len(it.Quasis) {
			return false
		}
		for i := range pt.Quasis {
			if pt.Quasis[i] != it.Quasis[i] {
				return false
			}
		}
		return matchExprList(pt.Expressions, it.Expressions, b)

	case *ast.LabeledStatement:
		it, ok := input.(*ast.LabeledStatement)
		return ok && pt.Label == it.Label && Match(pt.Body, it.Body, b)

	case *ast.TypeReference:
		it, ok := input.(*ast.TypeReference)
		if !ok || pt.Name != it.Name || len(pt.TypeArgs) != len(it.TypeArgs) {
			return false
		}
		for i := range pt.TypeArgs {
			if !Match(pt.TypeArgs[i], it.TypeArgs[i], b) {
				return false
			}
		}
		return true

	default:
		// No special-cased shape (e.g. Decorator, VarDecl): fall back to
		// a structural-equality check via the deterministic printer.
		return structurallyEqual(p, input)
	}
}

func literalEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a == b
}

// matchExprList matches a pattern expression list against an input
// list. A single trailing FragmentVar with Repeated set consumes every
// remaining input element, each bound independently into that
// variable's Nodes (spec.md §4.6 "Repeated groups bind lists").
func matchExprList(pats []ast.Expr, inputs []ast.Expr, b Bindings) bool {
	generic := make([]ast.Node, len(pats))
	for i, p := range pats {
		generic[i] = p
	}
	genericIn := make([]ast.Node, len(inputs))
	for i, in := range inputs {
		genericIn[i] = in
	}
	return matchNodeList(generic, genericIn, b)
}

func matchStmtList(pats []ast.Stmt, inputs []ast.Stmt, b Bindings) bool {
	generic := make([]ast.Node, len(pats))
	for i, p := range pats {
		generic[i] = p
	}
	genericIn := make([]ast.Node, len(inputs))
	for i, in := range inputs {
		genericIn[i] = in
	}
	return matchNodeList(generic, genericIn, b)
}

func matchNodeList(pats []ast.Node, inputs []ast.Node, b Bindings) bool {
	for i, p := range pats {
		if frag, ok := p.(*ast.FragmentVar); ok && frag.Repeated {
			if i != len(pats)-1 {
				// Only trailing repeated groups are supported; a repeated
				// group followed by more fixed elements has no unambiguous
				// greedy split without lookahead the pattern doesn't supply.
				return false
			}
			for _, rest := range inputs[i:] {
				if !bindFragment(frag, rest, b) {
					return false
				}
			}
			return true
		}
		if i >= len(inputs) {
			return false
		}
		if !Match(p, inputs[i], b) {
			return false
		}
	}
	return len(pats) == len(inputs)
}

// bindFragment checks that input is shape-compatible with frag's
// FragmentKind, then records the binding (single or repeated).
func bindFragment(frag *ast.FragmentVar, input ast.Node, b Bindings) bool {
	if input == nil {
		return false
	}
	if !fragmentKindAccepts(frag.Kind, input) {
		return false
	}
	if frag.Repeated {
		b.appendMulti(frag.Name, input)
		return true
	}
	return b.bindSingle(frag.Name, input)
}

func fragmentKindAccepts(k ast.FragmentKind, n ast.Node) bool {
	switch k {
	case ast.FragExpr:
		_, ok := n.(ast.Expr)
		return ok
	case ast.FragIdent:
		_, ok := n.(*ast.Identifier)
		return ok
	case ast.FragStmt:
		_, ok := n.(ast.Stmt)
		return ok
	case ast.FragType:
		_, ok := n.(ast.TypeNode)
		return ok
	case ast.FragLiteral:
		_, ok := n.(*ast.Literal)
		return ok
	case ast.FragPattern:
		_, ok := n.(ast.Pattern)
		return ok
	case ast.FragBlock:
		_, ok := n.(*ast.Block)
		return ok
	default:
		return false
	}
}
