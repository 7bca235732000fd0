// Package pattern implements the declarative Pattern Matcher (spec.md
// §4.6): macros authored as pattern/template pairs, matched and
// expanded without a callback.
//
// Grounded on internal/elaborate/patterns.go's elaboratePattern
// exhaustive type-switch recursion and internal/elaborate/
// exhaustiveness.go's structural walk over pattern trees, retargeted
// from surface-language patterns onto macro fragment patterns
// (internal/ast/ast_patterns.go's FragmentVar).
package pattern

import "github.com/typesugar/typesugar/internal/ast"

// Binding is what a fragment variable captures: either a single
// sub-tree, or (for a `$(...)*` repeated group) a list of sub-trees.
type Binding struct {
	Node  ast.Node
	Nodes []ast.Node
	Multi bool
}

// Bindings accumulates fragment captures across one match attempt.
type Bindings map[string]Binding

func (b Bindings) bindSingle(name string, node ast.Node) bool {
	if existing, ok := b[name]; ok {
		if existing.Multi {
			return false
		}
		return structurallyEqual(existing.Node, node)
	}
	b[name] = Binding{Node: node}
	return true
}

func (b Bindings) appendMulti(name string, node ast.Node) {
	existing := b[name]
	existing.Multi = true
	existing.Nodes = append(existing.Nodes, node)
	b[name] = existing
}
