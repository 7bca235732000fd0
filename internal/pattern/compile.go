package pattern

import (
	"fmt"

	"github.com/typesugar/typesugar/internal/ast"
	"github.com/typesugar/typesugar/internal/diag"
	"github.com/typesugar/typesugar/internal/hygiene"
)

// CompiledPattern is a pattern validated once at registration time
// (spec.md §4.6 design note: "a mini compiler" rather than re-walking
// the raw pattern on every match attempt). Validation here is
// structural: every fragment variable name used more than once must be
// used with a consistent FragmentKind. Compile does not check where a
// repeated group sits in its list; Match and Expand reject a repeated
// group that is not the last element of its list.
type CompiledPattern struct {
	Root ast.Node
}

// Compile validates and wraps a pattern AST for repeated matching.
func Compile(p ast.Node) (*CompiledPattern, error) {
	kinds := map[string]ast.FragmentKind{}
	if err := checkFragmentConsistency(p, kinds); err != nil {
		return nil, err
	}
	return &CompiledPattern{Root: p}, nil
}

func checkFragmentConsistency(p ast.Node, kinds map[string]ast.FragmentKind) error {
	if p == nil {
		return nil
	}
	if frag, ok := p.(*ast.FragmentVar); ok {
		if prior, seen := kinds[frag.Name]; seen && prior != frag.Kind {
			return fmt.Errorf("pattern: fragment variable %q used with inconsistent kinds %s and %s", frag.Name, prior, frag.Kind)
		}
		kinds[frag.Name] = frag.Kind
		return nil
	}

	switch pt := p.(type) {
	case *ast.Call:
		if err := checkFragmentConsistency(pt.Callee, kinds); err != nil {
			return err
		}
		for _, a := range pt.Args {
			if err := checkFragmentConsistency(a, kinds); err != nil {
				return err
			}
		}
	case *ast.PropertyAccess:
		if err := checkFragmentConsistency(pt.Object, kinds); err != nil {
			return err
		}
		return checkFragmentConsistency(pt.Computed, kinds)
	case *ast.ArrayLiteral:
		for _, e := range pt.Elements {
			if err := checkFragmentConsistency(e, kinds); err != nil {
				return err
			}
		}
	case *ast.ExprStatement:
		return checkFragmentConsistency(pt.Expr, kinds)
	case *ast.Block:
		for _, s := range pt.Statements {
			if err := checkFragmentConsistency(s, kinds); err != nil {
				return err
			}
		}
	case *ast.TaggedTemplate:
		if err := checkFragmentConsistency(pt.Tag, kinds); err != nil {
			return err
		}
		return checkFragmentConsistency(pt.Template, kinds)
	case *ast.TemplateLiteral:
		for _, e := range pt.Expressions {
			if err := checkFragmentConsistency(e, kinds); err != nil {
				return err
			}
		}
	case *ast.LabeledStatement:
		return checkFragmentConsistency(pt.Body, kinds)
	case *ast.TypeReference:
		for _, a := range pt.TypeArgs {
			if err := checkFragmentConsistency(a, kinds); err != nil {
				return err
			}
		}
	}
	return nil
}

// Arm is one pattern/template pair of a declarative macro.
type Arm struct {
	Pattern  *CompiledPattern
	Template ast.Node
}

// Macro tries its Arms in declaration order; the first successful bind
// wins (spec.md §4.6 "Arm selection"). Ambiguity between arms is
// intentionally silent.
type Macro struct {
	Arms []Arm
}

// TryMatch returns the bindings and the matching arm's template for
// the first arm in declaration order whose pattern matches input.
func (m *Macro) TryMatch(input ast.Node) (Bindings, ast.Node, bool) {
	for _, arm := range m.Arms {
		b := Bindings{}
		if Match(arm.Pattern.Root, input, b) {
			return b, arm.Template, true
		}
	}
	return nil, nil, false
}

// Expand tries every arm in order and substitutes the first match's
// template. When no arm matches, it reports PatNoArmMatched and leaves
// the call site unchanged (spec.md §4.6 "Failure semantics: when no
// arm matches, the macro emits a diagnostic and leaves the call site
// unchanged").
func (m *Macro) Expand(hy *hygiene.Context, bus *diag.Bus, input ast.Node) (ast.Node, error) {
	b, template, ok := m.TryMatch(input)
	if !ok {
		bus.Report(diag.New(diag.PatNoArmMatched, input.Position(), "no pattern arm matched this macro invocation"))
		return input, nil
	}
	return Expand(hy, template, b)
}
