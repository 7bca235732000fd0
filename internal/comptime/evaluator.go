package comptime

import (
	"sort"

	"github.com/typesugar/typesugar/internal/ast"
)

// Evaluator is the default comptime evaluation surface a MacroContext
// delegates to (spec.md §6 "is_comptime", "evaluate",
// "comptime_value_to_expression"). It satisfies internal/registry's
// Evaluator interface structurally; registry never imports this
// package.
type Evaluator struct {
	Budget  int
	Env     map[string]Value
	Sandbox *SandboxEvaluator // nil if no sandboxed tier is configured
}

func NewEvaluator(budget int, env map[string]Value) *Evaluator {
	return &Evaluator{Budget: budget, Env: env}
}

// IsComptime reports whether node is foldable by the pure evaluator
// without attempting the fold (a cheap structural check so dispatch
// code can decide whether to call Evaluate at all).
func (e *Evaluator) IsComptime(node ast.Node) bool {
	switch n := node.(type) {
	case *ast.Literal:
		return true
	case *ast.Identifier:
		_, ok := e.Env[n.Name]
		return ok
	case *ast.UnaryExpr:
		return e.IsComptime(n.Operand)
	case *ast.BinaryExpr:
		return e.IsComptime(n.Left) && e.IsComptime(n.Right)
	case *ast.ConditionalExpr:
		return e.IsComptime(n.Cond) && e.IsComptime(n.Then) && e.IsComptime(n.Otherwise)
	case *ast.ArrayLiteral:
		for _, el := range n.Elements {
			if !e.IsComptime(el) {
				return false
			}
		}
		return true
	case *ast.ObjectLiteral:
		for _, p := range n.Properties {
			if p.Spread || p.Computed != nil || !e.IsComptime(p.Value) {
				return false
			}
		}
		return true
	case *ast.PropertyAccess:
		if n.Computed != nil {
			return e.IsComptime(n.Object) && e.IsComptime(n.Computed)
		}
		return e.IsComptime(n.Object)
	case *ast.Call:
		path, ok := dottedPath(n.Callee)
		if !ok {
			return false
		}
		if _, ok := pureBuiltins[path]; !ok {
			if _, ok := nonDeterministicBuiltins[path]; !ok {
				return false
			}
		}
		for _, a := range n.Args {
			if !e.IsComptime(a) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Evaluate folds node via a fresh PureEvaluator (spec.md §6
// "evaluate(node) -> comptime value"). It never invokes the sandboxed
// tier — that tier operates on host source text, not AST nodes, and is
// reached explicitly via Sandbox.Run from a comptime(fn)-block macro.
// cacheable mirrors the calling macro's registry.Common.Cacheable
// (spec.md §4.5): when true, folding rejects the whitelisted
// non-deterministic time/env/net primitives instead of evaluating
// them, since a cached result would otherwise freeze a value that was
// never guaranteed to stay the same.
func (e *Evaluator) Evaluate(node ast.Node, cacheable bool) (any, error) {
	pe := NewPureEvaluator(e.Budget, e.Env)
	pe.Cacheable = cacheable
	return pe.Eval(node)
}

// ValueToExpression converts a folded comptime value back into an AST
// expression via the given factory (spec.md §6
// "comptime_value_to_expression").
func (e *Evaluator) ValueToExpression(f ast.Factory, value any) (ast.Expr, error) {
	v, ok := value.(Value)
	if !ok {
		return nil, newError(ConversionError, "expected a comptime.Value, got %T", value)
	}
	return valueToExpr(f, v)
}

func valueToExpr(f ast.Factory, v Value) (ast.Expr, error) {
	switch v.Kind {
	case KindNumber:
		return f.NumberLiteral(v.Number), nil
	case KindString:
		return f.StringLiteral(v.Str), nil
	case KindBool:
		return f.BoolLiteral(v.Bool), nil
	case KindNull:
		return f.NullLiteral(), nil
	case KindUndefined:
		return f.UndefinedLiteral(), nil
	case KindArray:
		elems := make([]ast.Expr, len(v.Array))
		for i, el := range v.Array {
			e, err := valueToExpr(f, el)
			if err != nil {
				return nil, err
			}
			elems[i] = e
		}
		return f.ArrayLiteral(elems...), nil
	case KindBigInt:
		return f.BigIntLiteral(v.BigInt), nil
	case KindObject:
		keys := make([]string, 0, len(v.Object))
		for k := range v.Object {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		props := make([]*ast.ObjectProperty, 0, len(v.Object))
		for _, k := range keys {
			e, err := valueToExpr(f, v.Object[k])
			if err != nil {
				return nil, err
			}
			props = append(props, &ast.ObjectProperty{Key: k, Value: e})
		}
		return f.ObjectLiteral(props...), nil
	default:
		return nil, newError(ConversionError, "comptime value of kind %v cannot be re-expressed as an AST node", v.Kind)
	}
}
