package comptime

import (
	"encoding/json"
	"math"
	"net"
	"os"
	"time"

	"github.com/typesugar/typesugar/internal/ast"
)

// pureBuiltins is the whitelisted set of total, pure built-in functions
// the pure evaluator may call (spec.md §4.5 "Math.*, JSON.parse/
// stringify, string and number methods that are total and pure"),
// keyed by dotted callee path (e.g. "Math.sqrt").
var pureBuiltins = map[string]func(args []Value) (Value, error){
	"Math.sqrt": func(a []Value) (Value, error) { return Number(math.Sqrt(a[0].Number)), nil },
	"Math.abs":  func(a []Value) (Value, error) { return Number(math.Abs(a[0].Number)), nil },
	"Math.floor": func(a []Value) (Value, error) { return Number(math.Floor(a[0].Number)), nil },
	"Math.ceil": func(a []Value) (Value, error) { return Number(math.Ceil(a[0].Number)), nil },
	"Math.round": func(a []Value) (Value, error) { return Number(math.Round(a[0].Number)), nil },
	"Math.pow":  func(a []Value) (Value, error) { return Number(math.Pow(a[0].Number, a[1].Number)), nil },
	"Math.max":  func(a []Value) (Value, error) { return Number(math.Max(a[0].Number, a[1].Number)), nil },
	"Math.min":  func(a []Value) (Value, error) { return Number(math.Min(a[0].Number, a[1].Number)), nil },
	"JSON.stringify": func(a []Value) (Value, error) {
		raw, err := valueToJSON(a[0])
		if err != nil {
			return Value{}, newError(RuntimeError, "JSON.stringify: %v", err)
		}
		enc, err := json.Marshal(raw)
		if err != nil {
			return Value{}, newError(RuntimeError, "JSON.stringify: %v", err)
		}
		return Str(string(enc)), nil
	},
	"JSON.parse": func(a []Value) (Value, error) {
		var raw any
		if err := json.Unmarshal([]byte(a[0].Str), &raw); err != nil {
			return Value{}, newError(RuntimeError, "JSON.parse: %v", err)
		}
		return jsonToValue(raw), nil
	},
}

// nonDeterministicBuiltins are the whitelisted time/env/net primitives
// spec.md §4.5 carves out of the determinism guarantee ("deterministic
// modulo explicitly non-deterministic whitelisted primitives (time,
// env, net)"). A non-cacheable macro may call these; a cacheable one
// may not (see PureEvaluator.evalCall).
var nonDeterministicBuiltins = map[string]func(args []Value) (Value, error){
	"Date.now": func(a []Value) (Value, error) {
		return Number(float64(time.Now().UnixMilli())), nil
	},
	"Env.get": func(a []Value) (Value, error) {
		if len(a) != 1 || a[0].Kind != KindString {
			return Value{}, newError(ConversionError, "Env.get expects a single string argument")
		}
		return Str(os.Getenv(a[0].Str)), nil
	},
	"Net.hostResolves": func(a []Value) (Value, error) {
		if len(a) != 1 || a[0].Kind != KindString {
			return Value{}, newError(ConversionError, "Net.hostResolves expects a single string argument")
		}
		_, err := net.LookupHost(a[0].Str)
		return Bool(err == nil), nil
	},
}

// PureEvaluator folds literals and a bounded pure AST subset directly,
// with no side effects and no host execution (spec.md §4.5 tier 1). A
// fresh PureEvaluator is expected per evaluation; Budget is consumed as
// nodes are visited.
type PureEvaluator struct {
	Budget int
	spent  int
	Env    map[string]Value // bindings available to Identifier lookups

	// Cacheable mirrors the calling macro's registry.Common.Cacheable
	// (spec.md §4.5). When true, a call to a nonDeterministicBuiltins
	// entry is rejected rather than evaluated.
	Cacheable bool
}

// NewPureEvaluator constructs an evaluator with the given node-visit
// budget (spec.md default 100,000).
func NewPureEvaluator(budget int, env map[string]Value) *PureEvaluator {
	if budget <= 0 {
		budget = 100_000
	}
	return &PureEvaluator{Budget: budget, Env: env}
}

func (p *PureEvaluator) tick() error {
	p.spent++
	if p.spent > p.Budget {
		return newError(Overflow, "comptime node-visit budget (%d) exceeded", p.Budget)
	}
	return nil
}

// Eval folds node into a comptime Value, or returns a typed *Error.
func (p *PureEvaluator) Eval(node ast.Node) (Value, error) {
	if err := p.tick(); err != nil {
		return Value{}, err
	}
	switch n := node.(type) {
	case *ast.Literal:
		return literalToValue(n)
	case *ast.Identifier:
		if v, ok := p.Env[n.Name]; ok {
			return v, nil
		}
		return Value{}, newError(NotEvaluable, "identifier %q has no comptime binding", n.Name)
	case *ast.UnaryExpr:
		return p.evalUnary(n)
	case *ast.BinaryExpr:
		return p.evalBinary(n)
	case *ast.ConditionalExpr:
		cond, err := p.Eval(n.Cond)
		if err != nil {
			return Value{}, err
		}
		if cond.Truthy() {
			return p.Eval(n.Then)
		}
		return p.Eval(n.Otherwise)
	case *ast.ArrayLiteral:
		elems := make([]Value, len(n.Elements))
		for i, e := range n.Elements {
			v, err := p.Eval(e)
			if err != nil {
				return Value{}, err
			}
			elems[i] = v
		}
		return Array(elems), nil
	case *ast.ObjectLiteral:
		fields := map[string]Value{}
		for _, prop := range n.Properties {
			if prop.Spread || prop.Computed != nil {
				return Value{}, newError(NotEvaluable, "comptime object literal does not support spread/computed keys")
			}
			v, err := p.Eval(prop.Value)
			if err != nil {
				return Value{}, err
			}
			fields[prop.Key] = v
		}
		return Object(fields), nil
	case *ast.PropertyAccess:
		return p.evalPropertyAccess(n)
	case *ast.Call:
		return p.evalCall(n)
	default:
		return Value{}, newError(NotEvaluable, "node type %T is not comptime-evaluable", node)
	}
}

func (p *PureEvaluator) evalUnary(n *ast.UnaryExpr) (Value, error) {
	v, err := p.Eval(n.Operand)
	if err != nil {
		return Value{}, err
	}
	switch n.Op {
	case "-":
		if v.Kind != KindNumber {
			return Value{}, newError(ConversionError, "unary - requires a number")
		}
		return Number(-v.Number), nil
	case "+":
		if v.Kind != KindNumber {
			return Value{}, newError(ConversionError, "unary + requires a number")
		}
		return v, nil
	case "!":
		return Bool(!v.Truthy()), nil
	default:
		return Value{}, newError(NotEvaluable, "unary operator %q is not comptime-evaluable", n.Op)
	}
}

func (p *PureEvaluator) evalBinary(n *ast.BinaryExpr) (Value, error) {
	l, err := p.Eval(n.Left)
	if err != nil {
		return Value{}, err
	}
	r, err := p.Eval(n.Right)
	if err != nil {
		return Value{}, err
	}
	switch n.Op {
	case "+":
		if l.Kind == KindString || r.Kind == KindString {
			return Str(l.String() + r.String()), nil
		}
		return Number(l.Number + r.Number), nil
	case "-":
		return Number(l.Number - r.Number), nil
	case "*":
		return Number(l.Number * r.Number), nil
	case "/":
		return Number(l.Number / r.Number), nil
	case "%":
		return Number(math.Mod(l.Number, r.Number)), nil
	case "==", "===":
		return Bool(valuesEqual(l, r)), nil
	case "!=", "!==":
		return Bool(!valuesEqual(l, r)), nil
	case "<":
		return Bool(l.Number < r.Number), nil
	case "<=":
		return Bool(l.Number <= r.Number), nil
	case ">":
		return Bool(l.Number > r.Number), nil
	case ">=":
		return Bool(l.Number >= r.Number), nil
	case "&&":
		return Bool(l.Truthy() && r.Truthy()), nil
	case "||":
		return Bool(l.Truthy() || r.Truthy()), nil
	default:
		return Value{}, newError(NotEvaluable, "binary operator %q is not comptime-evaluable", n.Op)
	}
}

func (p *PureEvaluator) evalPropertyAccess(n *ast.PropertyAccess) (Value, error) {
	obj, err := p.Eval(n.Object)
	if err != nil {
		return Value{}, err
	}
	if n.Computed != nil {
		idx, err := p.Eval(n.Computed)
		if err != nil {
			return Value{}, err
		}
		if obj.Kind == KindArray {
			i := int(idx.Number)
			if i < 0 || i >= len(obj.Array) {
				return Undefined(), nil
			}
			return obj.Array[i], nil
		}
		if obj.Kind == KindObject {
			if v, ok := obj.Object[idx.Str]; ok {
				return v, nil
			}
			return Undefined(), nil
		}
		return Value{}, newError(ConversionError, "cannot index a %v comptime value", obj.Kind)
	}
	if obj.Kind != KindObject {
		return Value{}, newError(ConversionError, "property access on a non-object comptime value")
	}
	if v, ok := obj.Object[n.Property]; ok {
		return v, nil
	}
	return Undefined(), nil
}

func (p *PureEvaluator) evalCall(n *ast.Call) (Value, error) {
	path, ok := dottedPath(n.Callee)
	if !ok {
		return Value{}, newError(NotEvaluable, "comptime call callee is not a whitelisted built-in path")
	}
	fn, ok := pureBuiltins[path]
	if !ok {
		ndFn, ndOK := nonDeterministicBuiltins[path]
		if !ndOK {
			return Value{}, newError(NotEvaluable, "%q is not a whitelisted comptime built-in", path)
		}
		if p.Cacheable {
			return Value{}, newError(NonDeterministic, "cacheable macro may not call %q, a non-deterministic primitive", path)
		}
		fn = ndFn
	}
	args := make([]Value, len(n.Args))
	for i, a := range n.Args {
		v, err := p.Eval(a)
		if err != nil {
			return Value{}, err
		}
		args[i] = v
	}
	return fn(args)
}

// dottedPath renders an identifier/property-access chain like
// `Math.sqrt` to a lookup key for pureBuiltins.
func dottedPath(e ast.Expr) (string, bool) {
	switch n := e.(type) {
	case *ast.Identifier:
		return n.Name, true
	case *ast.PropertyAccess:
		if n.Computed != nil {
			return "", false
		}
		base, ok := dottedPath(n.Object)
		if !ok {
			return "", false
		}
		return base + "." + n.Property, true
	default:
		return "", false
	}
}

func literalToValue(l *ast.Literal) (Value, error) {
	switch l.Kind {
	case ast.NumberLit:
		f, ok := l.Value.(float64)
		if !ok {
			return Value{}, newError(ConversionError, "number literal did not carry a float64")
		}
		return Number(f), nil
	case ast.StringLit:
		s, _ := l.Value.(string)
		return Str(s), nil
	case ast.BoolLit:
		b, _ := l.Value.(bool)
		return Bool(b), nil
	case ast.NullLit:
		return Null(), nil
	case ast.UndefinedLit:
		return Undefined(), nil
	default:
		return Value{}, newError(NotEvaluable, "literal kind %v is not comptime-evaluable", l.Kind)
	}
}

func valuesEqual(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindNumber:
		return a.Number == b.Number
	case KindString:
		return a.Str == b.Str
	case KindBool:
		return a.Bool == b.Bool
	case KindNull, KindUndefined:
		return true
	default:
		return false
	}
}

func valueToJSON(v Value) (any, error) {
	switch v.Kind {
	case KindNumber:
		return v.Number, nil
	case KindString:
		return v.Str, nil
	case KindBool:
		return v.Bool, nil
	case KindNull, KindUndefined:
		return nil, nil
	case KindArray:
		out := make([]any, len(v.Array))
		for i, e := range v.Array {
			raw, err := valueToJSON(e)
			if err != nil {
				return nil, err
			}
			out[i] = raw
		}
		return out, nil
	case KindObject:
		out := map[string]any{}
		for k, e := range v.Object {
			raw, err := valueToJSON(e)
			if err != nil {
				return nil, err
			}
			out[k] = raw
		}
		return out, nil
	default:
		return nil, newError(ConversionError, "comptime value of kind %v is not JSON-serializable", v.Kind)
	}
}

func jsonToValue(raw any) Value {
	switch t := raw.(type) {
	case float64:
		return Number(t)
	case string:
		return Str(t)
	case bool:
		return Bool(t)
	case nil:
		return Null()
	case []any:
		elems := make([]Value, len(t))
		for i, e := range t {
			elems[i] = jsonToValue(e)
		}
		return Array(elems)
	case map[string]any:
		fields := map[string]Value{}
		for k, e := range t {
			fields[k] = jsonToValue(e)
		}
		return Object(fields)
	default:
		return Undefined()
	}
}
