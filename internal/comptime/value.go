// Package comptime implements the Comptime Evaluator (spec.md §4.5):
// a pure AST constant-folder plus a sandboxed, capability-gated tier
// for richer host-delegated execution.
package comptime

import (
	"fmt"
	"math/big"
)

// Kind discriminates a Value's payload (spec.md §3 "Comptime Value").
type Kind int

const (
	KindNumber Kind = iota
	KindString
	KindBool
	KindBigInt
	KindNull
	KindUndefined
	KindArray
	KindObject
	KindFunction
	KindOpaqueType
	KindError
)

// Value is the tagged union a comptime evaluation produces. Array and
// Object carry their elements directly; cycle detection happens during
// materialization from host values (sandbox.go), not on this type.
type Value struct {
	Kind Kind

	Number  float64
	Str     string
	Bool    bool
	BigInt  *big.Int
	Array   []Value
	Object  map[string]Value
	FnMeta  string // descriptive only; functions are not user-invocable (§3)
	Opaque  any    // opaque type handle, host-defined
	ErrText string
}

func Number(v float64) Value           { return Value{Kind: KindNumber, Number: v} }
func Str(v string) Value               { return Value{Kind: KindString, Str: v} }
func Bool(v bool) Value                { return Value{Kind: KindBool, Bool: v} }
func BigInt(v *big.Int) Value          { return Value{Kind: KindBigInt, BigInt: v} }
func Null() Value                      { return Value{Kind: KindNull} }
func Undefined() Value                 { return Value{Kind: KindUndefined} }
func Array(elems []Value) Value        { return Value{Kind: KindArray, Array: elems} }
func Object(fields map[string]Value) Value { return Value{Kind: KindObject, Object: fields} }
func OpaqueType(handle any) Value      { return Value{Kind: KindOpaqueType, Opaque: handle} }
func ErrorValue(msg string) Value      { return Value{Kind: KindError, ErrText: msg} }

func (v Value) String() string {
	switch v.Kind {
	case KindNumber:
		return fmt.Sprintf("%v", v.Number)
	case KindString:
		return v.Str
	case KindBool:
		return fmt.Sprintf("%v", v.Bool)
	case KindBigInt:
		return v.BigInt.String()
	case KindNull:
		return "null"
	case KindUndefined:
		return "undefined"
	case KindArray:
		return fmt.Sprintf("%v", v.Array)
	case KindObject:
		return fmt.Sprintf("%v", v.Object)
	case KindFunction:
		return fmt.Sprintf("<function %s>", v.FnMeta)
	case KindOpaqueType:
		return fmt.Sprintf("<type %v>", v.Opaque)
	case KindError:
		return fmt.Sprintf("<error %s>", v.ErrText)
	default:
		return "<unknown>"
	}
}

// Truthy mirrors the host language's coercion-to-boolean for the
// primitives the pure evaluator handles (spec.md §4.5 "unary/binary
// arithmetic on primitives").
func (v Value) Truthy() bool {
	switch v.Kind {
	case KindBool:
		return v.Bool
	case KindNumber:
		return v.Number != 0
	case KindString:
		return v.Str != ""
	case KindNull, KindUndefined:
		return false
	default:
		return true
	}
}
