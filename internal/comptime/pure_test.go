package comptime

import (
	"testing"

	"github.com/typesugar/typesugar/internal/ast"
)

func num(v float64) *ast.Literal { return ast.NewLiteral(ast.NumberLit, v, ast.Span{}) }

// TestS5_ComptimeLiteralFolding_Holds covers spec.md §8 scenario S5's
// first case: 1 + 2 === 3 folds to true.
func TestS5_ComptimeLiteralFolding_Holds(t *testing.T) {
	expr := ast.NewBinaryExpr("===",
		ast.NewBinaryExpr("+", num(1), num(2), ast.Span{}),
		num(3),
		ast.Span{})

	pe := NewPureEvaluator(0, nil)
	v, err := pe.Eval(expr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Kind != KindBool || !v.Bool {
		t.Fatalf("expected true, got %v", v)
	}
}

// TestS5_ComptimeLiteralFolding_Fails covers spec.md §8 scenario S5's
// second case: 1 + 2 === 4 folds to false.
func TestS5_ComptimeLiteralFolding_Fails(t *testing.T) {
	expr := ast.NewBinaryExpr("===",
		ast.NewBinaryExpr("+", num(1), num(2), ast.Span{}),
		num(4),
		ast.Span{})

	pe := NewPureEvaluator(0, nil)
	v, err := pe.Eval(expr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Kind != KindBool || v.Bool {
		t.Fatalf("expected false, got %v", v)
	}
}

func TestPureEvaluator_BudgetExceeded(t *testing.T) {
	expr := ast.NewBinaryExpr("+", num(1), num(2), ast.Span{})
	pe := NewPureEvaluator(2, nil) // 3 visits needed: +, left literal, right literal
	_, err := pe.Eval(expr)
	cerr, ok := err.(*Error)
	if !ok || cerr.Kind != Overflow {
		t.Fatalf("expected an Overflow error, got %v", err)
	}
}

func TestPureEvaluator_IdentifierWithoutBindingIsNotEvaluable(t *testing.T) {
	pe := NewPureEvaluator(0, nil)
	_, err := pe.Eval(ast.NewIdentifier("x", ast.Span{}))
	cerr, ok := err.(*Error)
	if !ok || cerr.Kind != NotEvaluable {
		t.Fatalf("expected NotEvaluable, got %v", err)
	}
}

func TestPureEvaluator_MathBuiltin(t *testing.T) {
	call := ast.NewCall(
		&ast.PropertyAccess{Object: ast.NewIdentifier("Math", ast.Span{}), Property: "sqrt"},
		[]ast.Expr{num(9)},
		ast.Span{},
	)
	pe := NewPureEvaluator(0, nil)
	v, err := pe.Eval(call)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Kind != KindNumber || v.Number != 3 {
		t.Fatalf("expected 3, got %v", v)
	}
}

func TestEvaluator_IsComptime(t *testing.T) {
	e := NewEvaluator(0, nil)
	pureExpr := ast.NewBinaryExpr("+", num(1), num(2), ast.Span{})
	if !e.IsComptime(pureExpr) {
		t.Fatal("expected a pure literal arithmetic expression to be comptime")
	}
	impure := ast.NewCall(ast.NewIdentifier("fetch", ast.Span{}), nil, ast.Span{})
	if e.IsComptime(impure) {
		t.Fatal("a call to an unwhitelisted function must not be reported comptime")
	}
}

func TestValueToExpression_RoundTripsArray(t *testing.T) {
	e := NewEvaluator(0, nil)
	f := ast.NewFactory()
	v := Array([]Value{Number(1), Str("a")})
	expr, err := e.ValueToExpression(f, v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	arr, ok := expr.(*ast.ArrayLiteral)
	if !ok || len(arr.Elements) != 2 {
		t.Fatalf("expected a 2-element array literal, got %#v", expr)
	}
}
