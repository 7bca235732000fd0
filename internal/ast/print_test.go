package ast

import (
	"strings"
	"testing"
)

func TestGolden_Identifier(t *testing.T) {
	id := NewIdentifier("x", Span{})
	out := Golden(id)
	if !strings.Contains(out, `"Identifier"`) || !strings.Contains(out, `"x"`) {
		t.Fatalf("golden output missing identifier shape: %s", out)
	}
}

func TestGolden_CallIgnoresPosition(t *testing.T) {
	a := NewCall(NewIdentifier("f", Span{Start: Pos{File: "a.ts", Line: 1}}), nil, Span{})
	b := NewCall(NewIdentifier("f", Span{Start: Pos{File: "b.ts", Line: 99}}), nil, Span{})

	if Golden(a) != Golden(b) {
		t.Fatalf("golden output should not depend on source position:\n%s\n%s", Golden(a), Golden(b))
	}
}

func TestGolden_NilNode(t *testing.T) {
	var f *File
	if Golden(f) != "null" {
		t.Fatalf("expected null for nil node, got %q", Golden(f))
	}
}

func TestDefaultPrinter_RoundTripsStatements(t *testing.T) {
	id := NewIdentifier("x", Span{})
	call := NewCall(id, []Expr{NewLiteral(NumberLit, 1.0, Span{})}, Span{})
	file := NewFile("t.ts", "x(1)", nil, []Stmt{&ExprStatement{Expr: call}})

	out := DefaultPrinter{}.PrintFile(file)
	if !strings.Contains(out, "x(1)") {
		t.Fatalf("expected printed output to contain x(1), got %q", out)
	}
}
