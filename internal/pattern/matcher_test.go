package pattern

import (
	"testing"

	"github.com/typesugar/typesugar/internal/ast"
	"github.com/typesugar/typesugar/internal/diag"
	"github.com/typesugar/typesugar/internal/hygiene"
)

func ident(name string) *ast.Identifier { return ast.NewIdentifier(name, ast.Span{}) }

func num(v float64) *ast.Literal { return ast.NewLiteral(ast.NumberLit, v, ast.Span{}) }

func frag(name string, kind ast.FragmentKind) *ast.FragmentVar {
	return &ast.FragmentVar{Name: name, Kind: kind}
}

func fragRepeated(name string, kind ast.FragmentKind) *ast.FragmentVar {
	return &ast.FragmentVar{Name: name, Kind: kind, Repeated: true}
}

func TestMatch_BindsExprFragment(t *testing.T) {
	p := ast.NewCall(ident("log"), []ast.Expr{frag("x", ast.FragExpr)}, ast.Span{})
	input := ast.NewCall(ident("log"), []ast.Expr{num(42)}, ast.Span{})

	b := Bindings{}
	if !Match(p, input, b) {
		t.Fatal("expected match")
	}
	bound, ok := b["x"]
	if !ok || bound.Node != input.Args[0] {
		t.Fatalf("expected x bound to the call's first argument, got %+v", bound)
	}
}

func TestMatch_IdentFragmentRejectsNonIdentifier(t *testing.T) {
	p := frag("x", ast.FragIdent)
	b := Bindings{}
	if Match(p, num(1), b) {
		t.Fatal("expected a literal to be rejected by an :ident fragment")
	}
}

func TestMatch_RepeatedGroupBindsTrailingList(t *testing.T) {
	p := ast.NewCall(ident("sum"), []ast.Expr{fragRepeated("xs", ast.FragExpr)}, ast.Span{})
	input := ast.NewCall(ident("sum"), []ast.Expr{num(1), num(2), num(3)}, ast.Span{})

	b := Bindings{}
	if !Match(p, input, b) {
		t.Fatal("expected match")
	}
	bound := b["xs"]
	if !bound.Multi || len(bound.Nodes) != 3 {
		t.Fatalf("expected 3 repeated bindings, got %+v", bound)
	}
}

func TestMatch_RepeatedGroupMustBeTrailing(t *testing.T) {
	p := ast.NewCall(ident("f"), []ast.Expr{fragRepeated("xs", ast.FragExpr), frag("y", ast.FragExpr)}, ast.Span{})
	input := ast.NewCall(ident("f"), []ast.Expr{num(1), num(2)}, ast.Span{})

	b := Bindings{}
	if Match(p, input, b) {
		t.Fatal("expected non-trailing repeated group to fail to match")
	}
}

func TestMatch_SameNameMustBindStructurallyEqual(t *testing.T) {
	p := ast.NewCall(ident("eq"), []ast.Expr{frag("x", ast.FragExpr), frag("x", ast.FragExpr)}, ast.Span{})

	matching := ast.NewCall(ident("eq"), []ast.Expr{num(1), num(1)}, ast.Span{})
	b := Bindings{}
	if !Match(p, matching, b) {
		t.Fatal("expected equal sub-trees to satisfy repeated fragment name")
	}

	mismatched := ast.NewCall(ident("eq"), []ast.Expr{num(1), num(2)}, ast.Span{})
	b = Bindings{}
	if Match(p, mismatched, b) {
		t.Fatal("expected unequal sub-trees to fail the repeated fragment name check")
	}
}

func TestMatch_LiteralKindAndValueMustMatch(t *testing.T) {
	p := num(1)
	b := Bindings{}
	if Match(p, num(2), b) {
		t.Fatal("expected literal value mismatch to fail")
	}
	if !Match(p, num(1), b) {
		t.Fatal("expected identical literal to match")
	}
}

// TestMatch_ArmOrderingFirstBindWins checks arm selection: arms are
// tried in declaration order and the first successful bind wins, even
// when a later arm would also match.
func TestMatch_ArmOrderingFirstBindWins(t *testing.T) {
	genericPattern, err := Compile(ast.NewCall(ident("op"), []ast.Expr{frag("x", ast.FragExpr)}, ast.Span{}))
	if err != nil {
		t.Fatal(err)
	}
	specificPattern, err := Compile(ast.NewCall(ident("op"), []ast.Expr{num(0)}, ast.Span{}))
	if err != nil {
		t.Fatal(err)
	}

	genericTemplate := ident("generic")
	specificTemplate := ident("specific")

	m := &Macro{Arms: []Arm{
		{Pattern: genericPattern, Template: genericTemplate},
		{Pattern: specificPattern, Template: specificTemplate},
	}}

	input := ast.NewCall(ident("op"), []ast.Expr{num(0)}, ast.Span{})
	_, tmpl, ok := m.TryMatch(input)
	if !ok {
		t.Fatal("expected a match")
	}
	if tmpl != ast.Node(genericTemplate) {
		t.Fatalf("expected the first declared arm (generic) to win, got %v", tmpl)
	}
}

func TestMacro_Expand_NoArmMatchedReportsDiagnosticAndLeavesInputUnchanged(t *testing.T) {
	p, err := Compile(ast.NewCall(ident("only"), nil, ast.Span{}))
	if err != nil {
		t.Fatal(err)
	}
	m := &Macro{Arms: []Arm{{Pattern: p, Template: ident("x")}}}

	input := ast.NewCall(ident("other"), nil, ast.Span{})
	bus := diag.NewBus("")
	hy := hygiene.New("ts")

	out, err := m.Expand(hy, bus, input)
	if err != nil {
		t.Fatal(err)
	}
	if out != ast.Node(input) {
		t.Fatalf("expected the unmatched call site to be returned unchanged, got %v", out)
	}
	diags := bus.All()
	if len(diags) != 1 || diags[0].Code != diag.PatNoArmMatched {
		t.Fatalf("expected a single PatNoArmMatched diagnostic, got %+v", diags)
	}
}

func TestMacro_Expand_MatchSubstitutesTemplate(t *testing.T) {
	p, err := Compile(ast.NewCall(ident("double"), []ast.Expr{frag("x", ast.FragExpr)}, ast.Span{}))
	if err != nil {
		t.Fatal(err)
	}
	template := ast.NewCall(ident("add"), []ast.Expr{frag("x", ast.FragExpr), frag("x", ast.FragExpr)}, ast.Span{})
	m := &Macro{Arms: []Arm{{Pattern: p, Template: template}}}

	input := ast.NewCall(ident("double"), []ast.Expr{num(21)}, ast.Span{})
	bus := diag.NewBus("")
	hy := hygiene.New("ts")

	out, err := m.Expand(hy, bus, input)
	if err != nil {
		t.Fatal(err)
	}
	call, ok := out.(*ast.Call)
	if !ok || len(call.Args) != 2 {
		t.Fatalf("expected a 2-argument call, got %+v", out)
	}
	if len(bus.All()) != 0 {
		t.Fatalf("expected no diagnostics on a successful match, got %+v", bus.All())
	}
}

func TestMacro_TryMatch_NoArmMatches(t *testing.T) {
	p, err := Compile(ast.NewCall(ident("only"), nil, ast.Span{}))
	if err != nil {
		t.Fatal(err)
	}
	m := &Macro{Arms: []Arm{{Pattern: p, Template: ident("x")}}}

	_, _, ok := m.TryMatch(ast.NewCall(ident("other"), nil, ast.Span{}))
	if ok {
		t.Fatal("expected no arm to match")
	}
}
