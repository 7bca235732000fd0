package pipeline

import (
	"context"
	"testing"

	"github.com/typesugar/typesugar/internal/ast"
	"github.com/typesugar/typesugar/internal/diag"
	"github.com/typesugar/typesugar/internal/registry"
	"github.com/typesugar/typesugar/internal/scope"
)

func ident(name string) *ast.Identifier { return ast.NewIdentifier(name, ast.Span{}) }

func num(v float64) *ast.Literal { return ast.NewLiteral(ast.NumberLit, v, ast.Span{}) }

func file(stmts ...ast.Stmt) *ast.File {
	return ast.NewFile("test.ts", "", nil, stmts)
}

func runFile(t *testing.T, reg *registry.Registry, cfg Config, f *ast.File) Result {
	t.Helper()
	cfg.Registry = reg
	res, err := Run(context.Background(), cfg, Source{File: f})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	return res
}

func hasDiagCode(diags []diag.Diagnostic, code string) bool {
	for _, d := range diags {
		if d.Code == code {
			return true
		}
	}
	return false
}

// relabel replaces a call's callee, the way a trivial expression macro
// would — used to make expansion observable in assertions below.
func relabel(name string, args []ast.Expr) *ast.Call {
	return ast.NewCall(ident(name), args, ast.Span{})
}

func registerExpr(reg *registry.Registry, name string, cb registry.ExpressionCallback) {
	reg.Register(&registry.ExpressionMacro{Common: registry.Common{Name: name}, Callback: cb})
}

// TestRun_NestedExpansionPostOrder is scenario S7 (spec.md §8): a
// macro's argument is itself a macro call, and the pipeline expands the
// innermost call before revisiting the outer one.
func TestRun_NestedExpansionPostOrder(t *testing.T) {
	reg := registry.New(registry.WarnAndReplace)
	registerExpr(reg, "m", func(ctx *registry.MacroContext, call *ast.Call, args []ast.Expr) (ast.Expr, error) {
		return relabel("tagged", args), nil
	})

	inner := ast.NewCall(ident("m"), []ast.Expr{num(1)}, ast.Span{})
	outer := ast.NewCall(ident("m"), []ast.Expr{inner}, ast.Span{})
	f := file(&ast.ExprStatement{Expr: outer})

	res := runFile(t, reg, Config{}, f)

	stmt := res.Artifacts.TransformedAST.Statements[0].(*ast.ExprStatement)
	top, ok := stmt.Expr.(*ast.Call)
	if !ok {
		t.Fatalf("expected a call, got %T", stmt.Expr)
	}
	if top.Callee.(*ast.Identifier).Name != "tagged" {
		t.Fatalf("expected outer call's macro to have run, got callee %v", top.Callee)
	}
	nested, ok := top.Args[0].(*ast.Call)
	if !ok || nested.Callee.(*ast.Identifier).Name != "tagged" {
		t.Fatalf("expected the inner call's macro to have already run before the outer one dispatched, got %#v", top.Args[0])
	}
}

// TestRun_SelfReplicatingMacro_HitsPerSiteLimit exercises the per-site
// fixed-point bound (spec.md §4.7 "Fixed-point and termination").
func TestRun_SelfReplicatingMacro_HitsPerSiteLimit(t *testing.T) {
	reg := registry.New(registry.WarnAndReplace)
	registerExpr(reg, "loop", func(ctx *registry.MacroContext, call *ast.Call, args []ast.Expr) (ast.Expr, error) {
		return ast.NewCall(ident("loop"), args, ast.Span{}), nil
	})

	f := file(&ast.ExprStatement{Expr: ast.NewCall(ident("loop"), []ast.Expr{num(1)}, ast.Span{})})
	res := runFile(t, reg, Config{MaxPerSiteExpansions: 3}, f)

	if !hasDiagCode(res.Diagnostics, diag.ExpPerSiteLimitHit) {
		t.Fatalf("expected %s among diagnostics, got %+v", diag.ExpPerSiteLimitHit, res.Diagnostics)
	}
}

// TestRun_SelfReplicatingMacro_HitsGlobalLimit exercises the
// file-global fixed-point bound.
func TestRun_SelfReplicatingMacro_HitsGlobalLimit(t *testing.T) {
	reg := registry.New(registry.WarnAndReplace)
	registerExpr(reg, "loop", func(ctx *registry.MacroContext, call *ast.Call, args []ast.Expr) (ast.Expr, error) {
		return ast.NewCall(ident("loop"), args, ast.Span{}), nil
	})

	f := file(&ast.ExprStatement{Expr: ast.NewCall(ident("loop"), []ast.Expr{num(1)}, ast.Span{})})
	res := runFile(t, reg, Config{MaxPerSiteExpansions: 1000, MaxGlobalExpansions: 3}, f)

	if !hasDiagCode(res.Diagnostics, diag.ExpIterationsExceeded) {
		t.Fatalf("expected %s among diagnostics, got %+v", diag.ExpIterationsExceeded, res.Diagnostics)
	}
}

// TestRun_DepthCeiling_LeavesNodeUnchanged checks that exceeding the
// depth ceiling on an ordinary (non-macro) deeply nested tree leaves
// the node untouched rather than partially rewritten.
func TestRun_DepthCeiling_LeavesNodeUnchanged(t *testing.T) {
	reg := registry.New(registry.WarnAndReplace)

	var expr ast.Expr = num(1)
	for i := 0; i < 6; i++ {
		expr = ast.NewBinaryExpr("+", expr, num(1), ast.Span{})
	}
	f := file(&ast.ExprStatement{Expr: expr})

	res := runFile(t, reg, Config{MaxDepth: 2}, f)

	if !hasDiagCode(res.Diagnostics, diag.ExpDepthExceeded) {
		t.Fatalf("expected %s among diagnostics, got %+v", diag.ExpDepthExceeded, res.Diagnostics)
	}
	if got, want := ast.Golden(res.Artifacts.TransformedAST), ast.Golden(f); got != want {
		t.Fatalf("expected the over-deep tree to come back unchanged, got:\n%s\nwant:\n%s", got, want)
	}
}

// TestRun_FileOptOut_SkipsExpansion checks the whole-file opt-out
// directive (spec.md §4.3) suppresses dispatch entirely.
func TestRun_FileOptOut_SkipsExpansion(t *testing.T) {
	reg := registry.New(registry.WarnAndReplace)
	called := false
	registerExpr(reg, "m", func(ctx *registry.MacroContext, call *ast.Call, args []ast.Expr) (ast.Expr, error) {
		called = true
		return relabel("tagged", args), nil
	})

	directive := &ast.ExprStatement{Expr: ast.NewLiteral(ast.StringLit, "use no typesugar", ast.Span{})}
	call := &ast.ExprStatement{Expr: ast.NewCall(ident("m"), []ast.Expr{num(1)}, ast.Span{})}
	f := file(directive, call)

	res := runFile(t, reg, Config{}, f)

	if called {
		t.Fatal("macro callback ran despite the file-level opt-out directive")
	}
	_ = res
}

// TestRun_ImportInjection verifies that a macro calling SafeRef for a
// not-yet-imported symbol causes the pipeline to prepend a generated
// import declaration (spec.md §4.7 "Import injection").
func TestRun_ImportInjection(t *testing.T) {
	reg := registry.New(registry.WarnAndReplace)
	registerExpr(reg, "withHelper", func(ctx *registry.MacroContext, call *ast.Call, args []ast.Expr) (ast.Expr, error) {
		helper := ctx.SafeRef("helperFn", "runtime/helpers")
		return ast.NewCall(helper, args, ast.Span{}), nil
	})

	f := file(&ast.ExprStatement{Expr: ast.NewCall(ident("withHelper"), []ast.Expr{num(1)}, ast.Span{})})
	res := runFile(t, reg, Config{}, f)

	out := res.Artifacts.TransformedAST
	if len(out.Imports) != 1 || out.Imports[0].Module != "runtime/helpers" {
		t.Fatalf("expected one injected import from runtime/helpers, got %#v", out.Imports)
	}
}

// TestRun_ImportScopedMacro_RequiresMatchingImport checks that a macro
// registered under a Module only activates when the call-site
// identifier is actually imported from that module (spec.md §4.4).
func TestRun_ImportScopedMacro_RequiresMatchingImport(t *testing.T) {
	reg := registry.New(registry.WarnAndReplace)
	called := false
	reg.Register(&registry.ExpressionMacro{
		Common: registry.Common{Name: "scoped", Module: "my/macros"},
		Callback: func(ctx *registry.MacroContext, call *ast.Call, args []ast.Expr) (ast.Expr, error) {
			called = true
			return relabel("tagged", args), nil
		},
	})

	call := &ast.ExprStatement{Expr: ast.NewCall(ident("scoped"), []ast.Expr{num(1)}, ast.Span{})}
	f := file(call)
	runFile(t, reg, Config{}, f)
	if called {
		t.Fatal("import-scoped macro ran without a matching import")
	}

	imp := &ast.ImportDecl{Module: "my/macros", Specifiers: []ast.ImportSpecifier{{Imported: "scoped", Local: "scoped", Kind: ast.ImportNamed}}}
	f2 := ast.NewFile("test.ts", "", []*ast.ImportDecl{imp}, []ast.Stmt{call})
	runFile(t, reg, Config{}, f2)
	if !called {
		t.Fatal("import-scoped macro did not run once the matching import was present")
	}
}

func TestConfig_ResolvedLimits_FillsDefaults(t *testing.T) {
	depth, perSite, global := Config{}.resolvedLimits()
	if depth != DefaultMaxDepth || perSite != DefaultMaxPerSiteExpansions || global != DefaultMaxGlobalExpansions {
		t.Fatalf("expected defaults, got (%d, %d, %d)", depth, perSite, global)
	}
	depth, perSite, global = Config{MaxDepth: 5, MaxPerSiteExpansions: 2, MaxGlobalExpansions: 9}.resolvedLimits()
	if depth != 5 || perSite != 2 || global != 9 {
		t.Fatalf("expected configured overrides, got (%d, %d, %d)", depth, perSite, global)
	}
}

func TestRun_OptOutDirective_ScopeHelper(t *testing.T) {
	tr := scope.New(scope.ModeAutomatic, nil)
	tr.SetFileOptOut()
	if !tr.IsFileOptedOut() {
		t.Fatal("expected whole-file opt-out to register")
	}
}
