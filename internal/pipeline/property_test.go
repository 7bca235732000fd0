package pipeline

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/typesugar/typesugar/internal/ast"
	"github.com/typesugar/typesugar/internal/registry"
)

// goldenValue decodes ast.Golden's JSON output into a plain interface{}
// tree so cmp.Diff reports a structural diff instead of comparing two
// opaque strings.
func goldenValue(t *testing.T, node ast.Node) interface{} {
	t.Helper()
	var v interface{}
	require.NoError(t, json.Unmarshal([]byte(ast.Golden(node)), &v))
	return v
}

// TestProperty_Determinism covers spec.md §8 property 12: running the
// same file through the pipeline twice, independently, yields identical
// transformed ASTs.
func TestProperty_Determinism(t *testing.T) {
	reg := registry.New(registry.WarnAndReplace)
	registerExpr(reg, "double", func(ctx *registry.MacroContext, call *ast.Call, args []ast.Expr) (ast.Expr, error) {
		return relabel("add", []ast.Expr{args[0], args[0]}), nil
	})

	f := file(&ast.ExprStatement{Expr: ast.NewCall(ident("double"), []ast.Expr{ident("x")}, ast.Span{})})

	first, err := Run(context.Background(), Config{Registry: reg}, Source{File: f})
	require.NoError(t, err)

	second, err := Run(context.Background(), Config{Registry: reg}, Source{File: f})
	require.NoError(t, err)

	if diff := cmp.Diff(goldenValue(t, first.Artifacts.TransformedAST), goldenValue(t, second.Artifacts.TransformedAST)); diff != "" {
		t.Fatalf("expected two independent runs over the same input to produce identical ASTs (-first +second):\n%s", diff)
	}

	// The diagnostic stream must also be identical, including the
	// per-diagnostic run_id (diag.NewBus seeds it from the file path, so
	// two runs over the same file agree) — otherwise a Cache Layer hit
	// would replay a diagnostic list that could never have been produced
	// by the run that's consulting the cache.
	if diff := cmp.Diff(first.Diagnostics, second.Diagnostics); diff != "" {
		t.Fatalf("expected two independent runs over the same input to produce identical diagnostics (-first +second):\n%s", diff)
	}
}

// TestProperty_Idempotence covers spec.md §8 property 11: re-running
// the pipeline over its own output (with the macro that produced that
// output still registered) is a no-op, because the macro's replacement
// callee no longer matches any registered macro name.
func TestProperty_Idempotence(t *testing.T) {
	reg := registry.New(registry.WarnAndReplace)
	registerExpr(reg, "double", func(ctx *registry.MacroContext, call *ast.Call, args []ast.Expr) (ast.Expr, error) {
		return relabel("add", []ast.Expr{args[0], args[0]}), nil
	})

	f := file(&ast.ExprStatement{Expr: ast.NewCall(ident("double"), []ast.Expr{ident("x")}, ast.Span{})})

	once, err := Run(context.Background(), Config{Registry: reg}, Source{File: f})
	require.NoError(t, err)

	twice, err := Run(context.Background(), Config{Registry: reg}, Source{File: once.Artifacts.TransformedAST})
	require.NoError(t, err)

	if diff := cmp.Diff(goldenValue(t, once.Artifacts.TransformedAST), goldenValue(t, twice.Artifacts.TransformedAST)); diff != "" {
		t.Fatalf("expected re-expanding an already-expanded file to be a no-op (-once +twice):\n%s", diff)
	}
}
