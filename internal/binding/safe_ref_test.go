package binding

import (
	"testing"

	"github.com/typesugar/typesugar/internal/ast"
)

func TestSafeRef_Tier0_KnownGlobal_NoAlias(t *testing.T) {
	fc := New(nil, nil)
	id := fc.SafeRef("Error", "@vendor/std")
	if id.Name != "Error" {
		t.Fatalf("expected bare Error, got %q", id.Name)
	}
	if fc.HasPendingAliases() {
		t.Fatal("Tier 0 must never produce a pending alias")
	}
}

func TestSafeRef_Tier1_SameModule_Bare(t *testing.T) {
	fc := New([]*ast.ImportDecl{
		{Module: "./local-utils", Specifiers: []ast.ImportSpecifier{{Local: "Eq", Imported: "Eq"}}},
	}, nil)

	id := fc.SafeRef("Eq", "./local-utils")
	if id.Name != "Eq" {
		t.Fatalf("expected bare Eq, got %q", id.Name)
	}
	if fc.HasPendingAliases() {
		t.Fatal("expected no alias when module matches")
	}
}

// TestS3_ReferenceHygieneWithImportedCollision covers spec.md §8
// scenario S3.
func TestS3_ReferenceHygieneWithImportedCollision(t *testing.T) {
	fc := New([]*ast.ImportDecl{
		{Module: "./local-utils", Specifiers: []ast.ImportSpecifier{{Local: "Eq", Imported: "Eq"}}},
	}, nil)

	first := fc.SafeRef("Eq", "@vendor/std")
	if first.Name != "__Eq_ts1__" {
		t.Fatalf("expected alias __Eq_ts1__, got %q", first.Name)
	}

	second := fc.SafeRef("Eq", "@vendor/std")
	if second.Name != first.Name {
		t.Fatalf("expected repeated calls to reuse the same alias, got %q and %q", first.Name, second.Name)
	}

	if fc.Stats.Conflicts < 1 {
		t.Fatal("expected tier_stats.conflicts >= 1")
	}

	imports := fc.PendingImports(ast.NewFactory())
	if len(imports) != 1 || imports[0].Module != "@vendor/std" {
		t.Fatalf("expected one pending import for @vendor/std, got %+v", imports)
	}
	if len(imports[0].Specifiers) != 1 || imports[0].Specifiers[0].Local != "__Eq_ts1__" {
		t.Fatalf("expected single aliased specifier, got %+v", imports[0].Specifiers)
	}
}

func TestSafeRef_Tier2_LocalDecl_Alias(t *testing.T) {
	fc := New(nil, []ast.Decl{&ast.FuncDecl{Name: "Eq"}})
	id := fc.SafeRef("Eq", "@vendor/std")
	if id.Name == "Eq" {
		t.Fatal("expected an alias when symbol collides with a local declaration")
	}
	if !fc.HasPendingAliases() {
		t.Fatal("expected a pending import to be recorded")
	}
}

func TestSafeRef_FreeName_BareWithPendingImport(t *testing.T) {
	fc := New(nil, nil)
	id := fc.SafeRef("Freestanding", "@vendor/std")
	if id.Name != "Freestanding" {
		t.Fatalf("expected bare identifier for a free name, got %q", id.Name)
	}
	imports := fc.PendingImports(ast.NewFactory())
	if len(imports) != 1 || imports[0].Specifiers[0].Local != "Freestanding" {
		t.Fatalf("expected a plain pending import, got %+v", imports)
	}
}

func TestPendingImports_InsertionOrderAndDedup(t *testing.T) {
	fc := New(nil, []ast.Decl{&ast.FuncDecl{Name: "B"}, &ast.FuncDecl{Name: "A"}})
	fc.SafeRef("B", "mod-b")
	fc.SafeRef("A", "mod-a")
	fc.SafeRef("B", "mod-b") // repeated pair must not duplicate

	imports := fc.PendingImports(ast.NewFactory())
	if len(imports) != 2 {
		t.Fatalf("expected 2 modules, got %d", len(imports))
	}
	if imports[0].Module != "mod-b" || imports[1].Module != "mod-a" {
		t.Fatalf("expected insertion order mod-b, mod-a; got %s, %s", imports[0].Module, imports[1].Module)
	}
	if len(imports[0].Specifiers) != 1 {
		t.Fatalf("expected deduplicated single specifier for mod-b, got %d", len(imports[0].Specifiers))
	}
}

func TestFileCache_PatternDestructuringPopulatesLocalDecls(t *testing.T) {
	pattern := &ast.ObjectPattern{
		Fields: []*ast.FieldPattern{
			{Name: "a", Pattern: &ast.BindingPattern{Name: "a"}},
			{Name: "b", Pattern: &ast.ArrayPattern{Elements: []ast.Pattern{&ast.BindingPattern{Name: "c"}}}},
		},
	}
	fc := New(nil, []ast.Decl{&ast.VarDecl{Kind: ast.VarConst, Pattern: pattern}})
	if !fc.HasLocalDecl("a") || !fc.HasLocalDecl("c") {
		t.Fatal("expected destructured names a and c to populate local_decls")
	}
}
