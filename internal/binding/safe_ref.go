package binding

import (
	"fmt"

	"github.com/typesugar/typesugar/internal/ast"
	"github.com/typesugar/typesugar/internal/metrics"
)

// SafeRef is the three-tier reference-hygiene resolver (spec.md §4.2).
// Given a macro that wants to reference symbol from module, it returns
// an identifier that resolves correctly in the current file regardless
// of local shadowing — never failing (spec.md §7 "Unresolved reference").
func (fc *FileCache) SafeRef(symbol, fromModule string) *ast.Identifier {
	// Tier 0: Known Globals. These cannot be shadowed by imports by
	// language rule, so a bare reference is always correct.
	if IsKnownGlobal(symbol) {
		fc.Stats.Tier0++
		metrics.RecordTierResolution(0)
		return ast.NewIdentifier(symbol, ast.Span{})
	}

	// Tier 1: Import Map.
	if mod, ok := fc.importMap[symbol]; ok {
		fc.Stats.Tier1++
		metrics.RecordTierResolution(1)
		if mod == fromModule {
			return ast.NewIdentifier(symbol, ast.Span{})
		}
		fc.Stats.Conflicts++
		metrics.RecordTierConflict()
		return ast.NewIdentifier(fc.alias(symbol, fromModule), ast.Span{})
	}

	// Tier 2: Local Declarations.
	if fc.localDecls[symbol] {
		fc.Stats.Tier2++
		fc.Stats.Conflicts++
		metrics.RecordTierResolution(2)
		metrics.RecordTierConflict()
		return ast.NewIdentifier(fc.alias(symbol, fromModule), ast.Span{})
	}

	// Name is free: a bare reference resolves correctly once the
	// pipeline ensures the import exists (it records a non-conflicting
	// pending import below so PendingImports() always has a home for it,
	// even though no alias was needed).
	fc.Stats.Tier2++
	metrics.RecordTierResolution(2)
	fc.recordPlainImport(symbol, fromModule)
	return ast.NewIdentifier(symbol, ast.Span{})
}

// alias mints or reuses the alias for (symbol, module), recording a
// pending import entry (spec.md §4.2 "Alias minting").
func (fc *FileCache) alias(symbol, module string) string {
	key := [2]string{symbol, module}
	if existing, ok := fc.aliasIndex[key]; ok {
		return existing
	}
	fc.aliasCounter++
	alias := fmt.Sprintf("__%s_ts%d__", symbol, fc.aliasCounter)
	fc.aliasIndex[key] = alias
	fc.pendingAliases = append(fc.pendingAliases, PendingAlias{Symbol: symbol, Module: module, Alias: alias})
	return alias
}

// recordPlainImport notes that `symbol` must be imported bare (no
// alias) from module, deduplicated the same way aliased entries are.
func (fc *FileCache) recordPlainImport(symbol, module string) {
	key := [2]string{symbol, module}
	if _, ok := fc.aliasIndex[key]; ok {
		return
	}
	fc.aliasIndex[key] = symbol
	fc.pendingAliases = append(fc.pendingAliases, PendingAlias{Symbol: symbol, Module: module, Alias: symbol})
}

// PendingImports groups accumulated pending aliases into one import
// declaration per distinct module, each containing exactly the distinct
// aliases for that module, in insertion order (spec.md §4.2, §8
// invariant 10).
func (fc *FileCache) PendingImports(f ast.Factory) []*ast.ImportDecl {
	var order []string
	byModule := map[string][]ast.ImportSpecifier{}
	seen := map[[2]string]bool{}

	for _, pa := range fc.pendingAliases {
		key := [2]string{pa.Symbol, pa.Module}
		if seen[key] {
			continue
		}
		seen[key] = true
		if _, ok := byModule[pa.Module]; !ok {
			order = append(order, pa.Module)
		}
		byModule[pa.Module] = append(byModule[pa.Module], f.ImportSpec(pa.Symbol, pa.Alias, ast.ImportNamed))
	}

	out := make([]*ast.ImportDecl, 0, len(order))
	for _, mod := range order {
		out = append(out, f.Import(mod, byModule[mod]...))
	}
	return out
}

// HasPendingAliases reports whether any pending import has accumulated —
// the pipeline consults this to decide whether to run import injection
// at all (spec.md §4.7 "Import injection").
func (fc *FileCache) HasPendingAliases() bool { return len(fc.pendingAliases) > 0 }
