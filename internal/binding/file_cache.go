// Package binding implements the File Binding Cache and the `safe_ref`
// reference-hygiene resolver (spec.md §3, §4.2).
//
// Grounded on internal/module/loader.go's Loader: a cache populated in
// one linear pass (here a single file's cache is built once and then
// read-mostly, matching the teacher's getCached/cacheModule split,
// generalized from cross-file module caching to within-file symbol
// indexing). Unlike the teacher's loader it holds no lock: a FileCache
// belongs to one file's expansion and is not shared across goroutines.
package binding

import (
	"github.com/typesugar/typesugar/internal/ast"
)

// TierStats are observability-only counters (spec.md §3 "tier_stats").
type TierStats struct {
	Tier0     int
	Tier1     int
	Tier2     int
	Conflicts int
}

// PendingAlias is a deferred import declaration the pipeline must
// inject once expansion finishes (spec.md §3 "Pending Alias Entry").
type PendingAlias struct {
	Symbol string
	Module string
	Alias  string
}

// FileCache is the File Binding Cache: a per-file index of imports and
// top-level declarations (spec.md §3, §4.2). It is constructed once per
// source file at pipeline entry and is immutable except for
// pendingAliases, which grows append-only through expansion.
type FileCache struct {
	importMap  map[string]string // local binding name -> origin module
	localDecls map[string]bool

	pendingAliases []PendingAlias
	aliasIndex     map[[2]string]string // (symbol, module) -> alias
	aliasCounter   int

	Stats TierStats
}

// New constructs a FileCache from a file's imports and top-level
// declarations via a single linear pass (spec.md §4.2 "Construction").
func New(imports []*ast.ImportDecl, decls []ast.Decl) *FileCache {
	fc := &FileCache{
		importMap:  make(map[string]string),
		localDecls: make(map[string]bool),
		aliasIndex: make(map[[2]string]string),
	}
	for _, imp := range imports {
		for _, spec := range imp.Specifiers {
			if spec.Kind == ast.ImportNamespace {
				continue // namespace imports add zero element names
			}
			fc.importMap[spec.Local] = imp.Module
		}
	}
	for _, d := range decls {
		fc.addDecl(d)
	}
	return fc
}

func (fc *FileCache) addDecl(d ast.Decl) {
	switch n := d.(type) {
	case *ast.VarDecl:
		for _, name := range patternNames(n.Pattern) {
			fc.localDecls[name] = true
		}
	case *ast.FuncDecl:
		fc.localDecls[n.Name] = true
	case *ast.ClassDecl:
		fc.localDecls[n.Name] = true
	case *ast.InterfaceDecl:
		fc.localDecls[n.Name] = true
	case *ast.TypeAliasDecl:
		fc.localDecls[n.Name] = true
	case *ast.EnumDecl:
		fc.localDecls[n.Name] = true
	case *ast.NamespaceDecl:
		fc.localDecls[n.Name] = true
	}
}

// patternNames extracts every bound name from a (possibly destructuring)
// pattern, so `const { a, b: [c] } = x` contributes a, c to local_decls.
func patternNames(p ast.Pattern) []string {
	switch n := p.(type) {
	case nil:
		return nil
	case *ast.BindingPattern:
		return []string{n.Name}
	case *ast.ArrayPattern:
		var out []string
		for _, e := range n.Elements {
			out = append(out, patternNames(e)...)
		}
		if n.Rest != nil {
			out = append(out, patternNames(n.Rest)...)
		}
		return out
	case *ast.ObjectPattern:
		var out []string
		for _, f := range n.Fields {
			out = append(out, patternNames(f.Pattern)...)
		}
		if n.Rest != nil {
			out = append(out, patternNames(n.Rest)...)
		}
		return out
	default:
		return nil
	}
}

// ImportsFrom reports the module a local binding name was imported
// from, if any.
func (fc *FileCache) ImportsFrom(local string) (string, bool) {
	m, ok := fc.importMap[local]
	return m, ok
}

// HasLocalDecl reports whether name is a top-level declaration in this
// file.
func (fc *FileCache) HasLocalDecl(name string) bool {
	return fc.localDecls[name]
}
