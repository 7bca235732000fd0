package pipeline

import (
	"context"

	"github.com/typesugar/typesugar/internal/ast"
	"github.com/typesugar/typesugar/internal/binding"
	"github.com/typesugar/typesugar/internal/diag"
	"github.com/typesugar/typesugar/internal/hygiene"
	"github.com/typesugar/typesugar/internal/registry"
	"github.com/typesugar/typesugar/internal/scope"
)

// run carries the per-file mutable state threaded through one pipeline
// invocation (spec.md §5 "expansion within one file is strictly
// single-threaded").
type run struct {
	ctx context.Context
	cfg Config

	bus     *diag.Bus
	hy      *hygiene.Context
	tracker *scope.Tracker
	inline  *scope.InlineDirectives
	fc      *binding.FileCache
	factory ast.Factory

	maxDepth    int
	maxPerSite  int
	maxGlobal   int
	globalCount int
}

// Run executes Phase 1 (Setup) then Phase 2 (Expansion) over src.File
// and returns the transformed AST plus accumulated diagnostics
// (spec.md §4.7).
func Run(ctx context.Context, cfg Config, src Source) (Result, error) {
	r := newRun(ctx, cfg, diag.NewBus(src.File.Path))
	return r.run(src)
}

func newRun(ctx context.Context, cfg Config, bus *diag.Bus) *run {
	r := &run{ctx: ctx, cfg: cfg, bus: bus, hy: hygiene.New(cfg.HygienePrefix)}
	r.maxDepth, r.maxPerSite, r.maxGlobal = cfg.resolvedLimits()
	return r
}

func (r *run) run(src Source) (Result, error) {
	// Phase 1 — Setup.
	r.tracker = scope.New(r.cfg.ResolutionMode, r.cfg.Prelude)
	scope.ApplyFileDirective(r.tracker, src.File.Statements)
	r.inline = scope.ScanInlineDirectives(src.File.Source())
	r.fc = binding.New(src.File.Imports, topLevelDecls(src.File.Statements))
	r.factory = ast.NewFactory()

	// Phase 2 — Expansion: post-order walk of the file's statement list.
	newStmts, err := r.expandStmtList(src.File.Statements, 0)
	if err != nil {
		return Result{}, err
	}

	out := ast.NewFile(src.File.Path, src.File.Source(), src.File.Imports, newStmts)

	// Import injection: prepend any pending aliased imports minted by
	// safe_ref during expansion (spec.md §4.7 "Import injection").
	if r.fc.HasPendingAliases() {
		injected := r.fc.PendingImports(r.factory)
		out.Imports = append(injected, out.Imports...)
		for _, imp := range injected {
			ast.Attach(out, imp)
		}
	}

	return Result{
		Artifacts:   Artifacts{OriginalAST: src.File, TransformedAST: out},
		Diagnostics: r.bus.All(),
	}, nil
}

// topLevelDecls filters a file's statement list down to the Decl
// subset the File Binding Cache indexes (spec.md §4.2).
func topLevelDecls(stmts []ast.Stmt) []ast.Decl {
	var decls []ast.Decl
	for _, s := range stmts {
		if d, ok := s.(ast.Decl); ok {
			decls = append(decls, d)
		}
	}
	return decls
}

func (r *run) cancelled() bool {
	if r.ctx == nil {
		return false
	}
	select {
	case <-r.ctx.Done():
		return true
	default:
		return false
	}
}

// diagPos anchors a diagnostic at node's position, falling back to a
// synthetic (zero) span for nodes produced by a macro (spec.md §4.7
// "Synthetic nodes ... never contribute to source-based diagnostics
// location").
func (r *run) diagPos(node ast.Node) ast.Span {
	if node == nil {
		return ast.Span{}
	}
	pos := node.Position()
	if pos.IsSynthetic() {
		return ast.Span{}
	}
	return pos
}

// optedOut reports whether feature is unavailable at node, consulting
// both the file-level/feature-level Resolution Scope state and any
// inline directive covering node's source line (spec.md §4.7
// cross-cutting concern "Opt-out").
func (r *run) optedOut(node ast.Node, feature scope.Feature) bool {
	return r.tracker.IsFileOptedOut() || scope.IsFeatureOptedOut(r.tracker, r.inline, node, feature)
}

// lookupMacro resolves a macro by (kind, name), honoring import-scoping:
// if the definition requires a specific origin module, identifierName
// must resolve to that module in the File Binding Cache's import map
// (spec.md §4.7 dispatch rules, §4.4 "activated only if the placeholder
// is imported from that module").
func (r *run) lookupMacro(kind registry.Kind, identifierName string) (registry.Definition, bool) {
	if r.cfg.Registry == nil {
		return nil, false
	}
	def, ok := r.cfg.Registry.Lookup(kind, identifierName)
	if !ok {
		return nil, false
	}
	module := registry.CommonOf(def).Module
	if module == "" {
		return def, true
	}
	origin, imported := r.fc.ImportsFrom(identifierName)
	if !imported || origin != module {
		return nil, false
	}
	return def, true
}
