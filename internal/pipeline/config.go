// Package pipeline implements the Expansion Pipeline (spec.md §4.7):
// the fixed-point, post-order AST rewriter that dispatches all six
// macro kinds, enforces opt-out and hygiene, and injects generated
// imports.
//
// Grounded on internal/pipeline/pipeline.go's Config/Source/Result/
// Artifacts/Mode shape (generalized from a full language pipeline down
// to the one phase this core owns) and internal/link/linker.go's
// multi-pass, per-item error-isolated processing idiom (a failing macro
// invocation is isolated the same way a failing link unit is).
package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/typesugar/typesugar/internal/ast"
	"github.com/typesugar/typesugar/internal/diag"
	"github.com/typesugar/typesugar/internal/registry"
	"github.com/typesugar/typesugar/internal/scope"
)

// Default fixed-point bounds (spec.md §4.7 "Fixed-point and termination").
const (
	DefaultMaxDepth              = 100
	DefaultMaxPerSiteExpansions  = 16
	DefaultMaxGlobalExpansions   = 100_000
)

// Config bundles everything one pipeline run needs beyond the source
// file itself: the shared Macro Registry plus the host-delegated
// capabilities a MacroContext forwards to callbacks.
type Config struct {
	Registry *registry.Registry

	Types registry.TypeOracle // may be nil; callbacks that need it will see a nil TypeOracle
	Eval  registry.Evaluator  // may be nil; IsComptime/EvaluateComptime become no-ops
	Parse registry.SnippetParser

	HygienePrefix string // config `hygiene.prefix`, spec.md §6
	Prelude       []string
	ResolutionMode scope.Mode

	MaxDepth             int
	MaxPerSiteExpansions int
	MaxGlobalExpansions  int
}

// resolvedLimits fills in the spec's defaults for any zero-valued bound.
func (c Config) resolvedLimits() (depth, perSite, global int) {
	depth, perSite, global = c.MaxDepth, c.MaxPerSiteExpansions, c.MaxGlobalExpansions
	if depth <= 0 {
		depth = DefaultMaxDepth
	}
	if perSite <= 0 {
		perSite = DefaultMaxPerSiteExpansions
	}
	if global <= 0 {
		global = DefaultMaxGlobalExpansions
	}
	return
}

// Hash digests the cache-relevant knobs in c — hygiene prefix,
// prelude, resolution mode, and the three expansion-budget fields —
// for use as the config-hash component of a cache.Key (spec.md §6
// "(file-content, config-hash, registry-version)"). The host
// capabilities (Registry, Types, Eval, Parse) aren't hashed: caching
// is keyed on behavior-affecting knobs, not on which Go closures
// happen to implement a run's host hooks.
func (c Config) Hash() string {
	depth, perSite, global := c.resolvedLimits()
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%v\x00%d\x00%d\x00%d\x00%d", c.HygienePrefix, c.Prelude, c.ResolutionMode, depth, perSite, global)
	return hex.EncodeToString(h.Sum(nil))
}

// Source is one file's input to the pipeline.
type Source struct {
	File *ast.File
}

// Artifacts holds the pipeline's intermediate representations, exposed
// for tooling (dump flags, the REPL shell, tests).
type Artifacts struct {
	OriginalAST    *ast.File
	TransformedAST *ast.File
}

// Result is the pipeline's output for one file.
type Result struct {
	Artifacts   Artifacts
	Diagnostics []diag.Diagnostic
}
