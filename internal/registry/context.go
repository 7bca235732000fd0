package registry

import (
	"github.com/typesugar/typesugar/internal/ast"
	"github.com/typesugar/typesugar/internal/binding"
	"github.com/typesugar/typesugar/internal/diag"
	"github.com/typesugar/typesugar/internal/hygiene"
)

// Macro callback signatures (spec.md §3). Each mirrors one dispatch
// site the Expansion Pipeline recognizes (spec.md §4.7).
type (
	ExpressionCallback    func(ctx *MacroContext, call *ast.Call, args []ast.Expr) (ast.Expr, error)
	AttributeCallback     func(ctx *MacroContext, dec *ast.Decorator, target ast.Node, args []ast.Expr) ([]ast.Node, error)
	DeriveCallback        func(ctx *MacroContext, target ast.Node, typeInfo TypeInfo) ([]ast.Stmt, error)
	TaggedTemplateCallback func(ctx *MacroContext, tmpl *ast.TaggedTemplate) (ast.Expr, error)
	LabeledBlockCallback  func(ctx *MacroContext, main *ast.LabeledStatement, continuations []*ast.LabeledStatement) ([]ast.Stmt, error)
	TypeLevelCallback     func(ctx *MacroContext, ref *ast.TypeReference, typeArgs []ast.TypeNode) (ast.TypeNode, error)
)

// TypeInfo is an opaque handle the host type-checker attaches to a
// declaration; the core never inspects its shape (spec.md §6 "Type
// utilities ... delegated to the host type-checker").
type TypeInfo interface{}

// TypeOracle is the host type-checker surface a MacroContext delegates
// to (spec.md §6). The core ships no implementation; the host supplies
// one when constructing a pipeline run.
type TypeOracle interface {
	TypeOf(node ast.Node) TypeInfo
	TypeString(node ast.Node) string
	IsAssignableTo(source, target TypeInfo) bool
	PropertiesOf(t TypeInfo) []string
	SymbolOf(node ast.Node) (module, name string, ok bool)
}

// Evaluator is the comptime-evaluation surface a MacroContext delegates
// to (spec.md §6 "is_comptime", "evaluate",
// "comptime_value_to_expression"). Satisfied structurally by
// internal/comptime's Evaluator — no import of this package required
// there, avoiding a cycle.
type Evaluator interface {
	IsComptime(node ast.Node) bool
	Evaluate(node ast.Node, cacheable bool) (any, error)
	ValueToExpression(f ast.Factory, value any) (ast.Expr, error)
}

// nonDeterministicError is satisfied by internal/comptime's *Error
// when it represents the cacheable-rejection failure (spec.md §4.5).
// Checked structurally so this package never imports internal/comptime
// just to report diag.CmpNonDeterministic.
type nonDeterministicError interface {
	NonDeterministic() bool
}

// SnippetParser delegates arbitrary-source-snippet statement parsing to
// the host toolchain (spec.md §6 "statement parsing of an arbitrary
// source snippet"); see ast.Factory.StatementFromSnippet.
type SnippetParser = ast.SnippetParser

// MacroContext is passed to every macro callback (spec.md §6). It
// bundles the AST Factory, the active per-file Hygiene Context and File
// Binding Cache, the Diagnostic Bus, and the host-delegated type and
// comptime oracles.
type MacroContext struct {
	Factory  ast.Factory
	Hygiene  *hygiene.Context
	Bindings *binding.FileCache
	Types    TypeOracle
	Eval     Evaluator
	Parse    SnippetParser

	// Cacheable mirrors the calling macro's Common.Cacheable (spec.md
	// §4.5): passed through to Eval.Evaluate so the evaluator can
	// reject non-deterministic primitives on a cacheable macro's behalf.
	Cacheable bool

	bus  *diag.Bus
	site ast.Node // call/decorator/template/label/type-ref node for diagnostics
}

// NewMacroContext assembles a MacroContext for one macro invocation.
// site anchors diagnostics emitted via ReportError/Warning/Info at the
// macro's call site (spec.md §4.7 "diagnostics fall back to the
// originating macro call site" for synthetic sub-nodes). cacheable is
// the calling macro's Common.Cacheable flag (spec.md §4.5).
func NewMacroContext(f ast.Factory, hy *hygiene.Context, fc *binding.FileCache, types TypeOracle, eval Evaluator, parse SnippetParser, bus *diag.Bus, site ast.Node, cacheable bool) *MacroContext {
	return &MacroContext{Factory: f, Hygiene: hy, Bindings: fc, Types: types, Eval: eval, Parse: parse, bus: bus, site: site, Cacheable: cacheable}
}

func (c *MacroContext) report(code, message string) diag.Diagnostic {
	pos := c.site.Position()
	if pos.IsSynthetic() {
		pos = ast.Span{}
	}
	d := diag.New(code, pos, message)
	c.bus.Report(d)
	return d
}

// ReportError emits an error diagnostic keyed to code, anchored at the
// macro's call site.
func (c *MacroContext) ReportError(code, message string) { c.report(code, message) }

// ReportWarning emits a warning diagnostic. The severity is still
// pinned by code (spec.md §4.4's diag.SeverityFor); callers should use
// a code whose fixed severity is warning.
func (c *MacroContext) ReportWarning(code, message string) { c.report(code, message) }

// ReportInfo emits an info diagnostic; see ReportWarning.
func (c *MacroContext) ReportInfo(code, message string) { c.report(code, message) }

// GenerateUniqueName mints a globally-unique name outside any hygiene
// scope (spec.md §6 "generate_unique_name").
func (c *MacroContext) GenerateUniqueName(prefix string) string {
	return c.Hygiene.GenerateUniqueName(prefix)
}

// SafeRef resolves symbol imported from module to an identifier safe to
// use in the current file (spec.md §4.2), delegating to the active
// File Binding Cache.
func (c *MacroContext) SafeRef(symbol, fromModule string) *ast.Identifier {
	return c.Bindings.SafeRef(symbol, fromModule)
}

// IsComptime reports whether node can be folded at compile time.
func (c *MacroContext) IsComptime(node ast.Node) bool {
	if c.Eval == nil {
		return false
	}
	return c.Eval.IsComptime(node)
}

// EvaluateComptime folds node to a comptime value via the active
// Evaluator (spec.md §6 "evaluate"). If the calling macro is
// Cacheable and the fold touches a non-deterministic time/env/net
// primitive, this reports diag.CmpNonDeterministic (spec.md §4.5)
// before returning the evaluator's error.
func (c *MacroContext) EvaluateComptime(node ast.Node) (any, error) {
	if c.Eval == nil {
		return nil, nil
	}
	v, err := c.Eval.Evaluate(node, c.Cacheable)
	if err != nil {
		if nd, ok := err.(nonDeterministicError); ok && nd.NonDeterministic() {
			c.report(diag.CmpNonDeterministic, err.Error())
		}
		return nil, err
	}
	return v, nil
}

// ComptimeValueToExpression converts a folded comptime value back to an
// AST expression (spec.md §6 "comptime_value_to_expression").
func (c *MacroContext) ComptimeValueToExpression(value any) (ast.Expr, error) {
	return c.Eval.ValueToExpression(c.Factory, value)
}
