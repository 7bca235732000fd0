package ast

import "math/big"

// Factory is the AST-construction capability exposed to macro authors
// (§6 "AST factory methods"). A MacroContext embeds a Factory so a
// macro's expand callback never needs to know the concrete node types,
// only the shapes this interface promises to build.
//
// Every construction method returns a node with a synthetic Span (no
// source position) per §4.7 "Synthetic nodes" — the pipeline treats
// such nodes as never-opted-out and never the target of source-based
// diagnostics.
type Factory struct{}

// NewFactory returns the default AST factory. A host toolchain may wrap
// or replace it as long as the returned nodes satisfy internal/ast's
// Node interfaces.
func NewFactory() Factory { return Factory{} }

func (Factory) Identifier(name string) *Identifier {
	return NewIdentifier(name, synthetic())
}

func (Factory) NumberLiteral(v float64) *Literal {
	return NewLiteral(NumberLit, v, synthetic())
}

func (Factory) StringLiteral(v string) *Literal {
	return NewLiteral(StringLit, v, synthetic())
}

func (Factory) BoolLiteral(v bool) *Literal {
	return NewLiteral(BoolLit, v, synthetic())
}

func (Factory) NullLiteral() *Literal {
	return NewLiteral(NullLit, nil, synthetic())
}

func (Factory) UndefinedLiteral() *Literal {
	return NewLiteral(UndefinedLit, nil, synthetic())
}

func (Factory) BigIntLiteral(v *big.Int) *Literal {
	return NewLiteral(BigIntLit, v, synthetic())
}

func (f Factory) Call(callee Expr, args ...Expr) *Call {
	return NewCall(callee, args, synthetic())
}

func (f Factory) PropertyAccess(object Expr, property string) *PropertyAccess {
	p := &PropertyAccess{base: base{Span: synthetic()}, Object: object, Property: property}
	Attach(p, object)
	return p
}

func (f Factory) ComputedAccess(object Expr, computed Expr) *PropertyAccess {
	p := &PropertyAccess{base: base{Span: synthetic()}, Object: object, Computed: computed}
	Attach(p, object)
	Attach(p, computed)
	return p
}

func (f Factory) ArrowFunction(params []*Param, body Node, isAsync bool) *ArrowFunction {
	a := &ArrowFunction{base: base{Span: synthetic()}, Params: params, Body: body, IsAsync: isAsync}
	Attach(a, body)
	return a
}

func (f Factory) ObjectLiteral(props ...*ObjectProperty) *ObjectLiteral {
	o := &ObjectLiteral{base: base{Span: synthetic()}, Properties: props}
	for _, p := range props {
		Attach(o, p.Value)
		Attach(o, p.Computed)
	}
	return o
}

func (f Factory) ArrayLiteral(elements ...Expr) *ArrayLiteral {
	a := &ArrayLiteral{base: base{Span: synthetic()}, Elements: elements}
	for _, e := range elements {
		Attach(a, e)
	}
	return a
}

func (f Factory) TemplateLiteral(quasis []string, exprs []Expr) *TemplateLiteral {
	t := &TemplateLiteral{base: base{Span: synthetic()}, Quasis: quasis, Expressions: exprs}
	for _, e := range exprs {
		Attach(t, e)
	}
	return t
}

// ImportSpec constructs one import specifier for use with Import.
func (f Factory) ImportSpec(imported, local string, kind ImportKind) ImportSpecifier {
	return ImportSpecifier{Imported: imported, Local: local, Kind: kind}
}

// Import builds a synthetic import declaration. The Expansion Pipeline
// uses this for injecting pending aliased imports (§4.2, §4.7).
func (f Factory) Import(module string, specs ...ImportSpecifier) *ImportDecl {
	return &ImportDecl{base: base{Span: synthetic()}, Module: module, Specifiers: specs, Synthesized: true}
}

func (f Factory) Block(stmts ...Stmt) *Block {
	b := &Block{base: base{Span: synthetic()}, Statements: stmts}
	for _, s := range stmts {
		Attach(b, s)
	}
	return b
}

func (f Factory) ExprStatement(e Expr) *ExprStatement {
	s := &ExprStatement{base: base{Span: synthetic()}, Expr: e}
	Attach(s, e)
	return s
}

func (f Factory) Const(pattern Pattern, init Expr) *VarDecl {
	v := &VarDecl{base: base{Span: synthetic()}, Kind: VarConst, Pattern: pattern, Init: init}
	Attach(v, pattern)
	Attach(v, init)
	return v
}

func (f Factory) BindingPattern(name string) *BindingPattern {
	return &BindingPattern{base: base{Span: synthetic()}, Name: name}
}

// StatementFromSnippet parses an arbitrary source snippet into a
// statement (§6 "statement parsing of an arbitrary source snippet").
// This always delegates to the host toolchain's parser; the core never
// embeds a parser of its own (§1 scope).
type SnippetParser func(source string) (Stmt, error)

func (f Factory) StatementFromSnippet(parse SnippetParser, source string) (Stmt, error) {
	return parse(source)
}
