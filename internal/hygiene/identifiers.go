package hygiene

import "github.com/typesugar/typesugar/internal/ast"

// CreateHygienicIdentifier mints a fresh, scope-mangled identifier for
// logical (spec.md §4.1, §6 "generate_unique_name"/"hygiene helpers").
func (c *Context) CreateHygienicIdentifier(logical string) *ast.Identifier {
	return ast.NewIdentifier(c.MangleName(logical), ast.Span{})
}

// CreateUnhygienicIdentifier returns an identifier with the literal
// text, bypassing mangling entirely — for intentional capture, e.g.
// emitting the user-visible name `Error` (spec.md §4.1).
func (c *Context) CreateUnhygienicIdentifier(text string) *ast.Identifier {
	return ast.NewIdentifier(text, ast.Span{})
}

// GenerateUniqueName is the MacroContext-facing helper (§6
// "generate_unique_name(prefix)"): a convenience wrapper that mangles a
// logical name built from the caller-chosen prefix, so two calls with
// the same prefix inside one scope still collide by design (callers
// wanting distinct names pass distinct prefixes, or rely on scope
// nesting).
func (c *Context) GenerateUniqueName(prefix string) string {
	return c.MangleName(prefix)
}
