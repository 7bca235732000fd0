package scope

import (
	"regexp"
	"strings"

	"github.com/typesugar/typesugar/internal/ast"
)

// optOutStatementRE matches the file/function-level directive grammar
// (spec.md §6): `"use no typesugar";` or `"use no typesugar <feature>";`.
var optOutStatementRE = regexp.MustCompile(`^use no typesugar(?:\s+(\w+))?$`)

// ParseOptOutStatement parses a candidate first-statement string literal
// into an opt-out directive. ok is false if text does not match the
// grammar at all.
func ParseOptOutStatement(text string) (feature Feature, wholeFeatureSet bool, ok bool) {
	m := optOutStatementRE.FindStringSubmatch(text)
	if m == nil {
		return "", false, false
	}
	if m[1] == "" {
		return "", true, true
	}
	f, known := IsFeature(m[1])
	if !known {
		return "", false, false
	}
	return f, false, true
}

// StatementText extracts the literal string text of a statement if it
// is a bare string-literal expression statement, e.g. `"use no typesugar";`.
func StatementText(s ast.Stmt) (string, bool) {
	es, ok := s.(*ast.ExprStatement)
	if !ok {
		return "", false
	}
	lit, ok := es.Expr.(*ast.Literal)
	if !ok || lit.Kind != ast.StringLit {
		return "", false
	}
	text, ok := lit.Value.(string)
	return text, ok
}

// ApplyFileDirective inspects the first statement of a file and applies
// any opt-out directive found there (spec.md §4.3 "File-level").
func ApplyFileDirective(t *Tracker, stmts []ast.Stmt) {
	if len(stmts) == 0 {
		return
	}
	text, ok := StatementText(stmts[0])
	if !ok {
		return
	}
	feature, whole, ok := ParseOptOutStatement(text)
	if !ok {
		return
	}
	if whole {
		t.SetFileOptOut()
		return
	}
	t.SetFileOptOut(feature)
}

// inlineDirectiveRE matches the three inline-comment directive forms
// (spec.md §6): `@ts-no-typesugar`, `@ts-no-typesugar <feature>`,
// `@ts-no-typesugar-all`.
var inlineDirectiveRE = regexp.MustCompile(`//\s*@ts-no-typesugar(-all)?(?:\s+(\w+))?\s*$`)

// InlineDirectives indexes a source file's inline opt-out comments by
// 1-based line number, by scanning the raw source text once. The core
// does not own comment attachment on the AST (§3), so this side index
// is how FunctionOptOuts/IsFeatureOptedOut consult inline comments.
type InlineDirectives struct {
	byLine map[int]inlineDirective
}

type inlineDirective struct {
	feature *Feature // nil = matches any feature (broad or -all)
}

// ScanInlineDirectives builds an InlineDirectives index from source text.
func ScanInlineDirectives(source string) *InlineDirectives {
	idx := &InlineDirectives{byLine: map[int]inlineDirective{}}
	for i, line := range strings.Split(source, "\n") {
		m := inlineDirectiveRE.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		d := inlineDirective{}
		if m[2] != "" {
			if f, ok := IsFeature(m[2]); ok {
				d.feature = &f
			}
		}
		idx.byLine[i+1] = d
	}
	return idx
}

// matches reports whether the directive on a line blocks the given
// feature: broad/-all directives match any feature; narrow directives
// match only their named feature.
func (d inlineDirective) matches(feature Feature) bool {
	return d.feature == nil || *d.feature == feature
}

// HasDirective reports whether an inline opt-out directive on the given
// source line blocks feature.
func (idx *InlineDirectives) HasDirective(line int, feature Feature) bool {
	if idx == nil {
		return false
	}
	d, ok := idx.byLine[line]
	return ok && d.matches(feature)
}

// IsFeatureOptedOut walks the lexical parent chain from node, consulting
// function-level first-statement directives and inline comments
// (spec.md §4.3 "is_feature_opted_out"). It is O(depth) and does not
// cache. Synthetic nodes (no source position) are never opted out.
func IsFeatureOptedOut(t *Tracker, inline *InlineDirectives, node ast.Node, feature Feature) bool {
	if node != nil && node.Position().IsSynthetic() {
		return false
	}
	if t.IsFileOptedOut() || t.optedOutFeatures[feature] {
		return true
	}
	if node == nil {
		return false
	}
	span := node.Position()
	if inline.HasDirective(span.Start.Line, feature) {
		return true
	}

	for cur := node.Parent(); cur != nil; cur = cur.Parent() {
		var body *ast.Block
		switch fn := cur.(type) {
		case *ast.FuncDecl:
			body = fn.Body
		case *ast.ArrowFunction:
			if b, ok := fn.Body.(*ast.Block); ok {
				body = b
			}
		}
		if body != nil && len(body.Statements) > 0 {
			if text, ok := StatementText(body.Statements[0]); ok {
				if f, whole, ok := ParseOptOutStatement(text); ok {
					if whole || f == feature {
						return true
					}
				}
			}
		}
	}
	return false
}
