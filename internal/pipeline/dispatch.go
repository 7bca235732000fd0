package pipeline

import (
	"github.com/typesugar/typesugar/internal/ast"
	"github.com/typesugar/typesugar/internal/hygiene"
	"github.com/typesugar/typesugar/internal/registry"
	"github.com/typesugar/typesugar/internal/scope"
)

// tryDispatch checks whether node is a macro invocation and, if so and
// not opted out, expands it (spec.md §4.7 "Dispatch rules"). The bool
// result reports whether an expansion happened; ok==false with a nil
// error means "not a macro invocation (or opted out) — leave node as
// is and stop the fixed-point loop".
func (r *run) tryDispatch(node ast.Node) (ast.Node, bool, error) {
	switch n := node.(type) {
	case *ast.Call:
		return r.dispatchCall(n)
	case *ast.TaggedTemplate:
		return r.dispatchTaggedTemplate(n)
	case *ast.TypeReference:
		return r.dispatchTypeReference(n)
	default:
		return node, false, nil
	}
}

func (r *run) dispatchCall(call *ast.Call) (ast.Node, bool, error) {
	callee, ok := call.Callee.(*ast.Identifier)
	if !ok {
		return call, false, nil
	}
	if r.optedOut(call, scope.FeatureMacros) {
		return call, false, nil
	}
	def, ok := r.lookupMacro(registry.KindExpression, callee.Name)
	if !ok {
		return call, false, nil
	}
	macro := def.(*registry.ExpressionMacro)

	result, err := hygiene.WithScope(r.hy, func(*hygiene.Scope) (ast.Expr, error) {
		ctx := r.newContext(call, def)
		return macro.Callback(ctx, call, call.Args)
	})
	if err != nil {
		return nil, false, err
	}
	return result, true, nil
}

func (r *run) dispatchTaggedTemplate(tmpl *ast.TaggedTemplate) (ast.Node, bool, error) {
	tag, ok := tmpl.Tag.(*ast.Identifier)
	if !ok {
		return tmpl, false, nil
	}
	if r.optedOut(tmpl, scope.FeatureMacros) {
		return tmpl, false, nil
	}
	def, ok := r.lookupMacro(registry.KindTaggedTemplate, tag.Name)
	if !ok {
		return tmpl, false, nil
	}
	macro := def.(*registry.TaggedTemplateMacro)

	result, err := hygiene.WithScope(r.hy, func(*hygiene.Scope) (ast.Expr, error) {
		ctx := r.newContext(tmpl, def)
		return macro.Callback(ctx, tmpl)
	})
	if err != nil {
		return nil, false, err
	}
	return result, true, nil
}

func (r *run) dispatchTypeReference(ref *ast.TypeReference) (ast.Node, bool, error) {
	if r.optedOut(ref, scope.FeatureMacros) {
		return ref, false, nil
	}
	def, ok := r.lookupMacro(registry.KindTypeLevel, ref.Name)
	if !ok {
		return ref, false, nil
	}
	macro := def.(*registry.TypeLevelMacro)

	result, err := hygiene.WithScope(r.hy, func(*hygiene.Scope) (ast.TypeNode, error) {
		ctx := r.newContext(ref, def)
		return macro.Callback(ctx, ref, ref.TypeArgs)
	})
	if err != nil {
		return nil, false, err
	}
	return result, true, nil
}

// newContext builds a MacroContext anchored at site for diagnostics
// (spec.md §6), carrying def's Cacheable flag through to the Comptime
// Evaluator (spec.md §4.5).
func (r *run) newContext(site ast.Node, def registry.Definition) *registry.MacroContext {
	return registry.NewMacroContext(r.factory, r.hy, r.fc, r.cfg.Types, r.cfg.Eval, r.cfg.Parse, r.bus, site, registry.CommonOf(def).Cacheable)
}
