package ast

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// Printer is the host-toolchain capability the pipeline delegates final
// source printing to (§3 "AST Factory & Printer Adapter"). The core
// never prints user-facing source itself; Printer exists so the core's
// test suite and CLI preview mode have something concrete to call.
type Printer interface {
	// PrintFile renders a transformed File back to source text.
	PrintFile(f *File) string
}

// DefaultPrinter is a minimal reference Printer used by this repository's
// own tests and CLI preview output. A host toolchain replaces it with
// its real printer; DefaultPrinter makes no claim to match any specific
// surface-language grammar beyond round-tripping the node shapes in
// internal/ast.
type DefaultPrinter struct{}

func (DefaultPrinter) PrintFile(f *File) string {
	if f == nil {
		return ""
	}
	return f.String()
}

// Golden produces a deterministic JSON representation of a node for
// golden-snapshot and structural-diff testing (§8 properties 11-12:
// idempotence and determinism). It strips instance-specific metadata
// (byte offsets, file paths) so synthetic and original spans compare
// equal when the logical shape is equal.
func Golden(node Node) string {
	data, err := json.MarshalIndent(simplify(node), "", "  ")
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	return string(data)
}

// simplify converts an AST node into a JSON-serializable shape with
// positions normalized away, so Golden output depends only on tree
// structure.
func simplify(node interface{}) interface{} {
	if node == nil || isNilNode(node) {
		return nil
	}

	switch n := node.(type) {
	case *File:
		imports := make([]interface{}, len(n.Imports))
		for i, imp := range n.Imports {
			imports[i] = simplify(imp)
		}
		stmts := make([]interface{}, len(n.Statements))
		for i, s := range n.Statements {
			stmts[i] = simplify(s)
		}
		return map[string]interface{}{"type": "File", "imports": imports, "statements": stmts}

	case *Identifier:
		return map[string]interface{}{"type": "Identifier", "name": n.Name}

	case *Literal:
		return map[string]interface{}{"type": "Literal", "kind": int(n.Kind), "value": n.Value}

	case *Call:
		args := make([]interface{}, len(n.Args))
		for i, a := range n.Args {
			args[i] = simplify(a)
		}
		return map[string]interface{}{"type": "Call", "callee": simplify(n.Callee), "args": args}

	case *PropertyAccess:
		return map[string]interface{}{"type": "PropertyAccess", "object": simplify(n.Object), "property": n.Property}

	case *ObjectLiteral:
		props := make([]interface{}, len(n.Properties))
		for i, p := range n.Properties {
			props[i] = map[string]interface{}{"key": p.Key, "value": simplify(p.Value), "spread": p.Spread}
		}
		return map[string]interface{}{"type": "ObjectLiteral", "properties": props}

	case *ArrayLiteral:
		elems := make([]interface{}, len(n.Elements))
		for i, e := range n.Elements {
			elems[i] = simplify(e)
		}
		return map[string]interface{}{"type": "ArrayLiteral", "elements": elems}

	case *TemplateLiteral:
		exprs := make([]interface{}, len(n.Expressions))
		for i, e := range n.Expressions {
			exprs[i] = simplify(e)
		}
		return map[string]interface{}{"type": "TemplateLiteral", "quasis": n.Quasis, "expressions": exprs}

	case *TaggedTemplate:
		return map[string]interface{}{"type": "TaggedTemplate", "tag": simplify(n.Tag), "template": simplify(n.Template)}

	case *ImportDecl:
		return map[string]interface{}{"type": "ImportDecl", "module": n.Module, "specifiers": n.Specifiers, "synthesized": n.Synthesized}

	case *Decorator:
		args := make([]interface{}, len(n.Args))
		for i, a := range n.Args {
			args[i] = simplify(a)
		}
		return map[string]interface{}{"type": "Decorator", "name": n.Name, "args": args}

	case *LabeledStatement:
		return map[string]interface{}{"type": "LabeledStatement", "label": n.Label, "body": simplify(n.Body)}

	case *TypeReference:
		return map[string]interface{}{"type": "TypeReference", "name": n.Name}

	case *ExprStatement:
		return map[string]interface{}{"type": "ExprStatement", "expr": simplify(n.Expr)}

	case *VarDecl:
		return map[string]interface{}{"type": "VarDecl", "kind": int(n.Kind), "pattern": simplify(n.Pattern), "init": simplify(n.Init)}

	case *Block:
		stmts := make([]interface{}, len(n.Statements))
		for i, s := range n.Statements {
			stmts[i] = simplify(s)
		}
		return map[string]interface{}{"type": "Block", "statements": stmts}

	case Node:
		return map[string]interface{}{"type": fmt.Sprintf("%T", n), "text": n.String()}

	default:
		return node
	}
}

func isNilNode(v interface{}) bool {
	if _, ok := v.(Node); !ok {
		return false
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Ptr && rv.IsNil()
}
