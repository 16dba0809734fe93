package parser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"

	"gopkg.in/yaml.v3"

	"calru/internal/ast"
)

// WalkAST recursively traverses an AST and serializes it into a map structure
// for JSON or YAML output.
func WalkAST(node ast.Node) interface{} {
	if node == nil || (reflect.ValueOf(node).Kind() == reflect.Ptr && reflect.ValueOf(node).IsNil()) {
		return nil
	}

	switch n := node.(type) {
	case *ast.Program:
		return map[string]interface{}{
			"type":       "Program",
			"statements": walkStatements(n.Statements),
		}

	case *ast.AssignStatement:
		m := map[string]interface{}{
			"type":     "AssignStatement",
			"position": n.Pos().String(),
			"declare":  n.Declare,
			"name":     n.Name.Value,
			"value":    WalkAST(n.Value),
		}
		if n.Declare {
			m["declaredType"] = n.Type.String()
		}
		return m

	case *ast.PrintStatement:
		return map[string]interface{}{
			"type":     "PrintStatement",
			"position": n.Pos().String(),
			"value":    WalkAST(n.Value),
		}

	case *ast.IfStatement:
		return map[string]interface{}{
			"type":        "IfStatement",
			"position":    n.Pos().String(),
			"condition":   WalkAST(n.Condition),
			"consequence": WalkAST(n.Consequence),
			"alternative": WalkAST(n.Alternative),
		}

	case *ast.LoopStatement:
		return map[string]interface{}{
			"type":     "LoopStatement",
			"position": n.Pos().String(),
			"body":     WalkAST(n.Body),
		}

	case *ast.BlockStatement:
		return map[string]interface{}{
			"type":       "BlockStatement",
			"position":   n.Pos().String(),
			"statements": walkStatements(n.Statements),
		}

	case *ast.BreakStatement:
		return map[string]interface{}{
			"type":     "BreakStatement",
			"position": n.Pos().String(),
		}

	case *ast.PushStatement:
		return map[string]interface{}{
			"type":     "PushStatement",
			"position": n.Pos().String(),
			"list":     n.List.Value,
			"value":    WalkAST(n.Value),
		}

	case *ast.PopStatement:
		return map[string]interface{}{
			"type":     "PopStatement",
			"position": n.Pos().String(),
			"list":     n.List.Value,
		}

	case *ast.IntegerLiteral:
		return map[string]interface{}{
			"type":  "IntegerLiteral",
			"value": n.Value,
		}

	case *ast.FloatLiteral:
		return map[string]interface{}{
			"type":  "FloatLiteral",
			"value": n.Value,
		}

	case *ast.BooleanLiteral:
		return map[string]interface{}{
			"type":  "BooleanLiteral",
			"value": n.Value,
		}

	case *ast.Identifier:
		return map[string]interface{}{
			"type":  "Identifier",
			"value": n.Value,
		}

	case *ast.ListLiteral:
		elements := make([]interface{}, len(n.Elements))
		for i, el := range n.Elements {
			elements[i] = WalkAST(el)
		}
		return map[string]interface{}{
			"type":     "ListLiteral",
			"elements": elements,
		}

	case *ast.BinaryExpression:
		return map[string]interface{}{
			"type":     "BinaryExpression",
			"position": n.Pos().String(),
			"operator": n.Operator,
			"left":     WalkAST(n.Left),
			"right":    WalkAST(n.Right),
		}

	case *ast.FetchExpression:
		return map[string]interface{}{
			"type":     "FetchExpression",
			"position": n.Pos().String(),
			"list":     WalkAST(n.List),
			"index":    WalkAST(n.Index),
		}

	case *ast.LenExpression:
		return map[string]interface{}{
			"type":     "LenExpression",
			"position": n.Pos().String(),
			"list":     WalkAST(n.List),
		}
	}

	return map[string]interface{}{
		"type": "Unknown: " + node.String(),
	}
}

func walkStatements(stmts []ast.Statement) []interface{} {
	statements := make([]interface{}, len(stmts))
	for i, s := range stmts {
		statements[i] = WalkAST(s)
	}
	return statements
}

func RenderASTAsJSON(node ast.Node) (string, error) {
	astMap := WalkAST(node)
	buf := new(bytes.Buffer)
	encoder := json.NewEncoder(buf)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)

	if err := encoder.Encode(astMap); err != nil {
		return "", fmt.Errorf("failed to encode JSON: %v", err)
	}
	return buf.String(), nil
}

func RenderASTAsYAML(node ast.Node) (string, error) {
	buf := new(bytes.Buffer)
	encoder := yaml.NewEncoder(buf)
	encoder.SetIndent(2)

	if err := encoder.Encode(WalkAST(node)); err != nil {
		return "", fmt.Errorf("failed to encode YAML: %v", err)
	}
	if err := encoder.Close(); err != nil {
		return "", fmt.Errorf("failed to encode YAML: %v", err)
	}
	return buf.String(), nil
}

// Render dumps node in the named format: text, json or yaml.
func Render(node ast.Node, format string) (string, error) {
	switch format {
	case "", "text":
		return RenderASTAsText(node, 0), nil
	case "json":
		return RenderASTAsJSON(node)
	case "yaml":
		return RenderASTAsYAML(node)
	}
	return "", fmt.Errorf("unknown AST format %q", format)
}
