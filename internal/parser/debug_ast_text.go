package parser

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"calru/internal/ast"
)

// RenderASTAsText produces the tagged debug form of a tree, one top-level
// statement per line, e.g. Let("x", Int, BinaryOp("+", Int(1), Int(2))).
// Blocks are written one statement per line, indented below their parent.
func RenderASTAsText(node ast.Node, indent int) string {
	if node == nil || (reflect.ValueOf(node).Kind() == reflect.Ptr && reflect.ValueOf(node).IsNil()) {
		return "nil"
	}

	sp := strings.Repeat("  ", indent)

	switch n := node.(type) {
	case *ast.Program:
		var sb strings.Builder
		for i, s := range n.Statements {
			if i > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString(RenderASTAsText(s, 0))
		}
		return sb.String()

	case *ast.AssignStatement:
		if n.Declare {
			return fmt.Sprintf("%sLet(%q, %s, %s)", sp, n.Name.Value, n.Type, RenderASTAsText(n.Value, 0))
		}
		return fmt.Sprintf("%sAssign(%q, %s)", sp, n.Name.Value, RenderASTAsText(n.Value, 0))

	case *ast.PrintStatement:
		return fmt.Sprintf("%sPrint(%s)", sp, RenderASTAsText(n.Value, 0))

	case *ast.IfStatement:
		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("%sIf(%s, [\n", sp, RenderASTAsText(n.Condition, 0)))
		sb.WriteString(renderBlockBody(n.Consequence, indent))
		sb.WriteString(sp + "]")
		if n.Alternative != nil {
			sb.WriteString(", [\n")
			sb.WriteString(renderBlockBody(n.Alternative, indent))
			sb.WriteString(sp + "]")
		}
		sb.WriteString(")")
		return sb.String()

	case *ast.LoopStatement:
		return fmt.Sprintf("%sLoop([\n%s%s])", sp, renderBlockBody(n.Body, indent), sp)

	case *ast.BlockStatement:
		return fmt.Sprintf("%sBlock([\n%s%s])", sp, renderBlockBody(n, indent), sp)

	case *ast.BreakStatement:
		return sp + "Break"

	case *ast.PushStatement:
		return fmt.Sprintf("%sPush(%s, %s)", sp, RenderASTAsText(n.List, 0), RenderASTAsText(n.Value, 0))

	case *ast.PopStatement:
		return fmt.Sprintf("%sPop(%s)", sp, RenderASTAsText(n.List, 0))

	case *ast.IntegerLiteral:
		return "Int(" + strconv.FormatInt(n.Value, 10) + ")"

	case *ast.FloatLiteral:
		return "Float(" + strconv.FormatFloat(n.Value, 'f', -1, 64) + ")"

	case *ast.BooleanLiteral:
		return "Boolean(" + strconv.FormatBool(n.Value) + ")"

	case *ast.Identifier:
		return fmt.Sprintf("Ident(%q)", n.Value)

	case *ast.ListLiteral:
		elements := make([]string, len(n.Elements))
		for i, el := range n.Elements {
			elements[i] = RenderASTAsText(el, 0)
		}
		return "List([" + strings.Join(elements, ", ") + "])"

	case *ast.BinaryExpression:
		return fmt.Sprintf("BinaryOp(%q, %s, %s)", n.Operator, RenderASTAsText(n.Left, 0), RenderASTAsText(n.Right, 0))

	case *ast.FetchExpression:
		return fmt.Sprintf("Fetch(%s, %s)", RenderASTAsText(n.List, 0), RenderASTAsText(n.Index, 0))

	case *ast.LenExpression:
		return fmt.Sprintf("Len(%s)", RenderASTAsText(n.List, 0))
	}

	return fmt.Sprintf("%s<unknown %T>", sp, node)
}

func renderBlockBody(block *ast.BlockStatement, indent int) string {
	if block == nil {
		return ""
	}
	var sb strings.Builder
	for _, s := range block.Statements {
		sb.WriteString(RenderASTAsText(s, indent+1))
		sb.WriteString("\n")
	}
	return sb.String()
}
