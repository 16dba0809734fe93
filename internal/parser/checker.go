package parser

import (
	"calru/internal/ast"
	"calru/internal/diag"
	"calru/internal/object"
	"calru/internal/token"
)

// infer computes the static type of expr against the environment as it
// stands at this point of the parse, and records it for TypeOf.
func (p *Parser) infer(expr ast.Expression) (object.SymbolType, *diag.Error) {
	typ, err := p.inferType(expr)
	if err != nil {
		return object.VoidType, err
	}
	p.types[expr] = typ
	return typ, nil
}

func (p *Parser) inferType(expr ast.Expression) (object.SymbolType, *diag.Error) {
	switch n := expr.(type) {

	case *ast.IntegerLiteral:
		return object.IntType, nil

	case *ast.FloatLiteral:
		return object.FloatType, nil

	case *ast.BooleanLiteral:
		return object.BoolType, nil

	case *ast.Identifier:
		sym, err := p.env.Lookup(n.Value)
		if err != nil {
			return object.VoidType, diag.Wrap(diag.Type, n.Pos(), err)
		}
		return sym.Type, nil

	case *ast.ListLiteral:
		return p.inferListLiteral(n)

	case *ast.BinaryExpression:
		return p.inferBinaryExpression(n)

	case *ast.FetchExpression:
		listType, err := p.inferList(n.List, "fetch")
		if err != nil {
			return object.VoidType, err
		}
		indexType, err := p.infer(n.Index)
		if err != nil {
			return object.VoidType, err
		}
		if !indexType.Equal(object.IntType) {
			return object.VoidType, diag.Typef(n.Index.Pos(), "list index must be Int, got %s", indexType)
		}
		return listType.ElemType(), nil

	case *ast.LenExpression:
		if _, err := p.inferList(n.List, "len"); err != nil {
			return object.VoidType, err
		}
		return object.IntType, nil
	}

	return object.VoidType, diag.Typef(expr.Pos(), "cannot infer the type of %T", expr)
}

func (p *Parser) inferList(expr ast.Expression, method string) (object.SymbolType, *diag.Error) {
	typ, err := p.infer(expr)
	if err != nil {
		return object.VoidType, err
	}
	if !typ.IsList() {
		return object.VoidType, diag.Typef(expr.Pos(), "%s on %s: %s", method, typ, object.ErrNotAList)
	}
	return typ, nil
}

func (p *Parser) inferListLiteral(n *ast.ListLiteral) (object.SymbolType, *diag.Error) {
	if len(n.Elements) == 0 {
		return object.VoidType, diag.Typef(n.Pos(), "cannot infer the element type of an empty list literal")
	}

	elem, err := p.infer(n.Elements[0])
	if err != nil {
		return object.VoidType, err
	}
	for _, el := range n.Elements[1:] {
		t, err := p.infer(el)
		if err != nil {
			return object.VoidType, err
		}
		if !t.Equal(elem) {
			return object.VoidType, diag.Typef(el.Pos(), "list elements must share one type: %s and %s", elem, t)
		}
	}
	return object.ListOf(elem), nil
}

func (p *Parser) inferBinaryExpression(n *ast.BinaryExpression) (object.SymbolType, *diag.Error) {
	left, err := p.infer(n.Left)
	if err != nil {
		return object.VoidType, err
	}
	right, err := p.infer(n.Right)
	if err != nil {
		return object.VoidType, err
	}

	switch n.Operator {
	case token.PLUS, token.MINUS, token.ASTERISK, token.SLASH:
		if !left.IsNumeric() || !left.Equal(right) {
			return object.VoidType, diag.Typef(n.Pos(), "operator %s requires operands of the same numeric type, got %s and %s", n.Operator, left, right)
		}
		return left, nil

	case token.LT, token.LT_EQ, token.GT, token.GT_EQ:
		if !left.IsNumeric() || !left.Equal(right) {
			return object.VoidType, diag.Typef(n.Pos(), "operator %s requires operands of the same numeric type, got %s and %s", n.Operator, left, right)
		}
		return object.BoolType, nil

	case token.EQ, token.NOT_EQ:
		if !left.Equal(right) {
			return object.VoidType, diag.Typef(n.Pos(), "cannot compare %s with %s", left, right)
		}
		return object.BoolType, nil

	case token.LOGICAL_AND, token.LOGICAL_OR:
		if !left.Equal(object.BoolType) || !right.Equal(object.BoolType) {
			return object.VoidType, diag.Typef(n.Pos(), "operator %s requires Boolean operands, got %s and %s", n.Operator, left, right)
		}
		return object.BoolType, nil
	}

	return object.VoidType, diag.Typef(n.Pos(), "unknown operator %s", n.Operator)
}
