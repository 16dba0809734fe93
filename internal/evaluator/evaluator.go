package evaluator

import (
	"calru/internal/ast"
	"calru/internal/diag"
	"calru/internal/object"
	"calru/internal/token"
)

// Eval computes the value of an expression against env. It never mutates
// env. The parser uses it for eager evaluation of declarations and the
// interpreter for everything else, so both see the same value rules.
func Eval(node ast.Expression, env *object.Environment) (object.Value, error) {
	switch node := node.(type) {

	case *ast.IntegerLiteral:
		return object.Integer{Value: node.Value}, nil

	case *ast.FloatLiteral:
		return object.Float{Value: node.Value}, nil

	case *ast.BooleanLiteral:
		return object.NativeBool(node.Value), nil

	case *ast.Identifier:
		return evalIdentifier(node, env)

	case *ast.ListLiteral:
		return evalListLiteral(node, env)

	case *ast.BinaryExpression:
		left, err := Eval(node.Left, env)
		if err != nil {
			return nil, err
		}
		right, err := Eval(node.Right, env)
		if err != nil {
			return nil, err
		}
		return evalBinaryExpression(node.Token, node.Operator, left, right)

	case *ast.FetchExpression:
		return evalFetchExpression(node, env)

	case *ast.LenExpression:
		return evalLenExpression(node, env)

	case nil:
		return nil, diag.Runtimef(token.Position{}, "missing expression")
	}

	return nil, diag.Runtimef(node.Pos(), "cannot evaluate %T", node)
}

func evalIdentifier(node *ast.Identifier, env *object.Environment) (object.Value, error) {
	sym, err := env.Lookup(node.Value)
	if err != nil {
		return nil, diag.Wrap(diag.Runtime, node.Pos(), err)
	}
	return sym.Value, nil
}

func evalListLiteral(node *ast.ListLiteral, env *object.Environment) (object.Value, error) {
	elements := make([]object.Value, 0, len(node.Elements))
	var elem object.SymbolType
	for i, el := range node.Elements {
		v, err := Eval(el, env)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			elem = v.Type()
		} else if !elem.Equal(v.Type()) {
			return nil, diag.Runtimef(el.Pos(), "list element %d is %s, expected %s", i, v.Type(), elem)
		}
		elements = append(elements, v)
	}
	if len(elements) == 0 {
		return nil, diag.Runtimef(node.Pos(), "cannot infer the element type of an empty list")
	}
	return object.List{Elem: elem, Elements: elements}, nil
}

func evalBinaryExpression(tok token.Token, operator string, left, right object.Value) (object.Value, error) {
	switch {
	case left.Type().Kind == object.INT_TYPE && right.Type().Kind == object.INT_TYPE:
		return evalIntegerBinaryExpression(tok, operator, left.(object.Integer).Value, right.(object.Integer).Value)
	case left.Type().Kind == object.FLOAT_TYPE && right.Type().Kind == object.FLOAT_TYPE:
		return evalFloatBinaryExpression(tok, operator, left.(object.Float).Value, right.(object.Float).Value)
	case left.Type().Kind == object.BOOLEAN_TYPE && right.Type().Kind == object.BOOLEAN_TYPE:
		return evalBooleanBinaryExpression(tok, operator, left.(object.Boolean).Value, right.(object.Boolean).Value)
	case left.Type().IsList() && left.Type().Equal(right.Type()):
		switch operator {
		case token.EQ:
			return object.NativeBool(object.Equal(left, right)), nil
		case token.NOT_EQ:
			return object.NativeBool(!object.Equal(left, right)), nil
		}
	}
	return nil, diag.Runtimef(tok.Position, "unsupported operand types for %s: %s and %s", operator, left.Type(), right.Type())
}

func evalIntegerBinaryExpression(tok token.Token, operator string, l, r int64) (object.Value, error) {
	switch operator {
	case token.PLUS:
		return object.Integer{Value: l + r}, nil
	case token.MINUS:
		return object.Integer{Value: l - r}, nil
	case token.ASTERISK:
		return object.Integer{Value: l * r}, nil
	case token.SLASH:
		if r == 0 {
			return nil, diag.Runtimef(tok.Position, "integer division by zero")
		}
		return object.Integer{Value: l / r}, nil
	case token.LT:
		return object.NativeBool(l < r), nil
	case token.LT_EQ:
		return object.NativeBool(l <= r), nil
	case token.GT:
		return object.NativeBool(l > r), nil
	case token.GT_EQ:
		return object.NativeBool(l >= r), nil
	case token.EQ:
		return object.NativeBool(l == r), nil
	case token.NOT_EQ:
		return object.NativeBool(l != r), nil
	}
	return nil, diag.Runtimef(tok.Position, "unknown operator: Int %s Int", operator)
}

func evalFloatBinaryExpression(tok token.Token, operator string, l, r float64) (object.Value, error) {
	switch operator {
	case token.PLUS:
		return object.Float{Value: l + r}, nil
	case token.MINUS:
		return object.Float{Value: l - r}, nil
	case token.ASTERISK:
		return object.Float{Value: l * r}, nil
	case token.SLASH:
		return object.Float{Value: l / r}, nil
	case token.LT:
		return object.NativeBool(l < r), nil
	case token.LT_EQ:
		return object.NativeBool(l <= r), nil
	case token.GT:
		return object.NativeBool(l > r), nil
	case token.GT_EQ:
		return object.NativeBool(l >= r), nil
	case token.EQ:
		return object.NativeBool(l == r), nil
	case token.NOT_EQ:
		return object.NativeBool(l != r), nil
	}
	return nil, diag.Runtimef(tok.Position, "unknown operator: Float %s Float", operator)
}

// Both operands are already evaluated: && and || do not short-circuit.
func evalBooleanBinaryExpression(tok token.Token, operator string, l, r bool) (object.Value, error) {
	switch operator {
	case token.LOGICAL_AND:
		return object.NativeBool(l && r), nil
	case token.LOGICAL_OR:
		return object.NativeBool(l || r), nil
	case token.EQ:
		return object.NativeBool(l == r), nil
	case token.NOT_EQ:
		return object.NativeBool(l != r), nil
	}
	return nil, diag.Runtimef(tok.Position, "unknown operator: Boolean %s Boolean", operator)
}

func evalFetchExpression(node *ast.FetchExpression, env *object.Environment) (object.Value, error) {
	receiver, err := Eval(node.List, env)
	if err != nil {
		return nil, err
	}
	list, ok := receiver.(object.List)
	if !ok {
		return nil, diag.Runtimef(node.Pos(), "fetch on %s: %s", receiver.Type(), object.ErrNotAList)
	}
	idx, err := Eval(node.Index, env)
	if err != nil {
		return nil, err
	}
	i, ok := idx.(object.Integer)
	if !ok {
		return nil, diag.Runtimef(node.Index.Pos(), "list index must be Int, got %s", idx.Type())
	}
	if i.Value < 0 || i.Value >= int64(len(list.Elements)) {
		return nil, diag.Runtimef(node.Index.Pos(), "index %d out of bounds for list of length %d", i.Value, len(list.Elements))
	}
	return list.Elements[i.Value], nil
}

func evalLenExpression(node *ast.LenExpression, env *object.Environment) (object.Value, error) {
	// named lists are measured in place, without copying
	if ident, ok := node.List.(*ast.Identifier); ok {
		n, err := env.ListLen(ident.Value)
		if err != nil {
			return nil, diag.Wrap(diag.Runtime, node.Pos(), err)
		}
		return object.Integer{Value: int64(n)}, nil
	}
	receiver, err := Eval(node.List, env)
	if err != nil {
		return nil, err
	}
	list, ok := receiver.(object.List)
	if !ok {
		return nil, diag.Runtimef(node.Pos(), "len on %s: %s", receiver.Type(), object.ErrNotAList)
	}
	return object.Integer{Value: int64(len(list.Elements))}, nil
}
