package object

import (
	"fmt"

	"calru/internal/token"
)

type TypeKind int

const (
	VOID_TYPE TypeKind = iota
	INT_TYPE
	FLOAT_TYPE
	BOOLEAN_TYPE
	LIST_TYPE
)

// SymbolType is the static type of a binding or expression. Elem is only
// set for LIST_TYPE.
type SymbolType struct {
	Kind TypeKind
	Elem *SymbolType
}

var (
	IntType   = SymbolType{Kind: INT_TYPE}
	FloatType = SymbolType{Kind: FLOAT_TYPE}
	BoolType  = SymbolType{Kind: BOOLEAN_TYPE}
	VoidType  = SymbolType{Kind: VOID_TYPE}
)

func ListOf(elem SymbolType) SymbolType {
	return SymbolType{Kind: LIST_TYPE, Elem: &elem}
}

// Equal compares structurally: two lists are equal iff their element types are.
func (t SymbolType) Equal(other SymbolType) bool {
	if t.Kind != other.Kind {
		return false
	}
	if t.Kind != LIST_TYPE {
		return true
	}
	if t.Elem == nil || other.Elem == nil {
		return t.Elem == other.Elem
	}
	return t.Elem.Equal(*other.Elem)
}

func (t SymbolType) IsNumeric() bool {
	return t.Kind == INT_TYPE || t.Kind == FLOAT_TYPE
}

func (t SymbolType) IsList() bool {
	return t.Kind == LIST_TYPE
}

// ElemType returns the element type of a list type, Void otherwise.
func (t SymbolType) ElemType() SymbolType {
	if t.Kind != LIST_TYPE || t.Elem == nil {
		return VoidType
	}
	return *t.Elem
}

func (t SymbolType) String() string {
	switch t.Kind {
	case INT_TYPE:
		return "Int"
	case FLOAT_TYPE:
		return "Float"
	case BOOLEAN_TYPE:
		return "Boolean"
	case LIST_TYPE:
		return fmt.Sprintf("List(%s)", t.ElemType())
	default:
		return "Void"
	}
}

// Annotation renders the type the way it is written in source: int, [float].
func (t SymbolType) Annotation() string {
	switch t.Kind {
	case INT_TYPE:
		return "int"
	case FLOAT_TYPE:
		return "float"
	case BOOLEAN_TYPE:
		return "bool"
	case LIST_TYPE:
		return "[" + t.ElemType().Annotation() + "]"
	default:
		return "void"
	}
}

// TypeFromToken converts a type annotation token into a SymbolType.
func TypeFromToken(tok token.Token) (SymbolType, error) {
	switch tok.Type {
	case token.INT_TYPE:
		return IntType, nil
	case token.FLOAT_TYPE:
		return FloatType, nil
	case token.BOOL_TYPE:
		return BoolType, nil
	case token.LIST_TYPE:
		return parseAnnotation(tok.Literal)
	}
	return VoidType, fmt.Errorf("%s is not a type annotation", tok.Type)
}

func parseAnnotation(literal string) (SymbolType, error) {
	if len(literal) >= 2 && literal[0] == '[' && literal[len(literal)-1] == ']' {
		elem, err := parseAnnotation(literal[1 : len(literal)-1])
		if err != nil {
			return VoidType, err
		}
		return ListOf(elem), nil
	}
	switch literal {
	case "int":
		return IntType, nil
	case "float":
		return FloatType, nil
	case "bool":
		return BoolType, nil
	}
	return VoidType, fmt.Errorf("unknown type %q", literal)
}
