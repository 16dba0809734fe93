package object

import (
	"strconv"
	"strings"
)

// Value is the runtime counterpart of SymbolType. The set of implementations
// is closed: Integer, Float, Boolean, List and Void.
type Value interface {
	Type() SymbolType
	Inspect() string
	value()
}

type Integer struct {
	Value int64
}

func (i Integer) Type() SymbolType { return IntType }
func (i Integer) Inspect() string  { return strconv.FormatInt(i.Value, 10) }
func (Integer) value()             {}

type Float struct {
	Value float64
}

func (f Float) Type() SymbolType { return FloatType }
func (f Float) Inspect() string  { return strconv.FormatFloat(f.Value, 'f', -1, 64) }
func (Float) value()             {}

type Boolean struct {
	Value bool
}

func (b Boolean) Type() SymbolType { return BoolType }
func (b Boolean) Inspect() string  { return strconv.FormatBool(b.Value) }
func (Boolean) value()             {}

// List carries its element type so that an emptied list keeps its type.
type List struct {
	Elem     SymbolType
	Elements []Value
}

func (l List) Type() SymbolType { return ListOf(l.Elem) }
func (l List) Inspect() string {
	parts := make([]string, len(l.Elements))
	for i, el := range l.Elements {
		parts[i] = el.Inspect()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
func (List) value() {}

type Void struct{}

func (Void) Type() SymbolType { return VoidType }
func (Void) Inspect() string  { return "void" }
func (Void) value()           {}

var (
	TRUE  = Boolean{Value: true}
	FALSE = Boolean{Value: false}
	VOID  = Void{}
)

func NativeBool(b bool) Boolean {
	if b {
		return TRUE
	}
	return FALSE
}

// Copy returns v with no storage shared with the original.
func Copy(v Value) Value {
	l, ok := v.(List)
	if !ok {
		return v
	}
	elements := make([]Value, len(l.Elements))
	for i, el := range l.Elements {
		elements[i] = Copy(el)
	}
	return List{Elem: l.Elem, Elements: elements}
}

// Equal compares two values structurally.
func Equal(a, b Value) bool {
	switch a := a.(type) {
	case Integer:
		b, ok := b.(Integer)
		return ok && a.Value == b.Value
	case Float:
		b, ok := b.(Float)
		return ok && a.Value == b.Value
	case Boolean:
		b, ok := b.(Boolean)
		return ok && a.Value == b.Value
	case List:
		b, ok := b.(List)
		if !ok || len(a.Elements) != len(b.Elements) {
			return false
		}
		for i := range a.Elements {
			if !Equal(a.Elements[i], b.Elements[i]) {
				return false
			}
		}
		return true
	case Void:
		_, ok := b.(Void)
		return ok
	}
	return false
}

// Zero returns the zero value of t.
func Zero(t SymbolType) Value {
	switch t.Kind {
	case INT_TYPE:
		return Integer{}
	case FLOAT_TYPE:
		return Float{}
	case BOOLEAN_TYPE:
		return FALSE
	case LIST_TYPE:
		return List{Elem: t.ElemType(), Elements: []Value{}}
	}
	return VOID
}

// Dump renders a value in tagged form, e.g. Int(3) or List([Int(1)]).
func Dump(v Value) string {
	switch v := v.(type) {
	case Integer:
		return "Int(" + v.Inspect() + ")"
	case Float:
		return "Float(" + v.Inspect() + ")"
	case Boolean:
		return "Boolean(" + v.Inspect() + ")"
	case List:
		parts := make([]string, len(v.Elements))
		for i, el := range v.Elements {
			parts[i] = Dump(el)
		}
		return "List([" + strings.Join(parts, ", ") + "])"
	}
	return "Void"
}
