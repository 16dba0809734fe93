package object

import "fmt"

// Symbol is one declared name: its declared type and current value.
type Symbol struct {
	Type  SymbolType
	Value Value
}

func (s Symbol) String() string {
	return fmt.Sprintf("%s = %s", s.Type.Annotation(), s.Value.Inspect())
}
