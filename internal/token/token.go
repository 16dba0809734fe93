package token

import "fmt"

type TokenType string

const (
	ILLEGAL = "ILLEGAL"
	EOF     = "EOF"

	// Identifiers + literals
	IDENT   = "IDENT"   // x, total, my_list
	INT     = "INT"     // 1343456
	FLOAT   = "FLOAT"   // 3.14
	BOOLEAN = "BOOLEAN" // true, false

	// Type annotations
	INT_TYPE   = "INT_TYPE"   // :int
	FLOAT_TYPE = "FLOAT_TYPE" // :float
	BOOL_TYPE  = "BOOL_TYPE"  // :bool
	LIST_TYPE  = "LIST_TYPE"  // :[int], :[[float]]

	// Operators
	ASSIGN   = ":="
	PLUS     = "+"
	MINUS    = "-"
	ASTERISK = "*"
	SLASH    = "/"

	LT    = "<"
	LT_EQ = "<="
	GT    = ">"
	GT_EQ = ">="

	EQ     = "=="
	NOT_EQ = "!="

	LOGICAL_AND = "&&"
	LOGICAL_OR  = "||"

	// Delimiters
	PERIOD    = "."
	COMMA     = ","
	SEMICOLON = ";"
	COLON     = ":"

	LPAREN   = "("
	RPAREN   = ")"
	LBRACE   = "{"
	RBRACE   = "}"
	LBRACKET = "["
	RBRACKET = "]"

	// Keywords
	LET    = "LET"
	STDOUT = "STDOUT"
	IF     = "IF"
	THEN   = "THEN"
	ELSE   = "ELSE"
	END    = "END"
	LOOP   = "LOOP"
	BREAK  = "BREAK"
	FETCH  = "FETCH"
	PUSH   = "PUSH"
	POP    = "POP"
	LEN    = "LEN"
)

// Position is a 1-based line/column pair.
type Position struct {
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

type Token struct {
	Type     TokenType
	Literal  string
	Position Position
}

func (t Token) String() string {
	return fmt.Sprintf("%-10s %-8q @%s", t.Type, t.Literal, t.Position)
}

var keywords = map[string]TokenType{
	// declarations
	"let": LET,

	// output
	"stdout": STDOUT,

	// flow control
	"if":    IF,
	"then":  THEN,
	"else":  ELSE,
	"end":   END,
	"loop":  LOOP,
	"break": BREAK,

	// list methods
	"fetch": FETCH,
	"push":  PUSH,
	"pop":   POP,
	"len":   LEN,

	// constants
	"true":  BOOLEAN,
	"false": BOOLEAN,
}

// typeNames are only recognised directly after a ':'.
var typeNames = map[string]TokenType{
	"int":   INT_TYPE,
	"float": FLOAT_TYPE,
	"bool":  BOOL_TYPE,
}

func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENT
}

// LookupTypeName reports the annotation kind for a bare type name.
func LookupTypeName(name string) (TokenType, bool) {
	tok, ok := typeNames[name]
	return tok, ok
}

// IsMethod reports whether t may follow a '.' on an identifier.
func IsMethod(t TokenType) bool {
	switch t {
	case FETCH, PUSH, POP, LEN:
		return true
	}
	return false
}
