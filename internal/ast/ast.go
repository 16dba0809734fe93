package ast

import (
	"bytes"
	"strings"

	"calru/internal/object"
	"calru/internal/token"
)

// The base Node interface
type Node interface {
	TokenLiteral() string
	Pos() token.Position
	String() string
}

type Statement interface {
	Node
	statementNode()
}

type Expression interface {
	Node
	expressionNode()
}

type Program struct {
	Statements []Statement
}

func (p *Program) TokenLiteral() string {
	if len(p.Statements) > 0 {
		return p.Statements[0].TokenLiteral()
	}
	return ""
}

func (p *Program) Pos() token.Position {
	if len(p.Statements) > 0 {
		return p.Statements[0].Pos()
	}
	return token.Position{Line: 1, Column: 1}
}

func (p *Program) String() string {
	var out bytes.Buffer
	for i, s := range p.Statements {
		if i > 0 {
			out.WriteString("\n")
		}
		out.WriteString(s.String())
	}
	return out.String()
}

// Statements

// AssignStatement is both a declaration (`let x:int := e;`, Declare set) and
// a re-assignment (`x := e;`).
type AssignStatement struct {
	Token   token.Token // the token.LET or token.IDENT token
	Name    *Identifier
	Value   Expression
	Declare bool
	Type    object.SymbolType // declared type, only meaningful when Declare is set
}

func (as *AssignStatement) statementNode()       {}
func (as *AssignStatement) TokenLiteral() string { return as.Token.Literal }
func (as *AssignStatement) Pos() token.Position  { return as.Token.Position }
func (as *AssignStatement) String() string {
	if as.Declare {
		return "let " + as.Name.String() + ":" + as.Type.Annotation() + " := " + as.Value.String() + ";"
	}
	return as.Name.String() + " := " + as.Value.String() + ";"
}

type PrintStatement struct {
	Token token.Token // the token.STDOUT token
	Value Expression
}

func (ps *PrintStatement) statementNode()       {}
func (ps *PrintStatement) TokenLiteral() string { return ps.Token.Literal }
func (ps *PrintStatement) Pos() token.Position  { return ps.Token.Position }
func (ps *PrintStatement) String() string {
	return "stdout(" + ps.Value.String() + ");"
}

type BlockStatement struct {
	Token      token.Token // the first token of the block
	Statements []Statement
}

func (bs *BlockStatement) statementNode()       {}
func (bs *BlockStatement) TokenLiteral() string { return bs.Token.Literal }
func (bs *BlockStatement) Pos() token.Position  { return bs.Token.Position }
func (bs *BlockStatement) String() string {
	parts := make([]string, len(bs.Statements))
	for i, s := range bs.Statements {
		parts[i] = s.String()
	}
	return strings.Join(parts, " ")
}

type IfStatement struct {
	Token       token.Token // the token.IF token
	Condition   Expression
	Consequence *BlockStatement
	Alternative *BlockStatement // nil without an else branch
}

func (is *IfStatement) statementNode()       {}
func (is *IfStatement) TokenLiteral() string { return is.Token.Literal }
func (is *IfStatement) Pos() token.Position  { return is.Token.Position }
func (is *IfStatement) String() string {
	var out bytes.Buffer
	out.WriteString("if (" + is.Condition.String() + ") then ")
	out.WriteString(is.Consequence.String())
	if is.Alternative != nil {
		out.WriteString(" else ")
		out.WriteString(is.Alternative.String())
	}
	out.WriteString(" end")
	return out.String()
}

type LoopStatement struct {
	Token token.Token // the token.LOOP token
	Body  *BlockStatement
}

func (ls *LoopStatement) statementNode()       {}
func (ls *LoopStatement) TokenLiteral() string { return ls.Token.Literal }
func (ls *LoopStatement) Pos() token.Position  { return ls.Token.Position }
func (ls *LoopStatement) String() string {
	return "loop { " + ls.Body.String() + " }"
}

type BreakStatement struct {
	Token token.Token // the token.BREAK token
}

func (bs *BreakStatement) statementNode()       {}
func (bs *BreakStatement) TokenLiteral() string { return bs.Token.Literal }
func (bs *BreakStatement) Pos() token.Position  { return bs.Token.Position }
func (bs *BreakStatement) String() string       { return "break;" }

// PushStatement is the desugared form of `L.push(e);`. Lists are addressed
// by name so that the mutation lands in the environment.
type PushStatement struct {
	Token token.Token // the token.PUSH token
	List  *Identifier
	Value Expression
}

func (ps *PushStatement) statementNode()       {}
func (ps *PushStatement) TokenLiteral() string { return ps.Token.Literal }
func (ps *PushStatement) Pos() token.Position  { return ps.Token.Position }
func (ps *PushStatement) String() string {
	return ps.List.String() + ".push(" + ps.Value.String() + ");"
}

type PopStatement struct {
	Token token.Token // the token.POP token
	List  *Identifier
}

func (ps *PopStatement) statementNode()       {}
func (ps *PopStatement) TokenLiteral() string { return ps.Token.Literal }
func (ps *PopStatement) Pos() token.Position  { return ps.Token.Position }
func (ps *PopStatement) String() string       { return ps.List.String() + ".pop();" }

// Expressions

type IntegerLiteral struct {
	Token token.Token
	Value int64
}

func (il *IntegerLiteral) expressionNode()      {}
func (il *IntegerLiteral) TokenLiteral() string { return il.Token.Literal }
func (il *IntegerLiteral) Pos() token.Position  { return il.Token.Position }
func (il *IntegerLiteral) String() string       { return il.Token.Literal }

type FloatLiteral struct {
	Token token.Token
	Value float64
}

func (fl *FloatLiteral) expressionNode()      {}
func (fl *FloatLiteral) TokenLiteral() string { return fl.Token.Literal }
func (fl *FloatLiteral) Pos() token.Position  { return fl.Token.Position }
func (fl *FloatLiteral) String() string       { return fl.Token.Literal }

type BooleanLiteral struct {
	Token token.Token
	Value bool
}

func (bl *BooleanLiteral) expressionNode()      {}
func (bl *BooleanLiteral) TokenLiteral() string { return bl.Token.Literal }
func (bl *BooleanLiteral) Pos() token.Position  { return bl.Token.Position }
func (bl *BooleanLiteral) String() string       { return bl.Token.Literal }

type Identifier struct {
	Token token.Token // the token.IDENT token
	Value string
}

func (i *Identifier) expressionNode()      {}
func (i *Identifier) TokenLiteral() string { return i.Token.Literal }
func (i *Identifier) Pos() token.Position  { return i.Token.Position }
func (i *Identifier) String() string       { return i.Value }

type ListLiteral struct {
	Token    token.Token // the '[' token
	Elements []Expression
}

func (ll *ListLiteral) expressionNode()      {}
func (ll *ListLiteral) TokenLiteral() string { return ll.Token.Literal }
func (ll *ListLiteral) Pos() token.Position  { return ll.Token.Position }
func (ll *ListLiteral) String() string {
	parts := make([]string, len(ll.Elements))
	for i, el := range ll.Elements {
		parts[i] = el.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

type BinaryExpression struct {
	Token    token.Token // the operator token
	Operator string
	Left     Expression
	Right    Expression
}

func (be *BinaryExpression) expressionNode()      {}
func (be *BinaryExpression) TokenLiteral() string { return be.Token.Literal }
func (be *BinaryExpression) Pos() token.Position  { return be.Token.Position }
func (be *BinaryExpression) String() string {
	return "(" + be.Left.String() + " " + be.Operator + " " + be.Right.String() + ")"
}

type FetchExpression struct {
	Token token.Token // the token.FETCH token
	List  Expression
	Index Expression
}

func (fe *FetchExpression) expressionNode()      {}
func (fe *FetchExpression) TokenLiteral() string { return fe.Token.Literal }
func (fe *FetchExpression) Pos() token.Position  { return fe.Token.Position }
func (fe *FetchExpression) String() string {
	return fe.List.String() + ".fetch(" + fe.Index.String() + ")"
}

type LenExpression struct {
	Token token.Token // the token.LEN token
	List  Expression
}

func (le *LenExpression) expressionNode()      {}
func (le *LenExpression) TokenLiteral() string { return le.Token.Literal }
func (le *LenExpression) Pos() token.Position  { return le.Token.Position }
func (le *LenExpression) String() string       { return le.List.String() + ".len()" }
