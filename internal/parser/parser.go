package parser

import (
	"log/slog"
	"strconv"
	"strings"

	"calru/internal/ast"
	"calru/internal/diag"
	"calru/internal/evaluator"
	"calru/internal/lexer"
	"calru/internal/object"
	"calru/internal/token"
)

// The grammar has two binary levels: every non-multiplicative operator
// shares SUM and associates to the left.
const (
	_ int = iota
	LOWEST
	SUM     // + - == != < > <= >= && ||
	PRODUCT // * /
)

var precedences = map[token.TokenType]int{
	token.PLUS:        SUM,
	token.MINUS:       SUM,
	token.EQ:          SUM,
	token.NOT_EQ:      SUM,
	token.LT:          SUM,
	token.LT_EQ:       SUM,
	token.GT:          SUM,
	token.GT_EQ:       SUM,
	token.LOGICAL_AND: SUM,
	token.LOGICAL_OR:  SUM,
	token.ASTERISK:    PRODUCT,
	token.SLASH:       PRODUCT,
}

type (
	prefixParseFn func() ast.Expression
	infixParseFn  func(ast.Expression) ast.Expression
)

type Option func(*Parser)

// WithEnvironment continues parsing on top of an existing environment, as
// the console does between lines.
func WithEnvironment(env *object.Environment) Option {
	return func(p *Parser) {
		p.env = env
	}
}

type Parser struct {
	tokens []token.Token
	next   int
	err    *diag.Error // first failure; parsing stops there

	curToken  token.Token
	peekToken token.Token

	env       *object.Environment
	types     map[ast.Node]object.SymbolType
	loopDepth int

	prefixParseFns map[token.TokenType]prefixParseFn
	infixParseFns  map[token.TokenType]infixParseFn
}

func New(tokens []token.Token, opts ...Option) *Parser {
	if n := len(tokens); n == 0 || tokens[n-1].Type != token.EOF {
		end := token.Position{Line: 1, Column: 1}
		if n > 0 {
			end = tokens[n-1].Position
		}
		tokens = append(tokens, token.Token{Type: token.EOF, Position: end})
	}

	p := &Parser{
		tokens: tokens,
		types:  make(map[ast.Node]object.SymbolType),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.env == nil {
		p.env = object.NewEnvironment()
	}

	p.prefixParseFns = make(map[token.TokenType]prefixParseFn)
	p.registerPrefix(token.INT, p.parseIntegerLiteral)
	p.registerPrefix(token.FLOAT, p.parseFloatLiteral)
	p.registerPrefix(token.BOOLEAN, p.parseBoolean)
	p.registerPrefix(token.IDENT, p.parseIdentifier)
	p.registerPrefix(token.LPAREN, p.parseGroupedExpression)
	p.registerPrefix(token.LBRACKET, p.parseListLiteral)

	p.infixParseFns = make(map[token.TokenType]infixParseFn)
	for op := range precedences {
		p.registerInfix(op, p.parseBinaryExpression)
	}

	// Read two tokens, so curToken and peekToken are both set
	p.nextToken()
	p.nextToken()

	return p
}

// ParseSource lexes and parses src in a fresh environment.
func ParseSource(src string) (*ast.Program, *object.Environment, error) {
	tokens, err := lexer.Tokenize(src)
	if err != nil {
		return nil, nil, err
	}
	p := New(tokens)
	program, err := p.ParseProgram()
	return program, p.Environment(), err
}

func (p *Parser) registerPrefix(tokenType token.TokenType, fn prefixParseFn) {
	p.prefixParseFns[tokenType] = fn
}

func (p *Parser) registerInfix(tokenType token.TokenType, fn infixParseFn) {
	p.infixParseFns[tokenType] = fn
}

// Environment returns the environment populated by eager evaluation of
// declarations.
func (p *Parser) Environment() *object.Environment {
	return p.env
}

// TypeOf returns the inferred type of an expression or statement parsed by p.
func (p *Parser) TypeOf(node ast.Node) (object.SymbolType, bool) {
	t, ok := p.types[node]
	return t, ok
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	if p.next < len(p.tokens) {
		p.peekToken = p.tokens[p.next]
		p.next++
	}
}

func (p *Parser) curTokenIs(t token.TokenType) bool {
	return p.curToken.Type == t
}

func (p *Parser) peekTokenIs(t token.TokenType) bool {
	return p.peekToken.Type == t
}

func (p *Parser) failed() bool {
	return p.err != nil
}

func (p *Parser) fail(err *diag.Error) {
	if p.err == nil {
		p.err = err
	}
}

func (p *Parser) addError(pos token.Position, format string, args ...any) {
	p.fail(diag.Parsef(pos, format, args...))
}

func (p *Parser) typeError(pos token.Position, format string, args ...any) {
	p.fail(diag.Typef(pos, format, args...))
}

func (p *Parser) peekError(expected string) {
	p.addError(p.peekToken.Position, "expected %s, got %s instead", expected, describe(p.peekToken))
}

func (p *Parser) expectPeek(t token.TokenType) bool {
	if p.peekTokenIs(t) {
		p.nextToken()
		return true
	}
	p.peekError(expected(t))
	return false
}

// expected names a token kind the way it is written in source.
func expected(t token.TokenType) string {
	switch t {
	case token.IDENT:
		return "identifier"
	case token.EOF:
		return "end of input"
	}
	if kw := strings.ToLower(string(t)); token.LookupIdent(kw) == t {
		return "'" + kw + "'"
	}
	return "'" + string(t) + "'"
}

func describe(tok token.Token) string {
	switch tok.Type {
	case token.EOF:
		return "end of input"
	case token.IDENT, token.INT, token.FLOAT, token.BOOLEAN:
		return string(tok.Type) + " '" + tok.Literal + "'"
	}
	return "'" + tok.Literal + "'"
}

func (p *Parser) ParseProgram() (*ast.Program, error) {
	program := &ast.Program{}
	program.Statements = []ast.Statement{}

	for !p.curTokenIs(token.EOF) {
		stmt := p.parseStatement()
		if p.failed() {
			return nil, p.err
		}
		program.Statements = append(program.Statements, stmt)
		p.nextToken()
	}

	return program, nil
}

// parseStatement leaves curToken on the last token of the statement.
func (p *Parser) parseStatement() ast.Statement {
	switch p.curToken.Type {
	case token.LET:
		return p.parseLetStatement()
	case token.STDOUT:
		return p.parsePrintStatement()
	case token.IF:
		return p.parseIfStatement()
	case token.LOOP:
		return p.parseLoopStatement()
	case token.BREAK:
		return p.parseBreakStatement()
	case token.IDENT:
		switch p.peekToken.Type {
		case token.ASSIGN:
			return p.parseAssignStatement()
		case token.PERIOD:
			return p.parseMethodStatement()
		}
		p.peekError("':=' or '.' after identifier '" + p.curToken.Literal + "'")
		return nil
	}
	p.addError(p.curToken.Position, "expected a statement, got %s", describe(p.curToken))
	return nil
}

func (p *Parser) parseLetStatement() ast.Statement {
	stmt := &ast.AssignStatement{Token: p.curToken, Declare: true}

	if !p.expectPeek(token.IDENT) {
		return nil
	}
	stmt.Name = &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}

	switch p.peekToken.Type {
	case token.INT_TYPE, token.FLOAT_TYPE, token.BOOL_TYPE, token.LIST_TYPE:
		p.nextToken()
	default:
		p.peekError("a type annotation (:int, :float, :bool or :[type])")
		return nil
	}
	typ, err := object.TypeFromToken(p.curToken)
	if err != nil {
		p.typeError(p.curToken.Position, "%s", err)
		return nil
	}
	stmt.Type = typ

	if !p.expectPeek(token.ASSIGN) {
		return nil
	}
	p.nextToken()

	value, valueType := p.parseTypedExpression()
	if p.failed() {
		return nil
	}
	stmt.Value = value
	if !p.expectPeek(token.SEMICOLON) {
		return nil
	}

	if !valueType.Equal(typ) {
		p.typeError(value.Pos(), "cannot assign %s to '%s' declared as %s", valueType, stmt.Name.Value, typ)
		return nil
	}

	p.declare(stmt)
	if p.failed() {
		return nil
	}
	p.types[stmt] = typ
	return stmt
}

// declare evaluates the right-hand side eagerly and binds the result so that
// later statements check against it. A value that cannot be computed yet is
// left to the interpreter and the binding starts at its zero value.
func (p *Parser) declare(stmt *ast.AssignStatement) {
	val, err := evaluator.Eval(stmt.Value, p.env)
	if err != nil {
		slog.Debug("deferring declaration value to run time",
			slog.String("name", stmt.Name.Value),
			slog.Any("error", err))
		val = object.Zero(stmt.Type)
	}
	if err := p.env.Declare(stmt.Name.Value, stmt.Type, val); err != nil {
		p.fail(diag.Wrap(diag.Type, stmt.Name.Pos(), err))
	}
}

func (p *Parser) parseAssignStatement() ast.Statement {
	stmt := &ast.AssignStatement{Token: p.curToken}
	stmt.Name = &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}

	sym, err := p.env.Lookup(stmt.Name.Value)
	if err != nil {
		p.fail(diag.Wrap(diag.Type, stmt.Name.Pos(), err))
		return nil
	}

	p.nextToken() // ':='
	p.nextToken()

	value, valueType := p.parseTypedExpression()
	if p.failed() {
		return nil
	}
	stmt.Value = value
	if !p.expectPeek(token.SEMICOLON) {
		return nil
	}

	if !valueType.Equal(sym.Type) {
		p.typeError(value.Pos(), "cannot assign %s to '%s' of type %s", valueType, stmt.Name.Value, sym.Type)
		return nil
	}
	p.types[stmt] = sym.Type
	return stmt
}

func (p *Parser) parsePrintStatement() ast.Statement {
	stmt := &ast.PrintStatement{Token: p.curToken}

	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	p.nextToken()

	value, valueType := p.parseTypedExpression()
	if p.failed() {
		return nil
	}
	stmt.Value = value

	if !p.expectPeek(token.RPAREN) || !p.expectPeek(token.SEMICOLON) {
		return nil
	}
	p.types[stmt] = valueType
	return stmt
}

func (p *Parser) parseIfStatement() ast.Statement {
	stmt := &ast.IfStatement{Token: p.curToken}

	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	p.nextToken()

	cond, condType := p.parseTypedExpression()
	if p.failed() {
		return nil
	}
	if !condType.Equal(object.BoolType) {
		p.typeError(cond.Pos(), "if condition must be Boolean, got %s", condType)
		return nil
	}
	stmt.Condition = cond

	if !p.expectPeek(token.RPAREN) || !p.expectPeek(token.THEN) {
		return nil
	}
	p.nextToken()

	consequence, thenType := p.parseBranch(token.ELSE, token.END)
	if p.failed() {
		return nil
	}
	stmt.Consequence = consequence

	if p.curTokenIs(token.ELSE) {
		p.nextToken()
		alternative, elseType := p.parseBranch(token.END)
		if p.failed() {
			return nil
		}
		if !branchTypesAgree(thenType, elseType) {
			p.typeError(alternative.Pos(), "if branches have different types: %s and %s", thenType, elseType)
			return nil
		}
		if !thenType.Equal(elseType) {
			thenType = object.VoidType
		}
		stmt.Alternative = alternative
	}

	if p.peekTokenIs(token.SEMICOLON) {
		p.nextToken()
	}
	p.types[stmt] = thenType
	return stmt
}

// branchTypesAgree reports whether two branch types may meet. A Void branch
// agrees with anything and the if statement is then Void.
func branchTypesAgree(a, b object.SymbolType) bool {
	if a.Equal(object.VoidType) || b.Equal(object.VoidType) {
		return true
	}
	return a.Equal(b)
}

func (p *Parser) parseLoopStatement() ast.Statement {
	stmt := &ast.LoopStatement{Token: p.curToken}

	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	p.nextToken()

	p.loopDepth++
	body, _ := p.parseBranch(token.RBRACE)
	p.loopDepth--
	if p.failed() {
		return nil
	}
	stmt.Body = body

	if p.peekTokenIs(token.SEMICOLON) {
		p.nextToken()
	}
	p.types[stmt] = object.VoidType
	return stmt
}

func (p *Parser) parseBreakStatement() ast.Statement {
	stmt := &ast.BreakStatement{Token: p.curToken}

	if p.loopDepth == 0 {
		p.addError(stmt.Pos(), "break outside of a loop")
		return nil
	}
	if !p.expectPeek(token.SEMICOLON) {
		return nil
	}
	p.types[stmt] = object.VoidType
	return stmt
}

// parseBranch parses statements in a new scope until one of the terminators
// becomes the current token. The branch type is the type of its last
// statement.
func (p *Parser) parseBranch(terminators ...token.TokenType) (*ast.BlockStatement, object.SymbolType) {
	block := &ast.BlockStatement{Token: p.curToken}
	block.Statements = []ast.Statement{}
	typ := object.VoidType

	p.env.EnterScope()
	defer func() {
		if err := p.env.ExitScope(); err != nil {
			p.fail(diag.Wrap(diag.Parse, block.Pos(), err))
		}
	}()

	for !p.curTokenIsAny(terminators...) {
		if p.curTokenIs(token.EOF) {
			p.addError(p.curToken.Position, "expected %s to close the block opened at %s, got end of input",
				expected(terminators[len(terminators)-1]), block.Pos())
			return nil, typ
		}
		stmt := p.parseStatement()
		if p.failed() {
			return nil, typ
		}
		block.Statements = append(block.Statements, stmt)
		typ = p.types[stmt]
		p.nextToken()
	}

	p.types[block] = typ
	return block, typ
}

func (p *Parser) curTokenIsAny(types ...token.TokenType) bool {
	for _, t := range types {
		if p.curTokenIs(t) {
			return true
		}
	}
	return false
}

// parseMethodStatement handles `L.push(e);` and `L.pop();`.
func (p *Parser) parseMethodStatement() ast.Statement {
	list := &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}
	p.nextToken() // '.'
	p.nextToken()

	method := p.curToken
	switch method.Type {
	case token.PUSH:
		stmt := &ast.PushStatement{Token: method, List: list}
		if !p.expectPeek(token.LPAREN) {
			return nil
		}
		p.nextToken()
		value, valueType := p.parseTypedExpression()
		if p.failed() {
			return nil
		}
		stmt.Value = value
		if !p.expectPeek(token.RPAREN) || !p.expectPeek(token.SEMICOLON) {
			return nil
		}
		listType, ok := p.listType(list, "push")
		if !ok {
			return nil
		}
		if !valueType.Equal(listType.ElemType()) {
			p.typeError(value.Pos(), "cannot push %s onto '%s' of type %s", valueType, list.Value, listType)
			return nil
		}
		p.types[stmt] = object.VoidType
		return stmt

	case token.POP:
		stmt := &ast.PopStatement{Token: method, List: list}
		if !p.expectPeek(token.LPAREN) || !p.expectPeek(token.RPAREN) || !p.expectPeek(token.SEMICOLON) {
			return nil
		}
		listType, ok := p.listType(list, "pop")
		if !ok {
			return nil
		}
		p.types[stmt] = listType.ElemType()
		return stmt

	case token.FETCH, token.LEN:
		p.addError(method.Position, "%s() is an expression and cannot stand alone as a statement", method.Literal)
		return nil
	}

	p.addError(method.Position, "expected push, pop, fetch or len after '.', got %s", describe(method))
	return nil
}

// listType resolves the static type of a named list receiver.
func (p *Parser) listType(list *ast.Identifier, method string) (object.SymbolType, bool) {
	sym, err := p.env.Lookup(list.Value)
	if err != nil {
		p.fail(diag.Wrap(diag.Type, list.Pos(), err))
		return object.VoidType, false
	}
	if !sym.Type.IsList() {
		p.typeError(list.Pos(), "%s on '%s' of type %s: %s", method, list.Value, sym.Type, object.ErrNotAList)
		return object.VoidType, false
	}
	return sym.Type, true
}

// Expressions

func (p *Parser) parseTypedExpression() (ast.Expression, object.SymbolType) {
	expr := p.parseExpression(LOWEST)
	if p.failed() {
		return nil, object.VoidType
	}
	typ, err := p.infer(expr)
	if err != nil {
		p.fail(err)
		return nil, object.VoidType
	}
	return expr, typ
}

func (p *Parser) parseExpression(precedence int) ast.Expression {
	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		p.addError(p.curToken.Position, "expected an expression, got %s", describe(p.curToken))
		return nil
	}
	leftExp := prefix()

	for !p.failed() && precedence < p.peekPrecedence() {
		infix := p.infixParseFns[p.peekToken.Type]
		if infix == nil {
			return leftExp
		}

		p.nextToken()

		leftExp = infix(leftExp)
	}

	if p.failed() {
		return nil
	}
	return leftExp
}

func (p *Parser) peekPrecedence() int {
	if p, ok := precedences[p.peekToken.Type]; ok {
		return p
	}

	return LOWEST
}

func (p *Parser) curPrecedence() int {
	if p, ok := precedences[p.curToken.Type]; ok {
		return p
	}

	return LOWEST
}

func (p *Parser) parseIntegerLiteral() ast.Expression {
	lit := &ast.IntegerLiteral{Token: p.curToken}

	value, err := strconv.ParseInt(p.curToken.Literal, 10, 64)
	if err != nil {
		p.addError(p.curToken.Position, "could not parse %q as integer", p.curToken.Literal)
		return nil
	}

	lit.Value = value
	return lit
}

func (p *Parser) parseFloatLiteral() ast.Expression {
	lit := &ast.FloatLiteral{Token: p.curToken}

	value, err := strconv.ParseFloat(p.curToken.Literal, 64)
	if err != nil {
		p.addError(p.curToken.Position, "could not parse %q as float", p.curToken.Literal)
		return nil
	}

	lit.Value = value
	return lit
}

func (p *Parser) parseBoolean() ast.Expression {
	return &ast.BooleanLiteral{Token: p.curToken, Value: p.curToken.Literal == "true"}
}

// parseIdentifier also handles the expression methods `.fetch(i)` and `.len()`.
func (p *Parser) parseIdentifier() ast.Expression {
	ident := &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}

	if !p.peekTokenIs(token.PERIOD) {
		return ident
	}
	p.nextToken() // '.'
	p.nextToken()

	method := p.curToken
	switch method.Type {
	case token.FETCH:
		if !p.expectPeek(token.LPAREN) {
			return nil
		}
		p.nextToken()
		index := p.parseExpression(LOWEST)
		if p.failed() || !p.expectPeek(token.RPAREN) {
			return nil
		}
		return &ast.FetchExpression{Token: method, List: ident, Index: index}

	case token.LEN:
		if !p.expectPeek(token.LPAREN) || !p.expectPeek(token.RPAREN) {
			return nil
		}
		return &ast.LenExpression{Token: method, List: ident}

	case token.PUSH, token.POP:
		p.addError(method.Position, "%s() is a statement and cannot be used inside an expression", method.Literal)
		return nil
	}

	p.addError(method.Position, "expected fetch or len after '.', got %s", describe(method))
	return nil
}

func (p *Parser) parseGroupedExpression() ast.Expression {
	p.nextToken()

	exp := p.parseExpression(LOWEST)
	if p.failed() || !p.expectPeek(token.RPAREN) {
		return nil
	}

	return exp
}

func (p *Parser) parseListLiteral() ast.Expression {
	list := &ast.ListLiteral{Token: p.curToken}
	list.Elements = p.parseExpressionList(token.RBRACKET)
	if p.failed() {
		return nil
	}
	return list
}

func (p *Parser) parseExpressionList(end token.TokenType) []ast.Expression {
	list := []ast.Expression{}

	if p.peekTokenIs(end) {
		p.nextToken()
		return list
	}

	p.nextToken()
	list = append(list, p.parseExpression(LOWEST))

	for !p.failed() && p.peekTokenIs(token.COMMA) {
		p.nextToken()
		p.nextToken()
		list = append(list, p.parseExpression(LOWEST))
	}

	if p.failed() || !p.expectPeek(end) {
		return nil
	}

	return list
}

func (p *Parser) parseBinaryExpression(left ast.Expression) ast.Expression {
	expression := &ast.BinaryExpression{
		Token:    p.curToken,
		Operator: p.curToken.Literal,
		Left:     left,
	}

	precedence := p.curPrecedence()
	p.nextToken()
	expression.Right = p.parseExpression(precedence)

	return expression
}
