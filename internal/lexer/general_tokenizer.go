package lexer

import (
	"calru/internal/token"
)

type GeneralTokenizer struct {
	lexer *Lexer
}

func NewGeneralTokenizer(lexer *Lexer) *GeneralTokenizer {
	return &GeneralTokenizer{lexer: lexer}
}

func (g *GeneralTokenizer) NextToken() token.Token {
	l := g.lexer

	l.skipWhitespace()

	start := l.pos()

	switch l.ch {
	case '+':
		return g.single(token.PLUS)
	case '-':
		return g.single(token.MINUS)
	case '*':
		return g.single(token.ASTERISK)
	case '/':
		return g.single(token.SLASH)
	case '<':
		return l.handleCompoundToken(token.LT, '=', token.LT_EQ)
	case '>':
		return l.handleCompoundToken(token.GT, '=', token.GT_EQ)
	case '=':
		return l.handleCompoundToken(token.ILLEGAL, '=', token.EQ)
	case '!':
		return l.handleCompoundToken(token.ILLEGAL, '=', token.NOT_EQ)
	case '&':
		return l.handleCompoundToken(token.ILLEGAL, '&', token.LOGICAL_AND)
	case '|':
		return l.handleCompoundToken(token.ILLEGAL, '|', token.LOGICAL_OR)
	case ':':
		if l.peekChar() == '=' {
			return l.handleCompoundToken(token.COLON, '=', token.ASSIGN)
		}
		if kind, literal, end, ok := l.scanTypeAnnotation(); ok {
			for l.position < end && !l.atEOF {
				l.readChar()
			}
			return token.Token{Type: kind, Literal: literal, Position: start}
		}
		return g.single(token.COLON)
	case ';':
		return g.single(token.SEMICOLON)
	case ',':
		return g.single(token.COMMA)
	case '.':
		return g.single(token.PERIOD)
	case '(':
		return g.single(token.LPAREN)
	case ')':
		return g.single(token.RPAREN)
	case '{':
		return g.single(token.LBRACE)
	case '}':
		return g.single(token.RBRACE)
	case '[':
		return g.single(token.LBRACKET)
	case ']':
		return g.single(token.RBRACKET)
	case 0:
		if l.atEOF {
			return token.Token{Type: token.EOF, Literal: "", Position: start}
		}
	}

	if isLetter(l.ch) {
		literal := l.readIdentifier()
		return token.Token{Type: token.LookupIdent(literal), Literal: literal, Position: start}
	}
	if isDigit(l.ch) {
		literal, isFloat := l.readNumber()
		tt := token.TokenType(token.INT)
		if isFloat {
			tt = token.FLOAT
		}
		return token.Token{Type: tt, Literal: literal, Position: start}
	}

	return g.single(token.ILLEGAL)
}

func (g *GeneralTokenizer) single(t token.TokenType) token.Token {
	tok := newToken(t, g.lexer.ch, g.lexer.pos())
	g.lexer.readChar()
	return tok
}
