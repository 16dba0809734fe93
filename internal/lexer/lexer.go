package lexer

import (
	"log/slog"
	"unicode"
	"unicode/utf8"

	"calru/internal/diag"
	"calru/internal/token"
)

type Lexer struct {
	input        string
	position     int  // current byte position in input (points to start of current rune)
	readPosition int  // next byte position in input (start of next rune)
	ch           rune // current rune under examination; 0 means EOF
	atEOF        bool

	line   int // line of ch, 1-based
	column int // column of ch in runes, 1-based

	currentMode Tokenizer
}

type Tokenizer interface {
	NextToken() token.Token
}

func New(input string) *Lexer {
	l := &Lexer{input: input, line: 1}
	l.currentMode = NewGeneralTokenizer(l)
	l.readChar()
	return l
}

func (l *Lexer) NextToken() token.Token {
	return l.currentMode.NextToken()
}

// Tokenize scans the whole input. The returned sequence always ends with a
// single EOF token; when an ILLEGAL token was produced the sequence is still
// returned together with a lexical error for the first one.
func Tokenize(input string) ([]token.Token, error) {
	l := New(input)
	var tokens []token.Token
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == token.EOF {
			break
		}
	}
	slog.Debug("tokenized input", slog.Int("tokens", len(tokens)))

	for _, tok := range tokens {
		if tok.Type == token.ILLEGAL {
			return tokens, diag.Lexf(tok.Position, "invalid character %q", tok.Literal)
		}
	}
	return tokens, nil
}

func (l *Lexer) pos() token.Position {
	return token.Position{Line: l.line, Column: l.column}
}

func (l *Lexer) handleCompoundToken(
	t token.TokenType,
	ch1 rune,
	t1 token.TokenType,
) token.Token {
	start := l.pos()
	if l.peekChar() == ch1 {
		first := l.ch
		l.readChar()
		literal := string(first) + string(l.ch)
		l.readChar()
		return token.Token{Type: t1, Literal: literal, Position: start}
	}
	tok := newToken(t, l.ch, start)
	l.readChar()
	return tok
}

func (l *Lexer) skipWhitespace() {
	for {
		switch l.ch {
		case ' ', '\t', '\r', '\n':
			l.readChar()
		case '/':
			if l.peekChar() == '/' {
				l.skipToLineEnd()
			} else {
				return
			}
		default:
			return
		}
	}
}

func (l *Lexer) skipToLineEnd() {
	for l.ch != '\n' && !l.atEOF {
		l.readChar()
	}
}

// readChar advances by one UTF-8 rune, updating byte positions and the
// line/column of the new current rune.
func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.column = 1
	} else if !l.atEOF {
		l.column++
	}
	if l.readPosition >= len(l.input) {
		l.ch = 0
		l.atEOF = true
		l.position = len(l.input)
		return
	}
	r, size := utf8.DecodeRuneInString(l.input[l.readPosition:])
	l.ch = r
	l.position = l.readPosition
	l.readPosition += size
}

// peekChar returns the next rune without advancing; returns 0 at EOF
func (l *Lexer) peekChar() rune {
	if l.readPosition >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPosition:])
	return r
}

func (l *Lexer) readIdentifier() string {
	start := l.position
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return l.input[start:l.position]
}

// readNumber consumes a digit run with at most one '.'.
func (l *Lexer) readNumber() (string, bool) {
	start := l.position
	isFloat := false
	for isDigit(l.ch) || (l.ch == '.' && !isFloat) {
		if l.ch == '.' {
			isFloat = true
		}
		l.readChar()
	}
	return l.input[start:l.position], isFloat
}

// scanTypeAnnotation looks past the ':' under the cursor for a type name,
// optionally wrapped in brackets. It returns the annotation kind, its
// literal and the byte offset just past it without consuming anything.
func (l *Lexer) scanTypeAnnotation() (token.TokenType, string, int, bool) {
	i := l.readPosition
	for i < len(l.input) && (l.input[i] == ' ' || l.input[i] == '\t') {
		i++
	}
	litStart := i
	depth := 0
	for i < len(l.input) && l.input[i] == '[' {
		depth++
		i++
	}
	nameStart := i
	for i < len(l.input) {
		r, size := utf8.DecodeRuneInString(l.input[i:])
		if !isLetter(r) && !isDigit(r) {
			break
		}
		i += size
	}
	kind, ok := token.LookupTypeName(l.input[nameStart:i])
	if !ok {
		return "", "", 0, false
	}
	for n := 0; n < depth; n++ {
		if i >= len(l.input) || l.input[i] != ']' {
			return "", "", 0, false
		}
		i++
	}
	if depth > 0 {
		kind = token.LIST_TYPE
	}
	return kind, l.input[litStart:i], i, true
}

func isLetter(ch rune) bool {
	return ch == '_' || unicode.IsLetter(ch)
}

func isDigit(ch rune) bool {
	return '0' <= ch && ch <= '9'
}

func newToken(tokenType token.TokenType, ch rune, pos token.Position) token.Token {
	return token.Token{Type: tokenType, Literal: string(ch), Position: pos}
}
