// Package diag defines the error taxonomy shared by the lexer, parser and
// interpreter. Every failure carries the source position it was raised at.
package diag

import (
	"errors"
	"fmt"

	"calru/internal/token"
)

type Kind int

const (
	Lexical Kind = iota
	Parse
	Type
	Runtime
)

var kindNames = [...]string{"lexical", "parse", "type", "runtime"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

type Error struct {
	Kind Kind
	Pos  token.Position
	Msg  string
	// Cause is the underlying error, e.g. an environment sentinel.
	Cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s error at %s: %s", e.Kind, e.Pos, e.Msg)
}

func (e *Error) Unwrap() error { return e.Cause }

func New(kind Kind, pos token.Position, format string, args ...any) *Error {
	return &Error{Kind: kind, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

// Wrap builds an error of the given kind around cause, using cause's text as
// the message.
func Wrap(kind Kind, pos token.Position, cause error) *Error {
	return &Error{Kind: kind, Pos: pos, Msg: cause.Error(), Cause: cause}
}

func Lexf(pos token.Position, format string, args ...any) *Error {
	return New(Lexical, pos, format, args...)
}

func Parsef(pos token.Position, format string, args ...any) *Error {
	return New(Parse, pos, format, args...)
}

func Typef(pos token.Position, format string, args ...any) *Error {
	return New(Type, pos, format, args...)
}

func Runtimef(pos token.Position, format string, args ...any) *Error {
	return New(Runtime, pos, format, args...)
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var d *Error
	if errors.As(err, &d) {
		return d.Kind, true
	}
	return 0, false
}

// PositionOf returns the position of the first *Error in err's chain.
func PositionOf(err error) (token.Position, bool) {
	var d *Error
	if errors.As(err, &d) {
		return d.Pos, true
	}
	return token.Position{}, false
}
