package parser

import (
	"errors"
	"fmt"

	"github.com/roach88/cpql/internal/token"
)

// ErrSyntax is matched by every *SyntaxError via errors.Is.
var ErrSyntax = errors.New("cpql: syntax error")

// ErrorKind classifies syntax errors.
type ErrorKind string

const (
	// KindUnexpectedToken means a token appeared where the grammar does not allow it.
	KindUnexpectedToken ErrorKind = "unexpected token"
	// KindUnexpectedEOF means the query ended before the statement was complete.
	KindUnexpectedEOF ErrorKind = "unexpected end of input"
	// KindUnknownKeyword means a statement started with something other than SELECT, UPDATE or DELETE.
	KindUnknownKeyword ErrorKind = "unknown keyword"
)

// SyntaxError describes a parsing failure with source position context.
type SyntaxError struct {
	Kind  ErrorKind
	Pos   token.Position
	Token string // offending token text, empty at end of input
	Msg   string
}

func (e *SyntaxError) Error() string {
	if e == nil {
		return ""
	}
	if e.Pos.IsValid() {
		return fmt.Sprintf("syntax error at line %d, column %d: %s: %s", e.Pos.Line, e.Pos.Column, e.Kind, e.Msg)
	}
	return fmt.Sprintf("syntax error: %s: %s", e.Kind, e.Msg)
}

// Is reports whether target is ErrSyntax.
func (e *SyntaxError) Is(target error) bool {
	return target == ErrSyntax
}

// IsSyntaxError reports whether err is or wraps a *SyntaxError.
func IsSyntaxError(err error) bool {
	var se *SyntaxError
	return errors.As(err, &se)
}
