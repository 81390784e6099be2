package tsql

import (
	"fmt"

	"github.com/schemaport-labs/schemaport/pkg/token"
)

// ParseError represents a parsing error with position information.
// It is scoped to a single statement: the surrounding batch keeps parsing.
type ParseError struct {
	Pos     token.Position
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at line %d, column %d: %s", e.Pos.Line, e.Pos.Column, e.Message)
}

// LexError represents a lexical analysis error.
type LexError struct {
	Pos     token.Position
	Message string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("lexer error at line %d, column %d: %s", e.Pos.Line, e.Pos.Column, e.Message)
}

// Common error messages.
const (
	ErrUnexpectedToken     = "unexpected token %s, expected %s"
	ErrUnterminatedString  = "unterminated string literal"
	ErrUnterminatedBracket = "unterminated bracket identifier"
	ErrUnbalancedParens    = "unbalanced parentheses"
)
