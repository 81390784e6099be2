// Package token defines the lexical tokens for T-SQL DDL parsing.
package token

import "fmt"

// TokenType represents the type of a lexical token.
//
//nolint:revive // Accept stutter as token.TokenType is clear and widely used
type TokenType int32

const (
	// Special tokens
	EOF TokenType = iota
	ILLEGAL

	// Literals
	IDENT  // unquoted identifier
	QIDENT // [bracket-quoted] identifier, literal holds the inner text
	NUMBER // 123, 45.67
	STRING // 'hello' or N'hello'

	// Punctuation
	COMMA    // ,
	DOT      // .
	SEMI     // ;
	LPAREN   // (
	RPAREN   // )
	EQ       // =
	STAR     // *
	PLUS     // +
	MINUS    // -
	SLASH    // /
	PERCENT  // %
	LT       // <
	GT       // >
	LE       // <=
	GE       // >=
	NE       // <> or !=
	VARIABLE // @name
	BATCHSEP // GO batch separator

	// Keywords
	ADD
	ALWAYS
	AND
	AS
	ASC
	BY
	CACHE
	CHECK
	CLUSTERED
	COLUMNSTORE
	CONSTRAINT
	CREATE
	DEFAULT
	DESC
	END
	EXEC
	EXECUTE
	FOR
	FOREIGN
	GENERATED
	HIDDEN
	IDENTITY
	INCLUDE
	INCREMENT
	INDEX
	KEY
	MAXVALUE
	MINVALUE
	NEXT
	NONCLUSTERED
	NOT
	NULL
	ON
	OR
	PERIOD
	PRIMARY
	REFERENCES
	ROW
	SCHEMA
	SEQUENCE
	START
	SYSTEMTIME
	TABLE
	UNIQUE
	VALUE
	WITH
)

// String returns a human-readable representation of the token type.
func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TOKEN(%d)", t)
}

// Token is a single lexical token with its source position.
type Token struct {
	Type    TokenType
	Literal string
	Pos     Position
}

// tokenNames maps token types to their string representations.
var tokenNames = map[TokenType]string{
	EOF:     "EOF",
	ILLEGAL: "ILLEGAL",

	IDENT:  "IDENT",
	QIDENT: "QIDENT",
	NUMBER: "NUMBER",
	STRING: "STRING",

	COMMA:    ",",
	DOT:      ".",
	SEMI:     ";",
	LPAREN:   "(",
	RPAREN:   ")",
	EQ:       "=",
	STAR:     "*",
	PLUS:     "+",
	MINUS:    "-",
	SLASH:    "/",
	PERCENT:  "%",
	LT:       "<",
	GT:       ">",
	LE:       "<=",
	GE:       ">=",
	NE:       "<>",
	VARIABLE: "@",
	BATCHSEP: "GO",

	ADD:          "ADD",
	ALWAYS:       "ALWAYS",
	AND:          "AND",
	AS:           "AS",
	ASC:          "ASC",
	BY:           "BY",
	CACHE:        "CACHE",
	CHECK:        "CHECK",
	CLUSTERED:    "CLUSTERED",
	COLUMNSTORE:  "COLUMNSTORE",
	CONSTRAINT:   "CONSTRAINT",
	CREATE:       "CREATE",
	DEFAULT:      "DEFAULT",
	DESC:         "DESC",
	END:          "END",
	EXEC:         "EXEC",
	EXECUTE:      "EXECUTE",
	FOR:          "FOR",
	FOREIGN:      "FOREIGN",
	GENERATED:    "GENERATED",
	HIDDEN:       "HIDDEN",
	IDENTITY:     "IDENTITY",
	INCLUDE:      "INCLUDE",
	INCREMENT:    "INCREMENT",
	INDEX:        "INDEX",
	KEY:          "KEY",
	MAXVALUE:     "MAXVALUE",
	MINVALUE:     "MINVALUE",
	NEXT:         "NEXT",
	NONCLUSTERED: "NONCLUSTERED",
	NOT:          "NOT",
	NULL:         "NULL",
	ON:           "ON",
	OR:           "OR",
	PERIOD:       "PERIOD",
	PRIMARY:      "PRIMARY",
	REFERENCES:   "REFERENCES",
	ROW:          "ROW",
	SCHEMA:       "SCHEMA",
	SEQUENCE:     "SEQUENCE",
	START:        "START",
	SYSTEMTIME:   "SYSTEM_TIME",
	TABLE:        "TABLE",
	UNIQUE:       "UNIQUE",
	VALUE:        "VALUE",
	WITH:         "WITH",
}

// keywords maps lowercase identifier text to keyword token types.
var keywords = map[string]TokenType{
	"add":          ADD,
	"always":       ALWAYS,
	"and":          AND,
	"as":           AS,
	"asc":          ASC,
	"by":           BY,
	"cache":        CACHE,
	"check":        CHECK,
	"clustered":    CLUSTERED,
	"columnstore":  COLUMNSTORE,
	"constraint":   CONSTRAINT,
	"create":       CREATE,
	"default":      DEFAULT,
	"desc":         DESC,
	"end":          END,
	"exec":         EXEC,
	"execute":      EXECUTE,
	"for":          FOR,
	"foreign":      FOREIGN,
	"generated":    GENERATED,
	"hidden":       HIDDEN,
	"identity":     IDENTITY,
	"include":      INCLUDE,
	"increment":    INCREMENT,
	"index":        INDEX,
	"key":          KEY,
	"maxvalue":     MAXVALUE,
	"minvalue":     MINVALUE,
	"next":         NEXT,
	"nonclustered": NONCLUSTERED,
	"not":          NOT,
	"null":         NULL,
	"on":           ON,
	"or":           OR,
	"period":       PERIOD,
	"primary":      PRIMARY,
	"references":   REFERENCES,
	"row":          ROW,
	"schema":       SCHEMA,
	"sequence":     SEQUENCE,
	"start":        START,
	"system_time":  SYSTEMTIME,
	"table":        TABLE,
	"unique":       UNIQUE,
	"value":        VALUE,
	"with":         WITH,
}

// LookupIdent returns the keyword token type for an identifier, or IDENT
// if it is not a keyword. Callers pass the already-lowercased text.
func LookupIdent(lower string) TokenType {
	if t, ok := keywords[lower]; ok {
		return t
	}
	return IDENT
}

// IsKeyword reports whether the token type is a reserved keyword.
func IsKeyword(t TokenType) bool {
	return t >= ADD && t <= WITH
}
