// Package tsql provides lexing and parsing of SQL Server DDL scripts.
//
// # Usage
//
//	stmts, errs := tsql.Parse(script)
//
// The parser is statement-oriented: each top-level statement either becomes
// a typed node (CreateTableStmt, CreateSequenceStmt, CreateIndexStmt,
// ExtendedPropertyStmt) or a RawStatement carrying the original text
// verbatim. Errors are scoped to the statement that produced them; the
// remaining statements in the batch still parse.
//
// # Grammar Overview
//
//	script      → (statement (';' | GO)?)*
//	statement   → create_table | create_sequence | create_index
//	            | extended_property | raw
//	create_table→ CREATE TABLE object_name '(' table_element (',' table_element)* ')'
//	              [ON filegroup] [WITH '(' option_list ')']
package tsql

import (
	"fmt"
	"strings"

	"github.com/schemaport-labs/schemaport/pkg/token"
)

// Parser parses a T-SQL DDL script into statement nodes.
type Parser struct {
	src    string
	lexer  *Lexer
	token  token.Token // current token
	peek   token.Token // lookahead token
	peek2  token.Token // second lookahead token
	errors []error
}

// NewParser creates a new parser for the given script.
func NewParser(src string) *Parser {
	p := &Parser{
		src:   src,
		lexer: NewLexer(src),
	}
	// Read three tokens to initialize current, peek, and peek2
	p.nextToken()
	p.nextToken()
	p.nextToken()
	return p
}

// Parse parses a full script and returns the statement nodes alongside any
// statement-scoped errors. Statements and errors are independent: a script
// with one malformed statement still yields nodes for the others.
func Parse(src string) ([]Statement, []error) {
	p := NewParser(src)
	return p.ParseScript()
}

// ParseScript parses all statements in the input.
func (p *Parser) ParseScript() ([]Statement, []error) {
	var stmts []Statement

	for !p.check(token.EOF) {
		// Skip empty statements and batch separators
		if p.check(token.SEMI) || p.check(token.BATCHSEP) {
			p.nextToken()
			continue
		}

		stmt := p.parseStatement()
		if stmt != nil {
			stmts = append(stmts, stmt)
		}
	}

	if p.lexer.Err != nil {
		p.errors = append(p.errors, p.lexer.Err)
	}

	return stmts, p.errors
}

// parseStatement dispatches on the statement's leading tokens.
func (p *Parser) parseStatement() Statement {
	start := p.token.Pos

	switch {
	case p.check(token.CREATE) && p.checkPeek(token.TABLE):
		return p.recover(start, p.parseCreateTable)
	case p.check(token.CREATE) && p.checkPeek(token.SEQUENCE):
		return p.recover(start, p.parseCreateSequence)
	case p.check(token.CREATE) && p.startsIndex():
		return p.recover(start, p.parseCreateIndex)
	case (p.check(token.EXEC) || p.check(token.EXECUTE)) && p.peekIsExtendedProperty():
		return p.recover(start, p.parseExtendedProperty)
	default:
		return p.parseRawStatement(start)
	}
}

// recover runs a statement parser and, on error, records the error and
// resynchronizes at the next statement boundary. The failed statement
// produces no node; its error carries the position.
func (p *Parser) recover(start token.Position, parse func() (Statement, error)) Statement {
	stmt, err := parse()
	if err != nil {
		p.errors = append(p.errors, err)
		p.skipToBoundary()
		return nil
	}
	return stmt
}

// startsIndex reports whether the tokens after CREATE begin an index
// statement: [UNIQUE] [CLUSTERED|NONCLUSTERED] [COLUMNSTORE] INDEX.
func (p *Parser) startsIndex() bool {
	switch p.peek.Type {
	case token.INDEX, token.UNIQUE, token.CLUSTERED, token.NONCLUSTERED, token.COLUMNSTORE:
		return true
	}
	return false
}

// peekIsExtendedProperty reports whether the EXEC target is
// sp_addextendedproperty (optionally sys-qualified).
func (p *Parser) peekIsExtendedProperty() bool {
	name := strings.ToLower(p.peek.Literal)
	if name == "sp_addextendedproperty" {
		return true
	}
	// sys.sp_addextendedproperty
	return name == "sys" && p.peek2.Type == token.DOT
}

// parseRawStatement consumes tokens up to the next statement boundary and
// wraps the original text verbatim.
func (p *Parser) parseRawStatement(start token.Position) Statement {
	end := p.skipToBoundary()
	text := strings.TrimSpace(p.src[start.Offset:end])
	if text == "" {
		return nil
	}
	return &RawStatement{
		NodeInfo: NodeInfo{Span: token.Span{Start: start, End: p.token.Pos}},
		Text:     text,
	}
}

// skipToBoundary advances past the current statement: it stops after a
// top-level semicolon, before a GO separator, or at EOF. Parentheses are
// tracked so a semicolon inside a nested clause does not terminate early.
// Returns the byte offset where the statement text ends.
func (p *Parser) skipToBoundary() int {
	depth := 0
	consumed := 0
	for {
		switch p.token.Type {
		case token.EOF:
			return len(p.src)
		case token.LPAREN:
			depth++
		case token.RPAREN:
			if depth > 0 {
				depth--
			}
		case token.SEMI:
			if depth == 0 {
				end := p.token.Pos.Offset
				p.nextToken()
				return end
			}
		case token.BATCHSEP:
			return p.token.Pos.Offset
		case token.CREATE:
			// A new CREATE at top level ends an unterminated statement
			if depth == 0 && consumed > 0 {
				return p.token.Pos.Offset
			}
		}
		p.nextToken()
		consumed++
	}
}

// ---------- Token Helpers ----------

// nextToken advances to the next token.
func (p *Parser) nextToken() {
	p.token = p.peek
	p.peek = p.peek2
	p.peek2 = p.lexer.NextToken()
}

// check returns true if the current token is of the given type.
func (p *Parser) check(t token.TokenType) bool {
	return p.token.Type == t
}

// checkPeek returns true if the peek token is of the given type.
func (p *Parser) checkPeek(t token.TokenType) bool {
	return p.peek.Type == t
}

// match consumes the current token if it matches and returns true.
func (p *Parser) match(t token.TokenType) bool {
	if p.check(t) {
		p.nextToken()
		return true
	}
	return false
}

// expect consumes the current token if it matches, or returns an error.
func (p *Parser) expect(t token.TokenType) error {
	if p.check(t) {
		p.nextToken()
		return nil
	}
	if p.check(token.EOF) && t == token.RPAREN {
		return &ParseError{Pos: p.token.Pos, Message: ErrUnbalancedParens}
	}
	return &ParseError{
		Pos:     p.token.Pos,
		Message: fmt.Sprintf(ErrUnexpectedToken, p.token.Type, t),
	}
}

// isNameToken reports whether the current token can serve as a name:
// identifiers, quoted identifiers, and non-reserved keywords all qualify,
// since T-SQL scripts routinely bracket-quote names that collide with
// keywords and the lexer has already unwrapped the brackets.
func (p *Parser) isNameToken() bool {
	switch p.token.Type {
	case token.IDENT, token.QIDENT:
		return true
	}
	return token.IsKeyword(p.token.Type)
}

// parseName consumes one name segment and returns its verbatim text.
func (p *Parser) parseName() (string, error) {
	if !p.isNameToken() {
		return "", &ParseError{
			Pos:     p.token.Pos,
			Message: fmt.Sprintf(ErrUnexpectedToken, p.token.Type, "identifier"),
		}
	}
	name := p.token.Literal
	p.nextToken()
	return name, nil
}

// parseObjectName parses a dotted multi-part name. For three-part names the
// leading database segment is dropped; the last two segments become
// (schema, name).
func (p *Parser) parseObjectName() (ObjectName, error) {
	var parts []string
	part, err := p.parseName()
	if err != nil {
		return ObjectName{}, err
	}
	parts = append(parts, part)

	for p.match(token.DOT) {
		part, err := p.parseName()
		if err != nil {
			return ObjectName{}, err
		}
		parts = append(parts, part)
	}

	switch len(parts) {
	case 1:
		return ObjectName{Name: parts[0]}, nil
	default:
		return ObjectName{
			Schema: parts[len(parts)-2],
			Name:   parts[len(parts)-1],
		}, nil
	}
}

// captureParen captures the raw text inside a parenthesized clause,
// including nested parens. The current token must be LPAREN; afterwards the
// parser sits on the token following the matching RPAREN.
func (p *Parser) captureParen() (string, error) {
	if err := p.expect(token.LPAREN); err != nil {
		return "", err
	}
	start := p.token.Pos.Offset

	depth := 0
	for {
		switch p.token.Type {
		case token.EOF:
			return "", &ParseError{Pos: p.token.Pos, Message: ErrUnbalancedParens}
		case token.LPAREN:
			depth++
		case token.RPAREN:
			if depth == 0 {
				end := p.token.Pos.Offset
				p.nextToken()
				return strings.TrimSpace(p.src[start:end]), nil
			}
			depth--
		}
		p.nextToken()
	}
}

// captureUntil captures raw text from the current token until one of the
// stop types appears at paren depth zero. The stop token is not consumed;
// the capture ends exactly at the stop token's offset, so quoted forms
// survive verbatim.
func (p *Parser) captureUntil(stops ...token.TokenType) string {
	start := p.token.Pos.Offset

	depth := 0
	for {
		if p.check(token.EOF) {
			goto done
		}
		if depth == 0 {
			for _, s := range stops {
				if p.check(s) {
					goto done
				}
			}
		}
		switch p.token.Type {
		case token.LPAREN:
			depth++
		case token.RPAREN:
			if depth == 0 {
				// Unmatched close belongs to the caller
				goto done
			}
			depth--
		}
		p.nextToken()
	}
done:
	return strings.TrimSpace(p.src[start:p.token.Pos.Offset])
}
