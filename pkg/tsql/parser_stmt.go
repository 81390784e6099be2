package tsql

import (
	"strings"

	"github.com/schemaport-labs/schemaport/pkg/token"
)

// parseCreateSequence parses a CREATE SEQUENCE statement:
//
//	CREATE SEQUENCE object_name [AS type]
//	[START WITH n] [INCREMENT BY n]
//	[MINVALUE n | NO MINVALUE] [MAXVALUE n | NO MAXVALUE]
//	[CACHE n | NO CACHE]
func (p *Parser) parseCreateSequence() (Statement, error) {
	start := p.token.Pos
	p.nextToken() // CREATE
	p.nextToken() // SEQUENCE

	name, err := p.parseObjectName()
	if err != nil {
		return nil, err
	}

	stmt := &CreateSequenceStmt{Name: name}

	for {
		switch {
		case p.check(token.AS):
			p.nextToken()
			typ, err := p.parseTypeRef()
			if err != nil {
				return nil, err
			}
			stmt.AsType = typ
		case p.check(token.START):
			p.nextToken()
			p.match(token.WITH)
			stmt.StartWith = p.parseSignedNumber()
		case p.check(token.INCREMENT):
			p.nextToken()
			p.match(token.BY)
			stmt.IncrementBy = p.parseSignedNumber()
		case p.check(token.MINVALUE):
			p.nextToken()
			stmt.MinValue = p.parseSignedNumber()
		case p.check(token.MAXVALUE):
			p.nextToken()
			stmt.MaxValue = p.parseSignedNumber()
		case p.check(token.CACHE):
			p.nextToken()
			if p.check(token.NUMBER) {
				stmt.Cache = p.token.Literal
				p.nextToken()
			}
		case p.check(token.IDENT) && strings.EqualFold(p.token.Literal, "no"):
			p.nextToken()
			switch {
			case p.match(token.MINVALUE):
				stmt.NoMinValue = true
			case p.match(token.MAXVALUE):
				stmt.NoMaxValue = true
			case p.check(token.CACHE):
				p.nextToken()
			default:
				return nil, &ParseError{Pos: p.token.Pos, Message: "expected MINVALUE, MAXVALUE, or CACHE after NO"}
			}
		case p.check(token.SEMI), p.check(token.BATCHSEP), p.check(token.EOF),
			p.check(token.CREATE), p.check(token.EXEC), p.check(token.EXECUTE):
			stmt.Span = token.Span{Start: start, End: p.token.Pos}
			p.match(token.SEMI)
			return stmt, nil
		default:
			// Unknown sequence option, keep verbatim
			raw := p.captureUntil(token.SEMI, token.BATCHSEP,
				token.CREATE, token.EXEC, token.EXECUTE)
			if raw == "" {
				stmt.Span = token.Span{Start: start, End: p.token.Pos}
				return stmt, nil
			}
			if stmt.Trailing != "" {
				stmt.Trailing += " "
			}
			stmt.Trailing += raw
		}
	}
}

// parseSignedNumber consumes an optionally negated numeric literal.
func (p *Parser) parseSignedNumber() string {
	sign := ""
	if p.match(token.MINUS) {
		sign = "-"
	}
	if p.check(token.NUMBER) {
		n := p.token.Literal
		p.nextToken()
		return sign + n
	}
	return sign
}

// parseCreateIndex parses a CREATE INDEX statement:
//
//	CREATE [UNIQUE] [CLUSTERED|NONCLUSTERED] [COLUMNSTORE] INDEX name
//	ON object_name ['(' column [ASC|DESC], ... ')']
//	[INCLUDE '(' column, ... ')'] [WITH '(' options ')'] [ON filegroup]
//
// Clustered columnstore indexes carry no column list.
func (p *Parser) parseCreateIndex() (Statement, error) {
	start := p.token.Pos
	p.nextToken() // CREATE

	stmt := &CreateIndexStmt{}

	for {
		switch {
		case p.match(token.UNIQUE):
			stmt.Unique = true
		case p.match(token.CLUSTERED):
			stmt.Cluster = Clustered
		case p.match(token.NONCLUSTERED):
			stmt.Cluster = NonClustered
		case p.match(token.COLUMNSTORE):
			stmt.Columnstore = true
		case p.check(token.INDEX):
			p.nextToken()
			name, err := p.parseName()
			if err != nil {
				return nil, err
			}
			stmt.Name = name
			if err := p.expect(token.ON); err != nil {
				return nil, err
			}
			table, err := p.parseObjectName()
			if err != nil {
				return nil, err
			}
			stmt.Table = table

			if p.check(token.LPAREN) {
				cols, err := p.parseIndexColumnList()
				if err != nil {
					return nil, err
				}
				stmt.Columns = cols
			}

			if p.match(token.INCLUDE) {
				incCols, err := p.parseIndexColumnList()
				if err != nil {
					return nil, err
				}
				for _, c := range incCols {
					stmt.Include = append(stmt.Include, c.Name)
				}
			}

			if p.check(token.WITH) && p.checkPeek(token.LPAREN) {
				p.nextToken()
				opts, err := p.captureParen()
				if err != nil {
					return nil, err
				}
				stmt.Options = opts
			}

			// Filegroup placement, dropped on translation anyway
			if p.match(token.ON) {
				if _, err := p.parseName(); err != nil {
					return nil, err
				}
			}

			stmt.Span = token.Span{Start: start, End: p.token.Pos}
			p.match(token.SEMI)
			return stmt, nil
		default:
			return nil, &ParseError{Pos: p.token.Pos, Message: "expected INDEX"}
		}
	}
}

// extended property argument names, lowercased.
const (
	epName       = "name"
	epValue      = "value"
	epLevel0Type = "level0type"
	epLevel0Name = "level0name"
	epLevel1Type = "level1type"
	epLevel1Name = "level1name"
	epLevel2Type = "level2type"
	epLevel2Name = "level2name"
)

// parseExtendedProperty parses EXEC sp_addextendedproperty with its named
// @parameter = value argument list.
func (p *Parser) parseExtendedProperty() (Statement, error) {
	start := p.token.Pos
	p.nextToken() // EXEC / EXECUTE

	// Procedure name: sp_addextendedproperty or sys.sp_addextendedproperty
	if _, err := p.parseObjectName(); err != nil {
		return nil, err
	}

	stmt := &ExtendedPropertyStmt{}

	for p.check(token.VARIABLE) {
		arg := strings.ToLower(p.token.Literal)
		p.nextToken()
		if err := p.expect(token.EQ); err != nil {
			return nil, err
		}

		var val string
		switch p.token.Type {
		case token.STRING, token.NUMBER, token.IDENT, token.QIDENT:
			val = p.token.Literal
			p.nextToken()
		case token.NULL:
			p.nextToken()
		default:
			return nil, &ParseError{Pos: p.token.Pos, Message: "invalid extended property argument"}
		}

		switch arg {
		case epName:
			stmt.PropName = val
		case epValue:
			stmt.Value = val
		case epLevel0Type:
			stmt.Level0Type = strings.ToUpper(val)
		case epLevel0Name:
			stmt.Level0Name = val
		case epLevel1Type:
			stmt.Level1Type = strings.ToUpper(val)
		case epLevel1Name:
			stmt.Level1Name = val
		case epLevel2Type:
			stmt.Level2Type = strings.ToUpper(val)
		case epLevel2Name:
			stmt.Level2Name = val
		}

		if !p.match(token.COMMA) {
			break
		}
	}

	stmt.Span = token.Span{Start: start, End: p.token.Pos}
	stmt.Text = strings.TrimSpace(p.src[start.Offset:p.token.Pos.Offset])
	p.match(token.SEMI)
	return stmt, nil
}
