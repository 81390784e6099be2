package tsql

import (
	"strings"

	"github.com/schemaport-labs/schemaport/pkg/token"
)

// parseCreateTable parses a CREATE TABLE statement:
//
//	CREATE TABLE object_name '(' table_element (',' table_element)* ')'
//	[ON filegroup] [TEXTIMAGE_ON filegroup] [WITH '(' option (',' option)* ')']
//
// Table elements are column definitions, table constraints, a PERIOD FOR
// SYSTEM_TIME clause, or anything else (kept raw, never dropped).
func (p *Parser) parseCreateTable() (Statement, error) {
	start := p.token.Pos
	p.nextToken() // CREATE
	p.nextToken() // TABLE

	name, err := p.parseObjectName()
	if err != nil {
		return nil, err
	}

	stmt := &CreateTableStmt{Name: name}

	if err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}

	ordinal := 0
	for {
		switch {
		case p.check(token.RPAREN):
			// empty element list or trailing comma
		case p.check(token.CONSTRAINT), p.check(token.PRIMARY), p.check(token.FOREIGN),
			p.check(token.UNIQUE), p.check(token.CHECK):
			c, err := p.parseTableConstraint()
			if err != nil {
				return nil, err
			}
			stmt.Constraints = append(stmt.Constraints, c)
		case p.check(token.PERIOD):
			period, err := p.parsePeriodClause()
			if err != nil {
				return nil, err
			}
			stmt.Period = period
		case p.check(token.INDEX):
			// Inline index definitions are not modeled; keep verbatim.
			raw := p.captureUntil(token.COMMA, token.RPAREN)
			stmt.RawElements = append(stmt.RawElements, raw)
		default:
			col, err := p.parseColumnDef(ordinal)
			if err != nil {
				return nil, err
			}
			stmt.Columns = append(stmt.Columns, col)
			ordinal++
		}

		if p.match(token.COMMA) {
			continue
		}
		break
	}

	if err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}

	// Trailing placement and option clauses
	for {
		switch {
		case p.check(token.ON):
			p.nextToken()
			fg, err := p.parseName()
			if err != nil {
				return nil, err
			}
			stmt.FileGroup = fg
		case p.check(token.WITH) && p.checkPeek(token.LPAREN):
			p.nextToken()
			if err := p.parseTableOptions(stmt); err != nil {
				return nil, err
			}
		case p.check(token.IDENT) && strings.EqualFold(p.token.Literal, "textimage_on"):
			p.nextToken()
			fg, err := p.parseName()
			if err != nil {
				return nil, err
			}
			stmt.TextImageFG = fg
		default:
			stmt.Span = token.Span{Start: start, End: p.token.Pos}
			return stmt, nil
		}
	}
}

// parseColumnDef parses one column definition. The column name's casing is
// preserved exactly as written.
func (p *Parser) parseColumnDef(ordinal int) (*ColumnDef, error) {
	name, err := p.parseName()
	if err != nil {
		return nil, err
	}

	typ, err := p.parseTypeRef()
	if err != nil {
		return nil, err
	}

	col := &ColumnDef{Name: name, Type: typ, Ordinal: ordinal}

	for {
		switch {
		case p.check(token.NOT) && p.checkPeek(token.NULL):
			p.nextToken()
			p.nextToken()
			col.NotNull = true
		case p.check(token.NULL):
			p.nextToken()
			col.ExplicitNull = true
		case p.check(token.CONSTRAINT) && p.peek2.Type != token.DEFAULT,
			p.check(token.PRIMARY), p.check(token.UNIQUE), p.check(token.CHECK),
			p.check(token.FOREIGN), p.check(token.REFERENCES):
			c, err := p.parseInlineConstraint(name)
			if err != nil {
				return nil, err
			}
			col.Inline = append(col.Inline, c)
		case p.check(token.CONSTRAINT) && p.peek2.Type == token.DEFAULT:
			p.nextToken() // CONSTRAINT
			cname, err := p.parseName()
			if err != nil {
				return nil, err
			}
			p.nextToken() // DEFAULT
			expr, err := p.parseDefaultExpr()
			if err != nil {
				return nil, err
			}
			col.DefaultName = cname
			col.Default = expr
		case p.check(token.DEFAULT):
			p.nextToken()
			expr, err := p.parseDefaultExpr()
			if err != nil {
				return nil, err
			}
			col.Default = expr
		case p.check(token.IDENTITY):
			p.nextToken()
			spec := &IdentitySpec{Seed: "1", Increment: "1"}
			if p.check(token.LPAREN) {
				inner, err := p.captureParen()
				if err != nil {
					return nil, err
				}
				if seed, inc, ok := strings.Cut(inner, ","); ok {
					spec.Seed = strings.TrimSpace(seed)
					spec.Increment = strings.TrimSpace(inc)
				}
			}
			col.Identity = spec
		case p.check(token.GENERATED) && p.checkPeek(token.BY):
			// GENERATED BY DEFAULT AS IDENTITY, the target dialect's
			// identity spelling; accepted so emitted output re-parses.
			p.nextToken() // GENERATED
			p.nextToken() // BY
			if err := p.expect(token.DEFAULT); err != nil {
				return nil, err
			}
			if err := p.expect(token.AS); err != nil {
				return nil, err
			}
			if err := p.expect(token.IDENTITY); err != nil {
				return nil, err
			}
			col.Identity = &IdentitySpec{Seed: "1", Increment: "1"}
		case p.check(token.GENERATED):
			gen, err := p.parseGeneratedClause()
			if err != nil {
				return nil, err
			}
			col.Generated = gen
		case p.check(token.HIDDEN):
			p.nextToken()
			col.Hidden = true
		case p.check(token.COMMA), p.check(token.RPAREN):
			return col, nil
		default:
			// Unrecognized column clause (COLLATE, ROWGUIDCOL, SPARSE, ...):
			// keep the text so nothing is silently dropped. Known clauses
			// stop the capture so NOT NULL after COLLATE still registers.
			raw := p.captureUntil(token.COMMA, token.RPAREN, token.NOT,
				token.NULL, token.CONSTRAINT, token.DEFAULT, token.IDENTITY,
				token.GENERATED, token.HIDDEN, token.PRIMARY, token.UNIQUE,
				token.CHECK, token.FOREIGN, token.REFERENCES)
			if raw == "" {
				return nil, &ParseError{Pos: p.token.Pos, Message: ErrUnbalancedParens}
			}
			if col.Trailing != "" {
				col.Trailing += " "
			}
			col.Trailing += raw
		}
	}
}

// parseInlineConstraint parses a column-level constraint:
//
//	[CONSTRAINT name] PRIMARY KEY | UNIQUE | CHECK (expr)
//	                  | [FOREIGN KEY] REFERENCES object [(cols)] [actions]
//
// The constraint is promoted to a table-level node keyed to the owning
// column.
func (p *Parser) parseInlineConstraint(column string) (*Constraint, error) {
	c := &Constraint{}

	if p.match(token.CONSTRAINT) {
		name, err := p.parseName()
		if err != nil {
			return nil, err
		}
		c.Name = name
	}

	self := []IndexColumn{{Name: column}}

	switch {
	case p.check(token.PRIMARY):
		p.nextToken()
		if err := p.expect(token.KEY); err != nil {
			return nil, err
		}
		c.Kind = PrimaryKey
		c.Cluster = p.parseClusterOption()
		c.Columns = self
	case p.check(token.UNIQUE):
		p.nextToken()
		c.Kind = Unique
		c.Cluster = p.parseClusterOption()
		c.Columns = self
	case p.check(token.CHECK):
		p.nextToken()
		c.Kind = Check
		expr, err := p.captureParen()
		if err != nil {
			return nil, err
		}
		c.CheckExpr = expr
	case p.check(token.FOREIGN), p.check(token.REFERENCES):
		if p.match(token.FOREIGN) {
			if err := p.expect(token.KEY); err != nil {
				return nil, err
			}
		}
		if err := p.expect(token.REFERENCES); err != nil {
			return nil, err
		}
		c.Kind = ForeignKey
		c.Columns = self
		ref, err := p.parseObjectName()
		if err != nil {
			return nil, err
		}
		c.RefTable = ref
		if p.check(token.LPAREN) {
			refCols, err := p.parseIndexColumnList()
			if err != nil {
				return nil, err
			}
			for _, rc := range refCols {
				c.RefColumns = append(c.RefColumns, rc.Name)
			}
		}
		if err := p.parseReferentialActions(c); err != nil {
			return nil, err
		}
	default:
		return nil, &ParseError{Pos: p.token.Pos, Message: "expected constraint definition"}
	}

	return c, nil
}

// parseTypeRef parses a type name with optional arguments:
// INT, NVARCHAR(100), DECIMAL(10, 2), NVARCHAR(MAX), sys.geography.
func (p *Parser) parseTypeRef() (TypeRef, error) {
	name, err := p.parseName()
	if err != nil {
		return TypeRef{}, err
	}
	for p.match(token.DOT) {
		next, err := p.parseName()
		if err != nil {
			return TypeRef{}, err
		}
		name = name + "." + next
	}

	typ := TypeRef{Name: name}
	if p.check(token.LPAREN) {
		p.nextToken()
		for {
			switch p.token.Type {
			case token.NUMBER, token.IDENT, token.QIDENT:
				typ.Args = append(typ.Args, p.token.Literal)
				p.nextToken()
			default:
				// MAX lexes as IDENT; anything else is unexpected
				return TypeRef{}, &ParseError{Pos: p.token.Pos, Message: "invalid type argument"}
			}
			if p.match(token.COMMA) {
				continue
			}
			break
		}
		if err := p.expect(token.RPAREN); err != nil {
			return TypeRef{}, err
		}
	}
	return typ, nil
}

// parseDefaultExpr parses a column default. Redundant wrapping parens are
// unwrapped so (NEXT VALUE FOR s), ((0)) and (getdate()) classify the same
// as their bare forms.
func (p *Parser) parseDefaultExpr() (*DefaultExpr, error) {
	if p.check(token.LPAREN) {
		p.nextToken()
		inner, err := p.parseDefaultExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
		return inner, nil
	}

	if p.check(token.NEXT) && p.checkPeek(token.VALUE) {
		p.nextToken() // NEXT
		p.nextToken() // VALUE
		if err := p.expect(token.FOR); err != nil {
			return nil, err
		}
		seq, err := p.parseObjectName()
		if err != nil {
			return nil, err
		}
		return &DefaultExpr{Kind: DefaultNextValue, Sequence: seq}, nil
	}

	if p.isNameToken() && p.checkPeek(token.LPAREN) && p.peek2.Type == token.RPAREN {
		name := p.token.Literal
		p.nextToken() // name
		p.nextToken() // (
		p.nextToken() // )
		return &DefaultExpr{Kind: DefaultFunction, Func: name}, nil
	}

	// Anything else stays a literal expression, text preserved.
	text := p.captureUntil(token.COMMA, token.RPAREN, token.CONSTRAINT,
		token.NOT, token.NULL, token.IDENTITY, token.GENERATED)
	if text == "" {
		return nil, &ParseError{Pos: p.token.Pos, Message: "empty default expression"}
	}
	return &DefaultExpr{Kind: DefaultLiteral, Text: text}, nil
}

// parseGeneratedClause parses GENERATED ALWAYS AS ROW START|END [HIDDEN].
func (p *Parser) parseGeneratedClause() (GeneratedKind, error) {
	p.nextToken() // GENERATED
	if err := p.expect(token.ALWAYS); err != nil {
		return GeneratedNone, err
	}
	if err := p.expect(token.AS); err != nil {
		return GeneratedNone, err
	}
	if err := p.expect(token.ROW); err != nil {
		return GeneratedNone, err
	}
	switch {
	case p.check(token.START):
		p.nextToken()
		return GeneratedRowStart, nil
	case p.check(token.END):
		p.nextToken()
		return GeneratedRowEnd, nil
	default:
		return GeneratedNone, &ParseError{Pos: p.token.Pos, Message: "expected ROW START or ROW END"}
	}
}

// parseTableConstraint parses a table-level constraint.
func (p *Parser) parseTableConstraint() (*Constraint, error) {
	c := &Constraint{}

	if p.match(token.CONSTRAINT) {
		name, err := p.parseName()
		if err != nil {
			return nil, err
		}
		c.Name = name
	}

	switch {
	case p.check(token.PRIMARY):
		p.nextToken()
		if err := p.expect(token.KEY); err != nil {
			return nil, err
		}
		c.Kind = PrimaryKey
		c.Cluster = p.parseClusterOption()
		cols, err := p.parseIndexColumnList()
		if err != nil {
			return nil, err
		}
		c.Columns = cols
	case p.check(token.UNIQUE):
		p.nextToken()
		c.Kind = Unique
		c.Cluster = p.parseClusterOption()
		cols, err := p.parseIndexColumnList()
		if err != nil {
			return nil, err
		}
		c.Columns = cols
	case p.check(token.FOREIGN):
		p.nextToken()
		if err := p.expect(token.KEY); err != nil {
			return nil, err
		}
		c.Kind = ForeignKey
		cols, err := p.parseIndexColumnList()
		if err != nil {
			return nil, err
		}
		c.Columns = cols
		if err := p.expect(token.REFERENCES); err != nil {
			return nil, err
		}
		ref, err := p.parseObjectName()
		if err != nil {
			return nil, err
		}
		c.RefTable = ref
		if p.check(token.LPAREN) {
			refCols, err := p.parseIndexColumnList()
			if err != nil {
				return nil, err
			}
			for _, rc := range refCols {
				c.RefColumns = append(c.RefColumns, rc.Name)
			}
		}
		if err := p.parseReferentialActions(c); err != nil {
			return nil, err
		}
	case p.check(token.CHECK):
		p.nextToken()
		c.Kind = Check
		expr, err := p.captureParen()
		if err != nil {
			return nil, err
		}
		c.CheckExpr = expr
	default:
		return nil, &ParseError{Pos: p.token.Pos, Message: "expected constraint definition"}
	}

	return c, nil
}

// parseClusterOption consumes an optional CLUSTERED/NONCLUSTERED qualifier.
func (p *Parser) parseClusterOption() ClusterOption {
	switch {
	case p.match(token.CLUSTERED):
		return Clustered
	case p.match(token.NONCLUSTERED):
		return NonClustered
	}
	return ClusterUnspecified
}

// parseIndexColumnList parses '(' name [ASC|DESC] (',' name [ASC|DESC])* ')'.
func (p *Parser) parseIndexColumnList() ([]IndexColumn, error) {
	if err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	var cols []IndexColumn
	for {
		name, err := p.parseName()
		if err != nil {
			return nil, err
		}
		col := IndexColumn{Name: name}
		if p.match(token.DESC) {
			col.Desc = true
		} else {
			p.match(token.ASC)
		}
		cols = append(cols, col)
		if p.match(token.COMMA) {
			continue
		}
		break
	}
	if err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	return cols, nil
}

// parseReferentialActions consumes ON DELETE/ON UPDATE clauses on a foreign
// key. Actions are kept raw (CASCADE, SET NULL, NO ACTION).
func (p *Parser) parseReferentialActions(c *Constraint) error {
	for p.check(token.ON) {
		p.nextToken()
		kind := strings.ToLower(p.token.Literal)
		p.nextToken()
		action := p.captureUntil(token.COMMA, token.RPAREN, token.ON,
			token.CONSTRAINT, token.SEMI, token.BATCHSEP)
		switch kind {
		case "delete":
			c.OnDelete = action
		case "update":
			c.OnUpdate = action
		default:
			return &ParseError{Pos: p.token.Pos, Message: "expected DELETE or UPDATE after ON"}
		}
	}
	return nil
}

// parsePeriodClause parses PERIOD FOR SYSTEM_TIME (start, end).
func (p *Parser) parsePeriodClause() (*PeriodClause, error) {
	p.nextToken() // PERIOD
	if err := p.expect(token.FOR); err != nil {
		return nil, err
	}
	if err := p.expect(token.SYSTEMTIME); err != nil {
		return nil, err
	}
	if err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	start, err := p.parseName()
	if err != nil {
		return nil, err
	}
	if err := p.expect(token.COMMA); err != nil {
		return nil, err
	}
	end, err := p.parseName()
	if err != nil {
		return nil, err
	}
	if err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	return &PeriodClause{StartColumn: start, EndColumn: end}, nil
}

// parseTableOptions parses the table-level WITH '(' option, ... ')' clause.
// Each option is kept raw with its name split out for rule matching.
func (p *Parser) parseTableOptions(stmt *CreateTableStmt) error {
	if err := p.expect(token.LPAREN); err != nil {
		return err
	}
	for {
		raw := p.captureUntil(token.COMMA, token.RPAREN)
		if raw != "" {
			name := raw
			if i := strings.IndexAny(raw, " =("); i > 0 {
				name = raw[:i]
			}
			stmt.Options = append(stmt.Options, TableOption{
				Name: strings.ToUpper(name),
				Raw:  raw,
			})
		}
		if p.match(token.COMMA) {
			continue
		}
		break
	}
	return p.expect(token.RPAREN)
}
