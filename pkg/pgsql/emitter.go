package pgsql

import (
	"fmt"
	"sort"
	"strings"
)

// Emit serializes the file in canonical order:
//
//  1. schema-existence declarations
//  2. sequence declarations, one per distinct sequence
//  3. the table body, columns in ordinal order, constraints grouped by kind
//  4. standalone indexes in source order
//  5. omission comments
//  6. raw passthrough statements
//  7. metadata comments, table-level first, then columns in ordinal order
func Emit(f *File) string {
	var b strings.Builder

	for _, schema := range f.Schemas {
		fmt.Fprintf(&b, "CREATE SCHEMA IF NOT EXISTS %s;\n", schema)
	}
	if len(f.Schemas) > 0 {
		b.WriteString("\n")
	}

	for _, seq := range f.Sequences {
		emitSequence(&b, seq)
	}
	if len(f.Sequences) > 0 {
		b.WriteString("\n")
	}

	if f.Table != nil {
		emitTable(&b, f.Table)
	}

	for _, idx := range f.Indexes {
		emitIndex(&b, idx)
	}
	if len(f.Indexes) > 0 {
		b.WriteString("\n")
	}

	for _, om := range f.Omissions {
		fmt.Fprintf(&b, "-- %s\n", om)
	}
	if len(f.Omissions) > 0 {
		b.WriteString("\n")
	}

	for _, raw := range f.Raws {
		b.WriteString(raw)
		b.WriteString("\n\n")
	}

	emitComments(&b, f)

	return strings.TrimRight(b.String(), "\n") + "\n"
}

func emitSequence(b *strings.Builder, seq *Sequence) {
	if seq.BestEffort {
		fmt.Fprintf(b, "-- sequence definition not found in this batch; confirm parameters manually\n")
	}
	b.WriteString("CREATE SEQUENCE")
	if seq.BestEffort {
		b.WriteString(" IF NOT EXISTS")
	}
	fmt.Fprintf(b, " %s", seq.QualifiedName())
	if seq.StartWith != "" {
		fmt.Fprintf(b, " START WITH %s", seq.StartWith)
	}
	if seq.IncrementBy != "" {
		fmt.Fprintf(b, " INCREMENT BY %s", seq.IncrementBy)
	}
	if seq.MinValue != "" {
		fmt.Fprintf(b, " MINVALUE %s", seq.MinValue)
	}
	if seq.MaxValue != "" {
		fmt.Fprintf(b, " MAXVALUE %s", seq.MaxValue)
	}
	if seq.Cache != "" {
		fmt.Fprintf(b, " CACHE %s", seq.Cache)
	}
	b.WriteString(";\n")
}

func emitTable(b *strings.Builder, t *Table) {
	fmt.Fprintf(b, "CREATE TABLE %s.%s (\n", t.Schema, t.Name)

	var lines []string
	for _, col := range t.Columns {
		lines = append(lines, "    "+renderColumn(col))
	}
	for _, c := range groupConstraints(t.Constraints) {
		lines = append(lines, "    "+renderConstraint(c))
	}

	b.WriteString(strings.Join(lines, ",\n"))
	b.WriteString("\n);\n\n")
}

// groupConstraints orders constraints by kind (primary key, unique,
// foreign key, check), preserving source order within each kind.
func groupConstraints(constraints []*Constraint) []*Constraint {
	out := append([]*Constraint(nil), constraints...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Kind < out[j].Kind
	})
	return out
}

func renderColumn(col *Column) string {
	var parts []string
	parts = append(parts, QuoteIdent(col.Name), col.Type)
	if col.NotNull {
		parts = append(parts, "NOT NULL")
	}
	if col.Default != "" {
		parts = append(parts, "DEFAULT "+col.Default)
	}
	return strings.Join(parts, " ")
}

func renderConstraint(c *Constraint) string {
	var b strings.Builder
	if c.Name != "" {
		fmt.Fprintf(&b, "CONSTRAINT %s ", c.Name)
	}
	switch c.Kind {
	case PrimaryKey:
		fmt.Fprintf(&b, "PRIMARY KEY (%s)", quoteJoin(c.Columns))
	case Unique:
		fmt.Fprintf(&b, "UNIQUE (%s)", quoteJoin(c.Columns))
	case ForeignKey:
		fmt.Fprintf(&b, "FOREIGN KEY (%s) REFERENCES %s.%s", quoteJoin(c.Columns), c.RefSchema, c.RefTable)
		if len(c.RefColumns) > 0 {
			fmt.Fprintf(&b, " (%s)", quoteJoin(c.RefColumns))
		}
		if c.OnDelete != "" {
			fmt.Fprintf(&b, " ON DELETE %s", c.OnDelete)
		}
		if c.OnUpdate != "" {
			fmt.Fprintf(&b, " ON UPDATE %s", c.OnUpdate)
		}
	case Check:
		fmt.Fprintf(&b, "CHECK (%s)", c.CheckExpr)
	}
	return b.String()
}

func emitIndex(b *strings.Builder, idx *Index) {
	b.WriteString("CREATE ")
	if idx.Unique {
		b.WriteString("UNIQUE ")
	}
	fmt.Fprintf(b, "INDEX %s ON %s.%s (", idx.Name, idx.Schema, idx.Table)
	var cols []string
	for _, c := range idx.Columns {
		col := QuoteIdent(c.Name)
		if c.Desc {
			col += " DESC"
		}
		cols = append(cols, col)
	}
	b.WriteString(strings.Join(cols, ", "))
	b.WriteString(")")
	if len(idx.Include) > 0 {
		fmt.Fprintf(b, " INCLUDE (%s)", quoteJoin(idx.Include))
	}
	b.WriteString(";\n")
}

func emitComments(b *strings.Builder, f *File) {
	var tableComments, columnComments []*Comment
	for _, c := range f.Comments {
		if c.Column == "" {
			tableComments = append(tableComments, c)
		} else {
			columnComments = append(columnComments, c)
		}
	}
	sort.SliceStable(columnComments, func(i, j int) bool {
		return columnComments[i].Ordinal < columnComments[j].Ordinal
	})

	for _, c := range tableComments {
		fmt.Fprintf(b, "COMMENT ON TABLE %s.%s IS %s;\n", c.Schema, c.Table, QuoteLiteral(c.Text))
	}
	for _, c := range columnComments {
		fmt.Fprintf(b, "COMMENT ON COLUMN %s.%s.%s IS %s;\n",
			c.Schema, c.Table, QuoteIdent(c.Column), QuoteLiteral(c.Text))
	}
}

// QuoteIdent double-quotes an identifier, preserving its casing exactly.
// Embedded double quotes are doubled.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// QuoteLiteral single-quotes a string literal, doubling embedded quotes.
func QuoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func quoteJoin(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = QuoteIdent(n)
	}
	return strings.Join(quoted, ", ")
}
