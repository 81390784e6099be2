// Package pgsql models PostgreSQL DDL output nodes and serializes them in
// a fixed canonical order.
package pgsql

// ConstraintKind enumerates table constraint kinds on the output side.
type ConstraintKind int

// Constraint kinds, in canonical emission order.
const (
	PrimaryKey ConstraintKind = iota
	Unique
	ForeignKey
	Check
)

// Column is one column of an output table. Name casing is carried verbatim
// from the source and preserved through quoting on emission.
type Column struct {
	Name    string
	Type    string // fully rendered target type, e.g. "VARCHAR(100)"
	NotNull bool
	Default string // fully rendered default expression, empty if none
}

// Constraint is a table-level constraint.
type Constraint struct {
	Name       string
	Kind       ConstraintKind
	Columns    []string
	RefSchema  string
	RefTable   string
	RefColumns []string
	OnDelete   string
	OnUpdate   string
	CheckExpr  string
}

// Sequence is a standalone sequence declaration. BestEffort marks a
// declaration synthesized from a reference whose definition was never
// supplied; it emits idempotently and is flagged for manual confirmation.
type Sequence struct {
	Schema      string
	Name        string
	StartWith   string
	IncrementBy string
	MinValue    string
	MaxValue    string
	Cache       string
	BestEffort  bool
}

// QualifiedName renders schema.name.
func (s *Sequence) QualifiedName() string {
	return s.Schema + "." + s.Name
}

// Table is an output CREATE TABLE node. Columns keep their original
// ordinal order; constraints are grouped by kind on emission.
type Table struct {
	Schema      string
	Name        string
	Columns     []*Column
	Constraints []*Constraint
}

// IndexColumn is a key column with optional descending direction.
type IndexColumn struct {
	Name string
	Desc bool
}

// Index is a standalone CREATE INDEX node.
type Index struct {
	Name    string
	Schema  string
	Table   string
	Unique  bool
	Columns []IndexColumn
	Include []string
}

// Comment is a COMMENT ON TABLE/COLUMN node. Column is empty for
// table-level comments. Ordinal carries the column's position so
// column comments emit in ordinal order.
type Comment struct {
	Schema  string
	Table   string
	Column  string
	Text    string
	Ordinal int
}

// File is the complete output for one converted table, already categorized
// for canonical ordering: schema declaration, deduplicated sequences, the
// table, indexes in source order, omission comments in source order, raw
// passthrough text, then metadata comments.
type File struct {
	Schemas   []string
	Sequences []*Sequence
	Table     *Table
	Indexes   []*Index
	Omissions []string // comment text, without the leading "--"
	Raws      []string // unmodeled statements retained verbatim
	Comments  []*Comment
}
