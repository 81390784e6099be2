package tsql

import "github.com/schemaport-labs/schemaport/pkg/token"

// Statement represents a single top-level T-SQL DDL statement.
type Statement interface {
	stmtNode()
	GetSpan() token.Span
}

// NodeInfo provides the common source-span field for all statement nodes.
type NodeInfo struct {
	Span token.Span
}

// GetSpan returns the node's source span.
func (n *NodeInfo) GetSpan() token.Span {
	return n.Span
}

// ObjectName is a possibly schema-qualified object name as written in the
// source, with quoting preserved. Schema may be empty for unqualified names.
type ObjectName struct {
	Schema string
	Name   string
}

// String renders the name in schema.name form without quoting.
func (o ObjectName) String() string {
	if o.Schema == "" {
		return o.Name
	}
	return o.Schema + "." + o.Name
}

// IsZero reports whether the name is unset.
func (o ObjectName) IsZero() bool {
	return o.Schema == "" && o.Name == ""
}

// TypeRef is a column type with its raw arguments, e.g. NVARCHAR(MAX)
// becomes {Name: "NVARCHAR", Args: ["MAX"]}.
type TypeRef struct {
	Name string
	Args []string
}

// DefaultKind classifies a parsed default expression.
type DefaultKind int

// Default expression kinds.
const (
	DefaultLiteral   DefaultKind = iota // number, string, or parenthesized expression text
	DefaultNextValue                    // NEXT VALUE FOR seq
	DefaultFunction                     // GETDATE(), SYSUTCDATETIME(), NEWID(), ...
)

// DefaultExpr is a structured column default.
type DefaultExpr struct {
	Kind     DefaultKind
	Sequence ObjectName // DefaultNextValue
	Func     string     // DefaultFunction: function name as written, no parens
	Text     string     // DefaultLiteral: raw expression text
}

// GeneratedKind marks system-versioning generated columns.
type GeneratedKind int

// Generated column kinds.
const (
	GeneratedNone GeneratedKind = iota
	GeneratedRowStart
	GeneratedRowEnd
)

// IdentitySpec holds IDENTITY(seed, increment) arguments as written.
type IdentitySpec struct {
	Seed      string
	Increment string
}

// ColumnDef is one column in a CREATE TABLE statement. Name casing is
// preserved verbatim from the source.
type ColumnDef struct {
	Name         string
	Type         TypeRef
	NotNull      bool
	ExplicitNull bool
	Default      *DefaultExpr
	DefaultName  string // named DEFAULT constraint wrapper, if any
	Identity     *IdentitySpec
	Generated    GeneratedKind
	Hidden       bool
	Ordinal      int           // 0-based position in the column list
	Inline       []*Constraint // column-level constraints, columns filled with this column
	Trailing     string        // unrecognized trailing clause text, verbatim
}

// ConstraintKind enumerates supported table constraint kinds.
type ConstraintKind int

// Constraint kinds.
const (
	PrimaryKey ConstraintKind = iota
	ForeignKey
	Unique
	Check
)

func (k ConstraintKind) String() string {
	switch k {
	case PrimaryKey:
		return "PRIMARY KEY"
	case ForeignKey:
		return "FOREIGN KEY"
	case Unique:
		return "UNIQUE"
	case Check:
		return "CHECK"
	}
	return "UNKNOWN"
}

// ClusterOption records a CLUSTERED/NONCLUSTERED qualifier.
type ClusterOption int

// Cluster options.
const (
	ClusterUnspecified ClusterOption = iota
	Clustered
	NonClustered
)

// IndexColumn is a key column with optional sort direction.
type IndexColumn struct {
	Name string
	Desc bool
}

// Constraint is a table-level constraint. For ForeignKey, RefTable and
// RefColumns identify the referenced object.
type Constraint struct {
	Kind       ConstraintKind
	Name       string
	Cluster    ClusterOption
	Columns    []IndexColumn
	RefTable   ObjectName
	RefColumns []string
	OnDelete   string // raw referential action, e.g. "CASCADE"
	OnUpdate   string
	CheckExpr  string // raw boolean expression text
}

// PeriodClause is a PERIOD FOR SYSTEM_TIME (start, end) declaration.
type PeriodClause struct {
	StartColumn string
	EndColumn   string
}

// TableOption is one entry of a table-level WITH (...) clause, raw.
type TableOption struct {
	Name string
	Raw  string // full option text as written
}

// CreateTableStmt is a parsed CREATE TABLE statement.
type CreateTableStmt struct {
	NodeInfo
	Name        ObjectName
	Columns     []*ColumnDef
	Constraints []*Constraint
	Period      *PeriodClause
	Options     []TableOption
	FileGroup   string   // ON [PRIMARY] placement clause, raw
	TextImageFG string   // TEXTIMAGE_ON placement clause, raw
	RawElements []string // unmodeled table elements, verbatim
}

func (*CreateTableStmt) stmtNode() {}

// CreateSequenceStmt is a parsed CREATE SEQUENCE statement.
type CreateSequenceStmt struct {
	NodeInfo
	Name        ObjectName
	AsType      TypeRef
	StartWith   string
	IncrementBy string
	MinValue    string
	MaxValue    string
	NoMinValue  bool
	NoMaxValue  bool
	Cache       string
	Trailing    string // unrecognized sequence options, verbatim
}

func (*CreateSequenceStmt) stmtNode() {}

// CreateIndexStmt is a parsed CREATE INDEX statement.
type CreateIndexStmt struct {
	NodeInfo
	Name        string
	Table       ObjectName
	Unique      bool
	Cluster     ClusterOption
	Columnstore bool
	Columns     []IndexColumn
	Include     []string // INCLUDE(...) column names, verbatim
	Options     string   // trailing WITH (...) text, raw
}

func (*CreateIndexStmt) stmtNode() {}

// ExtendedPropertyStmt is a parsed EXEC sp_addextendedproperty call.
// Level fields follow the procedure's level0/level1/level2 addressing.
// Text keeps the statement source verbatim for levels that do not
// translate.
type ExtendedPropertyStmt struct {
	NodeInfo
	Text       string
	PropName   string
	Value      string
	Level0Type string
	Level0Name string
	Level1Type string
	Level1Name string
	Level2Type string
	Level2Name string
}

func (*ExtendedPropertyStmt) stmtNode() {}

// RawStatement carries statement text the parser does not model.
// No input byte is ever discarded: anything unrecognized lands here.
type RawStatement struct {
	NodeInfo
	Text string
}

func (*RawStatement) stmtNode() {}
