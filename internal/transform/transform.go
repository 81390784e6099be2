// Package transform maps parsed T-SQL DDL nodes onto PostgreSQL output
// nodes through a declarative rule table, collecting dependency edges and
// applied-rule tags along the way. Transformation is pure: it reads nodes
// and produces nodes, with no I/O.
package transform

import (
	"fmt"
	"strings"

	"github.com/schemaport-labs/schemaport/internal/depgraph"
	"github.com/schemaport-labs/schemaport/pkg/pgsql"
	"github.com/schemaport-labs/schemaport/pkg/tsql"
)

// Flags are boolean feature markers surfaced in the conversion report.
type Flags struct {
	UsesGeography bool
}

// Unit is the transformation output for one table: its output file, the
// dependency edges its foreign keys induce, the rules that fired, and
// feature flags.
type Unit struct {
	Key   depgraph.ObjectKey
	File  *pgsql.File
	Edges *depgraph.EdgeSet
	Rules []AppliedRule
	Flags Flags

	consumedSeqs []tsql.ObjectName // sequences referenced by defaults, in order, as written
}

// Transform converts a parsed script into one Unit per table. Statements
// that precede any table (session settings, standalone sequences) attach to
// the first table; statements addressed to a specific table attach to that
// table's unit.
func Transform(stmts []tsql.Statement) ([]*Unit, error) {
	t := &transformer{
		sequences: make(map[depgraph.ObjectKey]*tsql.CreateSequenceStmt),
		units:     make(map[depgraph.ObjectKey]*Unit),
	}

	// Sequence definitions can appear anywhere in the batch; index them
	// first so defaults resolve regardless of statement order.
	for _, stmt := range stmts {
		if seq, ok := stmt.(*tsql.CreateSequenceStmt); ok {
			key := seqKey(seq.Name)
			t.sequences[key] = seq
		}
	}

	for _, stmt := range stmts {
		if err := t.apply(stmt); err != nil {
			return nil, err
		}
	}

	if len(t.order) == 0 {
		return nil, fmt.Errorf("no table statement found in input")
	}

	// Resolve consumed sequences per unit, deduplicated, definitions
	// looked up from the batch; missing definitions become best-effort
	// idempotent declarations.
	for _, unit := range t.orderedUnits() {
		t.resolveSequences(unit)
	}

	// Anything parsed before the first table joins the first unit.
	first := t.units[t.order[0]]
	first.File.Omissions = append(t.preamble.omissions, first.File.Omissions...)
	first.File.Raws = append(t.preamble.raws, first.File.Raws...)
	first.Rules = append(t.preamble.rules, first.Rules...)

	return t.orderedUnits(), nil
}

// transformer carries the walk state for one script.
type transformer struct {
	sequences map[depgraph.ObjectKey]*tsql.CreateSequenceStmt
	units     map[depgraph.ObjectKey]*Unit
	order     []depgraph.ObjectKey
	current   *Unit

	// preamble collects output attached before the first table appears
	preamble struct {
		omissions []string
		raws      []string
		rules     []AppliedRule
	}
}

func (t *transformer) orderedUnits() []*Unit {
	out := make([]*Unit, 0, len(t.order))
	for _, key := range t.order {
		out = append(out, t.units[key])
	}
	return out
}

// unitFor returns the unit a statement addressed to the given table should
// attach to, falling back to the most recent unit when the table is
// unknown (index or comment scripted before its table, or renamed).
func (t *transformer) unitFor(key depgraph.ObjectKey) *Unit {
	if u, ok := t.units[key]; ok {
		return u
	}
	return t.current
}

func (t *transformer) apply(stmt tsql.Statement) error {
	switch s := stmt.(type) {
	case *tsql.CreateTableStmt:
		return t.applyTable(s)
	case *tsql.CreateSequenceStmt:
		// Indexed up front; emitted with the unit that consumes it.
		return nil
	case *tsql.CreateIndexStmt:
		t.applyIndex(s)
		return nil
	case *tsql.ExtendedPropertyStmt:
		t.applyExtendedProperty(s)
		return nil
	case *tsql.RawStatement:
		t.applyRaw(s)
		return nil
	default:
		return fmt.Errorf("unhandled statement type %T", stmt)
	}
}

// applyTable converts a CREATE TABLE statement into a new unit.
func (t *transformer) applyTable(src *tsql.CreateTableStmt) error {
	key := depgraph.NewObjectKey(src.Name.Schema, src.Name.Name)

	unit := &Unit{
		Key:   key,
		Edges: depgraph.NewEdgeSet(),
		File: &pgsql.File{
			Schemas: []string{key.Schema},
			Table:   &pgsql.Table{Schema: key.Schema, Name: key.Table},
		},
	}
	t.units[key] = unit
	t.order = append(t.order, key)
	t.current = unit

	temporal := src.Period != nil || hasSystemVersioning(src.Options)
	if temporal {
		unit.tag(TagTemporalDropped, fmt.Sprintf("system-versioning clauses removed from %s", key))
	}

	for _, col := range src.Columns {
		out, err := t.transformColumn(unit, key, col, temporal)
		if err != nil {
			return err
		}
		unit.File.Table.Columns = append(unit.File.Table.Columns, out)
		for _, c := range col.Inline {
			t.transformConstraint(unit, key, c)
		}
	}

	for _, c := range src.Constraints {
		t.transformConstraint(unit, key, c)
	}

	for _, raw := range src.RawElements {
		unit.tag(TagNeedsReview, fmt.Sprintf("unmodeled table element: %s", raw))
		unit.File.Omissions = append(unit.File.Omissions,
			fmt.Sprintf("review: unmodeled table element retained from source: %s", raw))
	}

	// Table options and storage placement have no target equivalent.
	// Each one leaves a counted omission so nothing vanishes silently.
	for _, opt := range src.Options {
		if opt.Name == "SYSTEM_VERSIONING" {
			continue // consumed by the temporal rules above
		}
		unit.tag(TagTableOptionDropped, fmt.Sprintf("table option %s dropped", opt.Raw))
		unit.File.Omissions = append(unit.File.Omissions,
			fmt.Sprintf("omitted: table option %s does not apply to the target dialect", opt.Raw))
	}
	if src.FileGroup != "" {
		unit.tag(TagTableOptionDropped, fmt.Sprintf("filegroup placement ON %s dropped", src.FileGroup))
		unit.File.Omissions = append(unit.File.Omissions,
			fmt.Sprintf("omitted: filegroup placement ON %s does not apply to the target dialect", src.FileGroup))
	}
	if src.TextImageFG != "" {
		unit.tag(TagTableOptionDropped, fmt.Sprintf("TEXTIMAGE_ON %s placement dropped", src.TextImageFG))
		unit.File.Omissions = append(unit.File.Omissions,
			fmt.Sprintf("omitted: TEXTIMAGE_ON %s placement does not apply to the target dialect", src.TextImageFG))
	}

	return nil
}

// transformColumn applies the type, default, and temporal column rules.
// The column name is carried through byte-identical.
func (t *transformer) transformColumn(unit *Unit, owner depgraph.ObjectKey, col *tsql.ColumnDef, temporal bool) (*pgsql.Column, error) {
	out := &pgsql.Column{Name: col.Name, NotNull: col.NotNull}

	// System-versioning generated columns become plain fixed-precision
	// timestamps at their original ordinal position.
	if temporal && col.Generated != tsql.GeneratedNone {
		out.Type = fmt.Sprintf("TIMESTAMP(%d)", maxTimestampPrecision)
		out.NotNull = true
		out.Default = currentTimestampLiteral
		unit.tag(TagTemporalDropped,
			fmt.Sprintf("generated column %s retyped to fixed-precision timestamp", col.Name))
		return out, nil
	}

	rendered, geography, mapped := mapType(col.Type)
	out.Type = rendered
	if geography {
		unit.Flags.UsesGeography = true
		unit.tag(TagUsesGeography, fmt.Sprintf("column %s uses geography", col.Name))
	}
	if mapped {
		if src := renderSourceType(col.Type); !strings.EqualFold(src, rendered) {
			unit.tag(TagTypeMapped, fmt.Sprintf("%s -> %s", src, rendered))
		}
	} else {
		unit.tag(TagTypeUnmapped,
			fmt.Sprintf("no mapping for type %s on column %s, passed through", renderSourceType(col.Type), col.Name))
	}

	if col.Identity != nil {
		out.Default = ""
		out.Type += " GENERATED BY DEFAULT AS IDENTITY"
		unit.tag(TagIdentityRewritten,
			fmt.Sprintf("IDENTITY(%s,%s) on %s rewritten to identity column", col.Identity.Seed, col.Identity.Increment, col.Name))
	}

	if col.Default != nil {
		def, err := t.transformDefault(unit, owner, col)
		if err != nil {
			return nil, err
		}
		out.Default = def
		if col.DefaultName != "" {
			unit.tag(TagDefaultUnwrapped,
				fmt.Sprintf("default constraint %s unwrapped on %s", col.DefaultName, col.Name))
		}
	}

	if col.Trailing != "" {
		unit.tag(TagNeedsReview,
			fmt.Sprintf("column %s clause not translated: %s", col.Name, col.Trailing))
		unit.File.Omissions = append(unit.File.Omissions,
			fmt.Sprintf("review: column %s carried clause %q in source", col.Name, col.Trailing))
	}

	return out, nil
}

// transformDefault rewrites a structured default to the target dialect.
func (t *transformer) transformDefault(unit *Unit, owner depgraph.ObjectKey, col *tsql.ColumnDef) (string, error) {
	def := col.Default
	switch def.Kind {
	case tsql.DefaultNextValue:
		target := targetSequenceName(def.Sequence)
		unit.consumedSeqs = append(unit.consumedSeqs, def.Sequence)
		unit.tag(TagSequenceDefault,
			fmt.Sprintf("NEXT VALUE FOR %s -> nextval('%s') on %s", def.Sequence, target, col.Name))
		return fmt.Sprintf("nextval('%s')", target), nil
	case tsql.DefaultFunction:
		fn := strings.ToLower(def.Func)
		if timestampFuncs[fn] {
			unit.tag(TagTimestampDefault,
				fmt.Sprintf("%s() -> %s on %s", def.Func, currentTimestampLiteral, col.Name))
			return currentTimestampLiteral, nil
		}
		if mapped, ok := functionDefaults[fn]; ok {
			unit.tag(TagFunctionDefault, fmt.Sprintf("%s() -> %s on %s", def.Func, mapped, col.Name))
			return mapped, nil
		}
		unit.tag(TagNeedsReview,
			fmt.Sprintf("default function %s() on %s passed through", def.Func, col.Name))
		return def.Func + "()", nil
	case tsql.DefaultLiteral:
		return normalizeLiteral(stripBrackets(def.Text)), nil
	default:
		return "", fmt.Errorf("unknown default kind %d", def.Kind)
	}
}

// transformConstraint applies constraint rules and records foreign key
// dependency edges.
func (t *transformer) transformConstraint(unit *Unit, owner depgraph.ObjectKey, c *tsql.Constraint) {
	out := &pgsql.Constraint{Name: c.Name}

	if c.Cluster != tsql.ClusterUnspecified {
		unit.tag(TagClusterDropped,
			fmt.Sprintf("%s qualifier dropped on %s", clusterWord(c.Cluster), constraintLabel(c)))
	}

	switch c.Kind {
	case tsql.PrimaryKey:
		out.Kind = pgsql.PrimaryKey
		out.Columns = columnNames(c.Columns)
	case tsql.Unique:
		out.Kind = pgsql.Unique
		out.Columns = columnNames(c.Columns)
	case tsql.ForeignKey:
		out.Kind = pgsql.ForeignKey
		out.Columns = columnNames(c.Columns)
		target := depgraph.NewObjectKey(c.RefTable.Schema, c.RefTable.Name)
		out.RefSchema = target.Schema
		out.RefTable = target.Table
		out.RefColumns = c.RefColumns
		out.OnDelete = c.OnDelete
		out.OnUpdate = c.OnUpdate
		unit.Edges.Add(owner, target, columnNames(c.Columns))
	case tsql.Check:
		out.Kind = pgsql.Check
		out.CheckExpr = stripBrackets(c.CheckExpr)
	}

	unit.File.Table.Constraints = append(unit.File.Table.Constraints, out)
}

// applyIndex translates a standalone index. Columnstore indexes have no
// target equivalent: they emit an omission comment and a counting tag, and
// produce no index node.
func (t *transformer) applyIndex(src *tsql.CreateIndexStmt) {
	key := depgraph.NewObjectKey(src.Table.Schema, src.Table.Name)
	unit := t.unitFor(key)
	if unit == nil {
		// Index scripted before any table in the file
		t.preamble.omissions = append(t.preamble.omissions,
			fmt.Sprintf("review: index %s addresses unknown table %s", src.Name, src.Table))
		t.preamble.rules = append(t.preamble.rules,
			AppliedRule{TagNeedsReview, fmt.Sprintf("index %s has no known table", src.Name)})
		return
	}

	if src.Columnstore {
		unit.tag(TagColumnstoreOmit,
			fmt.Sprintf("columnstore index %s omitted, no target equivalent", src.Name))
		unit.File.Omissions = append(unit.File.Omissions,
			fmt.Sprintf("omitted: columnstore index %s has no equivalent in the target dialect", src.Name))
		return
	}

	if src.Cluster != tsql.ClusterUnspecified {
		unit.tag(TagClusterDropped,
			fmt.Sprintf("%s qualifier dropped on index %s", clusterWord(src.Cluster), src.Name))
	}

	idx := &pgsql.Index{
		Name:   src.Name,
		Schema: key.Schema,
		Table:  key.Table,
		Unique: src.Unique,
	}
	for _, c := range src.Columns {
		idx.Columns = append(idx.Columns, pgsql.IndexColumn{Name: c.Name, Desc: c.Desc})
	}
	idx.Include = append(idx.Include, src.Include...)

	if src.Options != "" {
		unit.tag(TagNeedsReview,
			fmt.Sprintf("index %s storage options dropped: WITH (%s)", src.Name, src.Options))
		unit.File.Omissions = append(unit.File.Omissions,
			fmt.Sprintf("review: index %s carried storage options WITH (%s) in source", src.Name, src.Options))
	}

	unit.File.Indexes = append(unit.File.Indexes, idx)
}

// applyExtendedProperty classifies a metadata registration by its
// addressed level: column, table, or index.
func (t *transformer) applyExtendedProperty(src *tsql.ExtendedPropertyStmt) {
	if !strings.EqualFold(src.Level1Type, "TABLE") || src.Level1Name == "" {
		t.passthroughRaw(src.Text,
			fmt.Sprintf("extended property on %s level not translated", src.Level1Type))
		return
	}

	key := depgraph.NewObjectKey(src.Level0Name, src.Level1Name)
	unit := t.unitFor(key)
	if unit == nil {
		t.preamble.rules = append(t.preamble.rules,
			AppliedRule{TagNeedsReview, fmt.Sprintf("extended property addresses unknown table %s", key)})
		return
	}

	switch strings.ToUpper(src.Level2Type) {
	case "":
		unit.File.Comments = append(unit.File.Comments, &pgsql.Comment{
			Schema: key.Schema, Table: key.Table, Text: src.Value,
		})
		unit.tag(TagCommentMapped, fmt.Sprintf("table comment on %s", key))
	case "COLUMN":
		unit.File.Comments = append(unit.File.Comments, &pgsql.Comment{
			Schema: key.Schema, Table: key.Table,
			Column:  src.Level2Name,
			Text:    src.Value,
			Ordinal: t.columnOrdinal(unit, src.Level2Name),
		})
		unit.tag(TagCommentMapped, fmt.Sprintf("column comment on %s.%s", key, src.Level2Name))
	case "INDEX":
		// The target dialect has no index comment facility.
		unit.tag(TagIndexCommentOmit,
			fmt.Sprintf("index comment on %s omitted, counted only", src.Level2Name))
	default:
		unit.tag(TagNeedsReview,
			fmt.Sprintf("extended property level %s not translated", src.Level2Type))
	}
}

// columnOrdinal looks up a column's ordinal position for comment ordering.
func (t *transformer) columnOrdinal(unit *Unit, column string) int {
	for i, col := range unit.File.Table.Columns {
		if col.Name == column {
			return i
		}
	}
	return len(unit.File.Table.Columns)
}

// applyRaw keeps unrecognized statement text. Session settings become
// counted omissions; anything else passes through verbatim behind a
// review comment.
func (t *transformer) applyRaw(src *tsql.RawStatement) {
	upper := strings.ToUpper(strings.TrimSpace(src.Text))
	if strings.HasPrefix(upper, "SET ") {
		t.addOmission(fmt.Sprintf("omitted: session setting %q does not apply to the target dialect", src.Text),
			AppliedRule{TagSettingDropped, src.Text})
		return
	}
	if strings.HasPrefix(upper, "USE ") {
		t.addOmission(fmt.Sprintf("omitted: database selection %q does not apply to the target dialect", src.Text),
			AppliedRule{TagSettingDropped, src.Text})
		return
	}

	t.passthroughRaw(src.Text, "unrecognized statement passed through verbatim")
}

func (t *transformer) addOmission(text string, rule AppliedRule) {
	if t.current != nil {
		t.current.File.Omissions = append(t.current.File.Omissions, text)
		t.current.Rules = append(t.current.Rules, rule)
		return
	}
	t.preamble.omissions = append(t.preamble.omissions, text)
	t.preamble.rules = append(t.preamble.rules, rule)
}

func (t *transformer) passthroughRaw(text, reason string) {
	raw := "-- review: " + reason + "\n" + text
	rule := AppliedRule{TagNeedsReview, reason}
	if t.current != nil {
		t.current.File.Raws = append(t.current.File.Raws, raw)
		t.current.Rules = append(t.current.Rules, rule)
		return
	}
	t.preamble.raws = append(t.preamble.raws, raw)
	t.preamble.rules = append(t.preamble.rules, rule)
}

// resolveSequences materializes the unit's consumed sequences in first-use
// order, one declaration per distinct sequence, parameters taken from the
// batch definition when present.
func (t *transformer) resolveSequences(unit *Unit) {
	seen := make(map[depgraph.ObjectKey]bool)
	for _, name := range unit.consumedSeqs {
		key := seqKey(name)
		if seen[key] {
			continue
		}
		seen[key] = true

		out := &pgsql.Sequence{
			Schema: key.Schema,
			Name:   snakeCase(name.Name),
		}
		if def, ok := t.sequences[key]; ok {
			out.StartWith = def.StartWith
			out.IncrementBy = def.IncrementBy
			out.MinValue = def.MinValue
			out.MaxValue = def.MaxValue
			out.Cache = def.Cache
		} else {
			out.BestEffort = true
			unit.tag(TagMissingSequence,
				fmt.Sprintf("sequence %s referenced but not defined in this batch", key))
		}

		unit.File.Sequences = append(unit.File.Sequences, out)
		if !containsStr(unit.File.Schemas, key.Schema) {
			unit.File.Schemas = append(unit.File.Schemas, key.Schema)
		}
	}
}

// tag appends an applied rule to the unit.
func (u *Unit) tag(tag RuleTag, detail string) {
	u.Rules = append(u.Rules, AppliedRule{Tag: tag, Detail: detail})
}

// seqKey canonicalizes a sequence object name. The snake-cased target name
// is derived separately; the key keeps the plain lowercase form so batch
// definitions and references land on the same identity.
func seqKey(name tsql.ObjectName) depgraph.ObjectKey {
	return depgraph.NewObjectKey(name.Schema, name.Name)
}

// targetSequenceName renders the snake-cased, schema-qualified sequence
// identifier used in nextval calls and declarations. The snake casing
// works from the name as written so word boundaries survive:
// [Sequences].[OrderID] -> sequences.order_id.
func targetSequenceName(name tsql.ObjectName) string {
	key := seqKey(name)
	return key.Schema + "." + snakeCase(name.Name)
}

func hasSystemVersioning(options []tsql.TableOption) bool {
	for _, opt := range options {
		if opt.Name == "SYSTEM_VERSIONING" {
			return true
		}
	}
	return false
}

func clusterWord(c tsql.ClusterOption) string {
	if c == tsql.Clustered {
		return "CLUSTERED"
	}
	return "NONCLUSTERED"
}

func constraintLabel(c *tsql.Constraint) string {
	if c.Name != "" {
		return c.Name
	}
	return c.Kind.String()
}

func columnNames(cols []tsql.IndexColumn) []string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names
}

func containsStr(slice []string, s string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}
