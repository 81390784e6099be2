// Package depgraph models cross-table references extracted from foreign key
// constraints. Objects are identified by a canonical lowercase key so that
// bracket casing in source scripts never splits an identity.
package depgraph

import "strings"

// DefaultSchema is assumed when a reference omits the schema segment.
const DefaultSchema = "dbo"

// ObjectKey is the canonical identity of a database object:
// lowercase schema and table, bracket-free. It is the sole key used for
// dependency and conversion-state lookups.
type ObjectKey struct {
	Schema string
	Table  string
}

// NewObjectKey builds a canonical key from raw schema/table segments as
// written in the source. An empty schema falls back to DefaultSchema.
func NewObjectKey(schema, table string) ObjectKey {
	if schema == "" {
		schema = DefaultSchema
	}
	return ObjectKey{
		Schema: strings.ToLower(schema),
		Table:  strings.ToLower(table),
	}
}

// String renders the key as schema.table.
func (k ObjectKey) String() string {
	return k.Schema + "." + k.Table
}

// Less orders keys by (schema, table) ascending for reproducible output.
func (k ObjectKey) Less(other ObjectKey) bool {
	if k.Schema != other.Schema {
		return k.Schema < other.Schema
	}
	return k.Table < other.Table
}
