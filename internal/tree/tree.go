// Package tree addresses the input and output DDL trees. The input tree
// follows the schema/objectKind/objectName layout that scripted-out
// databases use; the output tree mirrors it under a distinct root with one
// DDL file and one companion report per converted table.
package tree

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/schemaport-labs/schemaport/internal/depgraph"
)

// Object kinds in the input tree.
const (
	KindTables    = "Tables"
	KindSequences = "Sequences"
	KindTypes     = "Types"
)

// Layout resolves paths for one conversion workspace.
type Layout struct {
	InputRoot  string
	OutputRoot string
}

// InputPath returns the conventional path of an input object:
// <root>/<schema>/<kind>/<name>.sql.
func (l *Layout) InputPath(schema, kind, name string) string {
	return filepath.Join(l.InputRoot, schema, kind, name+".sql")
}

// OutputPath returns the deterministic output location for a table. The
// path derives purely from the canonical key, so collaborators can compute
// it without converting anything.
func (l *Layout) OutputPath(key depgraph.ObjectKey) string {
	return filepath.Join(l.OutputRoot, key.Schema, key.Table+".sql")
}

// ReportPath returns the companion structured-report location for a table.
func (l *Layout) ReportPath(key depgraph.ObjectKey) string {
	return filepath.Join(l.OutputRoot, key.Schema, key.Table+".report.yaml")
}

// HasOutput reports whether a table's DDL output exists. This is the
// conversion-state predicate: it flips to true only when an output file
// has been fully written.
func (l *Layout) HasOutput(key depgraph.ObjectKey) bool {
	info, err := os.Stat(l.OutputPath(key))
	return err == nil && !info.IsDir()
}

// Snapshot is a read-only view of the output tree taken at one point in
// time. Batch conversion reads one snapshot up front so parallel file
// conversions see consistent state.
type Snapshot struct {
	outputs map[depgraph.ObjectKey]bool
}

// HasOutput reports whether the snapshot saw output for the key.
func (s *Snapshot) HasOutput(key depgraph.ObjectKey) bool {
	return s.outputs[key]
}

// Snapshot walks the output root and captures which tables have output.
// A missing output root yields an empty snapshot, not an error.
func (l *Layout) Snapshot() (*Snapshot, error) {
	snap := &Snapshot{outputs: make(map[depgraph.ObjectKey]bool)}

	err := filepath.WalkDir(l.OutputRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".sql") {
			return nil
		}
		rel, err := filepath.Rel(l.OutputRoot, path)
		if err != nil {
			return err
		}
		parts := strings.Split(filepath.ToSlash(rel), "/")
		if len(parts) != 2 {
			return nil
		}
		table := strings.TrimSuffix(parts[1], ".sql")
		snap.outputs[depgraph.NewObjectKey(parts[0], table)] = true
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return snap, nil
		}
		return nil, err
	}
	return snap, nil
}

// DiscoverTables walks the input root and returns the table DDL files
// found, sorted by path. Files under a Tables directory are table objects;
// when the input tree is flat, every .sql file qualifies.
func (l *Layout) DiscoverTables() ([]string, error) {
	var flat, tables []string

	err := filepath.WalkDir(l.InputRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(path), ".sql") {
			return nil
		}
		parent := filepath.Base(filepath.Dir(path))
		switch parent {
		case KindTables:
			tables = append(tables, path)
		case KindSequences, KindTypes:
			// referenced from table defaults, not converted standalone
		default:
			flat = append(flat, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(tables) > 0 {
		return tables, nil
	}
	return flat, nil
}
