package depgraph

import "sort"

// Edge is a directed dependency from one table to another, carrying the
// source column names that require the target. Column casing is preserved
// as written.
type Edge struct {
	From    ObjectKey
	To      ObjectKey
	Columns []string
	// SelfRef marks From == To. Self references are recorded for
	// reporting but never counted as unresolved: a file cannot gate
	// on its own output.
	SelfRef bool
}

// EdgeSet accumulates edges for one conversion unit, merging edges that
// share the same (from, to) pair and unioning their column sets.
type EdgeSet struct {
	edges map[[2]ObjectKey]*Edge
	order [][2]ObjectKey
}

// NewEdgeSet creates an empty edge set.
func NewEdgeSet() *EdgeSet {
	return &EdgeSet{edges: make(map[[2]ObjectKey]*Edge)}
}

// Add records a dependency edge. Duplicate (from, to) pairs merge; their
// referencing columns are unioned preserving first-seen order.
func (s *EdgeSet) Add(from, to ObjectKey, columns []string) {
	pair := [2]ObjectKey{from, to}
	e, ok := s.edges[pair]
	if !ok {
		e = &Edge{From: from, To: to, SelfRef: from == to}
		s.edges[pair] = e
		s.order = append(s.order, pair)
	}
	for _, col := range columns {
		if !containsString(e.Columns, col) {
			e.Columns = append(e.Columns, col)
		}
	}
}

// Edges returns the merged edges in first-seen order.
func (s *EdgeSet) Edges() []*Edge {
	out := make([]*Edge, 0, len(s.order))
	for _, pair := range s.order {
		out = append(out, s.edges[pair])
	}
	return out
}

// External returns the merged edges excluding self references, sorted by
// target key for reproducibility.
func (s *EdgeSet) External() []*Edge {
	var out []*Edge
	for _, pair := range s.order {
		e := s.edges[pair]
		if !e.SelfRef {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].To.Less(out[j].To)
	})
	return out
}

// Len returns the number of distinct edges.
func (s *EdgeSet) Len() int {
	return len(s.edges)
}

func containsString(slice []string, str string) bool {
	for _, s := range slice {
		if s == str {
			return true
		}
	}
	return false
}
