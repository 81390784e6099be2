package depgraph

import "sort"

// Group is one unresolved dependency target with the union of referencing
// columns and the owners that reference it.
type Group struct {
	Target  ObjectKey
	Columns []string
	Owners  []ObjectKey
}

// Unresolved compares edges against a conversion-state predicate and
// returns the targets that still need conversion, grouped by target key
// and sorted by (schema, table) ascending. Self references never gate
// their own file and are excluded; so are targets that already have
// output. The result is advisory: it never blocks emission.
func Unresolved(edges []*Edge, hasOutput func(ObjectKey) bool) []Group {
	byTarget := make(map[ObjectKey]*Group)
	var order []ObjectKey

	for _, e := range edges {
		if e.SelfRef {
			continue
		}
		if hasOutput(e.To) {
			continue
		}

		g, ok := byTarget[e.To]
		if !ok {
			g = &Group{Target: e.To}
			byTarget[e.To] = g
			order = append(order, e.To)
		}
		for _, col := range e.Columns {
			if !containsString(g.Columns, col) {
				g.Columns = append(g.Columns, col)
			}
		}
		if !containsKey(g.Owners, e.From) {
			g.Owners = append(g.Owners, e.From)
		}
	}

	sort.Slice(order, func(i, j int) bool {
		return order[i].Less(order[j])
	})

	out := make([]Group, 0, len(order))
	for _, key := range order {
		g := byTarget[key]
		sortKeys(g.Owners)
		out = append(out, *g)
	}
	return out
}
