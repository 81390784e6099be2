// Package report builds the structured conversion report that accompanies
// each emitted DDL file. The report is the audit trail for a conversion:
// which rules fired, what was omitted, and which referenced tables still
// lack output.
package report

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/schemaport-labs/schemaport/internal/depgraph"
	"github.com/schemaport-labs/schemaport/internal/transform"
)

// RuleSection aggregates one rule category's firings.
type RuleSection struct {
	Category string   `yaml:"category"`
	Count    int      `yaml:"count"`
	Details  []string `yaml:"details,omitempty"`
}

// DependencyGroup is one unresolved target with the referencing columns
// and the owning tables that need it.
type DependencyGroup struct {
	Target  string   `yaml:"target"`
	Columns []string `yaml:"columns"`
	Owners  []string `yaml:"owners"`
}

// Report is the per-file conversion summary. Sections that did not trigger
// are omitted from the serialized form entirely.
type Report struct {
	Object        string            `yaml:"object"`
	Source        string            `yaml:"source,omitempty"`
	Rules         []RuleSection     `yaml:"rules,omitempty"`
	Unresolved    []DependencyGroup `yaml:"unresolved_dependencies,omitempty"`
	SelfRefs      []string          `yaml:"self_references,omitempty"`
	UsesGeography bool              `yaml:"uses_geography,omitempty"`
}

// Build assembles a report from a transformed unit and its unresolved
// dependency groups. Rule sections keep the order in which categories
// first fired; details keep firing order.
func Build(unit *transform.Unit, groups []depgraph.Group, source string) *Report {
	r := &Report{
		Object:        unit.Key.String(),
		Source:        source,
		UsesGeography: unit.Flags.UsesGeography,
	}

	sections := make(map[transform.RuleTag]*RuleSection)
	var order []transform.RuleTag
	for _, rule := range unit.Rules {
		s, ok := sections[rule.Tag]
		if !ok {
			s = &RuleSection{Category: string(rule.Tag)}
			sections[rule.Tag] = s
			order = append(order, rule.Tag)
		}
		s.Count++
		if rule.Detail != "" {
			s.Details = append(s.Details, rule.Detail)
		}
	}
	for _, tag := range order {
		r.Rules = append(r.Rules, *sections[tag])
	}

	for _, g := range groups {
		owners := make([]string, len(g.Owners))
		for i, o := range g.Owners {
			owners[i] = o.String()
		}
		r.Unresolved = append(r.Unresolved, DependencyGroup{
			Target:  g.Target.String(),
			Columns: g.Columns,
			Owners:  owners,
		})
	}

	for _, e := range unit.Edges.Edges() {
		if e.SelfRef {
			r.SelfRefs = append(r.SelfRefs,
				fmt.Sprintf("%s references itself via %v", e.From, e.Columns))
		}
	}

	return r
}

// Marshal serializes the report as YAML.
func (r *Report) Marshal() ([]byte, error) {
	return yaml.Marshal(r)
}
