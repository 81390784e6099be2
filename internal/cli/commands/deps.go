package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/schemaport-labs/schemaport/internal/cli/output"
	"github.com/schemaport-labs/schemaport/internal/depgraph"
	"github.com/schemaport-labs/schemaport/internal/transform"
	"github.com/schemaport-labs/schemaport/pkg/tsql"
)

// NewDepsCommand creates the deps command.
func NewDepsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deps",
		Short: "Show the foreign key dependency graph",
		Long: `Parse every table script under the input tree and show the foreign
key dependency graph: a suggested conversion order, reference cycles,
and references whose target has no converted output yet.

Unresolved references never block conversion; they are listed here so
reference targets can be converted first.`,
		RunE: runDeps,
	}
	return cmd
}

func runDeps(cmd *cobra.Command, _ []string) error {
	cmdCtx := NewCommandContextWithoutStore(cmd)
	if err := cmdCtx.Cfg.ValidateInputDir(); err != nil {
		return err
	}

	paths, err := cmdCtx.Layout.DiscoverTables()
	if err != nil {
		return err
	}
	snap, err := cmdCtx.Layout.Snapshot()
	if err != nil {
		return err
	}

	graph := depgraph.NewGraph()
	var allEdges []*depgraph.Edge
	var skipped []string

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		stmts, parseErrs := tsql.Parse(string(data))
		if len(parseErrs) > 0 {
			skipped = append(skipped, path)
			continue
		}
		units, err := transform.Transform(stmts)
		if err != nil {
			skipped = append(skipped, path)
			continue
		}
		for _, unit := range units {
			graph.AddNode(unit.Key)
			for _, edge := range unit.Edges.External() {
				graph.AddNode(edge.To)
				graph.AddEdge(edge.To, edge.From)
			}
			allEdges = append(allEdges, unit.Edges.Edges()...)
		}
	}

	order := graph.ConversionOrder()
	cycles := graph.Cycles()
	groups := depgraph.Unresolved(allEdges, snap.HasOutput)

	r := cmdCtx.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(depsJSON(graph, order, cycles, groups, skipped))
	}

	styles := r.Styles()

	r.Println(styles.Header1.Render(fmt.Sprintf("Conversion order (%d tables)", graph.NodeCount())))
	for i, key := range order {
		line := fmt.Sprintf("  %2d. %s", i+1, key.String())
		if deps := graph.Dependencies(key); len(deps) > 0 {
			line += styles.Muted.Render(fmt.Sprintf("  (needs %s)", joinKeys(deps, ", ")))
		}
		r.Println(line)
	}
	r.Println("")

	if roots := graph.Roots(); len(roots) > 0 && len(roots) < graph.NodeCount() {
		r.Println(styles.Header2.Render("Independent tables (no references)"))
		r.Printf("  %s\n", joinKeys(roots, ", "))
		r.Println("")
	}

	if len(cycles) > 0 {
		r.Println(styles.Warning.Render("Reference cycles (convert together, add constraints last):"))
		for _, cycle := range cycles {
			r.Printf("  %s\n", joinKeys(cycle, " -> "))
		}
		r.Println("")
	}

	if len(groups) > 0 {
		r.Println(styles.Header2.Render("Unresolved references"))
		rows := make([]table.Row, 0, len(groups))
		for _, g := range groups {
			rows = append(rows, table.Row{
				g.Target.String(),
				strings.Join(g.Columns, ", "),
				joinKeys(g.Owners, ", "),
			})
		}
		r.Table(table.Row{"Missing target", "Columns", "Referenced by"}, rows)
		r.Println("")
	}

	if len(skipped) > 0 {
		r.Println(styles.Muted.Render(fmt.Sprintf("Skipped %d file(s) with parse errors; run 'schemaport convert' for details.", len(skipped))))
	}
	return nil
}

func joinKeys(keys []depgraph.ObjectKey, sep string) string {
	parts := make([]string, len(keys))
	for i, key := range keys {
		parts[i] = key.String()
	}
	return strings.Join(parts, sep)
}

type depsOutput struct {
	Tables     int             `json:"tables"`
	Order      []string        `json:"order"`
	Roots      []string        `json:"roots,omitempty"`
	Cycles     [][]string      `json:"cycles,omitempty"`
	Unresolved []depsGroupJSON `json:"unresolved,omitempty"`
	Skipped    []string        `json:"skipped,omitempty"`
}

type depsGroupJSON struct {
	Target  string   `json:"target"`
	Columns []string `json:"columns"`
	Owners  []string `json:"owners"`
}

func depsJSON(graph *depgraph.Graph, order []depgraph.ObjectKey, cycles [][]depgraph.ObjectKey, groups []depgraph.Group, skipped []string) depsOutput {
	out := depsOutput{Tables: graph.NodeCount(), Skipped: skipped}
	for _, key := range order {
		out.Order = append(out.Order, key.String())
	}
	for _, key := range graph.Roots() {
		out.Roots = append(out.Roots, key.String())
	}
	for _, cycle := range cycles {
		names := make([]string, len(cycle))
		for i, key := range cycle {
			names[i] = key.String()
		}
		out.Cycles = append(out.Cycles, names)
	}
	for _, g := range groups {
		owners := make([]string, len(g.Owners))
		for i, key := range g.Owners {
			owners[i] = key.String()
		}
		out.Unresolved = append(out.Unresolved, depsGroupJSON{
			Target:  g.Target.String(),
			Columns: g.Columns,
			Owners:  owners,
		})
	}
	return out
}
