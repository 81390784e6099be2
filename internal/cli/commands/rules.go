package commands

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/schemaport-labs/schemaport/internal/cli/output"
	"github.com/schemaport-labs/schemaport/internal/transform"
)

// NewRulesCommand creates the rules command.
func NewRulesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Show the type mapping table",
		Long: `Show how SQL Server column types translate to PostgreSQL.

Types not in this table pass through unchanged and raise a review
warning in the conversion report; nothing is ever silently dropped.`,
		RunE: runRules,
	}
	return cmd
}

func runRules(cmd *cobra.Command, _ []string) error {
	cmdCtx := NewCommandContextWithoutStore(cmd)
	r := cmdCtx.Renderer

	mappings := transform.TypeMappings()

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(mappings)
	}

	styles := r.Styles()
	r.Println(styles.Header1.Render("Type mappings"))

	rows := make([]table.Row, 0, len(mappings))
	for _, m := range mappings {
		rows = append(rows, table.Row{m.Source, m.Target, m.Note})
	}
	r.Table(table.Row{"SQL Server", "PostgreSQL", "Note"}, rows)

	r.Println("")
	r.Println(styles.Muted.Render("Unlisted types pass through unchanged and are flagged for review."))
	return nil
}
