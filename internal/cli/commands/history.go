package commands

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/schemaport-labs/schemaport/internal/cli/output"
	"github.com/schemaport-labs/schemaport/internal/state"
)

// HistoryOptions holds options for the history command.
type HistoryOptions struct {
	Object string
	Limit  int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	opts := &HistoryOptions{}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show past conversion runs",
		Example: `  # Show the last 50 runs
  schemaport history

  # Show runs for one table
  schemaport history --object sales.orders`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHistory(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Object, "object", "", "Filter by canonical table name (schema.table)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 50, "Maximum runs to show")

	return cmd
}

func runHistory(cmd *cobra.Command, opts *HistoryOptions) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	if cmdCtx.Store == nil {
		return fmt.Errorf("run history is unavailable (disabled with --no-history or the state database failed to open)")
	}

	runs, err := cmdCtx.Store.ListRuns(opts.Object, opts.Limit)
	if err != nil {
		return err
	}

	r := cmdCtx.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(historyJSON(runs))
	}

	if len(runs) == 0 {
		r.Println("No runs recorded yet.")
		return nil
	}

	styles := r.Styles()
	rows := make([]table.Row, 0, len(runs))
	for _, run := range runs {
		status := string(run.Status)
		switch run.Status {
		case state.RunStatusSucceeded:
			status = styles.StatusSuccess.Render(status)
		case state.RunStatusFailed:
			status = styles.StatusFailed.Render(status)
		case state.RunStatusSkipped:
			status = styles.StatusSkipped.Render(status)
		}
		rows = append(rows, table.Row{
			run.StartedAt.Local().Format(time.DateTime),
			run.Object,
			status,
			run.RuleCount,
			run.Unresolved,
			run.Error,
		})
	}
	r.Table(table.Row{"Started", "Object", "Status", "Rules", "Unresolved", "Error"}, rows)
	return nil
}

type runJSON struct {
	ID         string `json:"id"`
	Object     string `json:"object,omitempty"`
	Source     string `json:"source"`
	Status     string `json:"status"`
	RuleCount  int    `json:"rule_count"`
	Unresolved int    `json:"unresolved"`
	Error      string `json:"error,omitempty"`
	StartedAt  string `json:"started_at"`
}

func historyJSON(runs []*state.Run) []runJSON {
	out := make([]runJSON, 0, len(runs))
	for _, run := range runs {
		out = append(out, runJSON{
			ID:         run.ID,
			Object:     run.Object,
			Source:     run.Source,
			Status:     string(run.Status),
			RuleCount:  run.RuleCount,
			Unresolved: run.Unresolved,
			Error:      run.Error,
			StartedAt:  run.StartedAt.UTC().Format(time.RFC3339),
		})
	}
	return out
}
