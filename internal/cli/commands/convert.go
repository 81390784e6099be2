package commands

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/schemaport-labs/schemaport/internal/cli/output"
	"github.com/schemaport-labs/schemaport/internal/engine"
)

// ConvertOptions holds options for the convert command.
type ConvertOptions struct {
	DryRun bool
}

// NewConvertCommand creates the convert command.
func NewConvertCommand() *cobra.Command {
	opts := &ConvertOptions{}

	cmd := &cobra.Command{
		Use:   "convert [file]",
		Short: "Convert Transact-SQL table scripts to PostgreSQL",
		Long: `Convert one table script, or every script under the input tree.

Each converted table produces a PostgreSQL script and a review report in
the output tree. Files that fail to parse are skipped and reported; the
rest of the batch still converts.`,
		Example: `  # Convert the whole input tree
  schemaport convert

  # Convert one file
  schemaport convert source/Sales/Tables/Orders.sql

  # Show what would be converted without writing
  schemaport convert --dry-run`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, args, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Transform and report without writing output")

	return cmd
}

func runConvert(cmd *cobra.Command, args []string, opts *ConvertOptions) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	eng := cmdCtx.Engine(opts.DryRun)
	started := time.Now()

	var batch *engine.BatchResult
	if len(args) == 1 {
		res, err := eng.ConvertFile(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		batch = &engine.BatchResult{Files: []*engine.FileResult{res}}
		if res.Skipped() {
			batch.Skipped = 1
		} else {
			batch.Converted = len(res.Units)
		}
	} else {
		if err := cmdCtx.Cfg.ValidateInputDir(); err != nil {
			return err
		}
		batch, err = eng.ConvertBatch(cmd.Context())
		if err != nil {
			return err
		}
	}

	return renderBatch(cmdCtx.Renderer, batch, time.Since(started), opts.DryRun)
}

func renderBatch(r *output.Renderer, batch *engine.BatchResult, elapsed time.Duration, dryRun bool) error {
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(batchJSON(batch))
	}

	styles := r.Styles()

	rows := make([]table.Row, 0, len(batch.Files))
	for _, file := range batch.Files {
		if file.Skipped() {
			rows = append(rows, table.Row{
				file.Source,
				styles.StatusSkipped.Render("skipped"),
				"", "",
				errorSummary(file.ParseErrors),
			})
			continue
		}
		for _, unit := range file.Units {
			rows = append(rows, table.Row{
				unit.Key.String(),
				styles.StatusSuccess.Render("converted"),
				len(unit.Report.Rules),
				len(unit.Report.Unresolved),
				unit.OutputPath,
			})
		}
	}

	if len(rows) > 0 {
		r.Table(table.Row{"Object", "Status", "Rules", "Unresolved", "Output"}, rows)
	}

	verb := "Converted"
	if dryRun {
		verb = "Would convert"
	}
	r.Println("")
	r.Printf("%s %d table(s), skipped %d file(s) in %s\n",
		verb, batch.Converted, batch.Skipped, elapsed.Round(time.Millisecond))

	if batch.Skipped > 0 {
		r.Println(styles.Warning.Render("Skipped files need manual review; see the errors above."))
	}
	return nil
}

func errorSummary(errs []error) string {
	if len(errs) == 0 {
		return ""
	}
	if len(errs) == 1 {
		return errs[0].Error()
	}
	return fmt.Sprintf("%s (+%d more)", errs[0].Error(), len(errs)-1)
}

type batchFileJSON struct {
	Source string   `json:"source"`
	Status string   `json:"status"`
	Tables []string `json:"tables,omitempty"`
	Errors []string `json:"errors,omitempty"`
}

func batchJSON(batch *engine.BatchResult) []batchFileJSON {
	files := make([]batchFileJSON, 0, len(batch.Files))
	for _, file := range batch.Files {
		entry := batchFileJSON{Source: file.Source, Status: "converted"}
		if file.Skipped() {
			entry.Status = "skipped"
			for _, err := range file.ParseErrors {
				entry.Errors = append(entry.Errors, err.Error())
			}
		} else {
			for _, unit := range file.Units {
				entry.Tables = append(entry.Tables, unit.Key.String())
			}
		}
		files = append(files, entry)
	}
	return files
}
