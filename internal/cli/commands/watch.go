package commands

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/schemaport-labs/schemaport/internal/engine"
)

// debounceInterval coalesces editor save bursts into one conversion.
const debounceInterval = 300 * time.Millisecond

// NewWatchCommand creates the watch command.
func NewWatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the input tree and convert scripts as they change",
		Long: `Watch the input tree and re-convert table scripts when they are
created or modified. Press Ctrl+C to stop.`,
		RunE: runWatch,
	}
	return cmd
}

func runWatch(cmd *cobra.Command, _ []string) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := cmdCtx.Cfg.ValidateInputDir(); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watchRecursive(watcher, cmdCtx.Cfg.InputDir); err != nil {
		return err
	}

	eng := cmdCtx.Engine(false)
	logger := cmdCtx.Logger

	cmdCtx.Renderer.Printf("Watching %s for changes (Ctrl+C to stop)\n", cmdCtx.Cfg.InputDir)

	ctx := cmd.Context()
	pending := make(map[string]struct{})
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op.Has(fsnotify.Create) {
				// New directories must be watched to see files inside
				// them.
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = watchRecursive(watcher, event.Name)
					continue
				}
			}
			if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) {
				continue
			}
			if !strings.EqualFold(filepath.Ext(event.Name), ".sql") {
				continue
			}
			pending[event.Name] = struct{}{}
			if timer == nil {
				timer = time.NewTimer(debounceInterval)
			} else {
				timer.Reset(debounceInterval)
			}
			timerC = timer.C

		case <-timerC:
			timerC = nil
			paths := make([]string, 0, len(pending))
			for path := range pending {
				paths = append(paths, path)
			}
			clear(pending)
			convertChanged(ctx, eng, logger, cmdCtx, paths)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", slog.Any("error", err))
		}
	}
}

func convertChanged(ctx context.Context, eng *engine.Engine, logger *slog.Logger, cmdCtx *CommandContext, paths []string) {
	r := cmdCtx.Renderer
	styles := r.Styles()

	for _, path := range paths {
		res, err := eng.ConvertFile(ctx, path)
		if err != nil {
			r.Printf("%s %s: %v\n", styles.StatusFailed.Render("FAIL"), path, err)
			continue
		}
		if res.Skipped() {
			r.Printf("%s %s: %s\n", styles.StatusSkipped.Render("SKIP"), path, errorSummary(res.ParseErrors))
			continue
		}
		for _, unit := range res.Units {
			r.Printf("%s %s -> %s\n", styles.StatusSuccess.Render("OK"), unit.Key.String(), unit.OutputPath)
		}
	}
}

// watchRecursive adds root and every directory below it to the watcher.
func watchRecursive(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if err := watcher.Add(path); err != nil {
				return fmt.Errorf("failed to watch %s: %w", path, err)
			}
		}
		return nil
	})
}
