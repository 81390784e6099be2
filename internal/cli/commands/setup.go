package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/schemaport-labs/schemaport/internal/cli/config"
	"github.com/schemaport-labs/schemaport/internal/cli/output"
	"github.com/schemaport-labs/schemaport/internal/engine"
	"github.com/schemaport-labs/schemaport/internal/state"
	"github.com/schemaport-labs/schemaport/internal/tree"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Layout   *tree.Layout
	Store    *state.Store
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext, opening the run history
// store unless disabled. Returns the context and a cleanup function that
// must be called (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cmdCtx := NewCommandContextWithoutStore(cmd)

	cleanup := func() {}
	if !cmdCtx.Cfg.NoHistory {
		store, err := openStore(cmdCtx.Cfg, cmdCtx.Logger)
		if err != nil {
			// History is informational; a broken store must not block
			// conversion.
			cmdCtx.Logger.Warn("run history unavailable", slog.Any("error", err))
		} else {
			cmdCtx.Store = store
			cleanup = func() { _ = store.Close() }
		}
	}
	return cmdCtx, cleanup, nil
}

// NewCommandContextWithoutStore creates a CommandContext without the run
// history store. Useful for commands that only read the source tree.
func NewCommandContextWithoutStore(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())
	mode := output.Mode(cfg.OutputFormat)
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	return &CommandContext{
		Cfg:    cfg,
		Logger: logger,
		Layout: &tree.Layout{
			InputRoot:  cfg.InputDir,
			OutputRoot: cfg.OutputDir,
		},
		Renderer: r,
	}
}

// Engine builds a conversion engine from the command context.
func (c *CommandContext) Engine(dryRun bool) *engine.Engine {
	return engine.New(engine.Options{
		Layout:      c.Layout,
		Store:       c.Store,
		Logger:      c.Logger,
		Concurrency: c.Cfg.Concurrency,
		DryRun:      dryRun,
	})
}

func openStore(cfg *config.Config, logger *slog.Logger) (*state.Store, error) {
	stateDir := filepath.Dir(cfg.StatePath)
	if stateDir != "." && stateDir != "" {
		if err := os.MkdirAll(stateDir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create state directory: %w", err)
		}
	}
	return state.Open(cfg.StatePath, logger)
}

// getConfig returns the current configuration, falling back to
// environment variables when no config was loaded.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}

	return &config.Config{
		InputDir:     getEnvOrDefault("SCHEMAPORT_INPUT_DIR", config.DefaultInputDir),
		OutputDir:    getEnvOrDefault("SCHEMAPORT_OUTPUT_DIR", config.DefaultOutputDir),
		StatePath:    getEnvOrDefault("SCHEMAPORT_STATE_PATH", config.DefaultStateFile),
		Concurrency:  config.DefaultConcurrency,
		Verbose:      os.Getenv("SCHEMAPORT_VERBOSE") == "true",
		OutputFormat: os.Getenv("SCHEMAPORT_OUTPUT"),
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
