// Package engine drives the conversion pipeline: parse a Transact-SQL
// file, transform it, emit PostgreSQL output and a review report, and
// record the run. Batch conversion runs files in parallel against one
// snapshot of the output tree.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/schemaport-labs/schemaport/internal/depgraph"
	"github.com/schemaport-labs/schemaport/internal/report"
	"github.com/schemaport-labs/schemaport/internal/state"
	"github.com/schemaport-labs/schemaport/internal/transform"
	"github.com/schemaport-labs/schemaport/internal/tree"
	"github.com/schemaport-labs/schemaport/pkg/pgsql"
	"github.com/schemaport-labs/schemaport/pkg/tsql"
)

// DefaultConcurrency bounds parallel file conversions in a batch.
const DefaultConcurrency = 4

// Options configures an Engine.
type Options struct {
	Layout      *tree.Layout
	Store       *state.Store // optional run history
	Logger      *slog.Logger
	Concurrency int
	DryRun      bool // transform and report, write nothing
}

// Engine converts Transact-SQL table scripts into PostgreSQL scripts.
type Engine struct {
	layout      *tree.Layout
	store       *state.Store
	logger      *slog.Logger
	concurrency int
	dryRun      bool

	mu    sync.Mutex
	locks map[string]*sync.Mutex // per output path
}

// New creates an Engine.
func New(opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Engine{
		layout:      opts.Layout,
		store:       opts.Store,
		logger:      logger,
		concurrency: concurrency,
		dryRun:      opts.DryRun,
		locks:       make(map[string]*sync.Mutex),
	}
}

// UnitResult is the outcome of converting one table.
type UnitResult struct {
	Key        depgraph.ObjectKey
	OutputPath string
	ReportPath string
	Report     *report.Report
	SQL        string
}

// FileResult is the outcome of converting one input file. A file with
// parse errors is skipped whole: ParseErrors is non-empty and Units is
// empty.
type FileResult struct {
	Source      string
	Units       []*UnitResult
	ParseErrors []error
}

// Skipped reports whether the file was skipped due to parse errors.
func (r *FileResult) Skipped() bool { return len(r.ParseErrors) > 0 }

// BatchResult aggregates a batch conversion.
type BatchResult struct {
	Files     []*FileResult
	Converted int
	Skipped   int
}

// ConvertFile converts one input file against a fresh snapshot of the
// output tree.
func (e *Engine) ConvertFile(ctx context.Context, path string) (*FileResult, error) {
	snap, err := e.layout.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot output tree: %w", err)
	}
	return e.convertFile(ctx, path, snap)
}

// ConvertBatch discovers table scripts under the input root and converts
// them in parallel. One file failing or being skipped does not stop the
// batch.
func (e *Engine) ConvertBatch(ctx context.Context) (*BatchResult, error) {
	paths, err := e.layout.DiscoverTables()
	if err != nil {
		return nil, fmt.Errorf("failed to discover table scripts: %w", err)
	}
	snap, err := e.layout.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot output tree: %w", err)
	}

	e.logger.Info("starting batch conversion",
		slog.Int("files", len(paths)),
		slog.Int("concurrency", e.concurrency))

	results := make([]*FileResult, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	for i, path := range paths {
		g.Go(func() error {
			res, err := e.convertFile(ctx, path, snap)
			if err != nil {
				// Context cancellation aborts the batch; anything
				// else is a per-file failure the batch survives.
				if ctx.Err() != nil {
					return err
				}
				e.logger.Error("conversion failed",
					slog.String("source", path),
					slog.Any("error", err))
				res = &FileResult{Source: path, ParseErrors: []error{err}}
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	batch := &BatchResult{Files: results}
	for _, res := range results {
		if res.Skipped() {
			batch.Skipped++
		} else {
			batch.Converted += len(res.Units)
		}
	}
	e.logger.Info("batch conversion finished",
		slog.Int("converted", batch.Converted),
		slog.Int("skipped", batch.Skipped))
	return batch, nil
}

func (e *Engine) convertFile(ctx context.Context, path string, snap *tree.Snapshot) (*FileResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	started := time.Now()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	stmts, parseErrs := tsql.Parse(string(data))
	if len(parseErrs) > 0 {
		e.logger.Warn("skipping file with parse errors",
			slog.String("source", path),
			slog.Int("errors", len(parseErrs)))
		e.recordSkip(path, parseErrs, started)
		return &FileResult{Source: path, ParseErrors: parseErrs}, nil
	}

	units, err := transform.Transform(stmts)
	if err != nil {
		e.recordFailure(path, err, started)
		return nil, fmt.Errorf("failed to transform %s: %w", path, err)
	}

	res := &FileResult{Source: path}
	for _, unit := range units {
		ur, err := e.convertUnit(unit, path, snap, started)
		if err != nil {
			e.recordFailure(path, err, started)
			return nil, err
		}
		res.Units = append(res.Units, ur)
	}
	return res, nil
}

func (e *Engine) convertUnit(unit *transform.Unit, source string, snap *tree.Snapshot, started time.Time) (*UnitResult, error) {
	groups := depgraph.Unresolved(unit.Edges.Edges(), snap.HasOutput)
	rep := report.Build(unit, groups, source)

	ur := &UnitResult{
		Key:        unit.Key,
		OutputPath: e.layout.OutputPath(unit.Key),
		ReportPath: e.layout.ReportPath(unit.Key),
		Report:     rep,
		SQL:        pgsql.Emit(unit.File),
	}

	if !e.dryRun {
		lock := e.lockFor(ur.OutputPath)
		lock.Lock()
		defer lock.Unlock()

		// The report lands before the DDL: output existence is the
		// converted-state signal, so it must never appear without its
		// companion report.
		repData, err := rep.Marshal()
		if err != nil {
			return nil, fmt.Errorf("failed to marshal report for %s: %w", unit.Key, err)
		}
		if err := writeFileAtomic(ur.ReportPath, repData); err != nil {
			return nil, fmt.Errorf("failed to write report for %s: %w", unit.Key, err)
		}
		if err := writeFileAtomic(ur.OutputPath, []byte(ur.SQL)); err != nil {
			return nil, fmt.Errorf("failed to write output for %s: %w", unit.Key, err)
		}
	}

	e.logger.Info("converted table",
		slog.String("object", unit.Key.String()),
		slog.Int("rules", len(unit.Rules)),
		slog.Int("unresolved", len(groups)))

	e.recordRun(&state.Run{
		Object:     unit.Key.String(),
		Source:     source,
		Output:     ur.OutputPath,
		Status:     state.RunStatusSucceeded,
		RuleCount:  len(unit.Rules),
		Unresolved: len(groups),
		StartedAt:  started,
		FinishedAt: time.Now(),
	})
	return ur, nil
}

func (e *Engine) lockFor(path string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	lock, ok := e.locks[path]
	if !ok {
		lock = &sync.Mutex{}
		e.locks[path] = lock
	}
	return lock
}

func (e *Engine) recordSkip(source string, parseErrs []error, started time.Time) {
	e.recordRun(&state.Run{
		Object:     "",
		Source:     source,
		Status:     state.RunStatusSkipped,
		Error:      parseErrs[0].Error(),
		StartedAt:  started,
		FinishedAt: time.Now(),
	})
}

func (e *Engine) recordFailure(source string, err error, started time.Time) {
	e.recordRun(&state.Run{
		Source:     source,
		Status:     state.RunStatusFailed,
		Error:      err.Error(),
		StartedAt:  started,
		FinishedAt: time.Now(),
	})
}

func (e *Engine) recordRun(run *state.Run) {
	if e.store == nil {
		return
	}
	if err := e.store.RecordRun(run); err != nil {
		e.logger.Warn("failed to record run history", slog.Any("error", err))
	}
}
