// Package state persists conversion run history in SQLite. The history is
// informational: conversion decisions read the output tree, never this
// store, so a missing or stale history database can never change what gets
// converted.
package state

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // sqlite driver
)

// RunStatus is the outcome of one file conversion.
type RunStatus string

// Run statuses.
const (
	RunStatusSucceeded RunStatus = "succeeded"
	RunStatusFailed    RunStatus = "failed"
	RunStatusSkipped   RunStatus = "skipped"
)

// Run records one file conversion.
type Run struct {
	ID         string
	Object     string // canonical schema.table
	Source     string // input file path
	Output     string // output file path, empty when skipped/failed
	Status     RunStatus
	RuleCount  int
	Unresolved int
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Store is a SQLite-backed run history store.
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// Open opens (creating if needed) the history database at path and runs
// pending migrations. Use ":memory:" for tests.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping history database: %w", err)
	}

	s := &Store{db: db, path: path, logger: logger}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// RecordRun persists one conversion outcome.
func (s *Store) RecordRun(run *Run) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}

	s.logger.Debug("recording run",
		slog.String("id", run.ID),
		slog.String("object", run.Object),
		slog.String("status", string(run.Status)))

	_, err := s.db.Exec(`
		INSERT INTO runs (id, object, source, output, status, rule_count, unresolved, error, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Object, run.Source, run.Output, string(run.Status),
		run.RuleCount, run.Unresolved, run.Error,
		run.StartedAt.UTC(), run.FinishedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first. An object filter
// narrows the list to one table; pass empty for all.
func (s *Store) ListRuns(object string, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, object, source, output, status, rule_count, unresolved, error, started_at, finished_at
		FROM runs`
	args := []any{}
	if object != "" {
		query += ` WHERE object = ?`
		args = append(args, object)
	}
	query += ` ORDER BY started_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		var r Run
		var status string
		if err := rows.Scan(&r.ID, &r.Object, &r.Source, &r.Output, &status,
			&r.RuleCount, &r.Unresolved, &r.Error, &r.StartedAt, &r.FinishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.Status = RunStatus(status)
		runs = append(runs, &r)
	}
	return runs, rows.Err()
}

// LastRun returns the most recent run for an object, or nil when the
// object has never been converted.
func (s *Store) LastRun(object string) (*Run, error) {
	runs, err := s.ListRuns(object, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, nil
	}
	return runs[0], nil
}
