// Package history persists finished task runs in SQLite.
package history

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/runoshun/flow/internal/domain"
)

//go:embed schema.sql
var schema string

// Store implements domain.HistoryRepository.
type Store struct {
	db *sql.DB
}

// Ensure Store implements domain.HistoryRepository interface.
var _ domain.HistoryRepository = (*Store)(nil)

// Open opens (and migrates) the SQLite database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite works best with a single writer.
	db.SetMaxOpenConns(1)

	if path != ":memory:" {
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate history: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores a finished task.
func (s *Store) Record(ctx context.Context, rec domain.HistoryRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO task_runs (run_id, task_id, project, title, status, errored, started_at, ended_at, log_lines, last_log)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.TaskID, rec.Project, rec.Title, string(rec.Status), rec.Errored,
		formatTime(rec.Start), formatTime(rec.End), rec.LogLines, rec.LastLog,
	)
	if err != nil {
		return fmt.Errorf("record task %d: %w", rec.TaskID, err)
	}
	return nil
}

// Recent returns the latest records, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]domain.HistoryRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, task_id, project, title, status, errored, started_at, ended_at, log_lines, last_log
		FROM task_runs
		ORDER BY id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var records []domain.HistoryRecord
	for rows.Next() {
		var (
			rec        domain.HistoryRecord
			status     string
			start, end sql.NullString
		)
		if err := rows.Scan(&rec.RunID, &rec.TaskID, &rec.Project, &rec.Title, &status, &rec.Errored,
			&start, &end, &rec.LogLines, &rec.LastLog); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		rec.Status = domain.Status(status)
		if rec.Start, err = parseTime(start); err != nil {
			return nil, err
		}
		if rec.End, err = parseTime(end); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func formatTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339Nano), Valid: true}
}

func parseTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s.String)
	if err != nil {
		return nil, fmt.Errorf("parse time %q: %w", s.String, err)
	}
	return &t, nil
}
