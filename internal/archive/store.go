// Package archive persists terminal jobs and their formatted results to
// SQLite. It is a pure event subscriber: the orchestrator never writes to
// the database directly.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"iris/internal/api"
	"iris/internal/config"
	"iris/internal/tracker"
)

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Store manages archive persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the archive database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.DataDir, "archive.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// Record is one archived job row.
type Record struct {
	ID         string
	MediaType  string
	Status     string
	Progress   float64
	Error      string
	Warnings   []string
	Metadata   map[string]string
	CreatedAt  time.Time
	FinishedAt time.Time
	DurationMS int64
	Result     *api.ProcessingResult
}

// SaveJob upserts the terminal state of a job.
func (s *Store) SaveJob(ctx context.Context, snap tracker.Snapshot) error {
	warnings, err := json.Marshal(snap.Warnings)
	if err != nil {
		return fmt.Errorf("marshal warnings: %w", err)
	}
	metadata, err := json.Marshal(snap.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	return s.execWithoutResultRetry(ctx,
		`INSERT INTO jobs (
            id, media_type, status, progress, error, warnings, metadata,
            created_at, finished_at, duration_ms
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            status = excluded.status,
            progress = excluded.progress,
            error = excluded.error,
            warnings = excluded.warnings,
            finished_at = excluded.finished_at,
            duration_ms = excluded.duration_ms`,
		snap.ID,
		string(snap.MediaType),
		string(snap.Status),
		snap.Progress,
		snap.ErrorMessage,
		string(warnings),
		string(metadata),
		snap.CreatedAt.Format(time.RFC3339Nano),
		snap.FinishedAt.Format(time.RFC3339Nano),
		snap.ProcessingTime().Milliseconds(),
	)
}

// SaveResult attaches the formatted result to an archived job.
func (s *Store) SaveResult(ctx context.Context, jobID string, result api.ProcessingResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	return s.execWithoutResultRetry(ctx,
		"UPDATE jobs SET result = ? WHERE id = ?",
		string(payload), jobID,
	)
}

// GetJob loads one archived job, or nil when absent.
func (s *Store) GetJob(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, media_type, status, progress, error, warnings, metadata,
                created_at, finished_at, duration_ms, result
           FROM jobs WHERE id = ?`, id)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return record, err
}

// RecentJobs loads the most recently finished jobs, newest first.
func (s *Store) RecentJobs(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, media_type, status, progress, error, warnings, metadata,
                created_at, finished_at, duration_ms, result
           FROM jobs ORDER BY finished_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent jobs: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		record, scanErr := scanRecord(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		records = append(records, *record)
	}
	return records, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var (
		record              Record
		warnings, metadata  string
		createdAt, finished string
		result              sql.NullString
	)
	if err := row.Scan(
		&record.ID, &record.MediaType, &record.Status, &record.Progress,
		&record.Error, &warnings, &metadata, &createdAt, &finished,
		&record.DurationMS, &result,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(warnings), &record.Warnings); err != nil {
		return nil, fmt.Errorf("unmarshal warnings: %w", err)
	}
	if err := json.Unmarshal([]byte(metadata), &record.Metadata); err != nil {
		return nil, fmt.Errorf("unmarshal metadata: %w", err)
	}
	if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		record.CreatedAt = ts
	}
	if ts, err := time.Parse(time.RFC3339Nano, finished); err == nil {
		record.FinishedAt = ts
	}
	if result.Valid && result.String != "" {
		var formatted api.ProcessingResult
		if err := json.Unmarshal([]byte(result.String), &formatted); err != nil {
			return nil, fmt.Errorf("unmarshal result: %w", err)
		}
		record.Result = &formatted
	}
	return &record, nil
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) execWithoutResultRetry(ctx context.Context, query string, args ...any) error {
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, query, args...)
		return err
	})
}
