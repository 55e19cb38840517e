package ledger

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/joseluismolina/BPMaster/internal/job"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema
// changes; users then need to delete the ledger database.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match the
// expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Store manages run history persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the ledger database under stateDir.
func Open(stateDir string) (*Store, error) {
	dbPath := filepath.Join(stateDir, "ledger.db")
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

// Path returns the database location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s to rebuild)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
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

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) error {
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, query, args...)
		return err
	})
}

// BeginRun records a new run row.
func (s *Store) BeginRun(ctx context.Context, runID string, mode job.Mode, targetBPM float64, inputRoot, outputRoot string, startedAt time.Time) error {
	if strings.TrimSpace(runID) == "" {
		return errors.New("run id is required")
	}
	return s.execWithRetry(ctx,
		`INSERT INTO runs (id, mode, target_bpm, input_root, output_root, started_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		runID, string(mode), targetBPM, inputRoot, outputRoot, startedAt.UTC().Format(time.RFC3339))
}

// RecordJob appends one terminal job outcome.
func (s *Store) RecordJob(ctx context.Context, runID string, j *job.Job) error {
	if j == nil {
		return errors.New("job is required")
	}
	var bpm, confidence sql.NullFloat64
	if j.Estimate != nil {
		bpm = sql.NullFloat64{Float64: j.Estimate.BPM, Valid: true}
		confidence = sql.NullFloat64{Float64: j.Estimate.Confidence, Valid: true}
	}
	var ratio sql.NullFloat64
	if j.Ratio != 0 {
		ratio = sql.NullFloat64{Float64: j.Ratio, Valid: true}
	}
	failureStage, failureMessage := "", ""
	if j.Failure != nil {
		failureStage = string(j.Failure.Stage)
		failureMessage = j.Failure.Message
	}
	return s.execWithRetry(ctx,
		`INSERT INTO jobs (run_id, rel_path, state, bpm, confidence, ratio, failure_stage, failure_message, elapsed_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, j.Source.RelPath, string(j.State), bpm, confidence, ratio,
		failureStage, failureMessage, j.Elapsed.Milliseconds())
}

// FinishRun stamps the run row with final counts.
func (s *Store) FinishRun(ctx context.Context, summary job.Summary, finishedAt time.Time) error {
	return s.execWithRetry(ctx,
		`UPDATE runs SET discovered = ?, succeeded = ?, failed = ?, skipped = ?, bytes_written = ?, finished_at = ?
		 WHERE id = ?`,
		summary.Discovered, summary.Succeeded(), summary.Failed, summary.Skipped,
		summary.BytesWritten, finishedAt.UTC().Format(time.RFC3339), summary.RunID)
}

// RunRecord is one persisted run summary.
type RunRecord struct {
	ID           string
	Mode         job.Mode
	TargetBPM    float64
	InputRoot    string
	OutputRoot   string
	Discovered   int
	Succeeded    int
	Failed       int
	Skipped      int
	BytesWritten int64
	StartedAt    time.Time
	FinishedAt   *time.Time
}

// RecentRuns returns up to limit runs, most recent first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, mode, target_bpm, input_root, output_root, discovered, succeeded, failed, skipped, bytes_written, started_at, finished_at
		 FROM runs ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var rec RunRecord
		var mode, started string
		var finished sql.NullString
		if err := rows.Scan(&rec.ID, &mode, &rec.TargetBPM, &rec.InputRoot, &rec.OutputRoot,
			&rec.Discovered, &rec.Succeeded, &rec.Failed, &rec.Skipped, &rec.BytesWritten,
			&started, &finished); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		rec.Mode = job.Mode(mode)
		if ts, err := time.Parse(time.RFC3339, started); err == nil {
			rec.StartedAt = ts
		}
		if finished.Valid {
			if ts, err := time.Parse(time.RFC3339, finished.String); err == nil {
				rec.FinishedAt = &ts
			}
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// JobRecord is one persisted per-file outcome.
type JobRecord struct {
	RelPath        string
	State          job.State
	BPM            *float64
	Confidence     *float64
	Ratio          *float64
	FailureStage   string
	FailureMessage string
	Elapsed        time.Duration
}

// JobsForRun returns the per-file outcomes of one run ordered by relative
// path.
func (s *Store) JobsForRun(ctx context.Context, runID string) ([]JobRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT rel_path, state, bpm, confidence, ratio, failure_stage, failure_message, elapsed_ms
		 FROM jobs WHERE run_id = ? ORDER BY rel_path`, runID)
	if err != nil {
		return nil, fmt.Errorf("query jobs: %w", err)
	}
	defer rows.Close()

	var records []JobRecord
	for rows.Next() {
		var rec JobRecord
		var state string
		var bpm, confidence, ratio sql.NullFloat64
		var elapsedMS int64
		if err := rows.Scan(&rec.RelPath, &state, &bpm, &confidence, &ratio,
			&rec.FailureStage, &rec.FailureMessage, &elapsedMS); err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		rec.State = job.State(state)
		if bpm.Valid {
			rec.BPM = &bpm.Float64
		}
		if confidence.Valid {
			rec.Confidence = &confidence.Float64
		}
		if ratio.Valid {
			rec.Ratio = &ratio.Float64
		}
		rec.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		records = append(records, rec)
	}
	return records, rows.Err()
}
