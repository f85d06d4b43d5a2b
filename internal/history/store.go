// Package history keeps a local journal of extraction runs so the
// dashboard can show what was pulled last and where it went.
package history

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Run is one recorded extraction attempt.
type Run struct {
	ID            string
	StartedAt     time.Time
	FinishedAt    time.Time
	WorkspaceID   string
	WorkspaceName string
	DatasetID     string
	DatasetName   string
	WindowStart   string // YYYY-MM-DD
	WindowEnd     string // YYYY-MM-DD
	Destination   string
	Status        string
	Message       string
	Tables        []RunTable
}

// RunTable is a per-table row count for a run.
type RunTable struct {
	Key  string
	Rows int
	File string
}

type Store struct {
	db  *sql.DB
	now func() time.Time
}

// DefaultPath resolves the journal location: $FABRICUSAGE_DB when set,
// otherwise ~/.local/share/fabricusage/history.db.
func DefaultPath() string {
	if p := os.Getenv("FABRICUSAGE_DB"); p != "" {
		return p
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "fabricusage", "history.db")
}

func OpenStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("history: creating DB dir: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("history: opening DB: %w", err)
	}

	store := NewStore(db)
	if err := store.Init(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Init(ctx context.Context) error {
	stmts := []string{
		`PRAGMA foreign_keys = ON;`,
		`CREATE TABLE IF NOT EXISTS extraction_runs (
			run_id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			finished_at TEXT NOT NULL,
			workspace_id TEXT,
			workspace_name TEXT,
			dataset_id TEXT NOT NULL,
			dataset_name TEXT,
			window_start TEXT NOT NULL,
			window_end TEXT NOT NULL,
			destination TEXT,
			status TEXT NOT NULL,
			message TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS idx_extraction_runs_started_at ON extraction_runs(started_at);`,
		`CREATE TABLE IF NOT EXISTS extraction_run_tables (
			run_id TEXT NOT NULL REFERENCES extraction_runs(run_id) ON DELETE CASCADE,
			table_key TEXT NOT NULL,
			row_count INTEGER NOT NULL,
			file_name TEXT NOT NULL,
			PRIMARY KEY (run_id, table_key)
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("history: initializing schema: %w", err)
		}
	}
	return nil
}

// Record persists one run and its per-table counts in a single
// transaction. A missing ID or FinishedAt is filled in here.
func (s *Store) Record(ctx context.Context, run Run) (string, error) {
	if run.ID == "" {
		id, err := newRunID()
		if err != nil {
			return "", err
		}
		run.ID = id
	}
	if run.FinishedAt.IsZero() {
		run.FinishedAt = s.now()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = run.FinishedAt
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("history: beginning tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO extraction_runs (
			run_id, started_at, finished_at, workspace_id, workspace_name,
			dataset_id, dataset_name, window_start, window_end, destination,
			status, message
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.StartedAt.UTC().Format(time.RFC3339),
		run.FinishedAt.UTC().Format(time.RFC3339),
		run.WorkspaceID, run.WorkspaceName,
		run.DatasetID, run.DatasetName,
		run.WindowStart, run.WindowEnd,
		run.Destination, run.Status, run.Message,
	)
	if err != nil {
		return "", fmt.Errorf("history: inserting run: %w", err)
	}

	for _, table := range run.Tables {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO extraction_run_tables (run_id, table_key, row_count, file_name)
			 VALUES (?, ?, ?, ?)`,
			run.ID, table.Key, table.Rows, table.File,
		)
		if err != nil {
			return "", fmt.Errorf("history: inserting run table %s: %w", table.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("history: committing run: %w", err)
	}
	return run.ID, nil
}

// LastRun returns the most recent run with its table counts, or nil when
// the journal is empty.
func (s *Store) LastRun(ctx context.Context) (*Run, error) {
	runs, err := s.RecentRuns(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, nil
	}
	return &runs[0], nil
}

// RecentRuns returns up to limit runs, most recent first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, started_at, finished_at, workspace_id, workspace_name,
		        dataset_id, dataset_name, window_start, window_end,
		        destination, status, message
		 FROM extraction_runs
		 ORDER BY started_at DESC, run_id DESC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("history: querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var started, finished string
		var workspaceID, workspaceName, datasetName, destination, message sql.NullString
		if err := rows.Scan(
			&run.ID, &started, &finished, &workspaceID, &workspaceName,
			&run.DatasetID, &datasetName, &run.WindowStart, &run.WindowEnd,
			&destination, &run.Status, &message,
		); err != nil {
			return nil, fmt.Errorf("history: scanning run: %w", err)
		}
		run.StartedAt, _ = time.Parse(time.RFC3339, started)
		run.FinishedAt, _ = time.Parse(time.RFC3339, finished)
		run.WorkspaceID = workspaceID.String
		run.WorkspaceName = workspaceName.String
		run.DatasetName = datasetName.String
		run.Destination = destination.String
		run.Message = message.String
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: iterating runs: %w", err)
	}

	for i := range runs {
		tables, err := s.runTables(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Tables = tables
	}
	return runs, nil
}

func (s *Store) runTables(ctx context.Context, runID string) ([]RunTable, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT table_key, row_count, file_name
		 FROM extraction_run_tables
		 WHERE run_id = ?
		 ORDER BY table_key`, runID)
	if err != nil {
		return nil, fmt.Errorf("history: querying run tables: %w", err)
	}
	defer rows.Close()

	var tables []RunTable
	for rows.Next() {
		var table RunTable
		if err := rows.Scan(&table.Key, &table.Rows, &table.File); err != nil {
			return nil, fmt.Errorf("history: scanning run table: %w", err)
		}
		tables = append(tables, table)
	}
	return tables, rows.Err()
}

func newRunID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("history: generating run ID: %w", err)
	}
	buf[6] = (buf[6] & 0x0f) | 0x40
	buf[8] = (buf[8] & 0x3f) | 0x80
	id := hex.EncodeToString(buf)
	return id[0:8] + "-" + id[8:12] + "-" + id[12:16] + "-" + id[16:20] + "-" + id[20:32], nil
}
