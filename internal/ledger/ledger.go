// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ledger records crawl runs and per-document export outcomes in a
// SQLite database. The ledger is an audit trail only: crawls never consult
// it to skip work.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/edgar-export/pkg/types"
)

// DefaultFile is the ledger filename inside an identifier's SEC directory.
const DefaultFile = ".ledger.db"

// timeLayout is fixed-width so timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store manages the ledger database.
type Store struct {
	db *sql.DB
}

// RunInfo summarizes one recorded crawl.
type RunInfo struct {
	ID         string    `yaml:"id"`
	Identifier string    `yaml:"identifier"`
	StartedAt  time.Time `yaml:"started_at"`
	FinishedAt time.Time `yaml:"finished_at,omitempty"`
	Exported   int       `yaml:"exported"`
	Skipped    int       `yaml:"skipped"`
	Failed     int       `yaml:"failed"`
}

// Open opens or creates the ledger at path, creating parent directories
// and the schema as needed.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating ledger directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening ledger: %w", err)
	}
	// Exports from parallel workers funnel through one connection.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			identifier TEXT NOT NULL,
			started_at TEXT NOT NULL,
			finished_at TEXT,
			exported INTEGER NOT NULL DEFAULT 0,
			skipped INTEGER NOT NULL DEFAULT 0,
			failed INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS exports (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL REFERENCES runs(id),
			form_type TEXT,
			filing_date TEXT,
			doc_type TEXT,
			source_url TEXT,
			path TEXT,
			action TEXT,
			status TEXT NOT NULL,
			error TEXT,
			recorded_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_exports_run_id ON exports(run_id)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Run is an open crawl run. It satisfies the crawl package's Recorder.
type Run struct {
	ID    string
	store *Store
}

// StartRun inserts a new run for identifier.
func (s *Store) StartRun(ctx context.Context, identifier string) (*Run, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, identifier, started_at) VALUES (?, ?, ?)`,
		id, identifier, now())
	if err != nil {
		return nil, fmt.Errorf("starting run: %w", err)
	}
	return &Run{ID: id, store: s}, nil
}

// RecordExport appends one export outcome to the run.
func (r *Run) RecordExport(ctx context.Context, rec types.ExportRecord) error {
	_, err := r.store.db.ExecContext(ctx,
		`INSERT INTO exports (run_id, form_type, filing_date, doc_type, source_url, path, action, status, error, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, rec.FormType, rec.FilingDate.Format(types.DateLayout), rec.DocType, rec.SourceURL,
		rec.Path, rec.Action, string(rec.Status), rec.Error, now())
	if err != nil {
		return fmt.Errorf("recording export: %w", err)
	}
	return nil
}

// Finish stamps the run's end time and tallies its outcomes from the
// recorded exports.
func (r *Run) Finish(ctx context.Context) error {
	_, err := r.store.db.ExecContext(ctx, `
		UPDATE runs SET
			finished_at = ?,
			exported = (SELECT count(*) FROM exports WHERE run_id = ? AND status = ?),
			skipped  = (SELECT count(*) FROM exports WHERE run_id = ? AND status = ?),
			failed   = (SELECT count(*) FROM exports WHERE run_id = ? AND status = ?)
		WHERE id = ?`,
		now(),
		r.ID, string(types.ExportDone),
		r.ID, string(types.ExportSkipped),
		r.ID, string(types.ExportFailed),
		r.ID)
	if err != nil {
		return fmt.Errorf("finishing run: %w", err)
	}
	return nil
}

// Runs returns the most recent runs, newest first. limit <= 0 means all.
func (s *Store) Runs(ctx context.Context, limit int) ([]RunInfo, error) {
	q := `SELECT id, identifier, started_at, COALESCE(finished_at, ''), exported, skipped, failed
		FROM runs ORDER BY started_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []RunInfo
	for rows.Next() {
		var ri RunInfo
		var started, finished string
		if err := rows.Scan(&ri.ID, &ri.Identifier, &started, &finished, &ri.Exported, &ri.Skipped, &ri.Failed); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		ri.StartedAt, _ = time.Parse(timeLayout, started)
		if finished != "" {
			ri.FinishedAt, _ = time.Parse(timeLayout, finished)
		}
		runs = append(runs, ri)
	}
	return runs, rows.Err()
}

// Exports returns the records of one run in insertion order.
func (s *Store) Exports(ctx context.Context, runID string) ([]types.ExportRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT form_type, filing_date, doc_type, source_url, path, action, status, COALESCE(error, '')
		FROM exports WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying exports: %w", err)
	}
	defer rows.Close()

	var recs []types.ExportRecord
	for rows.Next() {
		var rec types.ExportRecord
		var date, status string
		if err := rows.Scan(&rec.FormType, &date, &rec.DocType, &rec.SourceURL, &rec.Path, &rec.Action, &status, &rec.Error); err != nil {
			return nil, fmt.Errorf("scanning export: %w", err)
		}
		rec.FilingDate, _ = time.Parse(types.DateLayout, date)
		rec.Status = types.ExportStatus(status)
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// manifest is the YAML layout written by WriteManifest.
type manifest struct {
	Run     RunInfo              `yaml:"run"`
	Exports []types.ExportRecord `yaml:"exports"`
}

// WriteManifest writes the run and its export records as YAML to path.
func (s *Store) WriteManifest(ctx context.Context, runID, path string) error {
	runs, err := s.Runs(ctx, 0)
	if err != nil {
		return err
	}
	var m manifest
	found := false
	for _, r := range runs {
		if r.ID == runID {
			m.Run = r
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("run %s not found", runID)
	}

	m.Exports, err = s.Exports(ctx, runID)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(&m)
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func now() string {
	return time.Now().UTC().Format(timeLayout)
}
