// Package renderhistory keeps a supplemental SQLite record of past
// template renders, independent of internal/cache. The reconciliation
// cache only needs the current rendered hash to classify a target; this
// store additionally remembers prior renders so `dotter status` can
// report when a deployed template's rendered output last changed,
// without needing to re-render every template against history on every
// invocation of the core.
package renderhistory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

// Render is one recorded render of a template source.
type Render struct {
	ID           int64
	RunID        string
	Source       string
	RenderedHash string
	RenderedAt   time.Time
	PlatformOS   string
	PlatformHost string
}

// Store manages the SQLite database backing render history.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at dbPath and runs migrations.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
		return nil, fmt.Errorf("creating render history directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening render history database: %w", err)
	}

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("running render history migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error { return s.db.Close() }

// Latest returns the most recent render recorded for source, or nil if
// none exists.
func (s *Store) Latest(source string) (*Render, error) {
	row := s.db.QueryRowContext(context.Background(), `
		SELECT id, run_id, source, rendered_hash, rendered_at, platform_os, platform_host
		FROM template_renders
		WHERE source = ?
		ORDER BY id DESC
		LIMIT 1
	`, source)
	return scanRender(row)
}

// Record stores a new render observation for source, tagged with runID (one
// uuid generated per Executor.Execute call, so every template write from the
// same deploy/undeploy invocation groups together in History). Call this
// once per deploy/update action the Executor actually performs, not on
// every plan (a dry-run or no-op entry has nothing new to remember).
func (s *Store) Record(runID, source, renderedHash, platformOS, hostname string) error {
	_, err := s.db.ExecContext(context.Background(), `
		INSERT INTO template_renders (run_id, source, rendered_hash, platform_os, platform_host)
		VALUES (?, ?, ?, ?, ?)
	`, runID, source, renderedHash, platformOS, hostname)
	if err != nil {
		return fmt.Errorf("recording render: %w", err)
	}
	return nil
}

// Drifted reports whether currentHash differs from the last recorded
// render of source. A source with no recorded history is never "drifted"
// — it is simply new, which the classifier already surfaces separately.
func (s *Store) Drifted(source, currentHash string) (bool, error) {
	last, err := s.Latest(source)
	if err != nil {
		return false, err
	}
	if last == nil {
		return false, nil
	}
	return last.RenderedHash != currentHash, nil
}

// History returns the limit most recent renders for source, newest first.
func (s *Store) History(source string, limit int) ([]Render, error) {
	rows, err := s.db.QueryContext(context.Background(), `
		SELECT id, run_id, source, rendered_hash, rendered_at, platform_os, platform_host
		FROM template_renders
		WHERE source = ?
		ORDER BY id DESC
		LIMIT ?
	`, source, limit)
	if err != nil {
		return nil, fmt.Errorf("querying render history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Render
	for rows.Next() {
		var r Render
		var renderedAt string
		if err := rows.Scan(&r.ID, &r.RunID, &r.Source, &r.RenderedHash, &renderedAt, &r.PlatformOS, &r.PlatformHost); err != nil {
			return nil, fmt.Errorf("scanning render record: %w", err)
		}
		if r.RenderedAt, err = parseTime(renderedAt); err != nil {
			return nil, fmt.Errorf("parsing rendered_at: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Prune keeps only the keepN most recent renders for source.
func (s *Store) Prune(source string, keepN int) error {
	_, err := s.db.ExecContext(context.Background(), `
		DELETE FROM template_renders
		WHERE source = ?
		AND id NOT IN (
			SELECT id FROM template_renders
			WHERE source = ?
			ORDER BY id DESC
			LIMIT ?
		)
	`, source, source, keepN)
	if err != nil {
		return fmt.Errorf("pruning render history: %w", err)
	}
	return nil
}

// Sources returns every distinct template source with recorded history,
// sorted lexically so a `dotter status` report is stable run to run.
func (s *Store) Sources() ([]string, error) {
	rows, err := s.db.QueryContext(context.Background(), `
		SELECT DISTINCT source FROM template_renders ORDER BY source
	`)
	if err != nil {
		return nil, fmt.Errorf("querying render history sources: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []string
	for rows.Next() {
		var source string
		if err := rows.Scan(&source); err != nil {
			return nil, fmt.Errorf("scanning source: %w", err)
		}
		out = append(out, source)
	}
	return out, rows.Err()
}

func scanRender(row *sql.Row) (*Render, error) {
	var r Render
	var renderedAt string
	err := row.Scan(&r.ID, &r.RunID, &r.Source, &r.RenderedHash, &renderedAt, &r.PlatformOS, &r.PlatformHost)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil //nolint:nilnil // nil means "not found", distinct from error
	}
	if err != nil {
		return nil, fmt.Errorf("querying render: %w", err)
	}
	if r.RenderedAt, err = parseTime(renderedAt); err != nil {
		return nil, fmt.Errorf("parsing rendered_at: %w", err)
	}
	return &r, nil
}

func parseTime(s string) (time.Time, error) {
	formats := []string{time.RFC3339, "2006-01-02T15:04:05Z", "2006-01-02 15:04:05"}
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse time %q", s)
}

func (s *Store) migrate() error {
	current := s.schemaVersion()
	migrations := []func(*sql.Tx) error{migrateV1, migrateV2}

	ctx := context.Background()
	for i := current; i < len(migrations); i++ {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("beginning migration %d: %w", i+1, err)
		}
		if err := migrations[i](tx); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM schema_version`); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("updating schema version: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_version (version) VALUES (?)`, i+1); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("inserting schema version: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", i+1, err)
		}
	}
	return nil
}

func (s *Store) schemaVersion() int {
	var tableName string
	err := s.db.QueryRowContext(context.Background(),
		`SELECT name FROM sqlite_master WHERE type='table' AND name='schema_version'`).Scan(&tableName)
	if err != nil {
		return 0
	}
	var version int
	if err := s.db.QueryRowContext(context.Background(), `SELECT version FROM schema_version LIMIT 1`).Scan(&version); err != nil {
		return 0
	}
	return version
}

func migrateV1(tx *sql.Tx) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS template_renders (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			source          TEXT NOT NULL,
			rendered_hash   TEXT NOT NULL,
			rendered_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			platform_os     TEXT NOT NULL,
			platform_host   TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_template_renders_source
			ON template_renders(source, id DESC)`,
	}
	ctx := context.Background()
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("executing %q: %w", stmt[:40], err)
		}
	}
	return nil
}

// migrateV2 adds run_id, grouping every render an Executor.Execute call
// performed under the uuid it generated for that one deploy/undeploy run.
func migrateV2(tx *sql.Tx) error {
	stmts := []string{
		`ALTER TABLE template_renders ADD COLUMN run_id TEXT NOT NULL DEFAULT ''`,
		`CREATE INDEX IF NOT EXISTS idx_template_renders_run_id
			ON template_renders(run_id)`,
	}
	ctx := context.Background()
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("executing %q: %w", stmt[:40], err)
		}
	}
	return nil
}
