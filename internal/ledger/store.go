// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ledger records the oficio numbers issued by each extraction run so
// the next run can continue the sequence.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/citaciones/pkg/types"
)

// Store manages the ledger SQLite database.
type Store struct {
	db *sql.DB
}

// Entry summarizes one recorded run.
type Entry struct {
	RunID       string            `json:"run_id"`
	CreatedAt   time.Time         `json:"created_at"`
	Files       types.SourceFiles `json:"files"`
	HearingYear int               `json:"hearing_year"`
	First       int               `json:"first"`
	Last        int               `json:"last"`
	Citations   int               `json:"citations"`
}

// Open opens or creates the ledger database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating ledger directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

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
			created_at TEXT NOT NULL,
			complaints TEXT,
			certificates TEXT,
			hearing_year INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS oficios (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			hearing_year INTEGER NOT NULL,
			oficio INTEGER NOT NULL,
			process_number TEXT,
			plate TEXT,
			owner TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_oficios_year ON oficios(hearing_year, oficio)`,
		`CREATE INDEX IF NOT EXISTS idx_oficios_run ON oficios(run_id)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record stores the oficio numbers of run's successful citations. Recording
// the same run again replaces its previous entries. It returns the number of
// oficios stored.
func (s *Store) Record(ctx context.Context, run types.Run) (int, error) {
	hearing, err := run.Template.Hearing()
	if err != nil {
		return 0, err
	}
	year := hearing.Year()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, run.ID); err != nil {
		return 0, fmt.Errorf("deleting previous run: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, created_at, complaints, certificates, hearing_year) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.CreatedAt.UTC().Format(time.RFC3339Nano),
		run.Files.Complaints, run.Files.Certificates, year,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO oficios (run_id, hearing_year, oficio, process_number, plate, owner) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	n := 0
	for _, doc := range run.Outcomes {
		if doc.Kind != types.OutcomeSuccess || doc.Record == nil {
			continue
		}
		oficio, err := strconv.Atoi(doc.Record.OficioNumber)
		if err != nil {
			slog.Warn("skipping non-numeric oficio", "run", run.ID, "oficio", doc.Record.OficioNumber)
			continue
		}
		if _, err := stmt.ExecContext(ctx, run.ID, year, oficio,
			doc.Record.ProcessNumber, doc.Record.Plate, doc.Record.OwnerName); err != nil {
			return 0, fmt.Errorf("inserting oficio %d: %w", oficio, err)
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return n, nil
}

// Next returns the oficio number following the highest one issued for
// hearingYear, or 1 when none was issued.
func (s *Store) Next(ctx context.Context, hearingYear int) (int, error) {
	var last sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT MAX(oficio) FROM oficios WHERE hearing_year = ?`, hearingYear,
	).Scan(&last)
	if err != nil {
		return 0, fmt.Errorf("querying last oficio: %w", err)
	}
	if !last.Valid {
		return 1, nil
	}
	return int(last.Int64) + 1, nil
}

// Issued reports the runs that already used oficio in hearingYear.
func (s *Store) Issued(ctx context.Context, hearingYear, oficio int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id FROM oficios WHERE hearing_year = ? AND oficio = ? ORDER BY rowid`, hearingYear, oficio)
	if err != nil {
		return nil, fmt.Errorf("querying oficio: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// List returns recorded runs, newest first. limit <= 0 returns all.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	q := `SELECT r.id, r.created_at, r.complaints, r.certificates, r.hearing_year,
			COALESCE(MIN(o.oficio), 0), COALESCE(MAX(o.oficio), 0), COUNT(o.oficio)
		FROM runs r LEFT JOIN oficios o ON o.run_id = r.id
		GROUP BY r.id
		ORDER BY r.created_at DESC`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e       Entry
			created string
		)
		if err := rows.Scan(&e.RunID, &created, &e.Files.Complaints, &e.Files.Certificates,
			&e.HearingYear, &e.First, &e.Last, &e.Citations); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
