package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// fixed width so created_at sorts as text
const createdLayout = "2006-01-02T15:04:05.000000000Z"

// Index is a SQLite table of runs for queries the directory scan in
// Store.List cannot answer cheaply.
type Index struct {
	db *sql.DB
}

func OpenIndex(path string) (*Index, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Index{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			rule TEXT NOT NULL,
			dim INTEGER NOT NULL,
			initial INTEGER NOT NULL,
			background INTEGER NOT NULL,
			enclosed_side INTEGER NOT NULL,
			sub_folder TEXT NOT NULL,
			created_at TEXT NOT NULL,
			steps INTEGER NOT NULL,
			stable INTEGER NOT NULL,
			elapsed REAL NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS runs_rule_dim ON runs (rule, dim);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// Record inserts or replaces a run.
func (ix *Index) Record(m RunMetadata) error {
	_, err := ix.db.Exec(`INSERT OR REPLACE INTO runs
		(id, rule, dim, initial, background, enclosed_side, sub_folder, created_at, steps, stable, elapsed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.Rule, m.Dim, m.Initial, m.Background, m.EnclosedSide, m.SubFolder,
		m.Timestamp.UTC().Format(createdLayout), int64(m.Steps), m.Stable, m.Elapsed)
	return err
}

// Filter selects runs; zero fields match everything.
type Filter struct {
	Rule       string
	Dim        int
	StableOnly bool
}

// Query returns matching runs, newest first. Metrics are not indexed.
func (ix *Index) Query(f Filter) ([]RunMetadata, error) {
	q := `SELECT id, rule, dim, initial, background, enclosed_side, sub_folder, created_at, steps, stable, elapsed
		FROM runs WHERE 1=1`
	var args []any
	if f.Rule != "" {
		q += ` AND rule = ?`
		args = append(args, f.Rule)
	}
	if f.Dim != 0 {
		q += ` AND dim = ?`
		args = append(args, f.Dim)
	}
	if f.StableOnly {
		q += ` AND stable = 1`
	}
	q += ` ORDER BY created_at DESC`

	rows, err := ix.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunMetadata
	for rows.Next() {
		var m RunMetadata
		var created string
		var steps int64
		if err := rows.Scan(&m.ID, &m.Rule, &m.Dim, &m.Initial, &m.Background, &m.EnclosedSide,
			&m.SubFolder, &created, &steps, &m.Stable, &m.Elapsed); err != nil {
			return nil, err
		}
		if m.Timestamp, err = time.Parse(createdLayout, created); err != nil {
			return nil, err
		}
		m.Steps = uint64(steps)
		out = append(out, m)
	}
	return out, rows.Err()
}

func (ix *Index) Close() error {
	return ix.db.Close()
}
