package paging

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SQLiteBacking keeps spilled shells as compressed BLOBs in one table.
type SQLiteBacking struct {
	db *sql.DB
}

func OpenSQLiteBacking(path string) (*SQLiteBacking, error) {
	if path == "" {
		return nil, fmt.Errorf("paging: empty db path")
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
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS blocks (
		generation INTEGER NOT NULL,
		shell INTEGER NOT NULL,
		cells BLOB NOT NULL,
		PRIMARY KEY (generation, shell)
	);`); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteBacking{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	// blocks are scratch data; durability matters less than spill speed
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=OFF;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func (b *SQLiteBacking) Save(k Key, cells []int64) error {
	_, err := b.db.Exec(`INSERT INTO blocks (generation, shell, cells) VALUES (?, ?, ?)
		ON CONFLICT (generation, shell) DO UPDATE SET cells = excluded.cells`,
		int64(k.Generation), k.Shell, encodeBlock(cells))
	return err
}

func (b *SQLiteBacking) Load(k Key) ([]int64, error) {
	var blob []byte
	err := b.db.QueryRow(`SELECT cells FROM blocks WHERE generation = ? AND shell = ?`,
		int64(k.Generation), k.Shell).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrBlockUnavailable, k)
	}
	if err != nil {
		return nil, err
	}
	return decodeBlock(blob)
}

func (b *SQLiteBacking) Drop(gen uint64) error {
	_, err := b.db.Exec(`DELETE FROM blocks WHERE generation = ?`, int64(gen))
	return err
}

func (b *SQLiteBacking) Close() error {
	return b.db.Close()
}
