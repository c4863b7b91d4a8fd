package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	_ "modernc.org/sqlite"
)

// Schema of a catalogue database. Names are stored normalised.
const sqliteSchema = `CREATE TABLE IF NOT EXISTS sources (
	name TEXT PRIMARY KEY,
	dm   REAL NOT NULL
)`

// SQLite looks sources up in a `sources(name, dm)` table.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens an existing catalogue database read-only.
func OpenSQLite(path string) (*SQLite, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrUnavailable, path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: open %s: %v", ErrUnavailable, path, err)
	}
	return &SQLite{db: db}, nil
}

// CreateSQLite creates (or opens for writing) a catalogue database and
// ensures the schema exists. Used to build catalogues and in tests.
func CreateSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

// Put inserts or replaces one source.
func (s *SQLite) Put(ctx context.Context, name string, dm float64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sources(name, dm) VALUES(?, ?)
		 ON CONFLICT(name) DO UPDATE SET dm = excluded.dm`,
		NormalizeName(name), dm)
	return err
}

func (s *SQLite) ExpectedDM(ctx context.Context, source string) (float64, error) {
	var dm float64
	err := s.db.QueryRowContext(ctx,
		`SELECT dm FROM sources WHERE name = ?`, NormalizeName(source)).Scan(&dm)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return 0, fmt.Errorf("%w: %s", ErrNotFound, source)
	case err != nil:
		return 0, fmt.Errorf("%w: query %s: %v", ErrUnavailable, source, err)
	}
	return dm, nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}
