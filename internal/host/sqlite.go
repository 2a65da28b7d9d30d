package host

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS files (
	path    TEXT PRIMARY KEY,
	content TEXT NOT NULL
)`

// SQLiteFS keeps files as rows of a single table. It gives programs a
// persistent sandbox that never touches the host directory tree.
type SQLiteFS struct {
	db *sql.DB
}

// OpenSQLiteFS opens (creating if needed) the database at dsn.
// Use ":memory:" for a throwaway store.
func OpenSQLiteFS(dsn string) (*SQLiteFS, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite fs %s: %w", dsn, err)
	}
	// one connection keeps ":memory:" databases alive and serializes writes
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating sqlite fs schema: %w", err)
	}
	return &SQLiteFS{db: db}, nil
}

func (s *SQLiteFS) Close() error {
	return s.db.Close()
}

func (s *SQLiteFS) ReadFile(path string) (string, bool) {
	var content string
	err := s.db.QueryRow(`SELECT content FROM files WHERE path = ?`, path).Scan(&content)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			slog.Warn("sqlite fs read failed", "path", path, "error", err)
		}
		return "", false
	}
	return content, true
}

func (s *SQLiteFS) WriteFile(path, content string) error {
	_, err := s.db.Exec(
		`INSERT INTO files (path, content) VALUES (?, ?)
		 ON CONFLICT(path) DO UPDATE SET content = excluded.content`,
		path, content)
	if err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func (s *SQLiteFS) Exists(path string) bool {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM files WHERE path = ?`, path).Scan(&n)
	return err == nil && n > 0
}

// ReadDir follows MemoryFS: "." lists everything, any other path lists
// the rows under path + "/".
func (s *SQLiteFS) ReadDir(path string) ([]string, error) {
	var rows *sql.Rows
	var err error
	if path == "." {
		rows, err = s.db.Query(`SELECT path FROM files ORDER BY path`)
	} else {
		prefix := path + "/"
		rows, err = s.db.Query(`SELECT path FROM files WHERE substr(path, 1, length(?1)) = ?1 ORDER BY path`, prefix)
	}
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", path, err)
	}
	defer rows.Close()

	entries := []string{}
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		entries = append(entries, p)
	}
	return entries, rows.Err()
}
