package content

import (
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps documents as blobs in a single SQLite table. It serves
// deployments that ship content as one file instead of a directory tree.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens (creating if necessary) a SQLite-backed document store.
//
// Postcondition: Returns a ready store with its schema applied, or a non-nil error.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening content database %s: %w", path, err)
	}
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS documents (
			kind TEXT NOT NULL,
			name TEXT NOT NULL,
			body BLOB NOT NULL,
			PRIMARY KEY (kind, name)
		)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating documents table: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Load returns the document body for (kind, name).
//
// Postcondition: Returns the raw bytes, or an error wrapping ErrNotFound.
func (s *SQLiteStore) Load(kind Kind, name string) ([]byte, error) {
	var body []byte
	err := s.db.QueryRow(
		`SELECT body FROM documents WHERE kind = ? AND name = ?`,
		string(kind), name,
	).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s %q: %w", kind, name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("loading %s %q: %w", kind, name, err)
	}
	return body, nil
}

// List enumerates document names of the given kind in lexical order.
func (s *SQLiteStore) List(kind Kind) ([]string, error) {
	rows, err := s.db.Query(
		`SELECT name FROM documents WHERE kind = ? ORDER BY name`,
		string(kind),
	)
	if err != nil {
		return nil, fmt.Errorf("listing %s documents: %w", kind, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning document name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating document names: %w", err)
	}
	return names, nil
}

// Put inserts or replaces a document. Used by the content importer.
//
// Precondition: name must be non-empty.
func (s *SQLiteStore) Put(kind Kind, name string, body []byte) error {
	if name == "" {
		return errors.New("document name must not be empty")
	}
	if _, err := s.db.Exec(
		`INSERT INTO documents (kind, name, body) VALUES (?, ?, ?)
		 ON CONFLICT (kind, name) DO UPDATE SET body = excluded.body`,
		string(kind), name, body,
	); err != nil {
		return fmt.Errorf("storing %s %q: %w", kind, name, err)
	}
	return nil
}
