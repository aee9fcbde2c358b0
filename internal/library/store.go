// Package library persists the user's movie lists: favorites, watchlist,
// search history and the movies already shown by the random picker.
package library

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

var (
	// ErrNotFound is returned when removing an entry that does not exist.
	ErrNotFound = errors.New("entry not found")
	// ErrInvalidMovie is returned for entries without a positive movie id.
	ErrInvalidMovie = errors.New("movie id is required")
)

const schema = `
	CREATE TABLE IF NOT EXISTS library_entries (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		list TEXT NOT NULL,
		movie_id INTEGER NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		poster_path TEXT NOT NULL DEFAULT '',
		vote_average REAL NOT NULL DEFAULT 0,
		release_date TEXT NOT NULL DEFAULT '',
		overview TEXT NOT NULL DEFAULT '',
		added_at INTEGER NOT NULL,
		UNIQUE(list, movie_id)
	);
	CREATE TABLE IF NOT EXISTS search_history (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		query TEXT NOT NULL,
		searched_at INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS shown_movies (
		movie_id INTEGER PRIMARY KEY,
		shown_at INTEGER NOT NULL
	);
`

// Store owns the SQLite database backing every list.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (or creates) the library database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create library directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open library database: %w", err)
	}
	// One connection serializes writers; SQLite allows only one anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create library tables: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// DB exposes the underlying database so other components (the catalog
// cache) can share the file.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Favorites returns the favorites list.
func (s *Store) Favorites() *MovieList {
	return &MovieList{store: s, name: "favorites"}
}

// Watchlist returns the watchlist.
func (s *Store) Watchlist() *MovieList {
	return &MovieList{store: s, name: "watchlist"}
}

// SearchHistory returns the search history.
func (s *Store) SearchHistory() *SearchHistory {
	return &SearchHistory{store: s, limit: MaxHistoryItems}
}

// ShownMovies returns the set of movies already shown by the random picker.
func (s *Store) ShownMovies() *ShownMovies {
	return &ShownMovies{store: s}
}
