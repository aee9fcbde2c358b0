package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Entry is a movie saved to a list.
type Entry struct {
	ID          int       `json:"id"`
	Title       string    `json:"title"`
	PosterPath  string    `json:"poster_path"`
	VoteAverage float64   `json:"vote_average"`
	ReleaseDate string    `json:"release_date"`
	Overview    string    `json:"overview"`
	AddedAt     time.Time `json:"addedAt"`
}

// Repository is the contract of a movie list.
type Repository interface {
	List(ctx context.Context) ([]Entry, error)
	Add(ctx context.Context, e Entry) (Entry, error)
	Remove(ctx context.Context, movieID int) error
	Contains(ctx context.Context, movieID int) (bool, error)
	Toggle(ctx context.Context, e Entry) (added bool, err error)
}

// MovieList is a named list of movies stored in the library database.
type MovieList struct {
	store *Store
	name  string
}

var _ Repository = (*MovieList)(nil)

// Name returns the list name.
func (l *MovieList) Name() string {
	return l.name
}

// List returns the entries in the order they were added.
func (l *MovieList) List(ctx context.Context) ([]Entry, error) {
	rows, err := l.store.db.QueryContext(ctx,
		`SELECT movie_id, title, poster_path, vote_average, release_date, overview, added_at
		 FROM library_entries WHERE list = ? ORDER BY seq`, l.name)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", l.name, err)
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		var e Entry
		var addedAt int64
		if err := rows.Scan(&e.ID, &e.Title, &e.PosterPath, &e.VoteAverage, &e.ReleaseDate, &e.Overview, &addedAt); err != nil {
			return nil, fmt.Errorf("failed to read %s entry: %w", l.name, err)
		}
		e.AddedAt = time.Unix(0, addedAt).UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Add saves a movie. Adding a movie already on the list keeps the original
// entry and returns it.
func (l *MovieList) Add(ctx context.Context, e Entry) (Entry, error) {
	if e.ID <= 0 {
		return Entry{}, ErrInvalidMovie
	}
	e.Title = strings.TrimSpace(e.Title)
	e.AddedAt = l.store.now().UTC()

	_, err := l.store.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO library_entries
		 (list, movie_id, title, poster_path, vote_average, release_date, overview, added_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		l.name, e.ID, e.Title, e.PosterPath, e.VoteAverage, e.ReleaseDate, e.Overview, e.AddedAt.UnixNano())
	if err != nil {
		return Entry{}, fmt.Errorf("failed to add to %s: %w", l.name, err)
	}

	return l.get(ctx, e.ID)
}

func (l *MovieList) get(ctx context.Context, movieID int) (Entry, error) {
	var e Entry
	var addedAt int64
	err := l.store.db.QueryRowContext(ctx,
		`SELECT movie_id, title, poster_path, vote_average, release_date, overview, added_at
		 FROM library_entries WHERE list = ? AND movie_id = ?`, l.name, movieID,
	).Scan(&e.ID, &e.Title, &e.PosterPath, &e.VoteAverage, &e.ReleaseDate, &e.Overview, &addedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("failed to read %s entry: %w", l.name, err)
	}
	e.AddedAt = time.Unix(0, addedAt).UTC()
	return e, nil
}

// Remove deletes a movie from the list.
func (l *MovieList) Remove(ctx context.Context, movieID int) error {
	res, err := l.store.db.ExecContext(ctx,
		"DELETE FROM library_entries WHERE list = ? AND movie_id = ?", l.name, movieID)
	if err != nil {
		return fmt.Errorf("failed to remove from %s: %w", l.name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Contains reports whether the movie is on the list.
func (l *MovieList) Contains(ctx context.Context, movieID int) (bool, error) {
	var n int
	err := l.store.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM library_entries WHERE list = ? AND movie_id = ?", l.name, movieID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to query %s: %w", l.name, err)
	}
	return n > 0, nil
}

// Toggle removes the movie when present and adds it otherwise. It reports
// whether the movie is on the list afterwards.
func (l *MovieList) Toggle(ctx context.Context, e Entry) (bool, error) {
	if e.ID <= 0 {
		return false, ErrInvalidMovie
	}
	err := l.Remove(ctx, e.ID)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return false, err
	}
	if _, err := l.Add(ctx, e); err != nil {
		return false, err
	}
	return true, nil
}
