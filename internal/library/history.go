package library

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// MaxHistoryItems caps the search history.
const MaxHistoryItems = 10

// SearchHistory keeps the most recent distinct search queries.
type SearchHistory struct {
	store *Store
	limit int
}

// List returns queries newest first.
func (h *SearchHistory) List(ctx context.Context) ([]string, error) {
	rows, err := h.store.db.QueryContext(ctx, "SELECT query FROM search_history ORDER BY seq DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to list search history: %w", err)
	}
	defer rows.Close()

	out := make([]string, 0, h.limit)
	for rows.Next() {
		var q string
		if err := rows.Scan(&q); err != nil {
			return nil, fmt.Errorf("failed to read search history: %w", err)
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// Add records a query. Blank queries are ignored. A query matching an
// existing one case-insensitively replaces it at the front.
func (h *SearchHistory) Add(ctx context.Context, query string) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	tx, err := h.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin search history update: %w", err)
	}
	defer tx.Rollback()

	if err := deleteFolded(ctx, tx, query); err != nil {
		return fmt.Errorf("failed to dedupe search history: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO search_history (query, searched_at) VALUES (?, ?)", query, h.store.now().UnixNano()); err != nil {
		return fmt.Errorf("failed to add search history: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM search_history WHERE seq NOT IN
		 (SELECT seq FROM search_history ORDER BY seq DESC LIMIT ?)`, h.limit); err != nil {
		return fmt.Errorf("failed to trim search history: %w", err)
	}

	return tx.Commit()
}

// deleteFolded removes queries equal to query under Unicode case folding.
// SQLite's lower() only folds ASCII, so the comparison happens here.
func deleteFolded(ctx context.Context, tx *sql.Tx, query string) error {
	rows, err := tx.QueryContext(ctx, "SELECT seq, query FROM search_history")
	if err != nil {
		return err
	}
	var stale []int64
	for rows.Next() {
		var seq int64
		var q string
		if err := rows.Scan(&seq, &q); err != nil {
			rows.Close()
			return err
		}
		if strings.EqualFold(q, query) {
			stale = append(stale, seq)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, seq := range stale {
		if _, err := tx.ExecContext(ctx, "DELETE FROM search_history WHERE seq = ?", seq); err != nil {
			return err
		}
	}
	return nil
}

// Remove deletes an exact query.
func (h *SearchHistory) Remove(ctx context.Context, query string) error {
	res, err := h.store.db.ExecContext(ctx, "DELETE FROM search_history WHERE query = ?", query)
	if err != nil {
		return fmt.Errorf("failed to remove search history: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Clear empties the history.
func (h *SearchHistory) Clear(ctx context.Context) error {
	if _, err := h.store.db.ExecContext(ctx, "DELETE FROM search_history"); err != nil {
		return fmt.Errorf("failed to clear search history: %w", err)
	}
	return nil
}

// ShownMovies remembers which movies the random picker already returned.
type ShownMovies struct {
	store *Store
}

// Add marks a movie as shown.
func (s *ShownMovies) Add(ctx context.Context, movieID int) error {
	if movieID <= 0 {
		return ErrInvalidMovie
	}
	_, err := s.store.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO shown_movies (movie_id, shown_at) VALUES (?, ?)", movieID, s.store.now().UnixNano())
	if err != nil {
		return fmt.Errorf("failed to record shown movie: %w", err)
	}
	return nil
}

// IDs returns every shown movie id.
func (s *ShownMovies) IDs(ctx context.Context) ([]int, error) {
	rows, err := s.store.db.QueryContext(ctx, "SELECT movie_id FROM shown_movies ORDER BY shown_at, movie_id")
	if err != nil {
		return nil, fmt.Errorf("failed to list shown movies: %w", err)
	}
	defer rows.Close()

	ids := make([]int, 0)
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to read shown movie: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Clear forgets every shown movie.
func (s *ShownMovies) Clear(ctx context.Context) error {
	if _, err := s.store.db.ExecContext(ctx, "DELETE FROM shown_movies"); err != nil {
		return fmt.Errorf("failed to clear shown movies: %w", err)
	}
	return nil
}
