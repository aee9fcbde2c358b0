package library

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "library.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var tick int64
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	return s
}

func TestMovieList_AddListRemove(t *testing.T) {
	ctx := context.Background()
	favs := openTestStore(t).Favorites()

	e, err := favs.Add(ctx, Entry{ID: 27205, Title: " Inception ", VoteAverage: 8.4, ReleaseDate: "2010-07-15"})
	require.NoError(t, err)
	assert.Equal(t, "Inception", e.Title)
	assert.False(t, e.AddedAt.IsZero())

	_, err = favs.Add(ctx, Entry{ID: 155, Title: "The Dark Knight"})
	require.NoError(t, err)

	list, err := favs.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 27205, list[0].ID)
	assert.Equal(t, 155, list[1].ID)

	ok, err := favs.Contains(ctx, 155)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, favs.Remove(ctx, 155))
	assert.ErrorIs(t, favs.Remove(ctx, 155), ErrNotFound)

	ok, err = favs.Contains(ctx, 155)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMovieList_AddTwiceKeepsFirst(t *testing.T) {
	ctx := context.Background()
	favs := openTestStore(t).Favorites()

	first, err := favs.Add(ctx, Entry{ID: 1, Title: "Alien"})
	require.NoError(t, err)
	second, err := favs.Add(ctx, Entry{ID: 1, Title: "Aliens"})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	list, err := favs.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestMovieList_InvalidMovie(t *testing.T) {
	ctx := context.Background()
	favs := openTestStore(t).Favorites()

	_, err := favs.Add(ctx, Entry{Title: "No ID"})
	assert.ErrorIs(t, err, ErrInvalidMovie)
	_, err = favs.Toggle(ctx, Entry{ID: -3})
	assert.ErrorIs(t, err, ErrInvalidMovie)
}

func TestMovieList_Toggle(t *testing.T) {
	ctx := context.Background()
	watch := openTestStore(t).Watchlist()

	added, err := watch.Toggle(ctx, Entry{ID: 42, Title: "Hitchhiker"})
	require.NoError(t, err)
	assert.True(t, added)

	added, err = watch.Toggle(ctx, Entry{ID: 42, Title: "Hitchhiker"})
	require.NoError(t, err)
	assert.False(t, added)

	list, err := watch.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestMovieList_ListsAreIndependent(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, err := s.Favorites().Add(ctx, Entry{ID: 9})
	require.NoError(t, err)

	ok, err := s.Watchlist().Contains(ctx, 9)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "watchlist", s.Watchlist().Name())
}

func TestSearchHistory(t *testing.T) {
	ctx := context.Background()
	h := openTestStore(t).SearchHistory()

	require.NoError(t, h.Add(ctx, "matrix"))
	require.NoError(t, h.Add(ctx, "   "))
	require.NoError(t, h.Add(ctx, "alien"))
	require.NoError(t, h.Add(ctx, "  Matrix "))

	got, err := h.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Matrix", "alien"}, got)

	require.NoError(t, h.Add(ctx, "amélie"))
	require.NoError(t, h.Add(ctx, "AMÉLIE"))
	got, err = h.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"AMÉLIE", "Matrix", "alien"}, got)
	require.NoError(t, h.Remove(ctx, "AMÉLIE"))

	assert.ErrorIs(t, h.Remove(ctx, "ALIEN"), ErrNotFound)
	require.NoError(t, h.Remove(ctx, "alien"))

	got, err = h.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Matrix"}, got)

	require.NoError(t, h.Clear(ctx))
	got, err = h.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSearchHistory_Capped(t *testing.T) {
	ctx := context.Background()
	h := openTestStore(t).SearchHistory()

	for i := 0; i < MaxHistoryItems+5; i++ {
		require.NoError(t, h.Add(ctx, fmt.Sprintf("query %d", i)))
	}

	got, err := h.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, MaxHistoryItems)
	assert.Equal(t, fmt.Sprintf("query %d", MaxHistoryItems+4), got[0])
	assert.Equal(t, "query 5", got[MaxHistoryItems-1])
}

func TestShownMovies(t *testing.T) {
	ctx := context.Background()
	shown := openTestStore(t).ShownMovies()

	require.NoError(t, shown.Add(ctx, 3))
	require.NoError(t, shown.Add(ctx, 1))
	require.NoError(t, shown.Add(ctx, 3))
	assert.ErrorIs(t, shown.Add(ctx, 0), ErrInvalidMovie)

	ids, err := shown.IDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 1}, ids)

	require.NoError(t, shown.Clear(ctx))
	ids, err = shown.IDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestStore_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "library.db")

	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.Favorites().Add(ctx, Entry{ID: 11, Title: "Persisted"})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	list, err := s.Favorites().List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Persisted", list[0].Title)
}
