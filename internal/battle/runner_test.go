package battle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marco/cinepick/internal/catalog"
)

type stubSummaries map[int]catalog.MovieDetails

func (s stubSummaries) MovieDetails(ctx context.Context, id int) (*catalog.MovieDetails, error) {
	d, ok := s[id]
	if !ok {
		return nil, fmt.Errorf("movie %d: %w", id, catalog.ErrMovieNotFound)
	}
	return &d, nil
}

type stubMetadata struct {
	mu   sync.Mutex
	seen []int
	byID map[int]Extended
}

func (s *stubMetadata) FetchExtended(ctx context.Context, id int) Extended {
	s.mu.Lock()
	s.seen = append(s.seen, id)
	s.mu.Unlock()
	return s.byID[id]
}

func TestRunner_Run(t *testing.T) {
	a, b, metaA, metaB := contenders()
	summaries := stubSummaries{
		a.ID: {Movie: a},
		b.ID: {Movie: b},
	}
	meta := &stubMetadata{byID: map[int]Extended{a.ID: metaA, b.ID: metaB}}

	res, err := NewRunner(summaries, meta, "https://cinepick.example/").Run(context.Background(), a.ID, b.ID)
	require.NoError(t, err)

	assert.Equal(t, a.ID, res.Winner.ID)
	assert.Equal(t, SideA, res.WinnerSide)
	assert.False(t, res.Tie)
	assert.Equal(t, Compare(a, b, metaA, metaB), res.Metrics)
	assert.Equal(t, "https://cinepick.example/battle?m1=1&m2=2&winner=1", res.ShareURL)
	assert.ElementsMatch(t, []int{1, 2}, meta.seen)
}

func TestRunner_TieGoesToSecond(t *testing.T) {
	m := catalog.Movie{ID: 5, VoteAverage: 6}
	summaries := stubSummaries{5: {Movie: m}}
	meta := &stubMetadata{byID: map[int]Extended{}}

	res, err := NewRunner(summaries, meta, "").Run(context.Background(), 5, 5)
	require.NoError(t, err)
	assert.True(t, res.Tie)
	assert.Equal(t, SideB, res.WinnerSide)
	assert.Equal(t, "/battle?m1=5&m2=5&winner=5", res.ShareURL)
}

func TestRunner_MissingSummary(t *testing.T) {
	summaries := stubSummaries{1: {Movie: catalog.Movie{ID: 1}}}
	meta := &stubMetadata{byID: map[int]Extended{}}

	_, err := NewRunner(summaries, meta, "").Run(context.Background(), 1, 2)
	assert.True(t, errors.Is(err, catalog.ErrMovieNotFound))
}

func TestRunner_InvalidIDs(t *testing.T) {
	_, err := NewRunner(stubSummaries{}, &stubMetadata{}, "").Run(context.Background(), 0, 3)
	assert.ErrorIs(t, err, ErrInvalidMovieID)
}

func TestRunner_CompareMoviesWithZeroMetadata(t *testing.T) {
	a := catalog.Movie{ID: 1, VoteAverage: 9}
	b := catalog.Movie{ID: 2, VoteAverage: 5}
	meta := &stubMetadata{byID: map[int]Extended{}}

	res := NewRunner(stubSummaries{}, meta, "").CompareMovies(context.Background(), a, b)
	assert.InDelta(t, 16.0, res.Metrics.TotalScore, 1e-12)
	assert.Equal(t, 1, res.Winner.ID)
}
