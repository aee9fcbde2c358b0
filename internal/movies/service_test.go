package movies

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marco/cinepick/internal/catalog"
)

func newTestService(t *testing.T, handler http.HandlerFunc) *Service {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := catalog.NewClientWithConfig(catalog.ClientConfig{
		APIKey:           "k",
		BaseURL:          srv.URL,
		MaxAttempts:      1,
		InitialBackoffMs: 1,
	})
	return NewService(catalog.NewAPI(client), 3, nil)
}

// discoverCatalog serves a discover page listing ids and details for every
// id except those in broken.
func discoverCatalog(ids []int, broken map[int]bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/discover/movie" {
			parts := make([]string, len(ids))
			for i, id := range ids {
				parts[i] = fmt.Sprintf(`{"id":%d,"title":"Movie %d"}`, id, id)
			}
			fmt.Fprintf(w, `{"page":1,"results":[%s],"total_pages":1,"total_results":%d}`, strings.Join(parts, ","), len(ids))
			return
		}
		var id int
		if _, err := fmt.Sscanf(r.URL.Path, "/movie/%d", &id); err != nil || broken[id] {
			http.NotFound(w, r)
			return
		}
		fmt.Fprintf(w, `{"id":%d,"title":"Movie %d","genres":[{"id":18,"name":"Drama"}],"runtime":100}`, id, id)
	}
}

func TestService_DiscoverEnrichesFirstTwenty(t *testing.T) {
	ids := make([]int, 0, 25)
	for i := 1; i <= 25; i++ {
		ids = append(ids, i)
	}
	svc := newTestService(t, discoverCatalog(ids, map[int]bool{3: true}))

	got := svc.Discover(context.Background(), &catalog.Filters{Genres: []int{18}})

	require.Len(t, got, DiscoverLimit-1)
	assert.Equal(t, 1, got[0].ID)
	assert.Equal(t, 4, got[2].ID, "movie 3 failed and is dropped, order kept")
	assert.Equal(t, "Drama", got[0].Genres[0].Name)
}

func TestService_DiscoverSkipsDuplicates(t *testing.T) {
	svc := newTestService(t, discoverCatalog([]int{7, 7, 8}, nil))

	got := svc.Discover(context.Background(), nil)
	require.Len(t, got, 2)
	assert.Equal(t, 7, got[0].ID)
	assert.Equal(t, 8, got[1].ID)
}

func TestService_DiscoverCapsBeforeDedupe(t *testing.T) {
	// 25 raw results; the first twenty hold one duplicate.
	ids := make([]int, 0, 25)
	for i := 1; i <= 19; i++ {
		ids = append(ids, i)
	}
	ids = append(ids, 5)
	for i := 20; i <= 24; i++ {
		ids = append(ids, i)
	}

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	svc := newTestService(t, discoverCatalog(ids, nil))
	svc.logger = logger

	got := svc.Discover(context.Background(), nil)

	require.Len(t, got, DiscoverLimit-1)
	for _, m := range got {
		assert.LessOrEqual(t, m.ID, 19, "movie %d is past the first twenty results", m.ID)
	}
	assert.Contains(t, buf.String(), "processed=19")
	assert.Contains(t, buf.String(), "dropped=0")
}

func TestService_RandomHonorsExclude(t *testing.T) {
	svc := newTestService(t, discoverCatalog([]int{1, 2, 3}, nil))
	svc.intn = func(n int) int { return n - 1 }

	got := svc.Random(context.Background(), nil, []int{3})
	require.NotNil(t, got)
	assert.Equal(t, 2, got.ID)

	assert.Nil(t, svc.Random(context.Background(), nil, []int{1, 2, 3}))
}

func TestService_FailSoft(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	})
	ctx := context.Background()

	assert.Equal(t, []catalog.Genre{}, svc.Genres(ctx))
	assert.Nil(t, svc.MovieDetails(ctx, 1))
	assert.Equal(t, catalog.EmptyPage(), svc.Popular(ctx, 1))
	assert.Equal(t, catalog.EmptyPage(), svc.DiscoverPage(ctx, nil))
	assert.Equal(t, catalog.EmptyPage(), svc.Search(ctx, "alien", 1))
	assert.Equal(t, []catalog.CastMember{}, svc.Cast(ctx, 1))
	assert.Equal(t, []catalog.Video{}, svc.Videos(ctx, 1))
	assert.Empty(t, svc.Discover(ctx, nil))
	assert.Nil(t, svc.Random(ctx, nil, nil))
	assert.Equal(t, "", svc.YouTubeTrailerURL(ctx, 1))
}

func TestService_SearchBlankQuery(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s", r.URL.Path)
	})

	assert.Equal(t, catalog.EmptyPage(), svc.Search(context.Background(), "  ", 1))
}

func TestService_Lists(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		fmt.Fprintf(w, `{"page":2,"results":[{"id":1,"title":"%s"}],"total_pages":9}`, r.URL.Path)
	})
	ctx := context.Background()

	assert.Equal(t, "/movie/top_rated", svc.TopRated(ctx, 2).Results[0].Title)
	assert.Equal(t, "/movie/now_playing", svc.NowPlaying(ctx, 2).Results[0].Title)
	assert.Equal(t, "/movie/upcoming", svc.Upcoming(ctx, 2).Results[0].Title)
	assert.Equal(t, "/movie/5/similar", svc.Similar(ctx, 5, 2).Results[0].Title)
	assert.Equal(t, "/movie/5/recommendations", svc.Recommendations(ctx, 5, 2).Results[0].Title)
	assert.Equal(t, catalog.EmptyPage(), svc.List(ctx, catalog.ActionSearch, 2))
}

func TestTrailerURL(t *testing.T) {
	tests := []struct {
		name   string
		videos []catalog.Video
		want   string
	}{
		{"none", nil, ""},
		{"vimeo only", []catalog.Video{{Key: "v", Site: "Vimeo", Type: "Trailer"}}, ""},
		{"clip skipped", []catalog.Video{
			{Key: "c", Site: "YouTube", Type: "Clip"},
			{Key: "t", Site: "YouTube", Type: "Teaser"},
		}, "https://www.youtube.com/watch?v=t"},
		{"first wins", []catalog.Video{
			{Key: "a", Site: "YouTube", Type: "Trailer"},
			{Key: "b", Site: "YouTube", Type: "Trailer"},
		}, "https://www.youtube.com/watch?v=a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TrailerURL(tt.videos); got != tt.want {
				t.Errorf("TrailerURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTrailerSearchURL(t *testing.T) {
	assert.Equal(t, "https://www.youtube.com/results?search_query=The+Matrix+trailer", TrailerSearchURL("The Matrix"))
}
