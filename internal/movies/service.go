// Package movies is the fail-soft movie browsing layer used by the HTTP API.
// Catalog failures are logged and turned into empty results.
package movies

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"net/url"
	"slices"
	"sync/atomic"

	"github.com/marco/cinepick/internal/catalog"
	"github.com/marco/cinepick/internal/pool"
)

// DiscoverLimit is the number of discovered movies enriched with details.
const DiscoverLimit = 20

// Service wraps the catalog API.
type Service struct {
	api     *catalog.API
	workers int
	logger  *slog.Logger
	intn    func(n int) int
}

// NewService creates a Service. workers bounds the concurrent detail
// lookups made by Discover.
func NewService(api *catalog.API, workers int, logger *slog.Logger) *Service {
	if workers <= 0 {
		workers = 4
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{api: api, workers: workers, logger: logger, intn: rand.IntN}
}

// Genres returns all genres, or an empty list on failure.
func (s *Service) Genres(ctx context.Context) []catalog.Genre {
	genres, err := s.api.Genres(ctx)
	if err != nil {
		s.logger.Error("Error fetching genres", "error", err)
		return []catalog.Genre{}
	}
	if genres == nil {
		return []catalog.Genre{}
	}
	return genres
}

// MovieDetails returns a movie or nil when it cannot be fetched.
func (s *Service) MovieDetails(ctx context.Context, movieID int) *catalog.MovieDetails {
	details, err := s.api.MovieDetails(ctx, movieID)
	if err != nil {
		s.logger.Error("Error fetching movie details", "movie_id", movieID, "error", err)
		return nil
	}
	return details
}

// Discover returns up to DiscoverLimit discovered movies with full details.
// Movies whose details fail to load are dropped.
func (s *Service) Discover(ctx context.Context, filters *catalog.Filters) []catalog.MovieDetails {
	page, err := s.api.Discover(ctx, filters)
	if err != nil {
		s.logger.Error("Error discovering movies", "error", err)
		return []catalog.MovieDetails{}
	}

	raw := page.Results
	if len(raw) > DiscoverLimit {
		raw = raw[:DiscoverLimit]
	}
	seen := pool.NewGuard[int]()
	ids := make([]int, 0, len(raw))
	for _, m := range raw {
		if seen.TryClaim(m.ID) {
			ids = append(ids, m.ID)
		}
	}

	var processed int64
	results := pool.Run(ctx, ids, func(ctx context.Context, id int) (*catalog.MovieDetails, error) {
		return s.api.MovieDetails(ctx, id)
	}, s.workers, &processed)

	out := make([]catalog.MovieDetails, 0, len(results))
	for _, r := range results {
		if r.Err != nil {
			s.logger.Warn("Dropping discovered movie", "movie_id", r.Item, "error", r.Err)
			continue
		}
		out = append(out, *r.Value)
	}
	s.logger.Debug("Discover enrichment finished",
		"processed", atomic.LoadInt64(&processed),
		"enriched", len(out),
		"dropped", len(ids)-len(out),
	)
	return out
}

// DiscoverPage returns the raw discover page, or an empty page on failure.
func (s *Service) DiscoverPage(ctx context.Context, filters *catalog.Filters) catalog.MovieResponse {
	return s.page("Error discovering movies with pagination", func() (*catalog.MovieResponse, error) {
		return s.api.Discover(ctx, filters)
	})
}

// Random picks a discovered movie not listed in exclude. It returns nil when
// every candidate was excluded or discovery failed.
func (s *Service) Random(ctx context.Context, filters *catalog.Filters, exclude []int) *catalog.MovieDetails {
	movies := s.Discover(ctx, filters)
	available := slices.DeleteFunc(movies, func(m catalog.MovieDetails) bool {
		return slices.Contains(exclude, m.ID)
	})
	if len(available) == 0 {
		return nil
	}
	pick := available[s.intn(len(available))]
	return &pick
}

// List returns a page of a category.
func (s *Service) List(ctx context.Context, category catalog.Action, page int) catalog.MovieResponse {
	return s.page("Error fetching "+string(category)+" movies", func() (*catalog.MovieResponse, error) {
		return s.api.List(ctx, category, page)
	})
}

// Popular returns a page of popular movies.
func (s *Service) Popular(ctx context.Context, page int) catalog.MovieResponse {
	return s.List(ctx, catalog.ActionPopular, page)
}

// TopRated returns a page of top rated movies.
func (s *Service) TopRated(ctx context.Context, page int) catalog.MovieResponse {
	return s.List(ctx, catalog.ActionTopRated, page)
}

// NowPlaying returns a page of movies in theaters.
func (s *Service) NowPlaying(ctx context.Context, page int) catalog.MovieResponse {
	return s.List(ctx, catalog.ActionNowPlaying, page)
}

// Upcoming returns a page of upcoming movies.
func (s *Service) Upcoming(ctx context.Context, page int) catalog.MovieResponse {
	return s.List(ctx, catalog.ActionUpcoming, page)
}

// Search finds movies by title. A blank query yields an empty page.
func (s *Service) Search(ctx context.Context, query string, page int) catalog.MovieResponse {
	return s.page("Error searching movies", func() (*catalog.MovieResponse, error) {
		return s.api.Search(ctx, query, page)
	})
}

// Recommendations returns movies recommended for movieID.
func (s *Service) Recommendations(ctx context.Context, movieID, page int) catalog.MovieResponse {
	return s.page("Error fetching recommendations", func() (*catalog.MovieResponse, error) {
		return s.api.Recommendations(ctx, movieID, page)
	})
}

// Similar returns movies similar to movieID.
func (s *Service) Similar(ctx context.Context, movieID, page int) catalog.MovieResponse {
	return s.page("Error fetching similar movies", func() (*catalog.MovieResponse, error) {
		return s.api.Similar(ctx, movieID, page)
	})
}

// Cast returns the cast of a movie, or an empty list.
func (s *Service) Cast(ctx context.Context, movieID int) []catalog.CastMember {
	credits, err := s.api.Credits(ctx, movieID)
	if err != nil || credits.Cast == nil {
		if err != nil {
			s.logger.Error("Error fetching cast", "movie_id", movieID, "error", err)
		}
		return []catalog.CastMember{}
	}
	return credits.Cast
}

// Videos returns the videos of a movie, or an empty list.
func (s *Service) Videos(ctx context.Context, movieID int) []catalog.Video {
	videos, err := s.api.Videos(ctx, movieID)
	if err != nil || videos == nil {
		if err != nil {
			s.logger.Error("Error fetching videos", "movie_id", movieID, "error", err)
		}
		return []catalog.Video{}
	}
	return videos
}

// YouTubeTrailerURL returns the watch URL of the first YouTube trailer or
// teaser, or "" when the movie has none.
func (s *Service) YouTubeTrailerURL(ctx context.Context, movieID int) string {
	return TrailerURL(s.Videos(ctx, movieID))
}

func (s *Service) page(msg string, fetch func() (*catalog.MovieResponse, error)) catalog.MovieResponse {
	resp, err := fetch()
	if err != nil {
		s.logger.Error(msg, "error", err)
		return catalog.EmptyPage()
	}
	if resp.Results == nil {
		resp.Results = []catalog.Movie{}
	}
	return *resp
}

// TrailerURL picks the first YouTube trailer or teaser.
func TrailerURL(videos []catalog.Video) string {
	for _, v := range videos {
		if v.Site == "YouTube" && (v.Type == "Trailer" || v.Type == "Teaser") && v.Key != "" {
			return "https://www.youtube.com/watch?v=" + v.Key
		}
	}
	return ""
}

// TrailerSearchURL returns a YouTube search for the movie's trailer.
func TrailerSearchURL(title string) string {
	return "https://www.youtube.com/results?search_query=" + url.QueryEscape(title+" trailer")
}
