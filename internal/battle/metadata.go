package battle

import (
	"context"
	"log/slog"

	"github.com/sourcegraph/conc"

	"github.com/marco/cinepick/internal/catalog"
)

// DefaultCastLimit caps the cast list kept per movie.
const DefaultCastLimit = 10

// Extended is the per-movie metadata a comparison needs beyond the summary.
// Zero values mean unknown.
type Extended struct {
	Popularity  float64              `json:"popularity"`
	VoteCount   int                  `json:"vote_count"`
	Revenue     int64                `json:"revenue"`
	Budget      int64                `json:"budget"`
	Cast        []catalog.CastMember `json:"cast"`
	Videos      []catalog.Video      `json:"videos"`
	Runtime     *int                 `json:"runtime,omitempty"`
	ReleaseDate string               `json:"release_date,omitempty"`
	IMDbID      string               `json:"imdb_id,omitempty"`
}

// sanitized clamps negative or non-finite numbers to zero and replaces nil
// lists with empty ones.
func (e Extended) sanitized() Extended {
	e.Popularity = finite(e.Popularity)
	if e.Popularity < 0 {
		e.Popularity = 0
	}
	if e.VoteCount < 0 {
		e.VoteCount = 0
	}
	if e.Revenue < 0 {
		e.Revenue = 0
	}
	if e.Budget < 0 {
		e.Budget = 0
	}
	if e.Cast == nil {
		e.Cast = []catalog.CastMember{}
	}
	if e.Videos == nil {
		e.Videos = []catalog.Video{}
	}
	return e
}

func (e Extended) runtime() int {
	if e.Runtime == nil || *e.Runtime < 0 {
		return 0
	}
	return *e.Runtime
}

// MetadataFetcher resolves a movie ID to its extended metadata. It never
// fails; missing data comes back as zero values.
type MetadataFetcher interface {
	FetchExtended(ctx context.Context, movieID int) Extended
}

// Fetcher loads extended metadata through the catalog API.
type Fetcher struct {
	api       *catalog.API
	castLimit int
	logger    *slog.Logger
}

// NewFetcher creates a fetcher. castLimit <= 0 uses DefaultCastLimit.
func NewFetcher(api *catalog.API, castLimit int, logger *slog.Logger) *Fetcher {
	if castLimit <= 0 {
		castLimit = DefaultCastLimit
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{api: api, castLimit: castLimit, logger: logger}
}

// FetchExtended fetches details, credits and videos in parallel. A failed
// lookup leaves its fields at their zero values.
func (f *Fetcher) FetchExtended(ctx context.Context, movieID int) Extended {
	var (
		details *catalog.MovieDetails
		credits *catalog.Credits
		videos  []catalog.Video
	)

	var wg conc.WaitGroup
	wg.Go(func() {
		var err error
		if details, err = f.api.MovieDetails(ctx, movieID); err != nil {
			f.logger.Warn("battle: movie details unavailable", "movie_id", movieID, "error", err)
		}
	})
	wg.Go(func() {
		var err error
		if credits, err = f.api.Credits(ctx, movieID); err != nil {
			f.logger.Warn("battle: credits unavailable", "movie_id", movieID, "error", err)
		}
	})
	wg.Go(func() {
		var err error
		if videos, err = f.api.Videos(ctx, movieID); err != nil {
			f.logger.Warn("battle: videos unavailable", "movie_id", movieID, "error", err)
		}
	})
	wg.Wait()

	ext := Extended{}
	if details != nil {
		ext.Popularity = details.Popularity
		ext.VoteCount = details.VoteCount
		ext.Revenue = details.Revenue
		ext.Budget = details.Budget
		ext.IMDbID = details.IMDbID
		ext.ReleaseDate = details.ReleaseDate
		if details.Runtime != nil && *details.Runtime > 0 {
			rt := *details.Runtime
			ext.Runtime = &rt
		}
	}
	if credits != nil {
		cast := credits.Cast
		if len(cast) > f.castLimit {
			cast = cast[:f.castLimit]
		}
		ext.Cast = append([]catalog.CastMember(nil), cast...)
	}
	ext.Videos = youTubeTrailers(videos)

	return ext.sanitized()
}

func youTubeTrailers(videos []catalog.Video) []catalog.Video {
	out := []catalog.Video{}
	for _, v := range videos {
		if v.Type == "Trailer" && v.Site == "YouTube" {
			out = append(out, v)
		}
	}
	return out
}
