package battle

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sourcegraph/conc"

	"github.com/marco/cinepick/internal/catalog"
)

// ErrInvalidMovieID is returned when a battle is requested for a
// non-positive movie id.
var ErrInvalidMovieID = errors.New("invalid movie id")

// Side names the winning side of a battle.
type Side string

const (
	SideA Side = "a"
	SideB Side = "b"
)

// Result is a complete battle: both contenders, their metadata, the metrics
// and the winner.
type Result struct {
	MovieA     catalog.Movie `json:"movieA"`
	MovieB     catalog.Movie `json:"movieB"`
	MetaA      Extended      `json:"metaA"`
	MetaB      Extended      `json:"metaB"`
	Metrics    Metrics       `json:"metrics"`
	Winner     catalog.Movie `json:"winner"`
	WinnerSide Side          `json:"winnerSide"`
	Tie        bool          `json:"tie"`
	ShareURL   string        `json:"shareUrl"`
}

// SummaryFetcher resolves a movie ID to its summary.
type SummaryFetcher interface {
	MovieDetails(ctx context.Context, movieID int) (*catalog.MovieDetails, error)
}

// Runner gathers data for two movies and runs the engine.
type Runner struct {
	summaries    SummaryFetcher
	metadata     MetadataFetcher
	shareBaseURL string
}

// NewRunner creates a battle runner. shareBaseURL prefixes share links and
// may be empty for relative links.
func NewRunner(summaries SummaryFetcher, metadata MetadataFetcher, shareBaseURL string) *Runner {
	return &Runner{
		summaries:    summaries,
		metadata:     metadata,
		shareBaseURL: strings.TrimRight(shareBaseURL, "/"),
	}
}

// Run fetches both movies and their metadata in parallel and compares them.
// Metadata failures degrade to zero values; a missing summary is an error.
func (r *Runner) Run(ctx context.Context, idA, idB int) (*Result, error) {
	if idA <= 0 || idB <= 0 {
		return nil, fmt.Errorf("%w: %d vs %d", ErrInvalidMovieID, idA, idB)
	}

	var (
		movieA, movieB *catalog.MovieDetails
		errA, errB     error
		metaA, metaB   Extended
	)

	var wg conc.WaitGroup
	wg.Go(func() { movieA, errA = r.summaries.MovieDetails(ctx, idA) })
	wg.Go(func() { movieB, errB = r.summaries.MovieDetails(ctx, idB) })
	wg.Go(func() { metaA = r.metadata.FetchExtended(ctx, idA) })
	wg.Go(func() { metaB = r.metadata.FetchExtended(ctx, idB) })
	wg.Wait()

	if err := errors.Join(errA, errB); err != nil {
		return nil, fmt.Errorf("failed to load battle contenders: %w", err)
	}

	return r.result(movieA.Movie, movieB.Movie, metaA, metaB), nil
}

// CompareMovies compares two summaries the caller already holds, fetching
// only their extended metadata.
func (r *Runner) CompareMovies(ctx context.Context, a, b catalog.Movie) *Result {
	var metaA, metaB Extended

	var wg conc.WaitGroup
	wg.Go(func() { metaA = r.metadata.FetchExtended(ctx, a.ID) })
	wg.Go(func() { metaB = r.metadata.FetchExtended(ctx, b.ID) })
	wg.Wait()

	return r.result(a, b, metaA, metaB)
}

func (r *Runner) result(a, b catalog.Movie, metaA, metaB Extended) *Result {
	metrics := Compare(a, b, metaA, metaB)

	res := &Result{
		MovieA:     a,
		MovieB:     b,
		MetaA:      metaA,
		MetaB:      metaB,
		Metrics:    metrics,
		Winner:     b,
		WinnerSide: SideB,
		Tie:        metrics.TotalScore == 0,
	}
	if metrics.TotalScore > 0 {
		res.Winner = a
		res.WinnerSide = SideA
	}
	res.ShareURL = ShareURL(r.shareBaseURL, a.ID, b.ID, res.Winner.ID)
	return res
}

// ShareURL builds the link that reopens a battle.
func ShareURL(baseURL string, idA, idB, winnerID int) string {
	return fmt.Sprintf("%s/battle?m1=%d&m2=%d&winner=%d", strings.TrimRight(baseURL, "/"), idA, idB, winnerID)
}
