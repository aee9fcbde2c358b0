package catalog

import (
	"context"
	"encoding/json"
	"fmt"
)

// API decodes catalog responses into typed values on top of any Caller.
type API struct {
	caller Caller
}

// NewAPI wraps a Caller.
func NewAPI(caller Caller) *API {
	return &API{caller: caller}
}

func call[T any](ctx context.Context, c Caller, action Action, params Params) (*T, error) {
	raw, err := c.Call(ctx, action, params)
	if err != nil {
		return nil, err
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to decode %s response: %w", action, err)
	}
	return &out, nil
}

func pageParams(page int) Params {
	return Params{Filters: &Filters{Page: page}}
}

// Genres lists movie genres.
func (a *API) Genres(ctx context.Context) ([]Genre, error) {
	resp, err := call[GenresResponse](ctx, a.caller, ActionGenres, Params{})
	if err != nil {
		return nil, err
	}
	return resp.Genres, nil
}

// Discover returns a page of movies matching filters. Nil filters use the
// catalog defaults.
func (a *API) Discover(ctx context.Context, filters *Filters) (*MovieResponse, error) {
	return call[MovieResponse](ctx, a.caller, ActionDiscover, Params{Filters: filters})
}

// MovieDetails fetches a single movie. A 404 maps to ErrMovieNotFound.
func (a *API) MovieDetails(ctx context.Context, movieID int) (*MovieDetails, error) {
	details, err := call[MovieDetails](ctx, a.caller, ActionMovieDetails, Params{MovieID: movieID})
	if err != nil {
		if IsNotFound(err) {
			return nil, fmt.Errorf("movie %d: %w", movieID, ErrMovieNotFound)
		}
		return nil, err
	}
	return details, nil
}

// List returns a page of one of the browsable categories.
func (a *API) List(ctx context.Context, category Action, page int) (*MovieResponse, error) {
	if !IsCategory(category) {
		return nil, fmt.Errorf("%w: %s is not a category", ErrUnknownAction, category)
	}
	return call[MovieResponse](ctx, a.caller, category, pageParams(page))
}

// Search finds movies by title.
func (a *API) Search(ctx context.Context, query string, page int) (*MovieResponse, error) {
	return call[MovieResponse](ctx, a.caller, ActionSearch, Params{Filters: &Filters{Query: query, Page: page}})
}

// Recommendations returns movies recommended for movieID.
func (a *API) Recommendations(ctx context.Context, movieID int, page int) (*MovieResponse, error) {
	p := pageParams(page)
	p.MovieID = movieID
	return call[MovieResponse](ctx, a.caller, ActionRecommendations, p)
}

// Similar returns movies similar to movieID.
func (a *API) Similar(ctx context.Context, movieID int, page int) (*MovieResponse, error) {
	p := pageParams(page)
	p.MovieID = movieID
	return call[MovieResponse](ctx, a.caller, ActionSimilar, p)
}

// Credits returns cast and crew.
func (a *API) Credits(ctx context.Context, movieID int) (*Credits, error) {
	return call[Credits](ctx, a.caller, ActionCredits, Params{MovieID: movieID})
}

// Videos returns the videos attached to a movie.
func (a *API) Videos(ctx context.Context, movieID int) ([]Video, error) {
	resp, err := call[VideosResponse](ctx, a.caller, ActionVideos, Params{MovieID: movieID})
	if err != nil {
		return nil, err
	}
	return resp.Results, nil
}
