package catalog

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Action names a catalog operation. The string values are the wire names
// used by the proxy endpoint.
type Action string

const (
	ActionGenres          Action = "genres"
	ActionDiscover        Action = "discover"
	ActionMovieDetails    Action = "movie-details"
	ActionPopular         Action = "popular"
	ActionTopRated        Action = "top-rated"
	ActionNowPlaying      Action = "now-playing"
	ActionUpcoming        Action = "upcoming"
	ActionSearch          Action = "search"
	ActionRecommendations Action = "recommendations"
	ActionSimilar         Action = "similar"
	ActionCredits         Action = "credits"
	ActionVideos          Action = "videos"
)

var (
	// ErrUnknownAction is returned for action names the catalog does not serve.
	ErrUnknownAction = errors.New("invalid action")
	// ErrQueryRequired is returned by search without a query.
	ErrQueryRequired = errors.New("search query is required")
	// ErrMovieIDRequired is returned by per-movie actions without a movie id.
	ErrMovieIDRequired = errors.New("movie id is required")
	// ErrMovieNotFound is returned when a movie is not found by ID
	ErrMovieNotFound = errors.New("movie not found")
)

var actions = map[Action]bool{
	ActionGenres: true, ActionDiscover: true, ActionMovieDetails: true,
	ActionPopular: true, ActionTopRated: true, ActionNowPlaying: true,
	ActionUpcoming: true, ActionSearch: true, ActionRecommendations: true,
	ActionSimilar: true, ActionCredits: true, ActionVideos: true,
}

// Categories are the list actions browsable by name.
var Categories = []Action{ActionPopular, ActionTopRated, ActionNowPlaying, ActionUpcoming}

// ParseAction validates a wire action name.
func ParseAction(s string) (Action, error) {
	a := Action(strings.TrimSpace(s))
	if !actions[a] {
		return "", fmt.Errorf("%w: %s", ErrUnknownAction, s)
	}
	return a, nil
}

// IsCategory reports whether a is one of the browsable list actions.
func IsCategory(a Action) bool {
	for _, c := range Categories {
		if c == a {
			return true
		}
	}
	return false
}

// Params carries the arguments of a catalog call.
type Params struct {
	MovieID int      `json:"movieId,omitempty"`
	Filters *Filters `json:"filters,omitempty"`
}

// Request is the proxy wire payload: the action plus its params.
type Request struct {
	Action Action `json:"action"`
	Params
	// Query and Page are accepted at the top level for older callers.
	Query string `json:"query,omitempty"`
	Page  int    `json:"page,omitempty"`
}

// Normalize folds the top-level Query and Page into Filters.
func (r Request) Normalize() Params {
	p := r.Params
	if r.Query == "" && r.Page == 0 {
		return p
	}
	f := Filters{}
	if p.Filters != nil {
		f = *p.Filters
	}
	if f.Query == "" {
		f.Query = r.Query
	}
	if f.Page == 0 {
		f.Page = r.Page
	}
	p.Filters = &f
	return p
}

func (p Params) page() int {
	if p.Filters != nil && p.Filters.Page > 0 {
		return p.Filters.Page
	}
	return 1
}

// endpoint maps an action and its params to a catalog path and query.
// The api key and language are added by the client.
func endpoint(a Action, p Params) (string, url.Values, error) {
	q := url.Values{}
	page := strconv.Itoa(p.page())

	needsID := func(format string) (string, error) {
		if p.MovieID <= 0 {
			return "", fmt.Errorf("%s: %w", a, ErrMovieIDRequired)
		}
		return fmt.Sprintf(format, p.MovieID), nil
	}

	switch a {
	case ActionGenres:
		return "/genre/movie/list", q, nil

	case ActionDiscover:
		q.Set("include_adult", "false")
		q.Set("include_video", "false")
		f := p.Filters
		if f == nil {
			q.Set("page", "1")
			return "/discover/movie", q, nil
		}
		q.Set("page", page)
		sortBy := f.SortBy
		if sortBy == "" {
			sortBy = "popularity.desc"
		}
		q.Set("sort_by", sortBy)
		if len(f.Genres) > 0 {
			ids := make([]string, len(f.Genres))
			for i, g := range f.Genres {
				ids[i] = strconv.Itoa(g)
			}
			q.Set("with_genres", strings.Join(ids, ","))
		}
		if f.YearRange != nil {
			q.Set("primary_release_date.gte", fmt.Sprintf("%d-01-01", f.YearRange[0]))
			q.Set("primary_release_date.lte", fmt.Sprintf("%d-12-31", f.YearRange[1]))
		}
		if f.MinRating > 0 {
			q.Set("vote_average.gte", strconv.FormatFloat(f.MinRating, 'f', -1, 64))
		}
		if f.Language != "" && f.Language != "en" {
			q.Set("with_original_language", f.Language)
		}
		if f.Runtime != nil {
			q.Set("with_runtime.gte", strconv.Itoa(f.Runtime[0]))
			q.Set("with_runtime.lte", strconv.Itoa(f.Runtime[1]))
		}
		if f.Certification != "" {
			q.Set("certification_country", "US")
			q.Set("certification", f.Certification)
		}
		return "/discover/movie", q, nil

	case ActionMovieDetails:
		path, err := needsID("/movie/%d")
		return path, q, err

	case ActionPopular, ActionTopRated, ActionNowPlaying, ActionUpcoming:
		q.Set("page", page)
		return "/movie/" + strings.ReplaceAll(string(a), "-", "_"), q, nil

	case ActionSearch:
		if p.Filters == nil || strings.TrimSpace(p.Filters.Query) == "" {
			return "", nil, ErrQueryRequired
		}
		q.Set("query", p.Filters.Query)
		q.Set("page", page)
		q.Set("include_adult", "false")
		return "/search/movie", q, nil

	case ActionRecommendations, ActionSimilar:
		path, err := needsID("/movie/%d/" + string(a))
		q.Set("page", page)
		return path, q, err

	case ActionCredits, ActionVideos:
		path, err := needsID("/movie/%d/" + string(a))
		return path, q, err
	}

	return "", nil, fmt.Errorf("%w: %s", ErrUnknownAction, a)
}
