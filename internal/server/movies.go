package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/marco/cinepick/internal/catalog"
	"github.com/marco/cinepick/internal/movies"
)

// Genres lists genres.
func (s *Server) Genres(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"genres": s.deps.Movies.Genres(r.Context())})
}

// Category serves a page of popular, top-rated, now-playing or upcoming.
func (s *Server) Category(w http.ResponseWriter, r *http.Request) {
	action, err := catalog.ParseAction(mux.Vars(r)["category"])
	if err != nil || !catalog.IsCategory(action) {
		writeError(w, http.StatusNotFound, "unknown category")
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Movies.List(r.Context(), action, queryInt(r, "page", 1)))
}

// MovieDetails serves one movie.
func (s *Server) MovieDetails(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid movie id")
		return
	}
	details := s.deps.Movies.MovieDetails(r.Context(), id)
	if details == nil {
		writeError(w, http.StatusNotFound, "movie not found")
		return
	}
	writeJSON(w, http.StatusOK, details)
}

// Cast serves a movie's cast.
func (s *Server) Cast(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid movie id")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"cast": s.deps.Movies.Cast(r.Context(), id)})
}

// Videos serves a movie's videos.
func (s *Server) Videos(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid movie id")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": s.deps.Movies.Videos(r.Context(), id)})
}

// Trailer serves the YouTube trailer link, or a YouTube search link when the
// movie has no trailer and a title is given.
func (s *Server) Trailer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid movie id")
		return
	}
	resp := map[string]string{"url": s.deps.Movies.YouTubeTrailerURL(r.Context(), id)}
	if resp["url"] == "" {
		if title := strings.TrimSpace(r.URL.Query().Get("title")); title != "" {
			resp["searchUrl"] = movies.TrailerSearchURL(title)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// Recommendations serves recommended movies.
func (s *Server) Recommendations(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid movie id")
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Movies.Recommendations(r.Context(), id, queryInt(r, "page", 1)))
}

// Similar serves similar movies.
func (s *Server) Similar(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid movie id")
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Movies.Similar(r.Context(), id, queryInt(r, "page", 1)))
}

// Discover serves a filtered discover page. With enrich=1 the movies are
// returned with full details instead.
func (s *Server) Discover(w http.ResponseWriter, r *http.Request) {
	filters, err := parseFilters(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if r.URL.Query().Get("enrich") == "1" {
		writeJSON(w, http.StatusOK, map[string]any{"results": s.deps.Movies.Discover(r.Context(), filters)})
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Movies.DiscoverPage(r.Context(), filters))
}

// Random picks a movie matching the filters that was not picked before and
// remembers it.
func (s *Server) Random(w http.ResponseWriter, r *http.Request) {
	filters, err := parseFilters(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	exclude, err := s.deps.Shown.IDs(r.Context())
	if err != nil {
		s.logger.Error("failed to load shown movies", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load shown movies")
		return
	}

	movie := s.deps.Movies.Random(r.Context(), filters, exclude)
	if movie == nil {
		writeError(w, http.StatusNotFound, "no more movies match these filters")
		return
	}
	if err := s.deps.Shown.Add(r.Context(), movie.ID); err != nil {
		s.logger.Warn("failed to record shown movie", "movie_id", movie.ID, "error", err)
	}
	writeJSON(w, http.StatusOK, movie)
}

// Search serves search results and records the query.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeError(w, http.StatusBadRequest, catalog.ErrQueryRequired.Error())
		return
	}
	if err := s.deps.History.Add(r.Context(), q); err != nil {
		s.logger.Warn("failed to record search", "query", q, "error", err)
	}
	writeJSON(w, http.StatusOK, s.deps.Movies.Search(r.Context(), q, queryInt(r, "page", 1)))
}

// parseFilters reads discover filters from the query string. It returns nil
// when no filter is set.
func parseFilters(r *http.Request) (*catalog.Filters, error) {
	q := r.URL.Query()
	var f catalog.Filters
	set := false

	if v := q.Get("genres"); v != "" {
		for _, part := range strings.Split(v, ",") {
			id, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil {
				return nil, fmt.Errorf("invalid genre %q", part)
			}
			f.Genres = append(f.Genres, id)
		}
		set = true
	}

	yearRange, err := intRange(q.Get("yearFrom"), q.Get("yearTo"), "year")
	if err != nil {
		return nil, err
	}
	if yearRange != nil {
		f.YearRange = yearRange
		set = true
	}

	runtimeRange, err := intRange(q.Get("runtimeMin"), q.Get("runtimeMax"), "runtime")
	if err != nil {
		return nil, err
	}
	if runtimeRange != nil {
		f.Runtime = runtimeRange
		set = true
	}

	if v := q.Get("minRating"); v != "" {
		rating, err := strconv.ParseFloat(v, 64)
		if err != nil || rating < 0 || rating > 10 {
			return nil, fmt.Errorf("invalid minRating %q", v)
		}
		f.MinRating = rating
		set = true
	}

	for name, dst := range map[string]*string{
		"language":      &f.Language,
		"certification": &f.Certification,
		"sortBy":        &f.SortBy,
	} {
		if v := strings.TrimSpace(q.Get(name)); v != "" {
			*dst = v
			set = true
		}
	}

	if page := queryInt(r, "page", 0); page > 0 {
		f.Page = page
		set = true
	}

	if !set {
		return nil, nil
	}
	return &f, nil
}

func intRange(lo, hi, name string) (*[2]int, error) {
	if lo == "" && hi == "" {
		return nil, nil
	}
	if lo == "" || hi == "" {
		return nil, fmt.Errorf("%s range needs both bounds", name)
	}
	a, errA := strconv.Atoi(lo)
	b, errB := strconv.Atoi(hi)
	if errA != nil || errB != nil || a > b {
		return nil, fmt.Errorf("invalid %s range %s-%s", name, lo, hi)
	}
	return &[2]int{a, b}, nil
}
