// Package server exposes movie browsing, battles and the user's lists over
// HTTP, plus the catalog proxy endpoint.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/marco/cinepick/internal/battle"
	"github.com/marco/cinepick/internal/catalog"
	"github.com/marco/cinepick/internal/library"
	"github.com/marco/cinepick/internal/movies"
)

// BattleRunner runs a comparison between two movie ids.
type BattleRunner interface {
	Run(ctx context.Context, idA, idB int) (*battle.Result, error)
}

// ReportWriter stores a battle report and returns its location.
type ReportWriter interface {
	Write(res *battle.Result) (string, error)
}

// History is the search history store.
type History interface {
	List(ctx context.Context) ([]string, error)
	Add(ctx context.Context, query string) error
	Remove(ctx context.Context, query string) error
	Clear(ctx context.Context) error
}

// Shown is the store of movies already picked at random.
type Shown interface {
	Add(ctx context.Context, movieID int) error
	IDs(ctx context.Context) ([]int, error)
	Clear(ctx context.Context) error
}

// Deps are the collaborators of the HTTP handlers.
type Deps struct {
	Movies    *movies.Service
	Battles   BattleRunner
	Reports   ReportWriter
	Favorites library.Repository
	Watchlist library.Repository
	History   History
	Shown     Shown
	// Catalog answers the proxy endpoint. It must not route back through
	// this server.
	Catalog catalog.Caller
	Logger  *slog.Logger
}

// Server holds the handler dependencies.
type Server struct {
	deps   Deps
	logger *slog.Logger
}

// New creates a Server.
func New(deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{deps: deps, logger: logger}
}

// Router builds the route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(requestIDMiddleware, s.accessLogMiddleware, corsMiddleware)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/genres", s.Genres).Methods(http.MethodGet)
	api.HandleFunc("/discover", s.Discover).Methods(http.MethodGet)
	api.HandleFunc("/random", s.Random).Methods(http.MethodGet)
	api.HandleFunc("/search", s.Search).Methods(http.MethodGet)
	api.HandleFunc("/battle", s.Battle).Methods(http.MethodGet)

	api.HandleFunc("/movies/{id:[0-9]+}", s.MovieDetails).Methods(http.MethodGet)
	api.HandleFunc("/movies/{id:[0-9]+}/cast", s.Cast).Methods(http.MethodGet)
	api.HandleFunc("/movies/{id:[0-9]+}/videos", s.Videos).Methods(http.MethodGet)
	api.HandleFunc("/movies/{id:[0-9]+}/trailer", s.Trailer).Methods(http.MethodGet)
	api.HandleFunc("/movies/{id:[0-9]+}/recommendations", s.Recommendations).Methods(http.MethodGet)
	api.HandleFunc("/movies/{id:[0-9]+}/similar", s.Similar).Methods(http.MethodGet)
	api.HandleFunc("/movies/{category}", s.Category).Methods(http.MethodGet)

	s.listRoutes(api, "/favorites", s.deps.Favorites)
	s.listRoutes(api, "/watchlist", s.deps.Watchlist)

	api.HandleFunc("/search-history", s.ListHistory).Methods(http.MethodGet)
	api.HandleFunc("/search-history", s.ClearHistory).Methods(http.MethodDelete)
	api.HandleFunc("/search-history/{query}", s.RemoveHistory).Methods(http.MethodDelete)
	api.HandleFunc("/shown", s.ClearShown).Methods(http.MethodDelete)

	r.HandleFunc("/functions/v1/tmdb-api", s.CatalogProxy).Methods(http.MethodPost, http.MethodOptions)

	return r
}

type ctxKey int

const requestIDKey ctxKey = iota

// RequestID returns the request id stored by the middleware.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) accessLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", RequestID(r.Context()),
		)
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Headers", "authorization, x-client-info, apikey, content-type")
		h.Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// pathID reads the numeric {id} route variable.
func pathID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// queryInt reads a positive integer query parameter, falling back to def.
func queryInt(r *http.Request, name string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || v <= 0 {
		return def
	}
	return v
}
