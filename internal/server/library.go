package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/marco/cinepick/internal/library"
)

// listRoutes mounts the list endpoints of one repository under prefix.
func (s *Server) listRoutes(api *mux.Router, prefix string, repo library.Repository) {
	if repo == nil {
		return
	}
	h := &listHandler{repo: repo, server: s}
	api.HandleFunc(prefix, h.List).Methods(http.MethodGet)
	api.HandleFunc(prefix, h.Add).Methods(http.MethodPost)
	api.HandleFunc(prefix+"/{id:[0-9]+}", h.Remove).Methods(http.MethodDelete)
	api.HandleFunc(prefix+"/{id:[0-9]+}/toggle", h.Toggle).Methods(http.MethodPost)
}

type listHandler struct {
	repo   library.Repository
	server *Server
}

func (h *listHandler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.repo.List(r.Context())
	if err != nil {
		h.server.logger.Error("failed to list entries", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list entries")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *listHandler) Add(w http.ResponseWriter, r *http.Request) {
	var e library.Entry
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if e.ID > 0 && e.Title == "" && !h.fillEntry(r, &e) {
		writeError(w, http.StatusNotFound, "movie not found")
		return
	}
	saved, err := h.repo.Add(r.Context(), e)
	if err != nil {
		h.writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (h *listHandler) Remove(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid movie id")
		return
	}
	if err := h.repo.Remove(r.Context(), id); err != nil {
		h.writeRepoError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Toggle accepts an optional entry body; the path id always wins.
func (h *listHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid movie id")
		return
	}
	var e library.Entry
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	e.ID = id

	if e.Title == "" {
		present, err := h.repo.Contains(r.Context(), id)
		if err != nil {
			h.writeRepoError(w, err)
			return
		}
		if !present && !h.fillEntry(r, &e) {
			writeError(w, http.StatusNotFound, "movie not found")
			return
		}
	}

	added, err := h.repo.Toggle(r.Context(), e)
	if err != nil {
		h.writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "active": added})
}

// fillEntry completes an entry posted without a title from the catalog.
func (h *listHandler) fillEntry(r *http.Request, e *library.Entry) bool {
	details := h.server.deps.Movies.MovieDetails(r.Context(), e.ID)
	if details == nil {
		return false
	}
	e.Title = details.Title
	e.PosterPath = details.PosterPath
	e.VoteAverage = details.VoteAverage
	e.ReleaseDate = details.ReleaseDate
	e.Overview = details.Overview
	return true
}

func (h *listHandler) writeRepoError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, library.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, library.ErrInvalidMovie):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.server.logger.Error("library operation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "library operation failed")
	}
}

// ListHistory serves recent searches, newest first.
func (s *Server) ListHistory(w http.ResponseWriter, r *http.Request) {
	items, err := s.deps.History.List(r.Context())
	if err != nil {
		s.logger.Error("failed to list search history", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list search history")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// ClearHistory empties the search history.
func (s *Server) ClearHistory(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.History.Clear(r.Context()); err != nil {
		s.logger.Error("failed to clear search history", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to clear search history")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemoveHistory deletes one query.
func (s *Server) RemoveHistory(w http.ResponseWriter, r *http.Request) {
	err := s.deps.History.Remove(r.Context(), mux.Vars(r)["query"])
	switch {
	case errors.Is(err, library.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case err != nil:
		s.logger.Error("failed to remove search", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to remove search")
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

// ClearShown forgets the movies already picked at random.
func (s *Server) ClearShown(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Shown.Clear(r.Context()); err != nil {
		s.logger.Error("failed to clear shown movies", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to clear shown movies")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
