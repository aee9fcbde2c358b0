package server

import (
	"encoding/json"
	"net/http"

	"github.com/marco/cinepick/internal/catalog"
)

const proxyErrorDetails = "Check if TMDB_API_KEY is configured"

// CatalogProxy serves the catalog proxy endpoint: it accepts an action
// payload and answers with the raw catalog JSON.
func (s *Server) CatalogProxy(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
		return
	}

	var req catalog.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeProxyError(w, "invalid request body: "+err.Error())
		return
	}

	action, err := catalog.ParseAction(string(req.Action))
	if err != nil {
		s.writeProxyError(w, "Invalid action: "+string(req.Action))
		return
	}

	data, err := s.deps.Catalog.Call(r.Context(), action, req.Normalize())
	if err != nil {
		s.writeProxyError(w, err.Error())
		s.logger.Error("catalog proxy call failed", "action", action, "error", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (s *Server) writeProxyError(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"error":   msg,
		"details": proxyErrorDetails,
	})
}
