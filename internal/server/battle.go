package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/marco/cinepick/internal/battle"
	"github.com/marco/cinepick/internal/catalog"
)

type battleResponse struct {
	*battle.Result
	ExportPath string `json:"exportPath,omitempty"`
}

// Battle compares ?m1= against ?m2=. With export=1 the report is also
// written to disk.
func (s *Server) Battle(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	idA, errA := strconv.Atoi(q.Get("m1"))
	idB, errB := strconv.Atoi(q.Get("m2"))
	if errA != nil || errB != nil {
		writeError(w, http.StatusBadRequest, "m1 and m2 must be movie ids")
		return
	}

	res, err := s.deps.Battles.Run(r.Context(), idA, idB)
	switch {
	case errors.Is(err, battle.ErrInvalidMovieID):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, catalog.ErrMovieNotFound):
		writeError(w, http.StatusNotFound, err.Error())
		return
	case err != nil:
		s.logger.Error("battle failed", "m1", idA, "m2", idB, "error", err)
		writeError(w, http.StatusBadGateway, "failed to load movies")
		return
	}

	resp := battleResponse{Result: res}
	if q.Get("export") == "1" && s.deps.Reports != nil {
		path, err := s.deps.Reports.Write(res)
		if err != nil {
			s.logger.Error("failed to export battle", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to export battle")
			return
		}
		resp.ExportPath = path
	}

	s.logger.Info("battle finished",
		"m1", idA,
		"m2", idB,
		"winner", res.Winner.ID,
		"total_score", res.Metrics.TotalScore,
	)
	writeJSON(w, http.StatusOK, resp)
}
