package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/momentum/internal/domain/model"
)

// RoundsHandler runs a full round of races, one per track.
type RoundsHandler struct {
	deps Dependencies
}

// NewRoundsHandler creates a new rounds handler.
func NewRoundsHandler(deps Dependencies) *RoundsHandler {
	return &RoundsHandler{deps: deps}
}

type roundRequest struct {
	TrackIDs []int64 `json:"track_ids"`
	Seed     int64   `json:"seed"`
}

type roundResponse struct {
	Races []model.RaceResult `json:"races"`
}

// HandlePostRound handles POST /rounds requests. Unlike single races a
// round runs synchronously so callers get every result in track order.
func (h *RoundsHandler) HandlePostRound(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req roundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", err)
		return
	}
	if len(req.TrackIDs) == 0 {
		writeError(w, http.StatusBadRequest, "invalid_tracks", errors.New("track_ids required"))
		return
	}

	results, err := h.deps.SimulateRound(r.Context(), req.TrackIDs, req.Seed)
	switch {
	case err == nil:
	case isNotFound(err):
		writeError(w, http.StatusNotFound, "unknown_entity", err)
		return
	default:
		writeError(w, http.StatusInternalServerError, "round_failed", err)
		return
	}

	writeJSON(w, http.StatusOK, roundResponse{Races: results})
}
