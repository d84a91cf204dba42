package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	service "github.com/okian/momentum/internal/app"
	"github.com/okian/momentum/internal/domain/model"
)

// RacesHandler handles race scheduling and result retrieval.
type RacesHandler struct {
	deps Dependencies
}

// NewRacesHandler creates a new races handler.
func NewRacesHandler(deps Dependencies) *RacesHandler {
	return &RacesHandler{deps: deps}
}

// raceResponse is the read shape for a finished or in-flight race.
type raceResponse struct {
	RaceID    string           `json:"race_id"`
	Stage     string           `json:"stage"`
	TrackID   int64            `json:"track_id,omitempty"`
	Seed      int64            `json:"seed,omitempty"`
	Trials    int              `json:"trials,omitempty"`
	Standings []model.Standing `json:"standings,omitempty"`
}

// HandlePostRace handles POST /races requests. Scheduling is
// asynchronous: a successful request is acknowledged with 202 and the
// race id to poll.
func (h *RacesHandler) HandlePostRace(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req service.RaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", err)
		return
	}
	if req.Trials < 0 {
		writeError(w, http.StatusBadRequest, "invalid_trials", errors.New("trials must be non-negative"))
		return
	}

	raceID, err := h.deps.ScheduleRace(r.Context(), req)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrBackpressure):
		writeError(w, http.StatusTooManyRequests, "backpressure", err)
		return
	case isNotFound(err):
		writeError(w, http.StatusNotFound, "unknown_entity", err)
		return
	default:
		writeError(w, http.StatusInternalServerError, "schedule_failed", err)
		return
	}

	writeJSON(w, http.StatusAccepted, ackResponse{RaceID: raceID, Status: "scheduled"})
}

// HandleGetRace handles GET /races/{race_id} requests. Races that are
// still moving through the pipeline report their stage without
// standings.
func (h *RacesHandler) HandleGetRace(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	raceID := strings.TrimPrefix(r.URL.Path, "/races/")
	if raceID == "" || strings.Contains(raceID, "/") {
		writeError(w, http.StatusBadRequest, "invalid_race_id", errors.New("race id required"))
		return
	}

	result, err := h.deps.Result(r.Context(), raceID)
	if err == nil {
		stage := model.RaceApplied
		if st, ok := h.deps.Stage(raceID); ok {
			stage = st
		}
		writeJSON(w, http.StatusOK, raceResponse{
			RaceID:    result.RaceID,
			Stage:     stage.String(),
			TrackID:   result.TrackID,
			Seed:      result.Seed,
			Trials:    result.Trials,
			Standings: result.Standings,
		})
		return
	}

	if st, ok := h.deps.Stage(raceID); ok {
		writeJSON(w, http.StatusOK, raceResponse{RaceID: raceID, Stage: st.String()})
		return
	}
	writeError(w, http.StatusNotFound, "unknown_race", err)
}

// HandleFlush handles POST /maintenance/flush requests, retrying
// persistence for results held in memory after exhausted retries.
func (h *RacesHandler) HandleFlush(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	flushed := h.deps.FlushHeld(r.Context())
	writeJSON(w, http.StatusOK, map[string]int{"flushed": flushed})
}
