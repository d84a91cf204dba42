package api

import (
	"errors"
	"net/http"
	"strconv"
)

// Standings limits.
const (
	defaultStandingsLimit = 20
	maxStandingsLimit     = 1000
)

// StandingsHandler serves the championship table.
type StandingsHandler struct {
	deps     Dependencies
	maxLimit int
}

// NewStandingsHandler creates a new standings handler. A non-positive
// maxLimit falls back to the package default.
func NewStandingsHandler(deps Dependencies, maxLimit int) *StandingsHandler {
	if maxLimit <= 0 {
		maxLimit = maxStandingsLimit
	}
	return &StandingsHandler{deps: deps, maxLimit: maxLimit}
}

type standingsResponse struct {
	Standings []Entry `json:"standings"`
}

// HandleGetStandings handles GET /standings?limit=N requests.
func (h *StandingsHandler) HandleGetStandings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	limit := defaultStandingsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid_limit", errors.New("limit must be a positive integer"))
			return
		}
		limit = n
	}
	if limit > h.maxLimit {
		limit = h.maxLimit
	}

	entries, err := h.deps.Standings(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "standings_failed", err)
		return
	}
	if entries == nil {
		entries = []Entry{}
	}
	writeJSON(w, http.StatusOK, standingsResponse{Standings: entries})
}
