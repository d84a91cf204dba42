// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/momentum/internal/adapters/repository"
	service "github.com/okian/momentum/internal/app"
	"github.com/okian/momentum/internal/domain/model"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// ScheduleRace enqueues a race for asynchronous simulation and
	// returns its race id.
	ScheduleRace(ctx context.Context, req service.RaceRequest) (string, error)

	// SimulateRound runs one race per track synchronously.
	SimulateRound(ctx context.Context, trackIDs []int64, seed int64) ([]model.RaceResult, error)

	// Read operations.
	Result(ctx context.Context, raceID string) (model.RaceResult, error)
	Stage(raceID string) (model.RaceStage, bool)
	Standings(ctx context.Context, n int) ([]repository.Entry, error)
	DriverStanding(ctx context.Context, driverID int64) (repository.Entry, error)
	Driver(ctx context.Context, driverID int64) (model.Driver, error)

	// FlushHeld retries persistence for results held in memory.
	FlushHeld(ctx context.Context) int
}

// Entry mirrors the read shape returned by standings queries.
type Entry = repository.Entry

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	racesHandler     *RacesHandler
	roundsHandler    *RoundsHandler
	standingsHandler *StandingsHandler
	driversHandler   *DriversHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxStandingsLimit int) *Server {
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(statsProvider),
		racesHandler:     NewRacesHandler(deps),
		roundsHandler:    NewRoundsHandler(deps),
		standingsHandler: NewStandingsHandler(deps, maxStandingsLimit),
		driversHandler:   NewDriversHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/races", MetricsMiddleware(s.racesHandler.HandlePostRace, "races"))
	mux.HandleFunc("/races/", MetricsMiddleware(s.racesHandler.HandleGetRace, "race"))
	mux.HandleFunc("/rounds", MetricsMiddleware(s.roundsHandler.HandlePostRound, "rounds"))
	mux.HandleFunc("/standings", MetricsMiddleware(s.standingsHandler.HandleGetStandings, "standings"))
	mux.HandleFunc("/drivers/", MetricsMiddleware(s.driversHandler.HandleGetDriver, "driver"))
	mux.HandleFunc("/maintenance/flush", MetricsMiddleware(s.racesHandler.HandleFlush, "flush"))
}

type ackResponse struct {
	RaceID string `json:"race_id"`
	Status string `json:"status"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// isNotFound translates upstream not-found errors to 404.
func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, repository.ErrNotFound) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "not found")
}
