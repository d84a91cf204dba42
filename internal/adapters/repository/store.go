// Package repository defines the championship standings store and the
// persistence contracts the engine writes through.
package repository

import (
	"context"

	"github.com/okian/momentum/internal/domain/model"
	"github.com/okian/momentum/internal/domain/progression"
)

// Entry is one row of the championship standings.
type Entry struct {
	Rank     int   `json:"rank"`
	DriverID int64 `json:"driver_id"`
	Points   int   `json:"points"`
	Wins     int   `json:"wins"`
	Podiums  int   `json:"podiums"`
}

// StandingsStore accumulates race scores into a ranked championship.
type StandingsStore interface {
	// AddResult folds one classified finish into the standings.
	AddResult(ctx context.Context, driverID int64, points int, win, podium bool) error

	// Rank returns the current standing for a driver.
	// Returns ErrNotFound if the driver has never scored.
	Rank(ctx context.Context, driverID int64) (Entry, error)

	// TopN returns the first n standings rows, ordered by points desc
	// with ties sharing a rank.
	TopN(ctx context.Context, n int) ([]Entry, error)

	// Count returns the number of drivers in the standings.
	Count(ctx context.Context) int
}

// ResultStore persists classified race results.
type ResultStore interface {
	// SaveResult stores an immutable race result.
	SaveResult(ctx context.Context, res model.RaceResult) error

	// GetResult loads a stored result by race id.
	// Returns ErrNotFound for an unknown race.
	GetResult(ctx context.Context, raceID string) (model.RaceResult, error)

	// ApplyDeltas folds progression deltas into the stored driver and
	// team records in one transaction.
	ApplyDeltas(ctx context.Context, deltas progression.Deltas) error
}

// EntityStore provides access to the long-lived career entities.
type EntityStore interface {
	GetDriver(ctx context.Context, id int64) (model.Driver, error)
	GetTeam(ctx context.Context, id int64) (model.Team, error)
	GetTrack(ctx context.Context, id int64) (model.Track, error)
	ListDrivers(ctx context.Context) ([]model.Driver, error)

	PutDriver(ctx context.Context, d model.Driver) error
	PutTeam(ctx context.Context, t model.Team) error
	PutTrack(ctx context.Context, tr model.Track) error
}
