package model

import "time"

// RaceStage is the lifecycle stage of a race run. Transitions are strictly
// forward: Scheduled -> Sampling -> Aggregated -> Applied.
type RaceStage int

// Race lifecycle stages.
const (
	RaceScheduled RaceStage = iota
	RaceSampling
	RaceAggregated
	RaceApplied
)

// String returns the stage name for logs and API payloads.
func (s RaceStage) String() string {
	switch s {
	case RaceScheduled:
		return "scheduled"
	case RaceSampling:
		return "sampling"
	case RaceAggregated:
		return "aggregated"
	case RaceApplied:
		return "applied"
	default:
		return "unknown"
	}
}

// CanAdvance reports whether a transition from s to next is legal. Only
// single forward steps are allowed; skips and rollbacks are rejected.
func (s RaceStage) CanAdvance(next RaceStage) bool {
	return next == s+1 && next <= RaceApplied
}

// RaceJob is the unit of work handed to the simulation workers. It carries
// read snapshots of every entity the race needs so workers never touch
// shared mutable state.
type RaceJob struct {
	RaceID    string             `json:"race_id"`
	Seed      int64              `json:"seed"`
	Trials    int                `json:"trials"`
	Track     Track              `json:"track"`
	Weather   Weather            `json:"weather"`
	Drivers   []Driver           `json:"drivers"`
	Teams     map[int64]Team     `json:"teams"`
	Decisions map[int64]Decision `json:"decisions"`
}

// Standing is one classified row of a race result.
type Standing struct {
	Position int     `json:"position"`
	DriverID int64   `json:"driver_id"`
	Time     float64 `json:"time"` // representative race time, seconds
	Gap      float64 `json:"gap"`  // to the leader, seconds; 0 for P1
	Variance float64 `json:"variance"`
	Fastest  bool    `json:"fastest_lap"`
	Incident bool    `json:"incident"`
	Points   int     `json:"points"`
}

// RaceResult is the immutable classified outcome of a race. Once built it
// is only read; corrections happen by simulating a new race.
type RaceResult struct {
	RaceID    string     `json:"race_id"`
	TrackID   int64      `json:"track_id"`
	Seed      int64      `json:"seed"`
	Trials    int        `json:"trials"`
	Standings []Standing `json:"standings"`
	CreatedAt time.Time  `json:"created_at"`
}

// Winner returns the driver id in first position, or 0 for an empty result.
func (r RaceResult) Winner() int64 {
	if len(r.Standings) == 0 {
		return 0
	}
	return r.Standings[0].DriverID
}

// PositionOf returns the classified position of the driver, or 0 if the
// driver did not take part.
func (r RaceResult) PositionOf(driverID int64) int {
	for _, s := range r.Standings {
		if s.DriverID == driverID {
			return s.Position
		}
	}
	return 0
}
