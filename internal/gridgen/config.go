// Package gridgen generates deterministic racing grids and drives a
// running service through a full season over HTTP, verifying the
// championship table it produces.
package gridgen

import "time"

// Config holds configuration for a season run.
type Config struct {
	BaseURL        string        // Base URL of the service
	DBPath         string        // SQLite database to seed the grid into
	Teams          int           // Number of teams to generate
	DriversPerTeam int           // Drivers fielded by each team
	Tracks         int           // Tracks on the calendar
	Rounds         int           // Times the calendar is raced
	Seed           int64         // Master seed for grid and races
	Workers        int           // Concurrent race submissions
	Timeout        time.Duration // HTTP request timeout
	LogFile        string        // Log file for run output
	Verbose        bool          // Enable verbose logging
}

// Entry mirrors the standings read shape served by the API.
type Entry struct {
	Rank     int   `json:"rank"`
	DriverID int64 `json:"driver_id"`
	Points   int   `json:"points"`
	Wins     int   `json:"wins"`
	Podiums  int   `json:"podiums"`
}

// ackResponse is the scheduling acknowledgement from POST /races.
type ackResponse struct {
	RaceID string `json:"race_id"`
	Status string `json:"status"`
}

// raceStatus is the read shape from GET /races/{id}.
type raceStatus struct {
	RaceID string `json:"race_id"`
	Stage  string `json:"stage"`
}

// Stats holds season run statistics.
type Stats struct {
	TeamsCreated     int
	DriversCreated   int
	TracksCreated    int
	RacesScheduled   int
	RacesCompleted   int
	RacesFailed      int
	StandingsEntries int
	StartTime        time.Time
	EndTime          time.Time
	Duration         time.Duration
}
