// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Keep fields unexported where possible and use functional options.
// - Provide New(...Option) initializer to build a Config with defaults.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"runtime"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DBPath is the SQLite database file backing the persistence layer.
	DBPath string `koanf:"db_path"`

	// RaceQueueSize bounds the in-memory race job queue.
	RaceQueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of simulation workers.
	WorkerCount int `koanf:"worker_count"`

	// GuardSize sets the size of the applied-result guard cache.
	GuardSize int `koanf:"guard_size"`

	// Trials sets the Monte Carlo trial count per race.
	Trials int `koanf:"trials"`

	// Seed is the default base seed for races that do not carry their own.
	Seed int64 `koanf:"seed"`

	// MaxStandingsLimit caps GET /standings?limit.
	MaxStandingsLimit int `koanf:"max_standings_limit"`

	// PersistMaxRetries bounds persistence retry attempts per result.
	PersistMaxRetries int `koanf:"persist_max_retries"`

	// PersistBackoffMS is the initial persistence retry backoff in milliseconds.
	PersistBackoffMS int `koanf:"persist_backoff_ms"`

	// DisciplineWeights overrides skill weighting per discipline,
	// e.g. rally: {pace: 0.3, consistency: 0.2, racecraft: 0.2, tire_management: 0.3}.
	DisciplineWeights map[string]map[string]float64 `koanf:"discipline_weights"`
}

// New creates a Config populated with defaults.
func New() *Config {
	c := &Config{
		LogLevel:          "info",
		Addr:              ":9080",
		DBPath:            "momentum.db",
		RaceQueueSize:     1024,
		WorkerCount:       runtime.NumCPU() * 2,
		GuardSize:         50_000,
		Trials:            1000,
		Seed:              42,
		MaxStandingsLimit: 100,
		PersistMaxRetries: 3,
		PersistBackoffMS:  100,
	}
	return c
}
