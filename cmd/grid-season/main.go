package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/momentum/internal/gridgen"
)

// Default configuration constants.
const (
	defaultTeams          = 10
	defaultDriversPerTeam = 2
	defaultTracks         = 6
	defaultRounds         = 3
	defaultSeed           = 42
	defaultTimeout        = 30 * time.Second
	defaultSeasonTimeout  = 10 * time.Minute
)

func main() {
	var (
		baseURL = flag.String("url", "http://localhost:9080", "Base URL of the service")
		dbPath  = flag.String("db", "momentum.db", "SQLite database shared with the service")
		teams   = flag.Int("teams", defaultTeams, "Number of teams to generate")
		drivers = flag.Int("drivers", defaultDriversPerTeam, "Drivers per team")
		tracks  = flag.Int("tracks", defaultTracks, "Tracks on the calendar")
		rounds  = flag.Int("rounds", defaultRounds, "Times the calendar is raced")
		seed    = flag.Int64("seed", defaultSeed, "Master seed for grid and races")
		workers = flag.Int("workers", runtime.NumCPU(), "Number of concurrent race submissions")
		timeout = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		logFile = flag.String("log", "", "Log file for run output (default: season_log_TIMESTAMP.log)")
		verbose = flag.Bool("verbose", false, "Print the full standings table")
		help    = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		gridgen.ShowHelp()
		return
	}

	if err := gridgen.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultSeasonTimeout)
	defer cancel()

	config := &gridgen.Config{
		BaseURL:        *baseURL,
		DBPath:         *dbPath,
		Teams:          *teams,
		DriversPerTeam: *drivers,
		Tracks:         *tracks,
		Rounds:         *rounds,
		Seed:           *seed,
		Workers:        *workers,
		Timeout:        *timeout,
		LogFile:        *logFile,
		Verbose:        *verbose,
	}

	if err := gridgen.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Season run failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
