package gridgen

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/okian/momentum/pkg/logger"
)

const logFilePermission = 0600

// SetupLogging configures logging to both console and file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string) error {
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "season_log_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	multiWriter := io.MultiWriter(os.Stdout, file)
	log.SetOutput(multiWriter)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the season tool.
func ShowHelp() {
	os.Stdout.WriteString(`Momentum Season Tool
====================

Generates a deterministic racing grid, seeds it into the service
database, races a full season over HTTP, and verifies the resulting
championship standings.

Usage:
  go run cmd/grid-season/main.go [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -db string
        SQLite database shared with the service (default "momentum.db")
  -teams int
        Number of teams to generate (default 10)
  -drivers int
        Drivers per team (default 2)
  -tracks int
        Tracks on the calendar (default 6)
  -rounds int
        Times the calendar is raced (default 3)
  -seed int
        Master seed for grid and races (default 42)
  -workers int
        Number of concurrent race submissions (default CPU cores)
  -timeout duration
        HTTP request timeout (default 30s)
  -log string
        Log file for run output (default: season_log_TIMESTAMP.log)
  -verbose
        Print the full standings table
  -help
        Show this help message

Examples:
  # Run a default season against a local service
  go run cmd/grid-season/main.go

  # A longer season with a bigger grid
  go run cmd/grid-season/main.go -teams 12 -tracks 10 -rounds 5

  # Replay the same season bit for bit
  go run cmd/grid-season/main.go -seed 1234
`)
}
