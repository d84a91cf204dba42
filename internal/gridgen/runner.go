package gridgen

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/momentum/internal/adapters/repository/sqlite"
	"github.com/okian/momentum/pkg/logger"
)

// Run executes a complete season: generate a grid, seed the service's
// database, race every round over HTTP, and verify the standings.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{StartTime: time.Now()}

	logger.Get().Info(ctx, "starting season run",
		logger.String("baseURL", config.BaseURL),
		logger.String("db", config.DBPath),
		logger.Int("rounds", config.Rounds),
		logger.Int64("seed", config.Seed),
		logger.Int("workers", config.Workers))

	if err := checkServiceHealth(ctx, config); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	teams, drivers, tracks := GenerateGrid(ctx, config, stats)

	db, err := sqlite.Open(ctx, config.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	store := sqlite.NewStore(db)
	if err := SeedStore(ctx, store, teams, drivers, tracks); err != nil {
		db.Close()
		return fmt.Errorf("grid seeding failed: %w", err)
	}
	// The service owns the database from here; a second open handle
	// would contend for the single writer.
	db.Close()

	trackIDs := make([]int64, len(tracks))
	for i, t := range tracks {
		trackIDs[i] = t.ID
	}
	if err := runSeason(ctx, config, trackIDs, stats); err != nil {
		return fmt.Errorf("season failed: %w", err)
	}

	standings, err := fetchStandings(ctx, config, len(drivers), stats)
	if err != nil {
		return fmt.Errorf("standings retrieval failed: %w", err)
	}

	if err := verifyStandings(config, standings, stats); err != nil {
		return fmt.Errorf("standings verification failed: %w", err)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(stats)

	logger.Get().Info(ctx, "season completed successfully")
	return nil
}
