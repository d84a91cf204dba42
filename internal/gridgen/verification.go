package gridgen

import (
	"fmt"
	"log"
)

// verifyStandings checks the championship table for internal
// consistency after a season.
func verifyStandings(config *Config, standings []Entry, stats *Stats) error {
	log.Println("🔍 Verifying standings...")

	if len(standings) == 0 {
		return fmt.Errorf("no standings to verify")
	}

	totalRaces := config.Rounds * config.Tracks
	var wins int
	for i, e := range standings {
		if e.Points < 0 {
			return fmt.Errorf("driver %d has negative points", e.DriverID)
		}
		if e.Wins > totalRaces {
			return fmt.Errorf("driver %d has %d wins over a %d-race season", e.DriverID, e.Wins, totalRaces)
		}
		if e.Podiums < e.Wins {
			return fmt.Errorf("driver %d has more wins (%d) than podiums (%d)", e.DriverID, e.Wins, e.Podiums)
		}
		if i > 0 {
			prev := standings[i-1]
			if e.Points > prev.Points {
				return fmt.Errorf("standings not sorted: position %d outscores position %d", i+1, i)
			}
			if e.Rank < prev.Rank {
				return fmt.Errorf("ranks not monotonic at position %d", i+1)
			}
		}
		wins += e.Wins
	}
	if wins > totalRaces {
		return fmt.Errorf("drivers claim %d wins over a %d-race season", wins, totalRaces)
	}

	displayStandings(standings, config.Verbose)
	log.Println("✅ Standings verified")
	return nil
}

// displayStandings prints the championship table.
func displayStandings(standings []Entry, verbose bool) {
	topN := 10
	if verbose || len(standings) < topN {
		topN = len(standings)
	}

	log.Printf("🏆 Championship top %d:", topN)
	for i := 0; i < topN; i++ {
		e := standings[i]
		log.Printf("  %2d. driver %-4d %4d pts  %d wins  %d podiums",
			e.Rank, e.DriverID, e.Points, e.Wins, e.Podiums)
	}
}

// displayFinalStats prints season run statistics.
func displayFinalStats(stats *Stats) {
	log.Println("📊 Season statistics:")
	log.Printf("  Teams:     %d", stats.TeamsCreated)
	log.Printf("  Drivers:   %d", stats.DriversCreated)
	log.Printf("  Tracks:    %d", stats.TracksCreated)
	log.Printf("  Races:     %d scheduled, %d completed, %d failed",
		stats.RacesScheduled, stats.RacesCompleted, stats.RacesFailed)
	log.Printf("  Standings: %d entries", stats.StandingsEntries)
	log.Printf("  Duration:  %s", stats.Duration)
}
