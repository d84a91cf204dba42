package gridgen

import (
	"context"
	"testing"

	"github.com/okian/momentum/internal/domain/model"
	"github.com/okian/momentum/pkg/logger"
)

func TestMain(m *testing.M) {
	_ = logger.Init()
	m.Run()
}

func testConfig() *Config {
	return &Config{Teams: 6, DriversPerTeam: 2, Tracks: 4, Rounds: 2, Seed: 42}
}

func TestGenerateGrid_Shape(t *testing.T) {
	cfg := testConfig()
	stats := &Stats{}
	teams, drivers, tracks := GenerateGrid(context.Background(), cfg, stats)

	if len(teams) != cfg.Teams {
		t.Fatalf("expected %d teams, got %d", cfg.Teams, len(teams))
	}
	if len(drivers) != cfg.Teams*cfg.DriversPerTeam {
		t.Fatalf("expected %d drivers, got %d", cfg.Teams*cfg.DriversPerTeam, len(drivers))
	}
	if len(tracks) != cfg.Tracks {
		t.Fatalf("expected %d tracks, got %d", cfg.Tracks, len(tracks))
	}

	for _, team := range teams {
		if len(team.DriverIDs) != cfg.DriversPerTeam {
			t.Errorf("team %d has %d drivers", team.ID, len(team.DriverIDs))
		}
		if team.Tier < model.Tier1 || team.Tier > model.Tier3 {
			t.Errorf("team %d has tier %d out of range", team.ID, team.Tier)
		}
	}
}

func TestGenerateGrid_SkillBounds(t *testing.T) {
	stats := &Stats{}
	_, drivers, _ := GenerateGrid(context.Background(), testConfig(), stats)

	for _, d := range drivers {
		for name, v := range map[string]float64{
			"pace":            d.Skills.Pace,
			"consistency":     d.Skills.Consistency,
			"racecraft":       d.Skills.Racecraft,
			"tire management": d.Skills.TireManagement,
		} {
			if v < 0 || v > 100 {
				t.Errorf("driver %d %s = %f out of [0,100]", d.ID, name, v)
			}
		}
		if d.Fatigue < 0 || d.Fatigue > 1 {
			t.Errorf("driver %d fatigue = %f out of [0,1]", d.ID, d.Fatigue)
		}
		if d.TeamID == 0 {
			t.Errorf("driver %d has no team", d.ID)
		}
	}
}

func TestGenerateGrid_Deterministic(t *testing.T) {
	a := &Stats{}
	b := &Stats{}
	teamsA, driversA, tracksA := GenerateGrid(context.Background(), testConfig(), a)
	teamsB, driversB, tracksB := GenerateGrid(context.Background(), testConfig(), b)

	for i := range teamsA {
		if teamsA[i].Name != teamsB[i].Name || teamsA[i].CarRating != teamsB[i].CarRating {
			t.Fatalf("team %d differs between identical seeds", teamsA[i].ID)
		}
	}
	for i := range driversA {
		if driversA[i].Name != driversB[i].Name || driversA[i].Skills != driversB[i].Skills {
			t.Fatalf("driver %d differs between identical seeds", driversA[i].ID)
		}
	}
	for i := range tracksA {
		if tracksA[i].Name != tracksB[i].Name || tracksA[i].Difficulty != tracksB[i].Difficulty {
			t.Fatalf("track %d differs between identical seeds", tracksA[i].ID)
		}
	}
}

func TestGenerateGrid_SeedChangesGrid(t *testing.T) {
	cfgA := testConfig()
	cfgB := testConfig()
	cfgB.Seed = 1234

	_, driversA, _ := GenerateGrid(context.Background(), cfgA, &Stats{})
	_, driversB, _ := GenerateGrid(context.Background(), cfgB, &Stats{})

	same := true
	for i := range driversA {
		if driversA[i].Skills != driversB[i].Skills {
			same = false
			break
		}
	}
	if same {
		t.Fatal("different seeds produced identical grids")
	}
}

func TestVerifyStandings(t *testing.T) {
	cfg := testConfig()

	good := []Entry{
		{Rank: 1, DriverID: 3, Points: 50, Wins: 2, Podiums: 2},
		{Rank: 2, DriverID: 1, Points: 36, Wins: 0, Podiums: 2},
		{Rank: 3, DriverID: 2, Points: 12},
	}
	if err := verifyStandings(cfg, good, &Stats{}); err != nil {
		t.Fatalf("valid standings rejected: %v", err)
	}

	unsorted := []Entry{
		{Rank: 1, DriverID: 1, Points: 10},
		{Rank: 2, DriverID: 2, Points: 20},
	}
	if err := verifyStandings(cfg, unsorted, &Stats{}); err == nil {
		t.Fatal("unsorted standings accepted")
	}

	impossible := []Entry{
		{Rank: 1, DriverID: 1, Points: 500, Wins: 99, Podiums: 99},
	}
	if err := verifyStandings(cfg, impossible, &Stats{}); err == nil {
		t.Fatal("impossible win count accepted")
	}

	if err := verifyStandings(cfg, nil, &Stats{}); err == nil {
		t.Fatal("empty standings accepted")
	}
}
