package gridgen

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/okian/momentum/internal/domain/model"
	"github.com/okian/momentum/pkg/logger"
)

// Skill archetype cases. Each driver is assigned one, so a generated
// grid spans the whole competitive spread.
const (
	caseElite = iota
	caseSolid
	caseErratic
	caseJourneyman
	caseRookie
	archetypeCount
)

// Skill ranges per archetype.
const (
	eliteMin    = 85.0
	eliteRange  = 13.0
	solidMin    = 70.0
	solidRange  = 15.0
	erraticMin  = 60.0
	erraticTop  = 95.0
	journeyMin  = 50.0
	journeyWide = 25.0
	rookieMin   = 35.0
	rookieRange = 25.0
)

var (
	teamNames = []string{
		"Apex", "Vortex", "Meridian", "Caldera", "Borealis", "Zenith",
		"Koto", "Halcyon", "Pinnacle", "Ardent", "Solstice", "Tempest",
	}
	firstNames = []string{
		"Luca", "Mika", "Ayrton", "Nico", "Jules", "Kimi", "Sergio",
		"Lando", "Oscar", "Felipe", "Romain", "Esteban", "Carlos", "Yuki",
	}
	lastNames = []string{
		"Marek", "Sato", "Lindqvist", "Ferreira", "Okoye", "Castell",
		"Virtanen", "Duval", "Hargreaves", "Moreau", "Kovacs", "Tanaka",
	}
	trackNames = []string{
		"Silverline", "Monza Nova", "Alpental", "Riverside", "Kyalami East",
		"Costa Brava", "Northloop", "Baywater", "Altiplano", "Grindel",
	}
	surfaces    = []model.Surface{model.SurfaceTarmac, model.SurfaceGravel, model.SurfaceMixed}
	disciplines = []model.Discipline{
		model.DisciplineOpenWheel, model.DisciplineRally,
		model.DisciplineEndurance, model.DisciplineStreet,
	}
)

// GenerateGrid builds a full deterministic grid from the config seed.
// The same seed always produces the same teams, drivers and tracks.
func GenerateGrid(ctx context.Context, config *Config, stats *Stats) ([]model.Team, []model.Driver, []model.Track) {
	logger.Get().Info(ctx, "generating grid",
		logger.Int("teams", config.Teams),
		logger.Int("driversPerTeam", config.DriversPerTeam),
		logger.Int("tracks", config.Tracks),
		logger.Int64("seed", config.Seed))

	rng := rand.New(rand.NewSource(config.Seed))

	teams := make([]model.Team, 0, config.Teams)
	drivers := make([]model.Driver, 0, config.Teams*config.DriversPerTeam)
	driverID := int64(1)

	for i := 0; i < config.Teams; i++ {
		team := model.Team{
			ID:        int64(i + 1),
			Name:      teamNames[i%len(teamNames)] + " Racing",
			Tier:      model.Tier(i*3/config.Teams + 1),
			Budget:    40 + rng.Float64()*160,
			CarRating: 55 + rng.Float64()*40,
			PitCrew:   50 + rng.Float64()*45,
		}

		for j := 0; j < config.DriversPerTeam; j++ {
			d := generateDriver(rng, driverID, team.ID)
			team.DriverIDs = append(team.DriverIDs, d.ID)
			drivers = append(drivers, d)
			driverID++
		}
		teams = append(teams, team)
	}

	tracks := make([]model.Track, 0, config.Tracks)
	for i := 0; i < config.Tracks; i++ {
		tracks = append(tracks, model.Track{
			ID:         int64(i + 1),
			Name:       trackNames[i%len(trackNames)],
			LengthKM:   3.2 + rng.Float64()*4.5,
			Corners:    10 + rng.Intn(12),
			Surface:    surfaces[rng.Intn(len(surfaces))],
			ElevationM: rng.Float64() * 120,
			Difficulty: 0.2 + rng.Float64()*0.7,
			Discipline: disciplines[rng.Intn(len(disciplines))],
		})
	}

	stats.TeamsCreated = len(teams)
	stats.DriversCreated = len(drivers)
	stats.TracksCreated = len(tracks)
	return teams, drivers, tracks
}

// generateDriver rolls one driver from an archetype.
func generateDriver(rng *rand.Rand, id, teamID int64) model.Driver {
	archetype := rng.Intn(archetypeCount)

	var skills model.SkillVector
	stage := model.StageRegular
	switch archetype {
	case caseElite:
		skills = rollSkills(rng, eliteMin, eliteRange)
		stage = model.StageVeteran
	case caseSolid:
		skills = rollSkills(rng, solidMin, solidRange)
	case caseErratic:
		// fast but fragile: pace near the top, consistency near the floor
		skills = rollSkills(rng, erraticMin, erraticTop-erraticMin)
		skills.Pace = erraticTop - rng.Float64()*5
		skills.Consistency = erraticMin - 15 + rng.Float64()*10
	case caseJourneyman:
		skills = rollSkills(rng, journeyMin, journeyWide)
	default:
		skills = rollSkills(rng, rookieMin, rookieRange)
		stage = model.StageRookie
	}

	return model.Driver{
		ID:      id,
		Name:    fmt.Sprintf("%s %s", firstNames[rng.Intn(len(firstNames))], lastNames[rng.Intn(len(lastNames))]),
		TeamID:  teamID,
		Skills:  skills,
		Fatigue: rng.Float64() * 0.2,
		Stage:   stage,
	}
}

func rollSkills(rng *rand.Rand, min, span float64) model.SkillVector {
	return model.SkillVector{
		Pace:           min + rng.Float64()*span,
		Consistency:    min + rng.Float64()*span,
		Racecraft:      min + rng.Float64()*span,
		TireManagement: min + rng.Float64()*span,
	}
}
