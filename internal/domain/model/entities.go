// Package model contains domain models passed between layers.
package model

// Discipline identifies a racing series category.
type Discipline string

// Supported disciplines.
const (
	DisciplineOpenWheel Discipline = "openwheel"
	DisciplineRally     Discipline = "rally"
	DisciplineEndurance Discipline = "endurance"
	DisciplineStreet    Discipline = "street"
)

// Surface identifies the dominant track surface.
type Surface string

// Supported surfaces.
const (
	SurfaceTarmac Surface = "tarmac"
	SurfaceGravel Surface = "gravel"
	SurfaceMixed  Surface = "mixed"
)

// Tier is the ordinal team tier; 1 is the top tier.
type Tier int

// Team tiers.
const (
	Tier1 Tier = 1
	Tier2 Tier = 2
	Tier3 Tier = 3
)

// CareerStage describes where a driver is in their career arc.
type CareerStage string

// Career stages.
const (
	StageRookie  CareerStage = "rookie"
	StageRegular CareerStage = "regular"
	StageVeteran CareerStage = "veteran"
)

// SkillVector holds the driver skill components, each bounded [0,100].
type SkillVector struct {
	Pace           float64 `json:"pace"`
	Consistency    float64 `json:"consistency"`
	Racecraft      float64 `json:"racecraft"`
	TireManagement float64 `json:"tire_management"`
}

// Driver is a read snapshot of a driver entity. The persistence layer owns
// the long-lived record; the engine borrows snapshots and returns deltas.
type Driver struct {
	ID     int64       `json:"id"`
	Name   string      `json:"name"`
	TeamID int64       `json:"team_id"`
	Skills SkillVector `json:"skills"`
	// Fatigue is in [0,1]; non-decreasing within a race, decays between races.
	Fatigue       float64     `json:"fatigue"`
	Stage         CareerStage `json:"stage"`
	CareerWins    int         `json:"career_wins"`
	CareerPodiums int         `json:"career_podiums"`
	CareerPoints  int         `json:"career_points"`
}

// Team is a read snapshot of a team entity. The roster holds driver ids
// only; driver lifecycle is independent of the team.
type Team struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	// Budget is a signed amount in millions.
	Budget    float64 `json:"budget"`
	Tier      Tier    `json:"tier"`
	CarRating float64 `json:"car_rating"` // [0,100]
	PitCrew   float64 `json:"pit_crew"`   // [0,100]
	DriverIDs []int64 `json:"driver_ids"`
}

// Track is a read snapshot of a track entity.
type Track struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	LengthKM   float64    `json:"length_km"`
	Corners    int        `json:"corners"`
	Surface    Surface    `json:"surface"`
	ElevationM float64    `json:"elevation_m"`
	Difficulty float64    `json:"difficulty"` // [0,1]
	Discipline Discipline `json:"discipline"`
}

// Weather is the per-race environmental modifier, sampled once per race
// and applied uniformly to all entrants.
type Weather struct {
	Grip       float64 `json:"grip"`       // (0,1]; 1 is full dry grip
	Visibility float64 `json:"visibility"` // (0,1]; 1 is clear
}

// Dry returns a neutral weather condition.
func Dry() Weather {
	return Weather{Grip: 1.0, Visibility: 1.0}
}

// DriverDelta is the bounded update the progression stage computes for a
// driver after a race. Skill fields are signed nudges, already clamped so
// the post-update value stays within [0,100].
type DriverDelta struct {
	DriverID int64       `json:"driver_id"`
	Skill    SkillVector `json:"skill"`
	Fatigue  float64     `json:"fatigue"`
	Points   int         `json:"points"`
	Win      bool        `json:"win"`
	Podium   bool        `json:"podium"`
}

// TeamDelta is the bounded financial update for a team after a race.
type TeamDelta struct {
	TeamID int64   `json:"team_id"`
	Budget float64 `json:"budget"`
}
