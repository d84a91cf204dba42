package model

// PitPlan is the closed set of pit timing variants a strategist may pick.
type PitPlan int

// Pit timing variants.
const (
	PitNow PitPlan = iota
	PitLater
	NoStop
)

// String returns the plan name for logs and API payloads.
func (p PitPlan) String() string {
	switch p {
	case PitNow:
		return "pit-now"
	case PitLater:
		return "pit-later"
	case NoStop:
		return "no-stop"
	default:
		return "unknown"
	}
}

// Compound is a tire compound choice.
type Compound int

// Tire compounds.
const (
	CompoundSoft Compound = iota
	CompoundMedium
	CompoundHard
)

// String returns the compound name for logs and API payloads.
func (c Compound) String() string {
	switch c {
	case CompoundSoft:
		return "soft"
	case CompoundMedium:
		return "medium"
	case CompoundHard:
		return "hard"
	default:
		return "unknown"
	}
}

// Decision is a complete strategy decision for one driver in one race.
// Compounds lists the stint compounds in order; a plan with n compounds
// implies n-1 stops. Risk in [0,1] trades mean pace for spread.
type Decision struct {
	DriverID  int64      `json:"driver_id"`
	Plan      PitPlan    `json:"plan"`
	Compounds []Compound `json:"compounds"`
	Risk      float64    `json:"risk"`
}

// BaselineDecision is the conservative fallback used when no decision was
// supplied for a driver: a standard one-stop on mediums with no risk.
func BaselineDecision(driverID int64) Decision {
	return Decision{
		DriverID:  driverID,
		Plan:      PitLater,
		Compounds: []Compound{CompoundMedium, CompoundMedium},
		Risk:      0,
	}
}
