// Package progression turns a classified race result into bounded career
// deltas, applied exactly once per race id. The engine never mutates
// driver or team snapshots directly; it emits deltas the persistence
// layer applies.
package progression

import (
	"context"
	"fmt"

	"github.com/okian/momentum/internal/domain/model"
)

// Skill nudge model. Each position gained or lost against pre-race
// expectation moves the skills by nudgePerPlace, capped per race.
const (
	nudgePerPlace   = 0.05
	defaultMaxNudge = 0.3
	// Incident races dent consistency instead of nudging it.
	incidentConsistencyHit = -0.2
)

// Fatigue accrual per race: a base cost plus a difficulty-scaled term.
const (
	defaultFatigueBase  = 0.05
	defaultFatigueScale = 0.15
)

// Finances, in millions. Prize money tracks points scored scaled by
// tier; running a race costs a tier-dependent amount.
const prizePerPoint = 0.2

var tierPrizeScale = map[model.Tier]float64{
	model.Tier1: 1.0,
	model.Tier2: 0.6,
	model.Tier3: 0.35,
}

var tierRaceCost = map[model.Tier]float64{
	model.Tier1: 3.0,
	model.Tier2: 1.5,
	model.Tier3: 0.8,
}

// budgetBound caps the absolute team budget in millions after a delta.
const budgetBound = 1_000_000

// Deltas is the full progression output for one race.
type Deltas struct {
	RaceID  string             `json:"race_id"`
	Drivers []model.DriverDelta `json:"drivers"`
	Teams   []model.TeamDelta   `json:"teams"`
}

// Updater computes progression deltas. The zero value is not usable;
// use New.
type Updater struct {
	guard        Guard
	maxNudge     float64
	fatigueBase  float64
	fatigueScale float64
}

// Option configures an Updater.
type Option func(*Updater)

// WithGuard replaces the applied-results guard.
func WithGuard(g Guard) Option {
	return func(u *Updater) {
		if g != nil {
			u.guard = g
		}
	}
}

// WithMaxNudge caps the per-race skill movement.
func WithMaxNudge(n float64) Option {
	return func(u *Updater) {
		if n >= 0 {
			u.maxNudge = n
		}
	}
}

// WithFatigueAccrual sets the base and difficulty-scaled fatigue cost of
// running a race.
func WithFatigueAccrual(base, scale float64) Option {
	return func(u *Updater) {
		u.fatigueBase = base
		u.fatigueScale = scale
	}
}

// New returns an Updater with a fresh bounded guard.
func New(opts ...Option) *Updater {
	u := &Updater{
		guard:        NewMemoryGuard(),
		maxNudge:     defaultMaxNudge,
		fatigueBase:  defaultFatigueBase,
		fatigueScale: defaultFatigueScale,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Apply computes deltas for every classified driver and their teams. The
// expected map gives each driver's pre-race expected position; skills
// nudge toward actual performance relative to it. A second call for the
// same race id fails with ErrDuplicateApplication and produces nothing.
func (u *Updater) Apply(
	ctx context.Context,
	res model.RaceResult,
	drivers map[int64]model.Driver,
	teams map[int64]model.Team,
	track model.Track,
	expected map[int64]int,
) (Deltas, error) {
	if u.guard.MarkApplied(ctx, res.RaceID) {
		return Deltas{}, fmt.Errorf("%w: race %s", ErrDuplicateApplication, res.RaceID)
	}

	fatigue := u.fatigueBase + u.fatigueScale*track.Difficulty
	out := Deltas{RaceID: res.RaceID}
	teamPoints := make(map[int64]int)

	for _, st := range res.Standings {
		d, ok := drivers[st.DriverID]
		if !ok {
			continue
		}

		exp, ok := expected[st.DriverID]
		if !ok {
			exp = st.Position
		}
		nudge := clampAbs(float64(exp-st.Position)*nudgePerPlace, u.maxNudge)

		skill := model.SkillVector{
			Pace:           clampDelta(d.Skills.Pace, nudge, 0, 100),
			Racecraft:      clampDelta(d.Skills.Racecraft, nudge*0.6, 0, 100),
			TireManagement: clampDelta(d.Skills.TireManagement, nudge*0.2, 0, 100),
		}
		if st.Incident {
			skill.Consistency = clampDelta(d.Skills.Consistency, incidentConsistencyHit, 0, 100)
		} else {
			skill.Consistency = clampDelta(d.Skills.Consistency, nudge*0.4, 0, 100)
		}

		out.Drivers = append(out.Drivers, model.DriverDelta{
			DriverID: st.DriverID,
			Skill:    skill,
			Fatigue:  clampDelta(d.Fatigue, fatigue, 0, 1),
			Points:   st.Points,
			Win:      st.Position == 1,
			Podium:   st.Position <= 3,
		})
		teamPoints[d.TeamID] += st.Points
	}

	for teamID, pts := range teamPoints {
		t, ok := teams[teamID]
		if !ok {
			continue
		}
		prize := float64(pts) * prizePerPoint * tierPrizeScale[t.Tier]
		delta := prize - tierRaceCost[t.Tier]
		out.Teams = append(out.Teams, model.TeamDelta{
			TeamID: teamID,
			Budget: clampDelta(t.Budget, delta, -budgetBound, budgetBound),
		})
	}

	return out, nil
}

// Unmark releases the guard mark for a race whose deltas could not be
// persisted, so a later retry is not rejected as a duplicate.
func (u *Updater) Unmark(ctx context.Context, raceID string) {
	u.guard.Forget(ctx, raceID)
}

// AppliedCount reports how many race ids the guard currently holds.
func (u *Updater) AppliedCount() int64 {
	return u.guard.Size()
}

// ApplyToDriver returns the driver with the delta folded in. Attributes
// are clamped again at application so a snapshot that drifted since the
// delta was computed still lands inside its bounds.
func ApplyToDriver(d model.Driver, delta model.DriverDelta) model.Driver {
	d.Skills.Pace = clampVal(d.Skills.Pace+delta.Skill.Pace, 0, 100)
	d.Skills.Consistency = clampVal(d.Skills.Consistency+delta.Skill.Consistency, 0, 100)
	d.Skills.Racecraft = clampVal(d.Skills.Racecraft+delta.Skill.Racecraft, 0, 100)
	d.Skills.TireManagement = clampVal(d.Skills.TireManagement+delta.Skill.TireManagement, 0, 100)
	d.Fatigue = clampVal(d.Fatigue+delta.Fatigue, 0, 1)
	d.CareerPoints += delta.Points
	if delta.Win {
		d.CareerWins++
	}
	if delta.Podium {
		d.CareerPodiums++
	}
	return d
}

// ApplyToTeam returns the team with the budget delta folded in.
func ApplyToTeam(t model.Team, delta model.TeamDelta) model.Team {
	t.Budget = clampVal(t.Budget+delta.Budget, -budgetBound, budgetBound)
	return t
}

// clampDelta shrinks delta so value+delta stays within [lo, hi].
func clampDelta(value, delta, lo, hi float64) float64 {
	next := value + delta
	if next > hi {
		return hi - value
	}
	if next < lo {
		return lo - value
	}
	return delta
}

func clampAbs(x, bound float64) float64 {
	if x > bound {
		return bound
	}
	if x < -bound {
		return -bound
	}
	return x
}

func clampVal(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
