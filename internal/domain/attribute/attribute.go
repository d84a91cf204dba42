// Package attribute folds driver, team, and track snapshots into a single
// scalar performance factor. The factor is in (0,2], with the league
// average near 1.0, and is a pure function of its inputs.
package attribute

import (
	"fmt"

	"github.com/okian/momentum/internal/domain/model"
)

// Factor bounds. A computed factor is clamped into (minFactor, maxFactor].
const (
	minFactor = 0.05
	maxFactor = 2.0
)

// Term weights for the final blend.
const (
	driverWeight   = 0.5
	teamWeight     = 0.3
	affinityWeight = 0.2
)

// fatiguePenalty is the fraction of the driver term lost at full fatigue.
const fatiguePenalty = 0.2

// Tier budget curves: base performance plus up to budgetSpan earned by
// spending toward the tier cap (millions). Overspend past the cap buys
// nothing.
const budgetSpan = 0.2

var tierBase = map[model.Tier]float64{
	model.Tier1: 0.8,
	model.Tier2: 0.6,
	model.Tier3: 0.4,
}

var tierBudgetCap = map[model.Tier]float64{
	model.Tier1: 400,
	model.Tier2: 150,
	model.Tier3: 80,
}

// SkillWeights weights the skill components of the driver term. Weights
// are relative; the term is normalized by their sum.
type SkillWeights struct {
	Pace           float64
	Consistency    float64
	Racecraft      float64
	TireManagement float64
}

func (w SkillWeights) sum() float64 {
	return w.Pace + w.Consistency + w.Racecraft + w.TireManagement
}

// DefaultWeights returns the per-discipline skill weightings.
func DefaultWeights() map[model.Discipline]SkillWeights {
	return map[model.Discipline]SkillWeights{
		model.DisciplineOpenWheel: {Pace: 0.40, Consistency: 0.25, Racecraft: 0.20, TireManagement: 0.15},
		model.DisciplineRally:     {Pace: 0.30, Consistency: 0.30, Racecraft: 0.15, TireManagement: 0.25},
		model.DisciplineEndurance: {Pace: 0.20, Consistency: 0.35, Racecraft: 0.15, TireManagement: 0.30},
		model.DisciplineStreet:    {Pace: 0.30, Consistency: 0.25, Racecraft: 0.35, TireManagement: 0.10},
	}
}

// Model computes performance factors. The zero value is not usable; use
// New.
type Model struct {
	weights map[model.Discipline]SkillWeights
}

// Option configures a Model.
type Option func(*Model)

// WithWeights replaces the per-discipline skill weightings. Disciplines
// absent from the map fall back to the defaults.
func WithWeights(w map[model.Discipline]SkillWeights) Option {
	return func(m *Model) {
		for d, sw := range w {
			if sw.sum() > 0 {
				m.weights[d] = sw
			}
		}
	}
}

// WithWeightsFromConfig installs weightings given as nested string maps,
// as loaded from the configuration file. Unknown disciplines or skill
// names are ignored.
func WithWeightsFromConfig(cfg map[string]map[string]float64) Option {
	return func(m *Model) {
		for name, skills := range cfg {
			sw := m.weights[model.Discipline(name)]
			for skill, v := range skills {
				switch skill {
				case "pace":
					sw.Pace = v
				case "consistency":
					sw.Consistency = v
				case "racecraft":
					sw.Racecraft = v
				case "tire_management":
					sw.TireManagement = v
				}
			}
			if sw.sum() > 0 {
				m.weights[model.Discipline(name)] = sw
			}
		}
	}
}

// New returns a Model with the default per-discipline weightings.
func New(opts ...Option) *Model {
	m := &Model{weights: DefaultWeights()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Factor computes the driver's scalar performance factor for the given
// team and track. It validates every bounded attribute it reads and
// returns a wrapped model.ErrInvalidAttribute on the first violation.
func (m *Model) Factor(d model.Driver, t model.Team, tr model.Track) (float64, error) {
	if err := validate(d, t, tr); err != nil {
		return 0, err
	}

	w, ok := m.weights[tr.Discipline]
	if !ok || w.sum() <= 0 {
		w = DefaultWeights()[model.DisciplineOpenWheel]
	}

	driver := driverTerm(d.Skills, w) * (1 - fatiguePenalty*d.Fatigue)
	team := teamTerm(t)
	aff := affinityTerm(d.Skills, tr)

	f := maxFactor * (driverWeight*driver + teamWeight*team + affinityWeight*aff)
	if f <= 0 {
		f = minFactor
	}
	if f > maxFactor {
		f = maxFactor
	}
	return f, nil
}

// driverTerm is the weighted skill blend normalized into (0,1].
func driverTerm(s model.SkillVector, w SkillWeights) float64 {
	num := w.Pace*s.Pace + w.Consistency*s.Consistency +
		w.Racecraft*s.Racecraft + w.TireManagement*s.TireManagement
	return num / (w.sum() * 100)
}

// teamTerm combines the tier base with budget spend toward the tier cap
// and the car rating. Negative budgets earn nothing but never reduce the
// tier base.
func teamTerm(t model.Team) float64 {
	ratio := t.Budget / tierBudgetCap[t.Tier]
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}
	base := tierBase[t.Tier] + ratio*budgetSpan
	// Car rating modulates the funded base: a 50-rated car is neutral.
	base *= 0.9 + 0.2*(t.CarRating/100)
	if base > 1 {
		base = 1
	}
	return base
}

// affinityTerm measures how well the skill profile suits the surface,
// discounted by track difficulty for drivers weak on tire management.
func affinityTerm(s model.SkillVector, tr model.Track) float64 {
	var raw float64
	switch tr.Surface {
	case model.SurfaceGravel:
		raw = 0.5*s.TireManagement + 0.3*s.Pace + 0.2*s.Racecraft
	case model.SurfaceMixed:
		raw = 0.4*s.TireManagement + 0.3*s.Pace + 0.3*s.Racecraft
	default: // tarmac
		raw = 0.5*s.Pace + 0.3*s.Racecraft + 0.2*s.Consistency
	}
	aff := raw / 100
	aff *= 1 - tr.Difficulty*(1-s.TireManagement/100)*0.2
	return aff
}

func validate(d model.Driver, t model.Team, tr model.Track) error {
	checks := []struct {
		name     string
		val      float64
		min, max float64
	}{
		{"pace", d.Skills.Pace, 0, 100},
		{"consistency", d.Skills.Consistency, 0, 100},
		{"racecraft", d.Skills.Racecraft, 0, 100},
		{"tire_management", d.Skills.TireManagement, 0, 100},
		{"fatigue", d.Fatigue, 0, 1},
		{"car_rating", t.CarRating, 0, 100},
		{"pit_crew", t.PitCrew, 0, 100},
		{"difficulty", tr.Difficulty, 0, 1},
	}
	for _, c := range checks {
		if c.val < c.min || c.val > c.max {
			return fmt.Errorf("%w: %s %.2f out of range [%g,%g]",
				model.ErrInvalidAttribute, c.name, c.val, c.min, c.max)
		}
	}
	if t.Tier < model.Tier1 || t.Tier > model.Tier3 {
		return fmt.Errorf("%w: tier %d out of range [1,3]", model.ErrInvalidAttribute, t.Tier)
	}
	return nil
}
