// Package strategy folds a strategy decision into a sampled trial set.
// Adjustments are pure functions of the decision, the team snapshot, and
// the input trials: no random state, so the same decision applied to the
// same trials always yields the same adjusted times.
package strategy

import (
	"github.com/okian/momentum/internal/domain/model"
)

// Pit cost model, seconds.
const (
	defaultBasePitLoss = 22.0
	// crewBonusMax is the per-stop saving a perfect pit crew earns.
	crewBonusMax = 2.0
	// Rejoining early means traffic; delaying means worn-tire laps.
	pitNowPenalty   = 1.5
	pitLaterPenalty = 0.5
	// noStopWearFrac is the fraction of the mean race time lost to
	// end-of-race degradation when skipping the stop entirely.
	noStopWearFrac = 0.004
)

// Risk posture model. Full risk lowers the mean by riskTimeGain seconds
// while stretching deviations from the mean by riskSpreadGain.
const (
	defaultRiskTimeGain   = 2.0
	defaultRiskSpreadGain = 0.6
)

// compoundDelta is the per-stop time swing of fitting the compound: softs
// switch on fast, hards cost warmup laps.
var compoundDelta = map[model.Compound]float64{
	model.CompoundSoft:   -0.5,
	model.CompoundMedium: 0,
	model.CompoundHard:   0.5,
}

// Resolver applies strategy decisions to trial sets. The zero value is
// not usable; use New.
type Resolver struct {
	basePitLoss float64
	riskGain    float64
	riskSpread  float64
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithBasePitLoss sets the base time lost per pit stop, in seconds.
func WithBasePitLoss(seconds float64) Option {
	return func(r *Resolver) {
		if seconds > 0 {
			r.basePitLoss = seconds
		}
	}
}

// WithRiskGain sets the mean time bought by a full-risk posture.
func WithRiskGain(seconds float64) Option {
	return func(r *Resolver) { r.riskGain = seconds }
}

// New returns a Resolver with the default cost model.
func New(opts ...Option) *Resolver {
	r := &Resolver{
		basePitLoss: defaultBasePitLoss,
		riskGain:    defaultRiskTimeGain,
		riskSpread:  defaultRiskSpreadGain,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Apply returns a new trial set with the decision's pit costs and risk
// posture folded in. The input slice is never mutated. A decision with no
// compounds, or one the resolver does not recognize, falls back to the
// conservative baseline.
func (r *Resolver) Apply(dec model.Decision, team model.Team, trials []float64) []float64 {
	dec = normalize(dec)

	m := meanOf(trials)
	loss := r.pitLoss(dec, team, m)
	risk := clamp01(dec.Risk)

	adjMean := m + loss - r.riskGain*risk
	stretch := 1 + r.riskSpread*risk

	out := make([]float64, len(trials))
	for i, t := range trials {
		// Shift by the pit loss, then stretch deviations around the
		// shifted mean and buy back time proportional to risk.
		shifted := t + loss
		out[i] = adjMean + (shifted-(m+loss))*stretch
	}
	return out
}

// pitLoss totals the time cost of the decision's pit sequence.
func (r *Resolver) pitLoss(dec model.Decision, team model.Team, mean float64) float64 {
	crewBonus := crewBonusMax * team.PitCrew / 100

	switch dec.Plan {
	case model.NoStop:
		return mean * noStopWearFrac
	case model.PitNow, model.PitLater:
		stops := len(dec.Compounds) - 1
		if stops < 1 {
			stops = 1
		}
		perStop := r.basePitLoss - crewBonus
		var total float64
		for i := 1; i <= stops; i++ {
			delta := 0.0
			if i < len(dec.Compounds) {
				delta = compoundDelta[dec.Compounds[i]]
			}
			total += perStop + delta
		}
		if dec.Plan == model.PitNow {
			total += pitNowPenalty * float64(stops)
		} else {
			total += pitLaterPenalty * float64(stops)
		}
		return total
	default:
		// The plan set is closed; anything else is a programming error
		// upstream and gets the baseline treatment.
		return r.pitLoss(model.BaselineDecision(dec.DriverID), team, mean)
	}
}

// normalize substitutes the baseline for structurally empty or
// out-of-set decisions so every driver always has a resolvable strategy.
func normalize(dec model.Decision) model.Decision {
	switch dec.Plan {
	case model.PitNow, model.PitLater:
		if len(dec.Compounds) == 0 {
			return model.BaselineDecision(dec.DriverID)
		}
	case model.NoStop:
		// A no-stop run needs exactly one compound; anything else is
		// treated as an unset decision.
		if len(dec.Compounds) > 1 {
			return model.BaselineDecision(dec.DriverID)
		}
	default:
		return model.BaselineDecision(dec.DriverID)
	}
	return dec
}

func meanOf(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var m float64
	for _, x := range xs {
		m += x
	}
	return m / float64(len(xs))
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
