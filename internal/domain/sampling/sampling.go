// Package sampling draws Monte Carlo race-time distributions for a field
// of entrants. Every draw flows from a single race seed through per-driver
// substreams, so a race replayed with the same seed and inputs reproduces
// every trial bit for bit, independent of scheduling.
package sampling

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/okian/momentum/internal/domain/model"
)

// Defaults.
const (
	// DefaultTrials is the trial count used when none is configured.
	DefaultTrials = 1000
	// defaultBaseTime is the nominal race duration in seconds for a
	// factor-1.0 entrant on a neutral track in dry weather.
	defaultBaseTime = 5400.0
)

// Spread and tail shape constants.
const (
	// baseSigmaFrac is the relative spread for a perfectly consistent
	// driver; inconsistency can widen it up to fourfold.
	baseSigmaFrac   = 0.01
	sigmaInconsist  = 3.0
	incidentBaseP   = 0.002
	incidentScaleP  = 0.04
	incidentMinLoss = 3.0 // sigmas added on an incident trial
	incidentMaxLoss = 6.0
	// floorFrac caps how far below the mean a freak trial may land.
	floorFrac = 0.5
	// minMeanGap floors the (2 - factor) term so an entrant at the top
	// of the factor range still races a positive time distribution.
	minMeanGap = 0.05
)

// Entrant pairs a driver with the precomputed performance factor for this
// race. Consistency is carried separately because it shapes the spread.
type Entrant struct {
	DriverID    int64
	Factor      float64 // (0,2]
	Consistency float64 // [0,100]
}

// TrialSet holds the sampled race times for one driver, in draw order.
type TrialSet struct {
	DriverID int64
	Times    []float64
}

// Sampler draws trial sets. The zero value is not usable; use New.
type Sampler struct {
	trials   int
	baseTime float64
}

// Option configures a Sampler.
type Option func(*Sampler)

// WithTrials sets the number of trials per entrant.
func WithTrials(n int) Option {
	return func(s *Sampler) { s.trials = n }
}

// WithBaseTime sets the nominal race duration in seconds.
func WithBaseTime(seconds float64) Option {
	return func(s *Sampler) {
		if seconds > 0 {
			s.baseTime = seconds
		}
	}
}

// New returns a Sampler with the default trial count and base time.
func New(opts ...Option) *Sampler {
	s := &Sampler{trials: DefaultTrials, baseTime: defaultBaseTime}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Trials returns the configured trial count.
func (s *Sampler) Trials() int { return s.trials }

// Sample draws a trial set per entrant using the configured trial count.
func (s *Sampler) Sample(entrants []Entrant, w model.Weather, tr model.Track, seed int64) ([]TrialSet, error) {
	return s.SampleN(entrants, w, tr, seed, s.trials)
}

// SampleN draws a trial set per entrant with an explicit per-race trial
// count. Output order matches input order. Weather bounds are validated
// here because weather is sampled per race, not per entity.
func (s *Sampler) SampleN(entrants []Entrant, w model.Weather, tr model.Track, seed int64, trials int) ([]TrialSet, error) {
	if trials < 1 {
		return nil, fmt.Errorf("%w: %d trials requested, need at least 1", ErrSampleSize, trials)
	}
	if w.Grip <= 0 || w.Grip > 1 {
		return nil, fmt.Errorf("%w: grip %.2f out of range (0,1]", model.ErrInvalidAttribute, w.Grip)
	}
	if w.Visibility <= 0 || w.Visibility > 1 {
		return nil, fmt.Errorf("%w: visibility %.2f out of range (0,1]", model.ErrInvalidAttribute, w.Visibility)
	}

	out := make([]TrialSet, 0, len(entrants))
	for _, e := range entrants {
		if e.Factor <= 0 || e.Factor > 2 {
			return nil, fmt.Errorf("%w: factor %.2f out of range (0,2]", model.ErrInvalidAttribute, e.Factor)
		}
		out = append(out, TrialSet{
			DriverID: e.DriverID,
			Times:    s.draw(e, w, tr, seed, trials),
		})
	}
	return out, nil
}

// draw samples one driver's trials from their own substream. The stream
// position never depends on other entrants or on goroutine interleaving.
func (s *Sampler) draw(e Entrant, w model.Weather, tr model.Track, seed int64, trials int) []float64 {
	rng := rand.New(rand.NewSource(subSeed(seed, e.DriverID)))

	gap := 2 - e.Factor
	if gap < minMeanGap {
		gap = minMeanGap
	}
	mean := s.baseTime * gap * (1 + tr.Difficulty*0.3) * (2 - w.Grip)
	sigma := mean * baseSigmaFrac * (1 + sigmaInconsist*(1-e.Consistency/100)) * (2 - w.Visibility)
	incidentP := incidentBaseP + incidentScaleP*math.Pow(1-e.Consistency/100, 2)
	floor := mean * floorFrac

	times := make([]float64, trials)
	for i := range times {
		// Fixed draw order per trial keeps substreams aligned whether
		// or not the incident branch fires.
		u := rng.Float64()
		z := rng.NormFloat64()
		tail := rng.Float64()

		t := mean + z*sigma
		if u < incidentP {
			t += (incidentMinLoss + (incidentMaxLoss-incidentMinLoss)*tail) * sigma
		}
		if t < floor {
			t = floor
		}
		times[i] = t
	}
	return times
}

// subSeed derives a per-driver stream seed from the race seed with a
// splitmix64 finalizer, so adjacent driver ids land in unrelated streams.
func subSeed(seed, driverID int64) int64 {
	x := uint64(seed) + uint64(driverID)*0x9E3779B97F4A7C15
	x ^= x >> 30
	x *= 0xBF58476D1CE4E5B9
	x ^= x >> 27
	x *= 0x94D049BB133111EB
	x ^= x >> 31
	return int64(x)
}
