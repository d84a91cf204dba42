// Package aggregate collapses trial sets into an immutable classified
// race result: representative times, gaps, fastest lap, incident flags,
// and championship points.
package aggregate

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/okian/momentum/internal/domain/model"
	"github.com/okian/momentum/internal/domain/sampling"
)

// defaultTrimFrac is the fraction trimmed from each end of the sorted
// trials before taking the representative mean, so a single freak trial
// cannot move the classification.
const defaultTrimFrac = 0.05

// incidentSigmas flags a driver as having had an incident when their
// worst trial sits this many standard deviations above the
// representative time.
const incidentSigmas = 5.0

// defaultPoints is the points-by-position table; positions beyond it
// score nothing.
var defaultPoints = []int{25, 18, 15, 12, 10, 8, 6, 4, 2, 1}

// fastestLapBonus is awarded to the holder of the single quickest trial,
// provided they finish in the points.
const fastestLapBonus = 1

// Aggregator builds race results. The zero value is not usable; use New.
type Aggregator struct {
	trimFrac float64
	points   []int
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithTrimFraction sets the fraction trimmed from each end of the sorted
// trials, in [0, 0.4].
func WithTrimFraction(f float64) Option {
	return func(a *Aggregator) {
		if f >= 0 && f <= 0.4 {
			a.trimFrac = f
		}
	}
}

// WithPointsTable replaces the points-by-position table.
func WithPointsTable(points []int) Option {
	return func(a *Aggregator) {
		if len(points) > 0 {
			a.points = append([]int(nil), points...)
		}
	}
}

// New returns an Aggregator with the default trim and points table.
func New(opts ...Option) *Aggregator {
	a := &Aggregator{trimFrac: defaultTrimFrac, points: defaultPoints}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

type summary struct {
	driverID int64
	rep      float64
	variance float64
	best     float64
	worst    float64
}

// Aggregate classifies the field. Ranking is by representative time, with
// exact ties broken by lower variance and then lower driver id, so the
// classification is a pure function of the trials. Input trial sets are
// never mutated.
func (a *Aggregator) Aggregate(raceID string, tr model.Track, seed int64, sets []sampling.TrialSet) (model.RaceResult, error) {
	if len(sets) == 0 {
		return model.RaceResult{}, fmt.Errorf("race %s: no trial sets to aggregate", raceID)
	}

	sums := make([]summary, 0, len(sets))
	for _, set := range sets {
		if len(set.Times) == 0 {
			return model.RaceResult{}, fmt.Errorf("race %s: empty trial set for driver %d", raceID, set.DriverID)
		}
		sums = append(sums, a.summarize(set))
	}

	sort.Slice(sums, func(i, j int) bool {
		if sums[i].rep != sums[j].rep {
			return sums[i].rep < sums[j].rep
		}
		if sums[i].variance != sums[j].variance {
			return sums[i].variance < sums[j].variance
		}
		return sums[i].driverID < sums[j].driverID
	})

	fastest := fastestOf(sums)
	leader := sums[0].rep

	standings := make([]model.Standing, len(sums))
	for i, s := range sums {
		pos := i + 1
		pts := 0
		if pos <= len(a.points) {
			pts = a.points[pos-1]
		}
		isFastest := s.driverID == fastest
		if isFastest && pts > 0 {
			pts += fastestLapBonus
		}
		standings[i] = model.Standing{
			Position: pos,
			DriverID: s.driverID,
			Time:     s.rep,
			Gap:      s.rep - leader,
			Variance: s.variance,
			Fastest:  isFastest,
			Incident: s.worst-s.rep > incidentSigmas*math.Sqrt(s.variance),
			Points:   pts,
		}
	}

	return model.RaceResult{
		RaceID:    raceID,
		TrackID:   tr.ID,
		Seed:      seed,
		Trials:    len(sets[0].Times),
		Standings: standings,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// summarize computes the trimmed representative time and full-set
// variance for one driver without touching the input order.
func (a *Aggregator) summarize(set sampling.TrialSet) summary {
	sorted := append([]float64(nil), set.Times...)
	sort.Float64s(sorted)

	n := len(sorted)
	cut := int(float64(n) * a.trimFrac)
	if 2*cut >= n {
		cut = 0
	}
	window := sorted[cut : n-cut]

	var rep float64
	for _, x := range window {
		rep += x
	}
	rep /= float64(len(window))

	var v float64
	for _, x := range sorted {
		d := x - rep
		v += d * d
	}
	v /= float64(n)

	return summary{
		driverID: set.DriverID,
		rep:      rep,
		variance: v,
		best:     sorted[0],
		worst:    sorted[n-1],
	}
}

// fastestOf returns the driver holding the single quickest trial; an
// exact tie goes to the lower driver id.
func fastestOf(sums []summary) int64 {
	best := math.Inf(1)
	var id int64
	for _, s := range sums {
		if s.best < best || (s.best == best && s.driverID < id) {
			best = s.best
			id = s.driverID
		}
	}
	return id
}
