package strategy

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/momentum/internal/domain/model"
)

func testTeam(pitCrew float64) model.Team {
	return model.Team{ID: 1, Tier: model.Tier2, PitCrew: pitCrew}
}

func testTrials() []float64 {
	return []float64{5400, 5410, 5395, 5420, 5405}
}

func variance(xs []float64) float64 {
	var m float64
	for _, x := range xs {
		m += x
	}
	m /= float64(len(xs))
	var v float64
	for _, x := range xs {
		d := x - m
		v += d * d
	}
	return v / float64(len(xs))
}

func mean(xs []float64) float64 {
	var m float64
	for _, x := range xs {
		m += x
	}
	return m / float64(len(xs))
}

func TestApplyIsPure(t *testing.T) {
	Convey("Given a resolver and a decision", t, func() {
		r := New()
		dec := model.Decision{
			DriverID:  1,
			Plan:      model.PitNow,
			Compounds: []model.Compound{model.CompoundSoft, model.CompoundMedium},
			Risk:      0.5,
		}

		Convey("When applying the same decision to the same trials twice", func() {
			in := testTrials()
			a := r.Apply(dec, testTeam(60), in)
			b := r.Apply(dec, testTeam(60), in)

			Convey("Then both runs yield identical adjusted times", func() {
				So(b, ShouldResemble, a)
			})

			Convey("Then the input trials are untouched", func() {
				So(in, ShouldResemble, testTrials())
			})
		})
	})
}

func TestPitCosts(t *testing.T) {
	Convey("Given stop plans of different shapes", t, func() {
		r := New()
		in := testTrials()

		oneStop := model.Decision{
			DriverID: 1, Plan: model.PitLater,
			Compounds: []model.Compound{model.CompoundMedium, model.CompoundMedium},
		}
		twoStop := model.Decision{
			DriverID: 1, Plan: model.PitLater,
			Compounds: []model.Compound{model.CompoundMedium, model.CompoundMedium, model.CompoundMedium},
		}
		noStop := model.Decision{
			DriverID: 1, Plan: model.NoStop,
			Compounds: []model.Compound{model.CompoundHard},
		}

		Convey("Then a second stop costs more than one", func() {
			one := mean(r.Apply(oneStop, testTeam(50), in))
			two := mean(r.Apply(twoStop, testTeam(50), in))
			So(two, ShouldBeGreaterThan, one)
		})

		Convey("Then skipping the stop trades pit loss for wear", func() {
			none := mean(r.Apply(noStop, testTeam(50), in))
			one := mean(r.Apply(oneStop, testTeam(50), in))
			So(none, ShouldBeLessThan, one)
			So(none, ShouldBeGreaterThan, mean(in))
		})

		Convey("Then a sharper pit crew shrinks the loss", func() {
			slow := mean(r.Apply(oneStop, testTeam(10), in))
			fast := mean(r.Apply(oneStop, testTeam(95), in))
			So(fast, ShouldBeLessThan, slow)
		})

		Convey("Then an early stop costs more traffic than a late one", func() {
			now := oneStop
			now.Plan = model.PitNow
			So(mean(r.Apply(now, testTeam(50), in)), ShouldBeGreaterThan,
				mean(r.Apply(oneStop, testTeam(50), in)))
		})
	})
}

func TestRiskPosture(t *testing.T) {
	Convey("Given the same plan at different risk levels", t, func() {
		r := New()
		in := testTrials()
		safe := model.Decision{
			DriverID: 1, Plan: model.PitLater,
			Compounds: []model.Compound{model.CompoundMedium, model.CompoundMedium},
			Risk:      0,
		}
		bold := safe
		bold.Risk = 1

		safeOut := r.Apply(safe, testTeam(50), in)
		boldOut := r.Apply(bold, testTeam(50), in)

		Convey("Then risk lowers the mean", func() {
			So(mean(boldOut), ShouldBeLessThan, mean(safeOut))
		})

		Convey("Then risk widens the spread", func() {
			So(variance(boldOut), ShouldBeGreaterThan, variance(safeOut))
		})

		Convey("Then risk outside [0,1] is clamped", func() {
			wild := safe
			wild.Risk = 4
			So(r.Apply(wild, testTeam(50), in), ShouldResemble, boldOut)
		})
	})
}

func TestBaselineFallback(t *testing.T) {
	Convey("Given structurally incomplete decisions", t, func() {
		r := New()
		in := testTrials()
		baseline := r.Apply(model.BaselineDecision(1), testTeam(50), in)

		Convey("When the decision is the zero value", func() {
			out := r.Apply(model.Decision{DriverID: 1, Compounds: nil}, testTeam(50), in)

			Convey("Then the baseline strategy is applied", func() {
				So(out, ShouldResemble, baseline)
			})
		})

		Convey("When a no-stop plan lists multiple compounds", func() {
			bad := model.Decision{
				DriverID: 1, Plan: model.NoStop,
				Compounds: []model.Compound{model.CompoundSoft, model.CompoundHard},
			}
			So(r.Apply(bad, testTeam(50), in), ShouldResemble, baseline)
		})

		Convey("When the plan is outside the closed set", func() {
			bad := model.Decision{
				DriverID: 1, Plan: model.PitPlan(42),
				Compounds: []model.Compound{model.CompoundMedium},
			}
			So(r.Apply(bad, testTeam(50), in), ShouldResemble, baseline)
		})
	})
}
