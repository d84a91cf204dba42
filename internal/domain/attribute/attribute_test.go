package attribute

import (
	"errors"
	"fmt"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/momentum/internal/domain/model"
)

func testDriver(skill float64) model.Driver {
	return model.Driver{
		ID: 1,
		Skills: model.SkillVector{
			Pace:           skill,
			Consistency:    skill,
			Racecraft:      skill,
			TireManagement: skill,
		},
	}
}

func testTeam(tier model.Tier, budget float64) model.Team {
	return model.Team{ID: 1, Tier: tier, Budget: budget, CarRating: 50, PitCrew: 50}
}

func testTrack() model.Track {
	return model.Track{
		ID:         1,
		Surface:    model.SurfaceTarmac,
		Difficulty: 0.5,
		Discipline: model.DisciplineOpenWheel,
	}
}

func TestFactorBounds(t *testing.T) {
	Convey("Given an attribute model", t, func() {
		m := New()

		Convey("When computing a factor for any valid entity mix", func() {
			cases := []struct {
				skill  float64
				tier   model.Tier
				budget float64
			}{
				{0, model.Tier3, 0},
				{50, model.Tier2, 100},
				{100, model.Tier1, 400},
				{100, model.Tier1, 9999},
				{25, model.Tier3, -50},
			}
			for i, c := range cases {
				f, err := m.Factor(testDriver(c.skill), testTeam(c.tier, c.budget), testTrack())
				So(err, ShouldBeNil)

				Convey(fmt.Sprintf("Then the factor stays within (0,2] (case %d)", i), func() {
					So(f, ShouldBeGreaterThan, 0)
					So(f, ShouldBeLessThanOrEqualTo, 2.0)
				})
			}
		})

		Convey("When computing a factor for an average entrant", func() {
			f, err := m.Factor(testDriver(50), testTeam(model.Tier2, 100), testTrack())
			So(err, ShouldBeNil)

			Convey("Then it lands near the league midpoint", func() {
				So(f, ShouldBeGreaterThan, 0.8)
				So(f, ShouldBeLessThan, 1.3)
			})
		})
	})
}

func TestFactorDeterminism(t *testing.T) {
	Convey("Given identical snapshots", t, func() {
		m := New()
		d := testDriver(73)
		tm := testTeam(model.Tier1, 320)
		tr := testTrack()

		Convey("Then repeated evaluation yields the identical factor", func() {
			a, err := m.Factor(d, tm, tr)
			So(err, ShouldBeNil)
			b, err := m.Factor(d, tm, tr)
			So(err, ShouldBeNil)
			So(a, ShouldEqual, b)
		})
	})
}

func TestFactorOrdering(t *testing.T) {
	Convey("Given two drivers on the same team and track", t, func() {
		m := New()
		tm := testTeam(model.Tier2, 100)
		tr := testTrack()

		Convey("Then the stronger skill set earns the higher factor", func() {
			lo, err := m.Factor(testDriver(40), tm, tr)
			So(err, ShouldBeNil)
			hi, err := m.Factor(testDriver(90), tm, tr)
			So(err, ShouldBeNil)
			So(hi, ShouldBeGreaterThan, lo)
		})

		Convey("Then fatigue lowers the factor", func() {
			fresh := testDriver(70)
			tired := testDriver(70)
			tired.Fatigue = 0.9

			a, err := m.Factor(fresh, tm, tr)
			So(err, ShouldBeNil)
			b, err := m.Factor(tired, tm, tr)
			So(err, ShouldBeNil)
			So(b, ShouldBeLessThan, a)
		})

		Convey("Then a better funded tier earns the higher factor", func() {
			a, err := m.Factor(testDriver(70), testTeam(model.Tier3, 20), tr)
			So(err, ShouldBeNil)
			b, err := m.Factor(testDriver(70), testTeam(model.Tier1, 380), tr)
			So(err, ShouldBeNil)
			So(b, ShouldBeGreaterThan, a)
		})
	})
}

func TestSurfaceAffinity(t *testing.T) {
	Convey("Given a tire specialist and a raw-pace driver", t, func() {
		m := New()
		tm := testTeam(model.Tier2, 100)

		specialist := testDriver(50)
		specialist.Skills.TireManagement = 95

		sprinter := testDriver(50)
		sprinter.Skills.Pace = 95

		gravel := testTrack()
		gravel.Surface = model.SurfaceGravel
		tarmac := testTrack()

		Convey("Then gravel favors tire management", func() {
			sp, err := m.Factor(specialist, tm, gravel)
			So(err, ShouldBeNil)
			pa, err := m.Factor(sprinter, tm, gravel)
			So(err, ShouldBeNil)
			So(sp, ShouldBeGreaterThan, pa)
		})

		Convey("Then tarmac favors pace", func() {
			sp, err := m.Factor(specialist, tm, tarmac)
			So(err, ShouldBeNil)
			pa, err := m.Factor(sprinter, tm, tarmac)
			So(err, ShouldBeNil)
			So(pa, ShouldBeGreaterThan, sp)
		})
	})
}

func TestFactorValidation(t *testing.T) {
	Convey("Given malformed entity snapshots", t, func() {
		m := New()
		tm := testTeam(model.Tier2, 100)
		tr := testTrack()

		Convey("When a skill is out of range", func() {
			d := testDriver(50)
			d.Skills.Pace = 120

			_, err := m.Factor(d, tm, tr)

			Convey("Then the invalid attribute error is returned", func() {
				So(errors.Is(err, model.ErrInvalidAttribute), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "pace")
			})
		})

		Convey("When fatigue exceeds its bound", func() {
			d := testDriver(50)
			d.Fatigue = 1.2

			_, err := m.Factor(d, tm, tr)
			So(errors.Is(err, model.ErrInvalidAttribute), ShouldBeTrue)
		})

		Convey("When the tier is unknown", func() {
			_, err := m.Factor(testDriver(50), testTeam(5, 100), tr)
			So(errors.Is(err, model.ErrInvalidAttribute), ShouldBeTrue)
		})

		Convey("When track difficulty is negative", func() {
			bad := tr
			bad.Difficulty = -0.1

			_, err := m.Factor(testDriver(50), tm, bad)
			So(errors.Is(err, model.ErrInvalidAttribute), ShouldBeTrue)
		})
	})
}

func TestWeightOverrides(t *testing.T) {
	Convey("Given configured discipline weightings", t, func() {
		cfg := map[string]map[string]float64{
			"rally": {"pace": 0.1, "consistency": 0.1, "racecraft": 0.1, "tire_management": 0.7},
		}
		m := New(WithWeightsFromConfig(cfg))

		tr := testTrack()
		tr.Discipline = model.DisciplineRally

		specialist := testDriver(50)
		specialist.Skills.TireManagement = 95

		Convey("Then the override shifts the ranking on that discipline", func() {
			def := New()
			tm := testTeam(model.Tier2, 100)

			over, err := m.Factor(specialist, tm, tr)
			So(err, ShouldBeNil)
			base, err := def.Factor(specialist, tm, tr)
			So(err, ShouldBeNil)
			So(over, ShouldBeGreaterThan, base)
		})

		Convey("Then unknown skill names are ignored", func() {
			m2 := New(WithWeightsFromConfig(map[string]map[string]float64{
				"rally": {"bravery": 1.0},
			}))
			tm := testTeam(model.Tier2, 100)

			a, err := m2.Factor(specialist, tm, tr)
			So(err, ShouldBeNil)
			b, err := New().Factor(specialist, tm, tr)
			So(err, ShouldBeNil)
			So(a, ShouldEqual, b)
		})
	})
}
