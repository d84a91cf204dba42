package model

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestRaceStage(t *testing.T) {
	Convey("Given the race lifecycle", t, func() {
		Convey("Then stages advance one step forward only", func() {
			So(RaceScheduled.CanAdvance(RaceSampling), ShouldBeTrue)
			So(RaceSampling.CanAdvance(RaceAggregated), ShouldBeTrue)
			So(RaceAggregated.CanAdvance(RaceApplied), ShouldBeTrue)
		})

		Convey("Then skipping a stage is rejected", func() {
			So(RaceScheduled.CanAdvance(RaceAggregated), ShouldBeFalse)
			So(RaceScheduled.CanAdvance(RaceApplied), ShouldBeFalse)
		})

		Convey("Then rolling back is rejected", func() {
			So(RaceApplied.CanAdvance(RaceAggregated), ShouldBeFalse)
			So(RaceSampling.CanAdvance(RaceScheduled), ShouldBeFalse)
		})

		Convey("Then the terminal stage has no successor", func() {
			So(RaceApplied.CanAdvance(RaceApplied+1), ShouldBeFalse)
		})

		Convey("Then stage names are stable", func() {
			So(RaceScheduled.String(), ShouldEqual, "scheduled")
			So(RaceSampling.String(), ShouldEqual, "sampling")
			So(RaceAggregated.String(), ShouldEqual, "aggregated")
			So(RaceApplied.String(), ShouldEqual, "applied")
			So(RaceStage(99).String(), ShouldEqual, "unknown")
		})
	})
}

func TestBaselineDecision(t *testing.T) {
	Convey("Given a driver with no submitted strategy", t, func() {
		dec := BaselineDecision(7)

		Convey("Then the baseline is a one-stop on mediums with zero risk", func() {
			So(dec.DriverID, ShouldEqual, 7)
			So(dec.Plan, ShouldEqual, PitLater)
			So(dec.Compounds, ShouldResemble, []Compound{CompoundMedium, CompoundMedium})
			So(dec.Risk, ShouldEqual, 0)
		})
	})
}

func TestRaceResultHelpers(t *testing.T) {
	Convey("Given a classified race result", t, func() {
		res := RaceResult{
			RaceID: "r1",
			Standings: []Standing{
				{Position: 1, DriverID: 11, Time: 5400},
				{Position: 2, DriverID: 22, Time: 5412, Gap: 12},
			},
		}

		Convey("Then Winner returns the driver in first position", func() {
			So(res.Winner(), ShouldEqual, 11)
		})

		Convey("Then PositionOf finds a classified driver", func() {
			So(res.PositionOf(22), ShouldEqual, 2)
		})

		Convey("Then PositionOf returns zero for an absent driver", func() {
			So(res.PositionOf(33), ShouldEqual, 0)
		})

		Convey("Then an empty result has no winner", func() {
			So(RaceResult{}.Winner(), ShouldEqual, 0)
		})
	})
}

func TestStrategyVariantNames(t *testing.T) {
	Convey("Given the closed strategy variant sets", t, func() {
		Convey("Then pit plan names are stable", func() {
			So(PitNow.String(), ShouldEqual, "pit-now")
			So(PitLater.String(), ShouldEqual, "pit-later")
			So(NoStop.String(), ShouldEqual, "no-stop")
			So(PitPlan(9).String(), ShouldEqual, "unknown")
		})

		Convey("Then compound names are stable", func() {
			So(CompoundSoft.String(), ShouldEqual, "soft")
			So(CompoundMedium.String(), ShouldEqual, "medium")
			So(CompoundHard.String(), ShouldEqual, "hard")
			So(Compound(9).String(), ShouldEqual, "unknown")
		})
	})
}
