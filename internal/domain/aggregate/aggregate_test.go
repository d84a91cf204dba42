package aggregate

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/momentum/internal/domain/model"
	"github.com/okian/momentum/internal/domain/sampling"
)

func flatSet(id int64, base float64, n int) sampling.TrialSet {
	times := make([]float64, n)
	for i := range times {
		times[i] = base + float64(i%5)
	}
	return sampling.TrialSet{DriverID: id, Times: times}
}

func testTrack() model.Track {
	return model.Track{ID: 3, Surface: model.SurfaceTarmac, Difficulty: 0.5}
}

func TestAggregateClassification(t *testing.T) {
	Convey("Given trial sets with clearly ordered pace", t, func() {
		a := New()
		sets := []sampling.TrialSet{
			flatSet(10, 5450, 100),
			flatSet(20, 5400, 100),
			flatSet(30, 5500, 100),
		}

		res, err := a.Aggregate("r1", testTrack(), 42, sets)
		So(err, ShouldBeNil)

		Convey("Then drivers are ranked by representative time", func() {
			So(res.Standings[0].DriverID, ShouldEqual, 20)
			So(res.Standings[1].DriverID, ShouldEqual, 10)
			So(res.Standings[2].DriverID, ShouldEqual, 30)
		})

		Convey("Then positions are contiguous from one", func() {
			for i, s := range res.Standings {
				So(s.Position, ShouldEqual, i+1)
			}
		})

		Convey("Then the leader has zero gap and gaps grow down the order", func() {
			So(res.Standings[0].Gap, ShouldEqual, 0)
			So(res.Standings[1].Gap, ShouldBeGreaterThan, 0)
			So(res.Standings[2].Gap, ShouldBeGreaterThan, res.Standings[1].Gap)
		})

		Convey("Then points follow the table with the fastest lap bonus", func() {
			So(res.Standings[0].Points, ShouldEqual, 25+1)
			So(res.Standings[0].Fastest, ShouldBeTrue)
			So(res.Standings[1].Points, ShouldEqual, 18)
			So(res.Standings[2].Points, ShouldEqual, 15)
		})

		Convey("Then the result records its provenance", func() {
			So(res.RaceID, ShouldEqual, "r1")
			So(res.TrackID, ShouldEqual, int64(3))
			So(res.Seed, ShouldEqual, int64(42))
			So(res.Trials, ShouldEqual, 100)
		})
	})
}

func TestAggregateTieBreak(t *testing.T) {
	Convey("Given two drivers with identical representative times", t, func() {
		a := New(WithTrimFraction(0))

		// Same mean; the second set is wider.
		tight := sampling.TrialSet{DriverID: 9, Times: []float64{5400, 5402, 5398, 5400}}
		wide := sampling.TrialSet{DriverID: 2, Times: []float64{5390, 5410, 5380, 5420}}

		res, err := a.Aggregate("r1", testTrack(), 1, []sampling.TrialSet{wide, tight})
		So(err, ShouldBeNil)

		Convey("Then the lower variance wins the position", func() {
			So(res.Standings[0].DriverID, ShouldEqual, 9)
			So(res.Standings[1].DriverID, ShouldEqual, 2)
		})

		Convey("Given identical distributions as well", func() {
			twinA := sampling.TrialSet{DriverID: 7, Times: []float64{5400, 5404, 5396}}
			twinB := sampling.TrialSet{DriverID: 4, Times: []float64{5400, 5404, 5396}}

			res, err := a.Aggregate("r2", testTrack(), 1, []sampling.TrialSet{twinA, twinB})
			So(err, ShouldBeNil)

			Convey("Then the lower driver id wins the position", func() {
				So(res.Standings[0].DriverID, ShouldEqual, 4)
			})
		})
	})
}

func TestAggregateOrderIndependence(t *testing.T) {
	Convey("Given the same trial sets in different input orders", t, func() {
		a := New()
		sets := []sampling.TrialSet{
			flatSet(1, 5420, 50),
			flatSet(2, 5400, 50),
			flatSet(3, 5410, 50),
		}
		rev := []sampling.TrialSet{sets[2], sets[0], sets[1]}

		r1, err := a.Aggregate("r1", testTrack(), 1, sets)
		So(err, ShouldBeNil)
		r2, err := a.Aggregate("r1", testTrack(), 1, rev)
		So(err, ShouldBeNil)

		Convey("Then the classification is identical", func() {
			So(r2.Standings, ShouldResemble, r1.Standings)
		})
	})
}

func TestTrimmedRepresentativeTime(t *testing.T) {
	Convey("Given a trial set with one freak outlier", t, func() {
		times := make([]float64, 100)
		for i := range times {
			times[i] = 5400
		}
		clean := sampling.TrialSet{DriverID: 1, Times: append([]float64(nil), times...)}
		times[99] = 9000
		spiked := sampling.TrialSet{DriverID: 1, Times: times}

		a := New()
		base, err := a.Aggregate("r1", testTrack(), 1, []sampling.TrialSet{clean})
		So(err, ShouldBeNil)
		spk, err := a.Aggregate("r1", testTrack(), 1, []sampling.TrialSet{spiked})
		So(err, ShouldBeNil)

		Convey("Then the outlier does not move the representative time", func() {
			So(spk.Standings[0].Time, ShouldEqual, base.Standings[0].Time)
		})

		Convey("Then the outlier is surfaced as an incident", func() {
			So(spk.Standings[0].Incident, ShouldBeTrue)
			So(base.Standings[0].Incident, ShouldBeFalse)
		})
	})
}

func TestAggregateErrors(t *testing.T) {
	Convey("Given degenerate inputs", t, func() {
		a := New()

		Convey("When there are no trial sets", func() {
			_, err := a.Aggregate("r1", testTrack(), 1, nil)
			So(err, ShouldNotBeNil)
		})

		Convey("When a trial set is empty", func() {
			_, err := a.Aggregate("r1", testTrack(), 1, []sampling.TrialSet{{DriverID: 5}})
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "driver 5")
		})
	})
}

func TestPointsBeyondTable(t *testing.T) {
	Convey("Given a field larger than the points table", t, func() {
		a := New(WithPointsTable([]int{10, 5}))
		sets := []sampling.TrialSet{
			flatSet(1, 5400, 20),
			flatSet(2, 5410, 20),
			flatSet(3, 5420, 20),
		}

		res, err := a.Aggregate("r1", testTrack(), 1, sets)
		So(err, ShouldBeNil)

		Convey("Then positions beyond the table score zero", func() {
			So(res.Standings[2].Points, ShouldEqual, 0)
		})
	})
}
