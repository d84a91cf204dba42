package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestTreapStandings_Accumulation(t *testing.T) {
	Convey("Given an empty standings table", t, func() {
		s := NewTreapStandings()
		ctx := context.Background()

		Convey("When drivers score across several races", func() {
			So(s.AddResult(ctx, 1, 25, true, true), ShouldBeNil)
			So(s.AddResult(ctx, 2, 18, false, true), ShouldBeNil)
			So(s.AddResult(ctx, 1, 15, false, true), ShouldBeNil)
			So(s.AddResult(ctx, 3, 26, true, true), ShouldBeNil)

			Convey("Then points accumulate per driver", func() {
				e, err := s.Rank(ctx, 1)
				So(err, ShouldBeNil)
				So(e.Points, ShouldEqual, 40)
				So(e.Wins, ShouldEqual, 1)
				So(e.Podiums, ShouldEqual, 2)
			})

			Convey("Then the table orders by points descending", func() {
				top, err := s.TopN(ctx, 10)
				So(err, ShouldBeNil)
				So(len(top), ShouldEqual, 3)
				So(top[0].DriverID, ShouldEqual, 1)
				So(top[1].DriverID, ShouldEqual, 3)
				So(top[2].DriverID, ShouldEqual, 2)
				So(top[0].Rank, ShouldEqual, 1)
				So(top[1].Rank, ShouldEqual, 2)
				So(top[2].Rank, ShouldEqual, 3)
			})

			Convey("Then Count tracks distinct drivers", func() {
				So(s.Count(ctx), ShouldEqual, 3)
			})
		})
	})
}

func TestTreapStandings_Ties(t *testing.T) {
	Convey("Given drivers on equal points", t, func() {
		s := NewTreapStandings()
		ctx := context.Background()

		So(s.AddResult(ctx, 5, 20, false, false), ShouldBeNil)
		So(s.AddResult(ctx, 2, 20, false, false), ShouldBeNil)
		So(s.AddResult(ctx, 9, 10, false, false), ShouldBeNil)

		Convey("Then tied drivers share the rank, ordered by id", func() {
			top, err := s.TopN(ctx, 10)
			So(err, ShouldBeNil)
			So(top[0].DriverID, ShouldEqual, 2)
			So(top[1].DriverID, ShouldEqual, 5)
			So(top[0].Rank, ShouldEqual, 1)
			So(top[1].Rank, ShouldEqual, 1)
		})

		Convey("Then the next distinct total resumes at its position", func() {
			top, err := s.TopN(ctx, 10)
			So(err, ShouldBeNil)
			So(top[2].DriverID, ShouldEqual, 9)
			So(top[2].Rank, ShouldEqual, 3)
		})

		Convey("Then Rank agrees with TopN for tied drivers", func() {
			a, err := s.Rank(ctx, 2)
			So(err, ShouldBeNil)
			b, err := s.Rank(ctx, 5)
			So(err, ShouldBeNil)
			So(a.Rank, ShouldEqual, 1)
			So(b.Rank, ShouldEqual, 1)
		})
	})
}

func TestTreapStandings_Errors(t *testing.T) {
	Convey("Given a standings table", t, func() {
		s := NewTreapStandings()
		ctx := context.Background()

		Convey("When asking for an unknown driver", func() {
			_, err := s.Rank(ctx, 404)
			So(errors.Is(err, ErrNotFound), ShouldBeTrue)
		})

		Convey("When asking for a non-positive limit", func() {
			_, err := s.TopN(ctx, 0)
			So(errors.Is(err, ErrInvalidLimit), ShouldBeTrue)
		})

		Convey("When limiting below the table size", func() {
			So(s.AddResult(ctx, 1, 10, false, false), ShouldBeNil)
			So(s.AddResult(ctx, 2, 20, false, false), ShouldBeNil)

			top, err := s.TopN(ctx, 1)
			So(err, ShouldBeNil)
			So(len(top), ShouldEqual, 1)
			So(top[0].DriverID, ShouldEqual, 2)
		})
	})
}

func TestTreapStandings_Concurrent(t *testing.T) {
	s := NewTreapStandings()
	ctx := context.Background()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				id := int64(g*100 + i)
				if err := s.AddResult(ctx, id, i%26, i%10 == 0, i%5 == 0); err != nil {
					t.Errorf("add failed: %v", err)
					return
				}
				if _, err := s.TopN(ctx, 10); err != nil {
					t.Errorf("topN failed: %v", err)
					return
				}
			}
		}(g)
	}
	wg.Wait()

	if got := s.Count(ctx); got != 800 {
		t.Fatalf("expected 800 drivers, got %d", got)
	}

	top, err := s.TopN(ctx, 800)
	if err != nil {
		t.Fatalf("topN failed: %v", err)
	}
	for i := 1; i < len(top); i++ {
		if top[i].Points > top[i-1].Points {
			t.Fatalf("ordering violated at %d: %v after %v", i, top[i], top[i-1])
		}
		if top[i].Points == top[i-1].Points && top[i].DriverID < top[i-1].DriverID {
			t.Fatalf("tie ordering violated at %d", i)
		}
	}
}

func TestTreapStandings_OrderIndependence(t *testing.T) {
	Convey("Given the same results inserted in different orders", t, func() {
		ctx := context.Background()
		type res struct {
			id  int64
			pts int
		}
		results := []res{{1, 25}, {2, 18}, {3, 15}, {4, 25}, {5, 8}}

		a := NewTreapStandings()
		for _, r := range results {
			So(a.AddResult(ctx, r.id, r.pts, false, false), ShouldBeNil)
		}

		b := NewTreapStandings()
		for i := len(results) - 1; i >= 0; i-- {
			So(b.AddResult(ctx, results[i].id, results[i].pts, false, false), ShouldBeNil)
		}

		topA, err := a.TopN(ctx, 10)
		So(err, ShouldBeNil)
		topB, err := b.TopN(ctx, 10)
		So(err, ShouldBeNil)

		Convey("Then the standings are identical", func() {
			So(fmt.Sprint(topB), ShouldEqual, fmt.Sprint(topA))
		})
	})
}
