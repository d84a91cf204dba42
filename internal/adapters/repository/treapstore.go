package repository

import (
	"context"
	"sync"
	"time"

	"github.com/okian/momentum/pkg/metrics"
)

// Treap-based, in-memory StandingsStore.
//
// Ordering: points DESC, then driver id ASC. The BST comparator treats
// "less" as "ranks earlier", so an in-order traversal walks the
// standings from leader to backmarker. Sizes are maintained per node so
// rank lookups descend the tree instead of walking it.

type record struct {
	points  int
	wins    int
	podiums int
}

type node struct {
	id     int64
	points int
	prio   uint64
	left   *node
	right  *node
	size   int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// less reports whether (aPoints, aID) ranks earlier than (bPoints, bID).
func less(aPoints int, aID int64, bPoints int, bID int64) bool {
	if aPoints != bPoints {
		return aPoints > bPoints
	}
	return aID < bID
}

func rotateRight(y *node) *node {
	x := y.left
	t2 := x.right
	x.right = y
	y.left = t2
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	t2 := y.left
	y.left = x
	x.right = t2
	fix(x)
	fix(y)
	return y
}

// priority derives a deterministic heap priority from the driver id with
// a splitmix64 finalizer, so tree shape does not depend on insertion
// order or a random source.
func priority(id int64) uint64 {
	x := uint64(id) * 0x9E3779B97F4A7C15
	x ^= x >> 30
	x *= 0xBF58476D1CE4E5B9
	x ^= x >> 27
	x *= 0x94D049BB133111EB
	x ^= x >> 31
	return x
}

func insert(n *node, id int64, points int) *node {
	if n == nil {
		return &node{id: id, points: points, prio: priority(id), size: 1}
	}
	if less(points, id, n.points, n.id) {
		n.left = insert(n.left, id, points)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, id, points)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, id int64, points int) *node {
	if n == nil {
		return nil
	}
	if points == n.points && id == n.id {
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, id, points)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, id, points)
		}
	} else if less(points, id, n.points, n.id) {
		n.left = deleteNode(n.left, id, points)
	} else {
		n.right = deleteNode(n.right, id, points)
	}
	fix(n)
	return n
}

// position returns the 1-based in-order position of (id, points), or 0
// if the node is absent. O(log n) via subtree sizes.
func position(n *node, id int64, points int) int {
	pos := 1
	for n != nil {
		if points == n.points && id == n.id {
			return pos + nsize(n.left)
		}
		if less(points, id, n.points, n.id) {
			n = n.left
		} else {
			pos += nsize(n.left) + 1
			n = n.right
		}
	}
	return 0
}

// pointsAbove counts entries ranking strictly earlier than the given
// points total, used to share ranks between tied drivers.
func pointsAbove(n *node, points int) int {
	count := 0
	for n != nil {
		if n.points > points {
			count += nsize(n.left) + 1
			n = n.right
		} else {
			n = n.left
		}
	}
	return count
}

// collectTopN appends up to limit entries in rank order.
func collectTopN(n *node, limit int, byID map[int64]record, out *[]Entry) {
	if n == nil || len(*out) >= limit {
		return
	}
	collectTopN(n.left, limit, byID, out)
	if len(*out) < limit {
		if rec, ok := byID[n.id]; ok {
			*out = append(*out, Entry{DriverID: n.id, Points: rec.points, Wins: rec.wins, Podiums: rec.podiums})
		}
	}
	if len(*out) < limit {
		collectTopN(n.right, limit, byID, out)
	}
}

// TreapStandings is the in-memory championship table.
type TreapStandings struct {
	mu   sync.RWMutex
	root *node
	byID map[int64]record
}

// NewTreapStandings constructs an empty standings table.
func NewTreapStandings() *TreapStandings {
	return &TreapStandings{byID: make(map[int64]record)}
}

// AddResult folds one classified finish into the standings in O(log n)
// expected time.
func (s *TreapStandings) AddResult(ctx context.Context, driverID int64, points int, win, podium bool) error {
	start := time.Now()
	defer func() {
		metrics.RecordPersistenceLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.Lock()
	rec, existed := s.byID[driverID]
	if existed {
		s.root = deleteNode(s.root, driverID, rec.points)
	}
	rec.points += points
	if win {
		rec.wins++
	}
	if podium {
		rec.podiums++
	}
	s.byID[driverID] = rec
	s.root = insert(s.root, driverID, rec.points)
	total := len(s.byID)
	s.mu.Unlock()

	metrics.RecordStandingsUpdate()
	if !existed {
		metrics.UpdateTotalDrivers(total)
	}
	return nil
}

// Rank returns the driver's standing. Tied drivers share a rank.
func (s *TreapStandings) Rank(ctx context.Context, driverID int64) (Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byID[driverID]
	if !ok {
		metrics.RecordErrorByComponent("standings", "not_found")
		return Entry{}, ErrNotFound
	}

	return Entry{
		Rank:     pointsAbove(s.root, rec.points) + 1,
		DriverID: driverID,
		Points:   rec.points,
		Wins:     rec.wins,
		Podiums:  rec.podiums,
	}, nil
}

// TopN returns the first n standings rows.
func (s *TreapStandings) TopN(ctx context.Context, n int) ([]Entry, error) {
	if n < 1 {
		metrics.RecordErrorByComponent("standings", "invalid_limit")
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Entry, 0, n)
	collectTopN(s.root, n, s.byID, &out)

	// Tied points share a rank; the next distinct total resumes at its
	// in-order position.
	for i := range out {
		if i > 0 && out[i].Points == out[i-1].Points {
			out[i].Rank = out[i-1].Rank
			continue
		}
		out[i].Rank = pointsAbove(s.root, out[i].Points) + 1
	}
	return out, nil
}

// Count returns the number of drivers tracked.
func (s *TreapStandings) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}
