// internal/grid/queue.go
package grid

import "github.com/xkilldash9x/gridclick/internal/geometry"

// Queue holds the points of one scan pass, consumed strictly front to back.
type Queue struct {
	points []geometry.Point
}

// NewQueue creates a queue holding a copy of points.
func NewQueue(points []geometry.Point) *Queue {
	q := &Queue{}
	q.Refill(points)
	return q
}

// Len returns the number of points left in the pass.
func (q *Queue) Len() int { return len(q.points) }

// Empty reports whether the pass is exhausted.
func (q *Queue) Empty() bool { return len(q.points) == 0 }

// Pop removes and returns the front point. ok is false on an empty queue.
func (q *Queue) Pop() (p geometry.Point, ok bool) {
	if len(q.points) == 0 {
		return geometry.Point{}, false
	}
	p = q.points[0]
	q.points = q.points[1:]
	return p, true
}

// Refill replaces the queue contents with a copy of points.
func (q *Queue) Refill(points []geometry.Point) {
	q.points = append(make([]geometry.Point, 0, len(points)), points...)
}

// Points returns a copy of the remaining points.
func (q *Queue) Points() []geometry.Point {
	return append([]geometry.Point(nil), q.points...)
}
