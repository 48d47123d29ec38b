// internal/driver/throttle.go
package driver

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultMinInterval is the minimum spacing between two admitted dispatches.
const DefaultMinInterval = 200 * time.Millisecond

// Throttle admits at most one dispatch per interval. It is a single-token
// bucket, so an admission needs a full interval since the previous one and
// the first candidate is always admitted. Time is passed in explicitly so
// callers control the clock.
type Throttle struct {
	mu       sync.Mutex
	interval time.Duration
	limiter  *rate.Limiter
}

// NewThrottle creates a throttle that has never admitted anything.
// A non-positive interval admits every candidate.
func NewThrottle(interval time.Duration) *Throttle {
	if interval < 0 {
		interval = 0
	}
	return &Throttle{interval: interval, limiter: rate.NewLimiter(rate.Every(interval), 1)}
}

// Admit reports whether a dispatch at now may proceed, consuming the token if so.
func (t *Throttle) Admit(now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.limiter.AllowN(now, 1)
}

// Interval returns the configured minimum spacing.
func (t *Throttle) Interval() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.interval
}
