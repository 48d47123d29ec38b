// internal/platform/recorder.go
package platform

import (
	"context"
	"image"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/gridclick/internal/geometry"
)

// EventKind classifies a recorded input event.
type EventKind string

const (
	EventMove  EventKind = "move"
	EventClick EventKind = "click"
)

// MaxRecordedEvents bounds the Recorder history. Older events are dropped
// once it is full; Count still reports totals.
const MaxRecordedEvents = 1024

// Event is one synthetic input the Recorder accepted.
type Event struct {
	Kind EventKind
	At   geometry.PixelPoint
	Time time.Time
}

// Recorder is the dry backend. It captures blank frames and records input
// instead of issuing it, which makes it useful for rehearsals and tests.
type Recorder struct {
	logger *zap.Logger
	screen geometry.Rect

	mu       sync.Mutex
	cursor   geometry.PixelPoint
	events   []Event
	counts   map[EventKind]int
	captures int
	// CaptureErr, when set, is returned by every Capture call.
	CaptureErr error
	// InputErr, when set, is returned by MoveTo and Click.
	InputErr error
}

var _ Backend = (*Recorder)(nil)

// NewRecorder creates a dry backend with a fake screen of the given size.
func NewRecorder(screen geometry.Rect, logger *zap.Logger) *Recorder {
	if screen.Empty() {
		screen = geometry.NewRect(0, 0, 1920, 1080)
	}
	return &Recorder{logger: logger.Named("dry"), screen: screen}
}

// Capture returns a transparent frame the size of region.
func (r *Recorder) Capture(ctx context.Context, region geometry.Rect) (*image.RGBA, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.CaptureErr != nil {
		return nil, r.CaptureErr
	}
	r.captures++
	return image.NewRGBA(region.Normalize().Origin().Image()), nil
}

// ScreenBounds returns the fake screen.
func (r *Recorder) ScreenBounds(ctx context.Context) (geometry.Rect, error) {
	return r.screen, nil
}

// CursorPosition returns the last position moved to.
func (r *Recorder) CursorPosition(ctx context.Context) (geometry.PixelPoint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cursor, nil
}

// SetCursor places the fake cursor, as a user moving the mouse would.
func (r *Recorder) SetCursor(p geometry.PixelPoint) {
	r.mu.Lock()
	r.cursor = p
	r.mu.Unlock()
}

// MoveTo records a move.
func (r *Recorder) MoveTo(ctx context.Context, p geometry.PixelPoint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.InputErr != nil {
		return r.InputErr
	}
	r.cursor = p
	r.record(Event{Kind: EventMove, At: p, Time: time.Now()})
	r.logger.Debug("move", zap.Int("x", p.X), zap.Int("y", p.Y))
	return nil
}

// Click records a click at the cursor.
func (r *Recorder) Click(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.InputErr != nil {
		return r.InputErr
	}
	r.record(Event{Kind: EventClick, At: r.cursor, Time: time.Now()})
	r.logger.Debug("click", zap.Int("x", r.cursor.X), zap.Int("y", r.cursor.Y))
	return nil
}

// record appends e, evicting the oldest event when the history is full.
// Callers hold r.mu.
func (r *Recorder) record(e Event) {
	if r.counts == nil {
		r.counts = make(map[EventKind]int)
	}
	r.counts[e.Kind]++
	if len(r.events) >= MaxRecordedEvents {
		n := copy(r.events, r.events[len(r.events)-MaxRecordedEvents+1:])
		r.events = r.events[:n]
	}
	r.events = append(r.events, e)
}

// Events returns a copy of the most recent events, oldest first.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Count returns how many events of kind were recorded since the last Reset,
// including ones already evicted from the history.
func (r *Recorder) Count(kind EventKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[kind]
}

// Captures returns the number of successful captures.
func (r *Recorder) Captures() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.captures
}

// Reset forgets recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.events = nil
	r.counts = nil
	r.captures = 0
	r.mu.Unlock()
}

// Close is a no-op.
func (r *Recorder) Close() error { return nil }
