// internal/sampler/sampler.go
package sampler

import (
	"context"
	"image"
	"image/draw"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/gridclick/internal/geometry"
	"github.com/xkilldash9x/gridclick/internal/platform"
)

// Config is the sampling configuration: what to capture and how often.
type Config struct {
	Region geometry.Rect `mapstructure:"region" yaml:"region"`
	// Period between ticks. Zero pauses sampling.
	Period time.Duration `mapstructure:"period" yaml:"period"`
}

// Snapshot is one capture of the region. Consumers must treat Image as
// read-only; it is only valid for the duration of the delivery.
type Snapshot struct {
	Seq        uint64
	Image      *image.RGBA
	Region     geometry.Rect
	Cursor     geometry.PixelPoint
	CapturedAt time.Time
}

// SnapshotFunc consumes snapshots on the sampling goroutine.
type SnapshotFunc func(ctx context.Context, snap Snapshot)

// Option customizes a Sampler.
type Option func(*Sampler)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Sampler) { s.now = now }
}

// Sampler captures the configured region on a timer and hands each frame to
// the registered consumers. At most one tick is active at a time and frames
// are never queued.
type Sampler struct {
	logger   *zap.Logger
	capturer platform.Capturer
	cursor   platform.CursorLocator
	now      func() time.Time

	mu        sync.Mutex
	region    geometry.Rect
	period    time.Duration
	enabled   bool
	display   *image.RGBA
	consumers []SnapshotFunc
	seq       uint64

	// wake reschedules Run when enablement changes or the period shrinks.
	wake chan struct{}
}

// New creates a disabled sampler.
func New(cfg Config, capturer platform.Capturer, cursor platform.CursorLocator, logger *zap.Logger, opts ...Option) *Sampler {
	s := &Sampler{
		logger:   logger.Named("sampler"),
		capturer: capturer,
		cursor:   cursor,
		now:      time.Now,
		wake:     make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Configure(cfg.Region, cfg.Period)
	return s
}

// Configure replaces the region and period. It never fails: negative sizes
// and periods are clamped to zero. The change applies from the next tick.
func (s *Sampler) Configure(region geometry.Rect, period time.Duration) {
	region = region.Normalize()
	if period < 0 {
		period = 0
	}

	s.mu.Lock()
	// Wake Run when sampling resumes or the pending timer is now too long.
	reschedule := period > 0 && (s.period <= 0 || period < s.period)
	s.region = region
	s.period = period
	if s.display == nil || s.display.Bounds() != region.Origin().Image() {
		s.display = image.NewRGBA(region.Origin().Image())
	}
	s.mu.Unlock()

	s.logger.Debug("Sampler configured",
		zap.Int("left", region.Left),
		zap.Int("top", region.Top),
		zap.Int("width", region.Width),
		zap.Int("height", region.Height),
		zap.Duration("period", period))

	if reschedule {
		s.signal()
	}
}

// SetEnabled starts or stops periodic sampling. Disabling drops any pending tick.
func (s *Sampler) SetEnabled(enabled bool) {
	s.mu.Lock()
	changed := s.enabled != enabled
	s.enabled = enabled
	s.mu.Unlock()

	if changed {
		s.logger.Debug("Sampler enablement changed", zap.Bool("enabled", enabled))
		s.signal()
	}
}

// Enabled reports whether periodic sampling is on.
func (s *Sampler) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

// Config returns the current configuration.
func (s *Sampler) Config() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Config{Region: s.region, Period: s.period}
}

// OnSnapshot registers a consumer. Consumers run in registration order.
func (s *Sampler) OnSnapshot(fn SnapshotFunc) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	s.consumers = append(s.consumers, fn)
	s.mu.Unlock()
}

// DisplayBuffer returns the buffer holding the most recent frame, sized to the region.
func (s *Sampler) DisplayBuffer() *image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.display
}

func (s *Sampler) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Run drives the timer until ctx is done. It returns ctx.Err().
func (s *Sampler) Run(ctx context.Context) error {
	s.logger.Info("Sampler loop started")
	defer s.logger.Info("Sampler loop stopped")

	for {
		s.mu.Lock()
		period, enabled := s.period, s.enabled
		s.mu.Unlock()

		if !enabled || period <= 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-s.wake:
				continue
			}
		}

		timer := time.NewTimer(period)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-s.wake:
			timer.Stop()
		case <-timer.C:
			s.Tick(ctx)
		}
	}
}

// Tick captures the region once and delivers the frame. It reports false
// when the tick was skipped: sampling disabled, an empty region, or a
// failed capture.
func (s *Sampler) Tick(ctx context.Context) (Snapshot, bool) {
	s.mu.Lock()
	enabled, region := s.enabled, s.region
	s.mu.Unlock()

	if !enabled || region.Empty() {
		return Snapshot{}, false
	}

	img, err := s.capturer.Capture(ctx, region)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Warn("Capture failed, skipping tick", zap.Error(err))
		}
		return Snapshot{}, false
	}

	var cursor geometry.PixelPoint
	if s.cursor != nil {
		if cursor, err = s.cursor.CursorPosition(ctx); err != nil {
			s.logger.Debug("Cursor position unavailable", zap.Error(err))
		}
	}

	s.mu.Lock()
	// A disable that raced with the capture wins.
	if !s.enabled {
		s.mu.Unlock()
		return Snapshot{}, false
	}
	s.seq++
	snap := Snapshot{
		Seq:        s.seq,
		Image:      img,
		Region:     region,
		Cursor:     cursor,
		CapturedAt: s.now(),
	}
	if s.display != nil && s.display.Bounds() == img.Bounds() {
		draw.Draw(s.display, s.display.Bounds(), img, img.Bounds().Min, draw.Src)
	}
	consumers := append([]SnapshotFunc(nil), s.consumers...)
	s.mu.Unlock()

	for _, fn := range consumers {
		fn(ctx, snap)
	}
	return snap, true
}
