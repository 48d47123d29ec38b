// internal/driver/driver.go
package driver

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/gridclick/internal/geometry"
	"github.com/xkilldash9x/gridclick/internal/grid"
	"github.com/xkilldash9x/gridclick/internal/platform"
	"github.com/xkilldash9x/gridclick/internal/sampler"
)

// DefaultJitterRadius bounds the safer-mode pointer noise on each axis.
const DefaultJitterRadius = 10

// Config tunes the dispatch state machine.
type Config struct {
	// Safer adds a small random pointer movement on every snapshot.
	Safer        bool          `mapstructure:"safer" yaml:"safer"`
	MinInterval  time.Duration `mapstructure:"min_interval" yaml:"min_interval"`
	JitterRadius int           `mapstructure:"jitter_radius" yaml:"jitter_radius"`
	// StartMode is the mode the driver is armed in at startup.
	StartMode string `mapstructure:"start_mode" yaml:"start_mode"`
}

// DefaultConfig matches the interactive defaults: safer off, 200ms spacing, 10px jitter.
func DefaultConfig() Config {
	return Config{
		MinInterval:  DefaultMinInterval,
		JitterRadius: DefaultJitterRadius,
		StartMode:    ModeIdle.String(),
	}
}

// Rand is the uniform integer source used for jitter. *rand.Rand satisfies it.
type Rand interface {
	Intn(n int) int
}

// Option customizes a Driver.
type Option func(*Driver)

// WithClock overrides the time source used by the throttle.
func WithClock(now func() time.Time) Option {
	return func(d *Driver) { d.now = now }
}

// WithRand overrides the jitter source.
func WithRand(r Rand) Option {
	return func(d *Driver) { d.rng = r }
}

// PassSummary describes a completed execute pass.
type PassSummary struct {
	PassID     string
	Points     int
	Region     geometry.Rect
	FinishedAt time.Time
}

// Outcome reports what one step did.
type Outcome struct {
	Jittered    bool
	Admitted    bool
	Regenerated bool
	Target      geometry.PixelPoint
	Clicked     bool
	Disarmed    bool
}

// Driver turns the snapshot stream into a paced sequence of pointer moves
// and clicks over a sheared grid of the captured region.
type Driver struct {
	logger  *zap.Logger
	pointer platform.Pointer
	now     func() time.Time
	rng     Rand

	mu         sync.Mutex
	mode       Mode
	grid       grid.Config
	safer      bool
	jitter     int
	throttle   *Throttle
	queue      *grid.Queue
	passID     string
	passPoints int
	passRegion geometry.Rect
	onDisarm   []func(PassSummary)
}

// New creates an idle driver.
func New(cfg Config, cells grid.Config, pointer platform.Pointer, logger *zap.Logger, opts ...Option) *Driver {
	if cfg.JitterRadius < 0 {
		cfg.JitterRadius = 0
	}
	d := &Driver{
		logger:   logger.Named("driver"),
		pointer:  pointer,
		now:      time.Now,
		mode:     ModeIdle,
		grid:     cells.Normalize(),
		safer:    cfg.Safer,
		jitter:   cfg.JitterRadius,
		throttle: NewThrottle(cfg.MinInterval),
		queue:    &grid.Queue{},
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.rng == nil {
		d.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return d
}

// SetMode arms or disarms the driver.
func (d *Driver) SetMode(m Mode) {
	d.mu.Lock()
	prev := d.mode
	d.mode = m
	d.mu.Unlock()
	if prev != m {
		d.logger.Info("Mode changed", zap.Stringer("from", prev), zap.Stringer("to", m))
	}
}

// SetRehearsal toggles the move-only flag. It never overrides an execute run.
func (d *Driver) SetRehearsal(on bool) {
	switch cur := d.Mode(); {
	case on && cur == ModeIdle:
		d.SetMode(ModeRehearse)
	case !on && cur == ModeRehearse:
		d.SetMode(ModeIdle)
	}
}

// SetExecute toggles the move-and-click flag.
func (d *Driver) SetExecute(on bool) {
	switch cur := d.Mode(); {
	case on:
		d.SetMode(ModeExecute)
	case cur == ModeExecute:
		d.SetMode(ModeIdle)
	}
}

// Stop disarms the driver. The queue is kept, so re-arming resumes the pass.
func (d *Driver) Stop() { d.SetMode(ModeIdle) }

// SetCellCounts changes the grid. Counts below 1 are clamped to 1. A pass
// already in progress keeps its points; the new grid applies to the next one.
func (d *Driver) SetCellCounts(h, v int) {
	cells := grid.Config{HCells: h, VCells: v}.Normalize()
	d.mu.Lock()
	d.grid = cells
	d.mu.Unlock()
	d.logger.Debug("Cell counts changed", zap.Int("h_cells", cells.HCells), zap.Int("v_cells", cells.VCells))
}

// SetSafer toggles the per-snapshot pointer jitter.
func (d *Driver) SetSafer(on bool) {
	d.mu.Lock()
	d.safer = on
	d.mu.Unlock()
}

// OnDisarm registers a callback fired after an execute pass drains.
func (d *Driver) OnDisarm(fn func(PassSummary)) {
	if fn == nil {
		return
	}
	d.mu.Lock()
	d.onDisarm = append(d.onDisarm, fn)
	d.mu.Unlock()
}

// Mode returns the current run state.
func (d *Driver) Mode() Mode {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.mode
}

// IsRunning reports whether the driver is armed.
func (d *Driver) IsRunning() bool { return d.Mode().Armed() }

// QueueSize returns the number of points left in the current pass.
func (d *Driver) QueueSize() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.queue.Len()
}

// Grid returns the cell counts the next pass will use.
func (d *Driver) Grid() grid.Config {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.grid
}

// Safer reports whether jitter is on.
func (d *Driver) Safer() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.safer
}

// PreviewPoints returns the scan points for a frame of the region, relative to the frame's own origin.
func (d *Driver) PreviewPoints(region geometry.Rect) []geometry.Point {
	return grid.Generate(region.Origin(), d.Grid())
}

// HandleSnapshot is the sampler consumer. Errors are logged; the step never panics.
func (d *Driver) HandleSnapshot(ctx context.Context, snap sampler.Snapshot) {
	if _, err := d.Step(ctx, snap); err != nil && !errors.Is(err, context.Canceled) {
		d.logger.Warn("Dispatch failed", zap.Uint64("seq", snap.Seq), zap.Error(err))
	}
}

// Step runs the state machine for one snapshot:
//
//  1. idle: nothing happens.
//  2. safer mode: jitter the pointer around its live position, regardless of pacing.
//  3. throttle: at most one dispatch per MinInterval.
//  4. an empty queue is refilled from the snapshot region and the current grid.
//  5. the front point is consumed: move, plus click in execute mode.
//  6. an execute pass that just drained disarms the driver.
func (d *Driver) Step(ctx context.Context, snap sampler.Snapshot) (Outcome, error) {
	var out Outcome

	d.mu.Lock()
	if !d.mode.Armed() {
		d.mu.Unlock()
		return out, nil
	}

	if d.safer {
		if err := d.jitterLocked(ctx); err != nil {
			d.logger.Debug("Jitter failed", zap.Error(err))
		} else {
			out.Jittered = true
		}
	}

	if !d.throttle.Admit(d.now()) {
		d.mu.Unlock()
		return out, nil
	}
	out.Admitted = true

	if d.queue.Empty() {
		d.refillLocked(snap.Region)
		out.Regenerated = true
	}

	point, ok := d.queue.Pop()
	if !ok {
		d.mu.Unlock()
		return out, nil
	}
	out.Target = point.Pixel()
	mode := d.mode

	err := d.pointer.MoveTo(ctx, out.Target)
	if err != nil {
		err = fmt.Errorf("move to %v: %w", out.Target, err)
	} else if mode == ModeExecute {
		if err = d.pointer.Click(ctx); err != nil {
			err = fmt.Errorf("click at %v: %w", out.Target, err)
		} else {
			out.Clicked = true
		}
	}

	var summary PassSummary
	var callbacks []func(PassSummary)
	if d.queue.Empty() && mode == ModeExecute {
		d.mode = ModeIdle
		out.Disarmed = true
		summary = PassSummary{
			PassID:     d.passID,
			Points:     d.passPoints,
			Region:     d.passRegion,
			FinishedAt: d.now(),
		}
		callbacks = append(callbacks, d.onDisarm...)
	}
	d.mu.Unlock()

	if out.Disarmed {
		d.logger.Info("Scan pass completed, disarming",
			zap.String("pass_id", summary.PassID),
			zap.Int("points", summary.Points))
		for _, fn := range callbacks {
			fn(summary)
		}
	}
	return out, err
}

// jitterLocked nudges the pointer by up to ±radius on both axes.
func (d *Driver) jitterLocked(ctx context.Context) error {
	pos, err := d.pointer.CursorPosition(ctx)
	if err != nil {
		return fmt.Errorf("read cursor: %w", err)
	}
	span := 2*d.jitter + 1
	dx := d.rng.Intn(span) - d.jitter
	dy := d.rng.Intn(span) - d.jitter
	return d.pointer.MoveTo(ctx, pos.Offset(dx, dy))
}

// refillLocked starts a new pass over region.
func (d *Driver) refillLocked(region geometry.Rect) {
	pts := grid.Generate(region, d.grid)
	d.queue.Refill(pts)
	d.passID = uuid.NewString()
	d.passPoints = len(pts)
	d.passRegion = region
	d.logger.Info("Scan pass started",
		zap.String("pass_id", d.passID),
		zap.Stringer("mode", d.mode),
		zap.Int("points", len(pts)),
		zap.Int("h_cells", d.grid.HCells),
		zap.Int("v_cells", d.grid.VCells))
}
