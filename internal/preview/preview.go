// internal/preview/preview.go
package preview

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mitchellh/go-homedir"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/gridclick/internal/geometry"
	"github.com/xkilldash9x/gridclick/internal/overlay"
	"github.com/xkilldash9x/gridclick/internal/sampler"
)

// DefaultInterval is how often the preview file is refreshed.
const DefaultInterval = time.Second

// Config locates the preview image.
type Config struct {
	// Path of the PNG. Empty disables the preview. A leading ~ is expanded.
	Path string `mapstructure:"path" yaml:"path"`
	// Interval is the minimum spacing between writes. Zero or less writes every frame.
	Interval time.Duration `mapstructure:"interval" yaml:"interval"`
}

// PointSource returns the overlay points for a frame of region.
type PointSource func(region geometry.Rect) []geometry.Point

// Writer is a snapshot consumer that keeps a highlighted PNG of the latest
// frame on disk.
type Writer struct {
	logger  *zap.Logger
	path    string
	points  PointSource
	opts    overlay.Options
	every   rate.Sometimes
	mu      sync.Mutex
	written atomic.Int64
}

// NewWriter validates cfg and resolves the output path.
func NewWriter(cfg Config, points PointSource, logger *zap.Logger) (*Writer, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("preview: path is required")
	}
	path, err := homedir.Expand(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("preview: expand path %q: %w", cfg.Path, err)
	}
	w := &Writer{
		logger: logger.Named("preview"),
		path:   path,
		points: points,
		opts:   overlay.DefaultOptions(),
	}
	// A zero Sometimes fires once and never again; zero means every frame.
	if cfg.Interval > 0 {
		w.every.Interval = cfg.Interval
	} else {
		w.every.Every = 1
	}
	return w, nil
}

// Path is the resolved output file.
func (w *Writer) Path() string { return w.path }

// Writes reports how many frames reached disk.
func (w *Writer) Writes() int64 { return w.written.Load() }

// HandleSnapshot renders the frame if the refresh interval has elapsed.
func (w *Writer) HandleSnapshot(ctx context.Context, snap sampler.Snapshot) {
	if snap.Image == nil {
		return
	}
	w.every.Do(func() {
		if err := w.Render(snap); err != nil {
			w.logger.Warn("Failed to write preview", zap.String("path", w.path), zap.Error(err))
		}
	})
}

// Render writes the highlighted frame unconditionally.
func (w *Writer) Render(snap sampler.Snapshot) error {
	var pts []geometry.Point
	if w.points != nil {
		pts = w.points(snap.Region)
	}
	img := overlay.Highlight(snap.Image, pts, w.opts)

	w.mu.Lock()
	defer w.mu.Unlock()
	if err := writeAtomic(w.path, img); err != nil {
		return err
	}
	w.written.Add(1)
	return nil
}

// writeAtomic encodes img next to path and renames it into place, so
// readers never observe a half-written file.
func writeAtomic(path string, img image.Image) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create preview directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := png.Encode(tmp, img); err != nil {
		tmp.Close()
		return fmt.Errorf("encode png: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}
