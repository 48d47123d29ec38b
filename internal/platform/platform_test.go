// internal/platform/platform_test.go
package platform

import (
	"context"
	"errors"
	"image"
	"image/color"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/gridclick/internal/geometry"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()

	t.Run("dry is the default", func(t *testing.T) {
		b, err := Open(ctx, Options{}, logger)
		require.NoError(t, err)
		assert.IsType(t, &Recorder{}, b)
	})

	t.Run("desktop", func(t *testing.T) {
		b, err := Open(ctx, Options{Backend: "Desktop"}, logger)
		require.NoError(t, err)
		assert.IsType(t, &Desktop{}, b)
	})

	t.Run("unknown backend", func(t *testing.T) {
		_, err := Open(ctx, Options{Backend: "x11-raw"}, logger)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown backend")
	})

	t.Run("browser rejects an empty viewport", func(t *testing.T) {
		_, err := Open(ctx, Options{Backend: BackendBrowser}, logger)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "viewport must be positive")
	})
}

func TestRecorder(t *testing.T) {
	ctx := context.Background()
	r := NewRecorder(geometry.Rect{}, zap.NewNop())

	t.Run("default screen", func(t *testing.T) {
		bounds, err := r.ScreenBounds(ctx)
		require.NoError(t, err)
		assert.Equal(t, geometry.NewRect(0, 0, 1920, 1080), bounds)
	})

	t.Run("capture matches the region size", func(t *testing.T) {
		img, err := r.Capture(ctx, geometry.NewRect(100, 200, 32, 24))
		require.NoError(t, err)
		assert.Equal(t, image.Rect(0, 0, 32, 24), img.Bounds())
		assert.Equal(t, 1, r.Captures())
	})

	t.Run("records moves and clicks", func(t *testing.T) {
		r.Reset()
		require.NoError(t, r.MoveTo(ctx, geometry.PixelPoint{X: 5, Y: 6}))
		require.NoError(t, r.Click(ctx))

		pos, err := r.CursorPosition(ctx)
		require.NoError(t, err)
		assert.Equal(t, geometry.PixelPoint{X: 5, Y: 6}, pos)

		events := r.Events()
		require.Len(t, events, 2)
		assert.Equal(t, EventMove, events[0].Kind)
		assert.Equal(t, EventClick, events[1].Kind)
		assert.Equal(t, geometry.PixelPoint{X: 5, Y: 6}, events[1].At)
		assert.Equal(t, 1, r.Count(EventClick))
	})

	t.Run("history is bounded but counts are totals", func(t *testing.T) {
		r.Reset()
		total := MaxRecordedEvents + 10
		for i := 0; i < total; i++ {
			require.NoError(t, r.MoveTo(ctx, geometry.PixelPoint{X: i}))
		}
		require.NoError(t, r.Click(ctx))

		events := r.Events()
		require.Len(t, events, MaxRecordedEvents)
		assert.Equal(t, 11, events[0].At.X)
		assert.Equal(t, EventClick, events[len(events)-1].Kind)
		assert.Equal(t, geometry.PixelPoint{X: total - 1}, events[len(events)-1].At)
		assert.Equal(t, total, r.Count(EventMove))
		assert.Equal(t, 1, r.Count(EventClick))

		r.Reset()
		assert.Empty(t, r.Events())
		assert.Zero(t, r.Count(EventMove))
	})

	t.Run("injected failures", func(t *testing.T) {
		boom := errors.New("boom")
		r.CaptureErr = boom
		r.InputErr = boom
		defer func() { r.CaptureErr, r.InputErr = nil, nil }()

		_, err := r.Capture(ctx, geometry.NewRect(0, 0, 1, 1))
		assert.ErrorIs(t, err, boom)
		assert.ErrorIs(t, r.MoveTo(ctx, geometry.PixelPoint{}), boom)
		assert.ErrorIs(t, r.Click(ctx), boom)
	})

	t.Run("cancelled capture", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := r.Capture(cctx, geometry.NewRect(0, 0, 1, 1))
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestToRGBA_ReanchorsAtOrigin(t *testing.T) {
	src := image.NewNRGBA(image.Rect(10, 10, 14, 12))
	src.Set(10, 10, color.NRGBA{R: 255, A: 255})

	dst := toRGBA(src)
	assert.Equal(t, image.Rect(0, 0, 4, 2), dst.Bounds())
	assert.Equal(t, color.RGBA{R: 255, A: 255}, dst.RGBAAt(0, 0))

	already := image.NewRGBA(image.Rect(0, 0, 2, 2))
	assert.Same(t, already, toRGBA(already))
}

// TestBrowser_Integration needs a local Chrome; set GRIDCLICK_BROWSER_TESTS=1 to run it.
func TestBrowser_Integration(t *testing.T) {
	if os.Getenv("GRIDCLICK_BROWSER_TESTS") == "" {
		t.Skip("set GRIDCLICK_BROWSER_TESTS=1 to run against a local Chrome")
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	b, err := NewBrowser(ctx, BrowserOptions{Headless: true, Width: 320, Height: 240}, zap.NewNop())
	require.NoError(t, err)
	defer b.Close()

	img, err := b.Capture(ctx, geometry.NewRect(10, 10, 100, 50))
	require.NoError(t, err)
	assert.Equal(t, 100, img.Bounds().Dx())
	assert.Equal(t, 50, img.Bounds().Dy())

	require.NoError(t, b.MoveTo(ctx, geometry.PixelPoint{X: 20, Y: 30}))
	require.NoError(t, b.Click(ctx))
	pos, err := b.CursorPosition(ctx)
	require.NoError(t, err)
	assert.Equal(t, geometry.PixelPoint{X: 20, Y: 30}, pos)
}
