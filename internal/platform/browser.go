// internal/platform/browser.go
package platform

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"sync"
	"time"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/gridclick/internal/geometry"
)

// BrowserOptions configures the Chrome DevTools backend.
type BrowserOptions struct {
	URL            string        `mapstructure:"url" yaml:"url"`
	Headless       bool          `mapstructure:"headless" yaml:"headless"`
	Width          int           `mapstructure:"width" yaml:"width"`
	Height         int           `mapstructure:"height" yaml:"height"`
	StartupTimeout time.Duration `mapstructure:"startup_timeout" yaml:"startup_timeout"`
}

// Browser treats a Chrome page viewport as the screen. Pixels come from
// page.CaptureScreenshot and input goes through Input.dispatchMouseEvent.
// The page has no OS cursor, so the position of the last dispatched event
// stands in for it.
type Browser struct {
	logger      *zap.Logger
	opts        BrowserOptions
	allocCancel context.CancelFunc
	tabCtx      context.Context
	tabCancel   context.CancelFunc

	mu     sync.Mutex
	cursor geometry.PixelPoint
}

var _ Backend = (*Browser)(nil)

// NewBrowser launches Chrome, opens a tab and navigates to opts.URL.
func NewBrowser(ctx context.Context, opts BrowserOptions, logger *zap.Logger) (*Browser, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("browser: viewport must be positive (got %dx%d)", opts.Width, opts.Height)
	}
	if opts.URL == "" {
		opts.URL = "about:blank"
	}
	if opts.StartupTimeout <= 0 {
		opts.StartupTimeout = 30 * time.Second
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.WindowSize(opts.Width, opts.Height),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	b := &Browser{
		logger:      logger.Named("browser"),
		opts:        opts,
		allocCancel: allocCancel,
		tabCtx:      tabCtx,
		tabCancel:   tabCancel,
	}

	startCtx, cancelStart := context.WithTimeout(tabCtx, opts.StartupTimeout)
	defer cancelStart()
	if err := chromedp.Run(startCtx,
		chromedp.EmulateViewport(int64(opts.Width), int64(opts.Height)),
		chromedp.Navigate(opts.URL),
	); err != nil {
		b.Close()
		return nil, fmt.Errorf("browser failed to start or navigate to %q: %w", opts.URL, err)
	}

	b.logger.Info("Browser backend ready",
		zap.String("url", opts.URL),
		zap.Int("width", opts.Width),
		zap.Int("height", opts.Height),
		zap.Bool("headless", opts.Headless))
	return b, nil
}

// run executes actions on the tab while honoring cancellation of ctx.
func (b *Browser) run(ctx context.Context, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	opCtx, cancel := context.WithCancel(b.tabCtx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(opCtx, actions...)
}

// Capture screenshots the region of the viewport.
func (b *Browser) Capture(ctx context.Context, region geometry.Rect) (*image.RGBA, error) {
	var buf []byte
	err := b.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		buf, err = page.CaptureScreenshot().
			WithFormat(page.CaptureScreenshotFormatPng).
			WithClip(&page.Viewport{
				X:      float64(region.Left),
				Y:      float64(region.Top),
				Width:  float64(region.Width),
				Height: float64(region.Height),
				Scale:  1,
			}).Do(ctx)
		return err
	}))
	if err != nil {
		return nil, fmt.Errorf("browser: capture %v: %w", region, err)
	}
	img, err := png.Decode(bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("browser: decode screenshot: %w", err)
	}
	return toRGBA(img), nil
}

// ScreenBounds is the emulated viewport.
func (b *Browser) ScreenBounds(ctx context.Context) (geometry.Rect, error) {
	return geometry.NewRect(0, 0, b.opts.Width, b.opts.Height), nil
}

// CursorPosition returns the position of the last dispatched mouse event.
func (b *Browser) CursorPosition(ctx context.Context) (geometry.PixelPoint, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cursor, nil
}

// MoveTo dispatches a mouseMoved event.
func (b *Browser) MoveTo(ctx context.Context, p geometry.PixelPoint) error {
	ev := input.DispatchMouseEvent(input.MouseMoved, float64(p.X), float64(p.Y))
	if err := b.run(ctx, ev); err != nil {
		return fmt.Errorf("browser: move to %v: %w", p, err)
	}
	b.mu.Lock()
	b.cursor = p
	b.mu.Unlock()
	return nil
}

// Click dispatches a left press and release at the tracked cursor.
func (b *Browser) Click(ctx context.Context) error {
	b.mu.Lock()
	at := b.cursor
	b.mu.Unlock()

	x, y := float64(at.X), float64(at.Y)
	press := input.DispatchMouseEvent(input.MousePressed, x, y).
		WithButton(input.Left).
		WithButtons(1).
		WithClickCount(1)
	release := input.DispatchMouseEvent(input.MouseReleased, x, y).
		WithButton(input.Left).
		WithButtons(0).
		WithClickCount(1)
	if err := b.run(ctx, press, release); err != nil {
		return fmt.Errorf("browser: click at %v: %w", at, err)
	}
	return nil
}

// Close tears down the tab and the browser process.
func (b *Browser) Close() error {
	if b.tabCancel != nil {
		b.tabCancel()
	}
	if b.allocCancel != nil {
		b.allocCancel()
	}
	return nil
}
