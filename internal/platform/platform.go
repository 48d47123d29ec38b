// internal/platform/platform.go
package platform

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/gridclick/internal/geometry"
)

// ErrUnsupported is returned when a capability is not available in this build or on this host.
var ErrUnsupported = errors.New("platform: capability not supported")

// Capturer grabs the pixels of a screen rectangle. The returned image is
// anchored at (0,0) and sized to the region.
type Capturer interface {
	Capture(ctx context.Context, region geometry.Rect) (*image.RGBA, error)
}

// CursorLocator reports the live pointer position.
type CursorLocator interface {
	CursorPosition(ctx context.Context) (geometry.PixelPoint, error)
}

// Pointer issues synthetic pointer input.
type Pointer interface {
	CursorLocator
	MoveTo(ctx context.Context, p geometry.PixelPoint) error
	// Click issues a primary button press and release at the current position.
	Click(ctx context.Context) error
}

// Backend bundles every capability the automation core consumes.
type Backend interface {
	Capturer
	Pointer
	// ScreenBounds reports the primary display area, used to place a default region.
	ScreenBounds(ctx context.Context) (geometry.Rect, error)
	Close() error
}

// Backend names accepted by Open.
const (
	BackendDesktop = "desktop"
	BackendBrowser = "browser"
	BackendDry     = "dry"
)

// Names lists the selectable backends.
func Names() []string {
	return []string{BackendDesktop, BackendBrowser, BackendDry}
}

// Options selects and tunes a backend.
type Options struct {
	Backend string
	Browser BrowserOptions
	// DryScreen is the fake display used by the dry backend.
	DryScreen geometry.Rect
}

// Open constructs the named backend.
func Open(ctx context.Context, opts Options, logger *zap.Logger) (Backend, error) {
	switch strings.ToLower(opts.Backend) {
	case BackendDesktop:
		return NewDesktop(logger), nil
	case BackendBrowser:
		return NewBrowser(ctx, opts.Browser, logger)
	case BackendDry, "":
		return NewRecorder(opts.DryScreen, logger), nil
	default:
		return nil, fmt.Errorf("platform: unknown backend %q (want one of %s)", opts.Backend, strings.Join(Names(), ", "))
	}
}

// toRGBA converts any decoded image into an RGBA anchored at (0,0).
func toRGBA(src image.Image) *image.RGBA {
	b := src.Bounds()
	if rgba, ok := src.(*image.RGBA); ok && b.Min == (image.Point{}) {
		return rgba
	}
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}
