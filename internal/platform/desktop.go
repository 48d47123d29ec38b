// internal/platform/desktop.go
package platform

import (
	"context"
	"fmt"
	"image"

	"github.com/kbinani/screenshot"
	"go.uber.org/zap"

	"github.com/xkilldash9x/gridclick/internal/geometry"
)

// Desktop drives the real screen: kbinani/screenshot for pixels and robotgo
// for the pointer (see desktop_pointer_*.go).
type Desktop struct {
	logger *zap.Logger
}

var _ Backend = (*Desktop)(nil)

// NewDesktop creates the desktop backend.
func NewDesktop(logger *zap.Logger) *Desktop {
	return &Desktop{logger: logger.Named("desktop")}
}

// Capture grabs the region from the display server.
func (d *Desktop) Capture(ctx context.Context, region geometry.Rect) (*image.RGBA, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	img, err := screenshot.CaptureRect(region.Image())
	if err != nil {
		return nil, fmt.Errorf("desktop: capture %v: %w", region, err)
	}
	return toRGBA(img), nil
}

// ScreenBounds reports the bounds of display 0.
func (d *Desktop) ScreenBounds(ctx context.Context) (geometry.Rect, error) {
	if screenshot.NumActiveDisplays() < 1 {
		return geometry.Rect{}, fmt.Errorf("desktop: no active display: %w", ErrUnsupported)
	}
	b := screenshot.GetDisplayBounds(0)
	return geometry.NewRect(b.Min.X, b.Min.Y, b.Dx(), b.Dy()), nil
}

// CursorPosition reads the live pointer location.
func (d *Desktop) CursorPosition(ctx context.Context) (geometry.PixelPoint, error) {
	return cursorPosition()
}

// MoveTo warps the pointer.
func (d *Desktop) MoveTo(ctx context.Context, p geometry.PixelPoint) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return movePointer(p)
}

// Click issues a left click where the pointer is.
func (d *Desktop) Click(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return clickPrimary()
}

// Close is a no-op for the desktop.
func (d *Desktop) Close() error { return nil }
