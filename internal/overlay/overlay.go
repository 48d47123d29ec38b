// internal/overlay/overlay.go
package overlay

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/xkilldash9x/gridclick/internal/geometry"
)

// DefaultPenSize is the side of the square stamped at each point.
const DefaultPenSize = 3

// DefaultColor is opaque red.
var DefaultColor = color.RGBA{R: 0xff, A: 0xff}

// Options controls how points are stamped.
type Options struct {
	Color color.Color
	// Size is the pen width in pixels. Values below 1 use DefaultPenSize.
	Size int
}

// DefaultOptions returns red, 3px dots.
func DefaultOptions() Options {
	return Options{Color: DefaultColor, Size: DefaultPenSize}
}

// Highlight returns a copy of src with a dot stamped at every point. Points
// are in src's coordinate space relative to its bounds' minimum; dots that
// fall outside are clipped. src is not modified.
func Highlight(src image.Image, points []geometry.Point, opts Options) *image.RGBA {
	if opts.Color == nil {
		opts.Color = DefaultColor
	}
	if opts.Size < 1 {
		opts.Size = DefaultPenSize
	}

	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)

	pen := image.NewUniform(opts.Color)
	lo := opts.Size / 2
	for _, p := range points {
		px := p.Pixel()
		dot := image.Rect(px.X-lo, px.Y-lo, px.X-lo+opts.Size, px.Y-lo+opts.Size).Intersect(dst.Bounds())
		if dot.Empty() {
			continue
		}
		draw.Draw(dst, dot, pen, image.Point{}, draw.Over)
	}
	return dst
}
