// internal/geometry/geometry.go
package geometry

import (
	"image"
)

// Rect is a capture region in screen coordinates.
type Rect struct {
	Left   int `mapstructure:"left" yaml:"left" json:"left"`
	Top    int `mapstructure:"top" yaml:"top" json:"top"`
	Width  int `mapstructure:"width" yaml:"width" json:"width"`
	Height int `mapstructure:"height" yaml:"height" json:"height"`
}

// NewRect builds a Rect from its components.
func NewRect(left, top, width, height int) Rect {
	return Rect{Left: left, Top: top, Width: width, Height: height}
}

// Empty reports whether the rect covers no pixels.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Normalize clamps negative dimensions to zero.
func (r Rect) Normalize() Rect {
	if r.Width < 0 {
		r.Width = 0
	}
	if r.Height < 0 {
		r.Height = 0
	}
	return r
}

// Origin returns a rect of the same size anchored at (0,0).
func (r Rect) Origin() Rect {
	return Rect{Width: r.Width, Height: r.Height}
}

// TopLeft returns the top left corner as a real point.
func (r Rect) TopLeft() Point {
	return Point{X: float64(r.Left), Y: float64(r.Top)}
}

// Image converts the rect to the image package representation.
func (r Rect) Image() image.Rectangle {
	return image.Rect(r.Left, r.Top, r.Left+r.Width, r.Top+r.Height)
}

// Contains reports whether p lies inside the rect.
func (r Rect) Contains(p PixelPoint) bool {
	return p.X >= r.Left && p.X < r.Left+r.Width && p.Y >= r.Top && p.Y < r.Top+r.Height
}

// Point is a real valued point in screen space.
type Point struct {
	X, Y float64
}

// Pixel truncates the point toward zero onto the integer pixel grid.
func (p Point) Pixel() PixelPoint {
	return PixelPoint{X: int(p.X), Y: int(p.Y)}
}

// PixelPoint is an integer screen coordinate, the unit input backends work in.
type PixelPoint struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Offset returns the point moved by dx, dy.
func (p PixelPoint) Offset(dx, dy int) PixelPoint {
	return PixelPoint{X: p.X + dx, Y: p.Y + dy}
}

// Real converts the pixel point back to a real point.
func (p PixelPoint) Real() Point {
	return Point{X: float64(p.X), Y: float64(p.Y)}
}
