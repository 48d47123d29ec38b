//go:build cgo

// internal/platform/desktop_pointer_cgo.go
package platform

import (
	"github.com/go-vgo/robotgo"

	"github.com/xkilldash9x/gridclick/internal/geometry"
)

func cursorPosition() (geometry.PixelPoint, error) {
	x, y := robotgo.Location()
	return geometry.PixelPoint{X: x, Y: y}, nil
}

func movePointer(p geometry.PixelPoint) error {
	robotgo.Move(p.X, p.Y)
	return nil
}

func clickPrimary() error {
	robotgo.Click("left", false)
	return nil
}
