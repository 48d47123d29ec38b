//go:build !cgo

// internal/platform/desktop_pointer_stub.go
package platform

import (
	"fmt"

	"github.com/xkilldash9x/gridclick/internal/geometry"
)

func cursorPosition() (geometry.PixelPoint, error) {
	return geometry.PixelPoint{}, fmt.Errorf("desktop: pointer requires a cgo build: %w", ErrUnsupported)
}

func movePointer(geometry.PixelPoint) error {
	return fmt.Errorf("desktop: pointer requires a cgo build: %w", ErrUnsupported)
}

func clickPrimary() error {
	return fmt.Errorf("desktop: pointer requires a cgo build: %w", ErrUnsupported)
}
