// internal/grid/grid.go
package grid

import (
	"fmt"

	"github.com/xkilldash9x/gridclick/internal/geometry"
)

// DefaultCells is the cell count used for both axes when nothing is configured.
const DefaultCells = 12

// Config defines how many scan points populate one full pass of the region.
type Config struct {
	HCells int `mapstructure:"h_cells" yaml:"h_cells"`
	VCells int `mapstructure:"v_cells" yaml:"v_cells"`
}

// DefaultConfig returns a 12x12 grid.
func DefaultConfig() Config {
	return Config{HCells: DefaultCells, VCells: DefaultCells}
}

// Normalize clamps both counts to a minimum of 1 so the projection never divides by zero.
func (c Config) Normalize() Config {
	if c.HCells < 1 {
		c.HCells = 1
	}
	if c.VCells < 1 {
		c.VCells = 1
	}
	return c
}

// Size is the number of points one pass produces.
func (c Config) Size() int {
	n := c.Normalize()
	return n.HCells * n.VCells
}

// Validate rejects counts below 1.
func (c Config) Validate() error {
	if c.HCells < 1 || c.VCells < 1 {
		return fmt.Errorf("cell counts must be at least 1 (got %dx%d)", c.HCells, c.VCells)
	}
	return nil
}

// Generate projects the grid onto the region. The lattice is sheared so that
// consecutive points sweep diagonally across the region:
//
//	a11 = W/(m+n)  a12 = -a11
//	a21 = H/(m+n)  a22 =  a21
//	px  = left + a11*x     + a12*(y-n)
//	py  = top  + a21*(x+1) + a22*y
//
// Points are enumerated row-major with y outer and x inner. The result is a
// pure function of its inputs.
func Generate(region geometry.Rect, cfg Config) []geometry.Point {
	cfg = cfg.Normalize()
	m, n := cfg.HCells, cfg.VCells

	a11 := float64(region.Width) / float64(m+n)
	a12 := -a11
	a21 := float64(region.Height) / float64(m+n)
	a22 := a21

	origin := region.TopLeft()
	pts := make([]geometry.Point, 0, m*n)
	for y := 0; y < n; y++ {
		for x := 0; x < m; x++ {
			fx, fy := float64(x), float64(y)
			pts = append(pts, geometry.Point{
				X: origin.X + (a11*fx + a12*(fy-float64(n))),
				Y: origin.Y + (a21*(fx+1.0) + a22*fy),
			})
		}
	}
	return pts
}
