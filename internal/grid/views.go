package grid

import (
	"fmt"

	"github.com/san-kum/aethersim/internal/lattice"
)

// crossSection fixes one axis of the base grid.
type crossSection struct {
	base Grid
	axis int
	at   int
	buf  lattice.Coord
}

// CrossSection is the (n-1)-dimensional slice of g where axis == at.
func CrossSection(g Grid, axis, at int) (Grid, error) {
	if g.Dim() < 2 || axis < 0 || axis >= g.Dim() {
		return nil, fmt.Errorf("grid: invalid cross-section axis %d of %dD grid", axis, g.Dim())
	}
	return &crossSection{base: g, axis: axis, at: at, buf: make(lattice.Coord, g.Dim())}, nil
}

func (v *crossSection) Dim() int { return v.base.Dim() - 1 }

func (v *crossSection) lift(c lattice.Coord) lattice.Coord {
	j := 0
	for i := range v.buf {
		if i == v.axis {
			v.buf[i] = v.at
			continue
		}
		v.buf[i] = c[j]
		j++
	}
	return v.buf
}

func (v *crossSection) Get(c lattice.Coord) (int64, error) {
	return v.base.Get(v.lift(c))
}

func (v *crossSection) Bounds() Bounds {
	return dropAxis(v.base.Bounds(), v.axis)
}

// diagonal follows the plane where axis b equals axis a plus an offset.
type diagonal struct {
	base   Grid
	a, b   int
	offset int
	buf    lattice.Coord
}

// Diagonal is the (n-1)-dimensional slice of g where c[b] == c[a] + offset.
// Axis b is dropped from the view's coordinates.
func Diagonal(g Grid, a, b, offset int) (Grid, error) {
	if g.Dim() < 2 || a == b || a < 0 || b < 0 || a >= g.Dim() || b >= g.Dim() {
		return nil, fmt.Errorf("grid: invalid diagonal axes %d,%d of %dD grid", a, b, g.Dim())
	}
	return &diagonal{base: g, a: a, b: b, offset: offset, buf: make(lattice.Coord, g.Dim())}, nil
}

func (v *diagonal) Dim() int { return v.base.Dim() - 1 }

func (v *diagonal) Get(c lattice.Coord) (int64, error) {
	j := 0
	for i := range v.buf {
		if i == v.b {
			continue
		}
		v.buf[i] = c[j]
		j++
	}
	v.buf[v.b] = v.buf[v.a] + v.offset
	return v.base.Get(v.buf)
}

func (v *diagonal) Bounds() Bounds {
	base := v.base.Bounds()
	out := dropAxis(base, v.b)
	ai := v.a
	if v.a > v.b {
		ai--
	}
	out.Min[ai] = max(base.Min[v.a], base.Min[v.b]-v.offset)
	out.Max[ai] = min(base.Max[v.a], base.Max[v.b]-v.offset)
	return out
}

// region clips a grid to a box.
type region struct {
	base   Grid
	bounds Bounds
}

// Region restricts g to the intersection of its bounds and b.
func Region(g Grid, b Bounds) (Grid, error) {
	if b.Dim() != g.Dim() {
		return nil, fmt.Errorf("grid: %dD region over %dD grid", b.Dim(), g.Dim())
	}
	return &region{base: g, bounds: g.Bounds().Intersect(b)}, nil
}

func (v *region) Dim() int       { return v.base.Dim() }
func (v *region) Bounds() Bounds { return v.bounds }

func (v *region) Get(c lattice.Coord) (int64, error) {
	return v.base.Get(c)
}

func dropAxis(b Bounds, axis int) Bounds {
	out := Bounds{Min: make([]int, 0, b.Dim()-1), Max: make([]int, 0, b.Dim()-1)}
	for i := range b.Min {
		if i == axis {
			continue
		}
		out.Min = append(out.Min, b.Min[i])
		out.Max = append(out.Max, b.Max[i])
	}
	return out
}
