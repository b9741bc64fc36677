// Package grid defines the read-only query interface shared by automata
// and the composable views built on top of it.
package grid

import (
	"fmt"

	"github.com/san-kum/aethersim/internal/lattice"
)

// Bounds is an inclusive box, one Min/Max pair per axis.
type Bounds struct {
	Min []int
	Max []int
}

// Cube returns the bounds [-r, r] on every axis.
func Cube(dim, r int) Bounds {
	b := Bounds{Min: make([]int, dim), Max: make([]int, dim)}
	for i := 0; i < dim; i++ {
		b.Min[i] = -r
		b.Max[i] = r
	}
	return b
}

func (b Bounds) Dim() int { return len(b.Min) }

func (b Bounds) Contains(c lattice.Coord) bool {
	for i, v := range c {
		if v < b.Min[i] || v > b.Max[i] {
			return false
		}
	}
	return true
}

// Size is the number of points in the box.
func (b Bounds) Size() int {
	n := 1
	for i := range b.Min {
		w := b.Max[i] - b.Min[i] + 1
		if w <= 0 {
			return 0
		}
		n *= w
	}
	return n
}

// Intersect clips b by o.
func (b Bounds) Intersect(o Bounds) Bounds {
	out := Bounds{Min: make([]int, len(b.Min)), Max: make([]int, len(b.Max))}
	for i := range b.Min {
		out.Min[i] = max(b.Min[i], o.Min[i])
		out.Max[i] = min(b.Max[i], o.Max[i])
	}
	return out
}

func (b Bounds) String() string {
	return fmt.Sprintf("%v..%v", b.Min, b.Max)
}

// Grid is anything that answers value queries over a bounded region of a
// lattice. Points outside Bounds hold the grid's background value.
type Grid interface {
	Dim() int
	Get(c lattice.Coord) (int64, error)
	Bounds() Bounds
}

// ForEach visits every point of g.Bounds() in row-major order, last axis
// fastest. The coordinate passed to fn is reused between calls.
func ForEach(g Grid, fn func(c lattice.Coord, v int64) error) error {
	b := g.Bounds()
	if b.Size() == 0 {
		return nil
	}
	c := make(lattice.Coord, b.Dim())
	copy(c, b.Min)
	for {
		v, err := g.Get(c)
		if err != nil {
			return err
		}
		if err := fn(c, v); err != nil {
			return err
		}
		i := len(c) - 1
		for i >= 0 && c[i] == b.Max[i] {
			c[i] = b.Min[i]
			i--
		}
		if i < 0 {
			return nil
		}
		c[i]++
	}
}

// Rows returns a 2D grid as a matrix, first axis as rows.
func Rows(g Grid) ([][]int64, error) {
	if g.Dim() != 2 {
		return nil, fmt.Errorf("grid: rows need a 2D grid, got %dD", g.Dim())
	}
	b := g.Bounds()
	rows := make([][]int64, 0, b.Max[0]-b.Min[0]+1)
	err := ForEach(g, func(c lattice.Coord, v int64) error {
		r := c[0] - b.Min[0]
		if r == len(rows) {
			rows = append(rows, make([]int64, 0, b.Max[1]-b.Min[1]+1))
		}
		rows[r] = append(rows[r], v)
		return nil
	})
	return rows, err
}

// Line returns a 1D grid as a slice.
func Line(g Grid) ([]int64, error) {
	if g.Dim() != 1 {
		return nil, fmt.Errorf("grid: line needs a 1D grid, got %dD", g.Dim())
	}
	out := make([]int64, 0, g.Bounds().Size())
	err := ForEach(g, func(_ lattice.Coord, v int64) error {
		out = append(out, v)
		return nil
	})
	return out, err
}
