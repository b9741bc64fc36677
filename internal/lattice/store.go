package lattice

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfBounds indicates a write beyond the current max shell.
	ErrOutOfBounds = errors.New("lattice: coordinate outside stored region")

	// ErrNotCanonical indicates a coordinate that is not sorted descending and non-negative.
	ErrNotCanonical = errors.New("lattice: coordinate is not canonical")

	// ErrDimension indicates a dimension outside 1..MaxDim or a mismatched coordinate.
	ErrDimension = errors.New("lattice: unsupported dimension")
)

// Store holds the canonical cells of a lattice up to a max shell. Reads
// outside the stored region return the background value; writes there
// fail with ErrOutOfBounds. Implementations backed by I/O may return other
// errors from any method.
type Store interface {
	Dim() int
	Max() int
	Background() int64
	// Len is the number of stored canonical cells.
	Len() int
	Get(c Coord) (int64, error)
	Set(c Coord, v int64) error
	Add(c Coord, delta int64) error
}

// Factory builds an empty store filled with the background value.
type Factory func(dim, max int, background int64) (Store, error)

// Jagged is the in-memory Store: one slice per shell.
type Jagged struct {
	dim        int
	background int64
	shells     [][]int64
}

func NewJagged(dim, max int, background int64) (*Jagged, error) {
	if dim < 1 || dim > MaxDim {
		return nil, fmt.Errorf("%w: %d", ErrDimension, dim)
	}
	if max < 0 {
		return nil, fmt.Errorf("lattice: negative max %d", max)
	}
	j := &Jagged{
		dim:        dim,
		background: background,
		shells:     make([][]int64, max+1),
	}
	for x := range j.shells {
		j.shells[x] = newShell(dim, x, background)
	}
	return j, nil
}

// JaggedFactory adapts NewJagged to Factory.
func JaggedFactory(dim, max int, background int64) (Store, error) {
	return NewJagged(dim, max, background)
}

func newShell(dim, x int, background int64) []int64 {
	s := make([]int64, ShellSize(dim, x))
	if background != 0 {
		for i := range s {
			s[i] = background
		}
	}
	return s
}

func (j *Jagged) Dim() int          { return j.dim }
func (j *Jagged) Max() int          { return len(j.shells) - 1 }
func (j *Jagged) Background() int64 { return j.background }

// Len is the number of stored cells.
func (j *Jagged) Len() int { return CellCount(j.dim, j.Max()) }

func (j *Jagged) check(c Coord) error {
	if len(c) != j.dim {
		return fmt.Errorf("%w: coordinate %v in %dD store", ErrDimension, c, j.dim)
	}
	if !IsCanonical(c) {
		return fmt.Errorf("%w: %v", ErrNotCanonical, c)
	}
	return nil
}

func (j *Jagged) Get(c Coord) (int64, error) {
	if err := j.check(c); err != nil {
		return 0, err
	}
	if c[0] > j.Max() {
		return j.background, nil
	}
	return j.shells[c[0]][ShellIndex(c)], nil
}

func (j *Jagged) Set(c Coord, v int64) error {
	if err := j.check(c); err != nil {
		return err
	}
	if c[0] > j.Max() {
		return fmt.Errorf("%w: %v beyond shell %d", ErrOutOfBounds, c, j.Max())
	}
	j.shells[c[0]][ShellIndex(c)] = v
	return nil
}

func (j *Jagged) Add(c Coord, delta int64) error {
	if err := j.check(c); err != nil {
		return err
	}
	if c[0] > j.Max() {
		return fmt.Errorf("%w: %v beyond shell %d", ErrOutOfBounds, c, j.Max())
	}
	j.shells[c[0]][ShellIndex(c)] += delta
	return nil
}

// Shell exposes the raw cells of shell x in rank order.
func (j *Jagged) Shell(x int) []int64 {
	if x < 0 || x > j.Max() {
		return nil
	}
	return j.shells[x]
}
