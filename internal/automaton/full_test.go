package automaton

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/san-kum/aethersim/internal/grid"
	"github.com/san-kum/aethersim/internal/lattice"
	"github.com/san-kum/aethersim/internal/rules"
)

// Full stores every point of a centred cube. It costs 2^n * n! times the
// memory of Automaton but accepts any initial configuration.
type Full struct {
	rule       rules.Rule
	dim        int
	initial    int64
	background int64
	side       int

	half          int
	cells         []int64
	step          uint64
	growthPending bool
	changed       bool

	nb     []lattice.Coord
	values []int64
	shares []int64
}

// NewFull creates a dense engine with a single source at the origin.
func NewFull(rule rules.Rule, dim int, initial int64, opts ...Option) (*Full, error) {
	f, err := newFull(rule, dim, initial, 1, opts)
	if err != nil {
		return nil, err
	}
	f.cells[f.index(make(lattice.Coord, dim))] = initial
	return f, nil
}

// NewRandomFull fills the cube [-half, half]^dim with values drawn
// uniformly from [lo, hi] by a generator seeded with seed. Enclosed
// lattices fill the whole torus and ignore half.
func NewRandomFull(rule rules.Rule, dim, half int, lo, hi int64, seed int64, opts ...Option) (*Full, error) {
	if half < 0 || lo > hi {
		return nil, fmt.Errorf("%w: random region half %d range [%d, %d]", ErrUnsupportedConfig, half, lo, hi)
	}
	o := buildOptions(opts)
	extent := half + 1
	if o.enclosedSide > 0 {
		half = o.enclosedSide / 2
	}
	f, err := newFull(rule, dim, 0, extent, opts)
	if err != nil {
		return nil, err
	}
	if v, ok := rule.(rules.SourceValidator); ok {
		if err := v.ValidateSource(dim, lo); err != nil {
			return nil, err
		}
		if err := v.ValidateSource(dim, hi); err != nil {
			return nil, err
		}
	}

	rng := rand.New(rand.NewSource(seed))
	span := uint64(hi - lo)
	err = grid.ForEach(cubeGrid{dim: dim, half: half}, func(c lattice.Coord, _ int64) error {
		v := lo
		if span == ^uint64(0) {
			v = int64(rng.Uint64())
		} else if span > 0 {
			v = lo + int64(uniform(rng, span+1))
		}
		f.cells[f.index(c)] = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return f, nil
}

// uniform draws from [0, n) without modulo bias.
func uniform(rng *rand.Rand, n uint64) uint64 {
	limit := ^uint64(0) - (^uint64(0)%n+1)%n
	for {
		v := rng.Uint64()
		if v <= limit {
			return v % n
		}
	}
}

// cubeGrid only supplies bounds for iteration.
type cubeGrid struct {
	dim, half int
}

func (g cubeGrid) Dim() int                         { return g.dim }
func (g cubeGrid) Bounds() grid.Bounds              { return grid.Cube(g.dim, g.half) }
func (g cubeGrid) Get(lattice.Coord) (int64, error) { return 0, nil }

func newFull(rule rules.Rule, dim int, initial int64, half int, opts []Option) (*Full, error) {
	// the zero source passes every validator; real sources are checked below
	a, err := newAutomaton(rule, dim, 0, buildOptions(opts))
	if err != nil {
		return nil, err
	}
	if v, ok := rule.(rules.SourceValidator); ok && initial != 0 {
		if err := v.ValidateSource(dim, initial); err != nil {
			return nil, err
		}
	}
	if a.side > 0 {
		half = a.side / 2
	}
	f := &Full{
		rule:       rule,
		dim:        dim,
		initial:    initial,
		background: a.background,
		side:       a.side,
		half:       half,
		nb:         newScratch(dim).nb,
		values:     make([]int64, 2*dim),
		shares:     make([]int64, 2*dim),
	}
	f.cells = f.alloc(half)
	return f, nil
}

func (f *Full) alloc(half int) []int64 {
	n := 1
	for i := 0; i < f.dim; i++ {
		n *= 2*half + 1
	}
	cells := make([]int64, n)
	if f.background != 0 {
		for i := range cells {
			cells[i] = f.background
		}
	}
	return cells
}

func (f *Full) Dim() int            { return f.dim }
func (f *Full) Step() uint64        { return f.step }
func (f *Full) Name() string        { return f.rule.Name() }
func (f *Full) Changed() bool       { return f.changed }
func (f *Full) GrowthPending() bool { return f.growthPending }
func (f *Full) MaxX() int           { return f.half }
func (f *Full) MinX() int           { return -f.half }
func (f *Full) Bounds() grid.Bounds { return grid.Cube(f.dim, f.half) }

// index is the row-major offset of c in a cube of the current half.
func (f *Full) index(c lattice.Coord) int {
	return indexIn(c, f.half)
}

func indexIn(c lattice.Coord, half int) int {
	side := 2*half + 1
	i := 0
	for _, v := range c {
		i = i*side + v + half
	}
	return i
}

func (f *Full) inside(c lattice.Coord, half int) bool {
	for _, v := range c {
		if v < -half || v > half {
			return false
		}
	}
	return true
}

func (f *Full) onRing(c lattice.Coord, half int) bool {
	for _, v := range c {
		if v == half || v == -half {
			return true
		}
	}
	return false
}

func (f *Full) at(c lattice.Coord) int64 {
	if !f.inside(c, f.half) {
		return f.background
	}
	return f.cells[f.index(c)]
}

// Get returns the value at any point; enclosed lattices wrap first.
func (f *Full) Get(c lattice.Coord) (int64, error) {
	if len(c) != f.dim {
		return 0, fmt.Errorf("%w: %dD coordinate %v on %dD automaton", lattice.ErrDimension, len(c), c, f.dim)
	}
	k := c.Clone()
	if f.side > 0 {
		wrapInto(k, f.side)
	}
	return f.at(k), nil
}

// Excess is the sum of (value - background) over all points.
func (f *Full) Excess() int64 {
	var s int64
	for _, v := range f.cells {
		s += v - f.background
	}
	return s
}

// NextStep advances the dense lattice with the same growth and error
// contract as Automaton.NextStep.
func (f *Full) NextStep(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, &StepError{Step: f.step + 1, Wrapped: err}
	}
	half := f.half
	if f.side == 0 && f.growthPending {
		half++
	}
	next := f.alloc(half)

	var changed, pending bool
	err := grid.ForEach(cubeGrid{dim: f.dim, half: half}, func(c lattice.Coord, _ int64) error {
		value := f.at(c)
		lattice.NeighborsInto(f.nb, c)
		for i, n := range f.nb {
			if f.side > 0 {
				wrapInto(n, f.side)
			}
			f.values[i] = f.at(n)
		}
		keep, top := f.rule.Topple(value, f.values, f.shares)
		next[indexIn(c, half)] += keep - f.background
		if !top {
			return nil
		}
		changed = true
		if f.side == 0 && f.onRing(c, half) {
			pending = true
		}
		for i, share := range f.shares {
			if share == 0 {
				continue
			}
			n := f.nb[i]
			if !f.inside(n, half) {
				return fmt.Errorf("%w: %v -> %v (half %d)", ErrBoundaryOverrun, c, n, half)
			}
			next[indexIn(n, half)] += share
			if f.side == 0 && f.onRing(n, half) {
				pending = true
			}
		}
		return nil
	})
	if err != nil {
		return false, &StepError{Step: f.step + 1, Wrapped: err}
	}

	f.cells = next
	f.half = half
	f.step++
	f.growthPending = pending
	f.changed = changed
	return changed, nil
}
