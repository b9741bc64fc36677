package automaton

import (
	"fmt"
	"io"

	"github.com/san-kum/aethersim/internal/grid"
	"github.com/san-kum/aethersim/internal/lattice"
	"github.com/san-kum/aethersim/internal/rules"
)

type Option func(*options)

type options struct {
	background   int64
	enclosedSide int
	factory      lattice.Factory
	trackTopples bool
}

// WithBackground sets the value held by every cell outside the stored
// region. Only rules implementing rules.BackgroundRule accept it.
func WithBackground(v int64) Option {
	return func(o *options) { o.background = v }
}

// WithEnclosedSide wraps the lattice into a torus of the given odd side,
// centred on the origin. The store is sized once and never grows.
func WithEnclosedSide(side int) Option {
	return func(o *options) { o.enclosedSide = side }
}

// WithStoreFactory replaces the in-memory store, e.g. with a paged one.
func WithStoreFactory(f lattice.Factory) Option {
	return func(o *options) { o.factory = f }
}

// WithToppleTracking records which cells toppled in the last sweep.
func WithToppleTracking() Option {
	return func(o *options) { o.trackTopples = true }
}

func buildOptions(opts []Option) options {
	o := options{factory: lattice.JaggedFactory}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Automaton is the symmetric engine: it stores only canonical cells.
type Automaton struct {
	rule       rules.Rule
	dim        int
	initial    int64
	background int64
	side       int
	factory    lattice.Factory

	store         lattice.Store
	step          uint64
	growthPending bool
	changed       bool
	toppledCount  int

	track   bool
	toppled []bool

	sc scratch
}

type scratch struct {
	nb     []lattice.Coord
	canon  []lattice.Coord
	fold   []lattice.Coord
	values []int64
	shares []int64
}

func newScratch(dim int) scratch {
	mk := func() []lattice.Coord {
		cs := make([]lattice.Coord, 2*dim)
		for i := range cs {
			cs[i] = make(lattice.Coord, dim)
		}
		return cs
	}
	return scratch{
		nb:     mk(),
		canon:  mk(),
		fold:   mk(),
		values: make([]int64, 2*dim),
		shares: make([]int64, 2*dim),
	}
}

// New creates an automaton with a single source of the given value at the
// origin.
func New(rule rules.Rule, dim int, initial int64, opts ...Option) (*Automaton, error) {
	o := buildOptions(opts)
	a, err := newAutomaton(rule, dim, initial, o)
	if err != nil {
		return nil, err
	}

	max := 1
	if a.side > 0 {
		max = a.side / 2
	}
	store, err := a.factory(dim, max, a.background)
	if err != nil {
		return nil, err
	}
	if err := store.Set(make(lattice.Coord, dim), initial); err != nil {
		release(store)
		return nil, err
	}
	a.store = store
	return a, nil
}

func newAutomaton(rule rules.Rule, dim int, initial int64, o options) (*Automaton, error) {
	if rule == nil {
		return nil, fmt.Errorf("%w: nil rule", ErrUnsupportedConfig)
	}
	if dim < 1 || dim > lattice.MaxDim {
		return nil, fmt.Errorf("%w: dimension %d (want 1..%d)", ErrUnsupportedConfig, dim, lattice.MaxDim)
	}
	if o.enclosedSide != 0 && (o.enclosedSide < 1 || o.enclosedSide%2 == 0) {
		return nil, fmt.Errorf("%w: enclosed side must be odd and positive, got %d", ErrUnsupportedConfig, o.enclosedSide)
	}
	if o.background != 0 {
		br, ok := rule.(rules.BackgroundRule)
		if !ok || !br.SupportsBackground() {
			return nil, fmt.Errorf("%w: %s does not support background value %d", ErrUnsupportedConfig, rule.Name(), o.background)
		}
	}
	if v, ok := rule.(rules.SourceValidator); ok {
		if err := v.ValidateSource(dim, initial); err != nil {
			return nil, err
		}
	}
	if v, ok := rule.(rules.BackgroundValidator); ok {
		if err := v.ValidateBackground(initial, o.background); err != nil {
			return nil, err
		}
	}
	if o.factory == nil {
		o.factory = lattice.JaggedFactory
	}

	return &Automaton{
		rule:       rule,
		dim:        dim,
		initial:    initial,
		background: o.background,
		side:       o.enclosedSide,
		factory:    o.factory,
		track:      o.trackTopples,
		sc:         newScratch(dim),
	}, nil
}

func (a *Automaton) Rule() rules.Rule    { return a.rule }
func (a *Automaton) Dim() int            { return a.dim }
func (a *Automaton) Step() uint64        { return a.step }
func (a *Automaton) Initial() int64      { return a.initial }
func (a *Automaton) Background() int64   { return a.background }
func (a *Automaton) EnclosedSide() int   { return a.side }
func (a *Automaton) GrowthPending() bool { return a.growthPending }

// Changed reports whether the last step altered any cell.
func (a *Automaton) Changed() bool { return a.changed }

// Toppled is the number of canonical cells that toppled in the last step.
func (a *Automaton) Toppled() int { return a.toppledCount }

func (a *Automaton) Name() string { return a.rule.Name() }

// SubFolderPath names the directory that artifacts of this automaton are
// grouped under, e.g. "Aether/2D/1000".
func (a *Automaton) SubFolderPath() string {
	p := fmt.Sprintf("%s/%dD/%d", a.rule.Name(), a.dim, a.initial)
	if a.background != 0 {
		p += fmt.Sprintf("/background_%d", a.background)
	}
	if a.side > 0 {
		p += fmt.Sprintf("/enclosed_%d", a.side)
	}
	return p
}

// MaxX is the largest stored index on every axis.
func (a *Automaton) MaxX() int { return a.store.Max() }

// MinX mirrors MaxX.
func (a *Automaton) MinX() int { return -a.store.Max() }

func (a *Automaton) Bounds() grid.Bounds {
	return grid.Cube(a.dim, a.store.Max())
}

// Get returns the value at any lattice point. Points outside the stored
// region hold the background value; enclosed lattices wrap first.
func (a *Automaton) Get(c lattice.Coord) (int64, error) {
	if len(c) != a.dim {
		return 0, fmt.Errorf("%w: %dD coordinate %v on %dD automaton", lattice.ErrDimension, len(c), c, a.dim)
	}
	k := c.Clone()
	a.wrap(k)
	lattice.CanonicalizeInto(k, k)
	return a.store.Get(k)
}

// GetCanonicalUnchecked reads a stored cell directly. c must be canonical
// and within MaxX; it panics otherwise instead of reading another cell.
func (a *Automaton) GetCanonicalUnchecked(c lattice.Coord) int64 {
	if len(c) != a.dim || !lattice.IsCanonical(c) || c[0] > a.store.Max() {
		panic(fmt.Sprintf("automaton: unchecked read of %v outside canonical store (max %d)", c, a.store.Max()))
	}
	v, err := a.store.Get(c)
	if err != nil {
		panic(fmt.Sprintf("automaton: unchecked read of %v: %v", c, err))
	}
	return v
}

// ForEachStored visits every canonical cell in store order. The coordinate
// passed to fn is reused between calls.
func (a *Automaton) ForEachStored(fn func(c lattice.Coord, v int64) error) error {
	return lattice.ForEachCanonical(a.dim, a.store.Max(), func(c lattice.Coord) error {
		v, err := a.store.Get(c)
		if err != nil {
			return err
		}
		return fn(c, v)
	})
}

// ToppledLastStep reports whether the canonical cell c toppled in the last
// sweep. It requires WithToppleTracking.
func (a *Automaton) ToppledLastStep(c lattice.Coord) (bool, error) {
	if !a.track {
		return false, fmt.Errorf("%w: topple tracking disabled", ErrUnsupportedConfig)
	}
	if !lattice.IsCanonical(c) || len(c) != a.dim {
		return false, fmt.Errorf("%w: %v", lattice.ErrNotCanonical, c)
	}
	i := lattice.Index(c)
	if i >= len(a.toppled) {
		return false, nil
	}
	return a.toppled[i], nil
}

// wrap folds an enclosed coordinate into [-side/2, side/2]. Unbounded
// lattices are left untouched.
func (a *Automaton) wrap(c lattice.Coord) {
	if a.side == 0 {
		return
	}
	wrapInto(c, a.side)
}

func wrapInto(c lattice.Coord, side int) {
	half := side / 2
	for i, v := range c {
		if v > half {
			c[i] = (v+half)%side - half
		} else if v < -half {
			c[i] = (v-half)%side + half
		}
	}
}

// release hands a discarded store back to its owner when it holds
// resources beyond memory.
func release(s lattice.Store) {
	if c, ok := s.(io.Closer); ok {
		_ = c.Close()
	}
}

// Close releases the current store. The automaton must not be used
// afterwards.
func (a *Automaton) Close() error {
	if c, ok := a.store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
