package metrics

import (
	"math"

	"github.com/san-kum/aethersim/internal/automaton"
)

// ExcessDrift is the largest deviation of the lattice excess from its
// first observed value. Every rule conserves excess, so anything but zero
// points at a broken store.
type ExcessDrift struct {
	name     string
	initial  int64
	maxDrift float64
	samples  int
}

func NewExcessDrift() *ExcessDrift {
	return &ExcessDrift{name: "excess_drift"}
}

func (e *ExcessDrift) Name() string { return e.name }

func (e *ExcessDrift) Observe(s automaton.Stats) {
	if e.samples == 0 {
		e.initial = s.Excess
	}
	e.samples++
	drift := math.Abs(float64(s.Excess - e.initial))
	e.maxDrift = math.Max(e.maxDrift, drift)
}

func (e *ExcessDrift) Value() float64 {
	return e.maxDrift
}

func (e *ExcessDrift) Reset() {
	e.initial = 0
	e.maxDrift = 0
	e.samples = 0
}
