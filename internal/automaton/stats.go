package automaton

import (
	"math"

	"github.com/san-kum/aethersim/internal/lattice"
)

// Stats summarizes the whole lattice at the current step. Counts and sums
// are expanded through each canonical cell's multiplicity.
type Stats struct {
	Step    uint64 `json:"step"`
	MaxX    int    `json:"max_x"`
	Changed bool   `json:"changed"`
	Toppled int    `json:"toppled"`

	// Excess is the sum of (value - background) over all points. Every
	// rule conserves it.
	Excess        int64 `json:"excess"`
	MinValue      int64 `json:"min_value"`
	MaxValue      int64 `json:"max_value"`
	NonBackground int64 `json:"non_background"`
}

func (a *Automaton) Stats() (Stats, error) {
	s := Stats{
		Step:     a.step,
		MaxX:     a.store.Max(),
		Changed:  a.changed,
		Toppled:  a.toppledCount,
		MinValue: math.MaxInt64,
		MaxValue: math.MinInt64,
	}
	err := a.ForEachStored(func(c lattice.Coord, v int64) error {
		m := lattice.Multiplicity(c)
		s.Excess += (v - a.background) * m
		if v < s.MinValue {
			s.MinValue = v
		}
		if v > s.MaxValue {
			s.MaxValue = v
		}
		if v != a.background {
			s.NonBackground += m
		}
		return nil
	})
	return s, err
}
