package automaton

import (
	"fmt"

	"github.com/san-kum/aethersim/internal/lattice"
)

// Compliance reports how well the last sweep followed checkerboard
// alternation: on even steps only points with an even coordinate sum
// topple, on odd steps only odd ones. Negative sources swap the parity.
type Compliance struct {
	// Step is the step the checked sweep started from.
	Step       uint64 `json:"step"`
	Points     int64  `json:"points"`
	Compliant  int64  `json:"compliant"`
	Violations int64  `json:"violations"`
}

// Ratio is the compliant share of checked points.
func (c Compliance) Ratio() float64 {
	if c.Points == 0 {
		return 1
	}
	return float64(c.Compliant) / float64(c.Points)
}

// CheckCompliance evaluates the last sweep of a. The automaton must have
// been created with WithToppleTracking and stepped at least once.
func CheckCompliance(a *Automaton) (Compliance, error) {
	if !a.track {
		return Compliance{}, fmt.Errorf("%w: topple tracking disabled", ErrUnsupportedConfig)
	}
	if a.step == 0 || a.toppled == nil {
		return Compliance{}, fmt.Errorf("%w: no sweep recorded yet", ErrUnsupportedConfig)
	}

	from := a.step - 1
	evenTurn := (a.initial >= 0) == (from%2 == 0)
	r := Compliance{Step: from}
	err := lattice.ForEachCanonical(a.dim, a.store.Max(), func(c lattice.Coord) error {
		sum := 0
		for _, v := range c {
			sum += v
		}
		m := lattice.Multiplicity(c)
		r.Points += m
		if a.toppled[lattice.Index(c)] == ((sum%2 == 0) == evenTurn) {
			r.Compliant += m
		} else {
			r.Violations += m
		}
		return nil
	})
	return r, err
}
