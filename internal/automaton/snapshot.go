package automaton

import (
	"fmt"

	"github.com/san-kum/aethersim/internal/lattice"
	"github.com/san-kum/aethersim/internal/rules"
)

// Snapshot is the complete state of an Automaton. Cells holds the stored
// canonical cells in store order (see lattice.ForEachCanonical).
type Snapshot struct {
	Rule          string  `json:"rule"`
	Dim           int     `json:"dim"`
	Initial       int64   `json:"initial"`
	Background    int64   `json:"background"`
	EnclosedSide  int     `json:"enclosed_side"`
	Step          uint64  `json:"step"`
	GrowthPending bool    `json:"growth_pending"`
	Changed       bool    `json:"changed"`
	Max           int     `json:"max"`
	Cells         []int64 `json:"cells"`
}

// State exports the current state.
func (a *Automaton) State() (*Snapshot, error) {
	s := &Snapshot{
		Rule:          a.rule.Name(),
		Dim:           a.dim,
		Initial:       a.initial,
		Background:    a.background,
		EnclosedSide:  a.side,
		Step:          a.step,
		GrowthPending: a.growthPending,
		Changed:       a.changed,
		Max:           a.store.Max(),
		Cells:         make([]int64, 0, lattice.CellCount(a.dim, a.store.Max())),
	}
	err := a.ForEachStored(func(_ lattice.Coord, v int64) error {
		s.Cells = append(s.Cells, v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Restore rebuilds an automaton from a snapshot. Background and enclosed
// side come from the snapshot; opts may add a store factory or topple
// tracking.
func Restore(s *Snapshot, opts ...Option) (*Automaton, error) {
	rule, err := rules.Lookup(s.Rule)
	if err != nil {
		return nil, err
	}
	o := buildOptions(opts)
	o.background = s.Background
	o.enclosedSide = s.EnclosedSide

	a, err := newAutomaton(rule, s.Dim, s.Initial, o)
	if err != nil {
		return nil, err
	}
	if s.Max < 0 {
		return nil, fmt.Errorf("%w: negative max %d", ErrSnapshotMismatch, s.Max)
	}
	if a.side > 0 && s.Max != a.side/2 {
		return nil, fmt.Errorf("%w: max %d on enclosed side %d", ErrSnapshotMismatch, s.Max, a.side)
	}
	if want := lattice.CellCount(s.Dim, s.Max); len(s.Cells) != want {
		return nil, fmt.Errorf("%w: %d cells, want %d", ErrSnapshotMismatch, len(s.Cells), want)
	}

	store, err := a.factory(s.Dim, s.Max, s.Background)
	if err != nil {
		return nil, err
	}
	i := 0
	err = lattice.ForEachCanonical(s.Dim, s.Max, func(c lattice.Coord) error {
		v := s.Cells[i]
		i++
		if v == s.Background {
			return nil
		}
		return store.Set(c, v)
	})
	if err != nil {
		release(store)
		return nil, err
	}

	a.store = store
	a.step = s.Step
	a.growthPending = s.GrowthPending
	a.changed = s.Changed
	return a, nil
}
