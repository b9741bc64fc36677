package automaton

import (
	"context"
	"fmt"

	"github.com/san-kum/aethersim/internal/lattice"
)

// NextStep computes the next state. It returns whether any cell changed.
//
// The new store is built completely before it replaces the current one; on
// error the automaton keeps its previous state and step number. Cancelling
// ctx aborts the sweep between shells.
func (a *Automaton) NextStep(ctx context.Context) (bool, error) {
	target := a.store.Max()
	if a.side == 0 && a.growthPending {
		target++
	}

	next, err := a.factory(a.dim, target, a.background)
	if err != nil {
		return false, &StepError{Step: a.step + 1, Wrapped: err}
	}

	var toppled []bool
	if a.track {
		toppled = make([]bool, lattice.CellCount(a.dim, target))
	}

	sw := sweep{a: a, next: next, target: target, toppled: toppled}
	if err := lattice.ForEachCanonical(a.dim, target, func(c lattice.Coord) error {
		if shellStart(c) {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		return sw.visit(c)
	}); err != nil {
		release(next)
		return false, &StepError{Step: a.step + 1, Wrapped: err}
	}

	release(a.store)
	a.store = next
	a.step++
	a.growthPending = sw.pending
	a.changed = sw.changed
	a.toppledCount = sw.count
	a.toppled = toppled
	return sw.changed, nil
}

func shellStart(c lattice.Coord) bool {
	for _, v := range c[1:] {
		if v != 0 {
			return false
		}
	}
	return true
}

// sweep carries the state of one NextStep pass.
type sweep struct {
	a       *Automaton
	next    lattice.Store
	target  int
	toppled []bool

	changed bool
	pending bool
	count   int
}

func (s *sweep) visit(c lattice.Coord) error {
	a := s.a
	sc := &a.sc

	value, err := a.store.Get(c)
	if err != nil {
		return err
	}
	lattice.NeighborsInto(sc.nb, c)
	for i, n := range sc.nb {
		a.wrap(n)
		lattice.CanonicalizeInto(sc.canon[i], n)
		if sc.values[i], err = a.store.Get(sc.canon[i]); err != nil {
			return err
		}
	}

	keep, top := a.rule.Topple(value, sc.values, sc.shares)
	// the new store starts at background everywhere
	if err := s.next.Add(c, keep-a.background); err != nil {
		return err
	}
	if !top {
		return nil
	}

	s.changed = true
	s.count++
	if s.toppled != nil {
		s.toppled[lattice.Index(c)] = true
	}
	if a.side == 0 && c[0] == s.target {
		s.pending = true
	}

	for i, share := range sc.shares {
		if share == 0 {
			continue
		}
		d := sc.canon[i]
		if seenBefore(sc.canon, i) {
			continue
		}
		if d[0] > s.target {
			return fmt.Errorf("%w: %v -> %v (shell %d)", ErrBoundaryOverrun, c, d, s.target)
		}
		m := a.foldFactor(d, c)
		if err := s.next.Add(d, share*int64(m)); err != nil {
			return err
		}
		if a.side == 0 && d[0] == s.target {
			s.pending = true
		}
	}
	return nil
}

func seenBefore(canon []lattice.Coord, i int) bool {
	for j := 0; j < i; j++ {
		if canon[j].Equal(canon[i]) {
			return true
		}
	}
	return false
}

// foldFactor counts the neighbors of d whose canonical form is c. A share
// sent from c to d stands for that many mirrored shares arriving at d.
func (a *Automaton) foldFactor(d, c lattice.Coord) int {
	nb := a.sc.fold
	lattice.NeighborsInto(nb, d)
	m := 0
	for _, q := range nb {
		a.wrap(q)
		lattice.CanonicalizeInto(q, q)
		if q.Equal(c) {
			m++
		}
	}
	return m
}
