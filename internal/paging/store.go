package paging

import (
	"fmt"

	"github.com/san-kum/aethersim/internal/lattice"
)

// Store is a lattice.Store whose shells live in a Pager. It is safe for
// concurrent use, but the automaton using it is not.
type Store struct {
	pager      *Pager
	gen        uint64
	dim        int
	background int64
	blocks     []*block
	closed     bool
}

func (s *Store) Dim() int          { return s.dim }
func (s *Store) Max() int          { return len(s.blocks) - 1 }
func (s *Store) Background() int64 { return s.background }
func (s *Store) Len() int          { return lattice.CellCount(s.dim, s.Max()) }

// Generation is the pager-wide id of this store.
func (s *Store) Generation() uint64 { return s.gen }

func (s *Store) check(c lattice.Coord) error {
	if s.closed {
		return fmt.Errorf("paging: store generation %d is closed", s.gen)
	}
	if len(c) != s.dim {
		return fmt.Errorf("%w: coordinate %v in %dD store", lattice.ErrDimension, c, s.dim)
	}
	if !lattice.IsCanonical(c) {
		return fmt.Errorf("%w: %v", lattice.ErrNotCanonical, c)
	}
	return nil
}

func (s *Store) Get(c lattice.Coord) (int64, error) {
	s.pager.mu.Lock()
	defer s.pager.mu.Unlock()
	if err := s.check(c); err != nil {
		return 0, err
	}
	if c[0] > s.Max() {
		return s.background, nil
	}
	cells, err := s.pager.resident(s.blocks[c[0]], s.background)
	if err != nil {
		return 0, err
	}
	return cells[lattice.ShellIndex(c)], nil
}

func (s *Store) Set(c lattice.Coord, v int64) error {
	return s.update(c, func(old int64) int64 { return v })
}

func (s *Store) Add(c lattice.Coord, delta int64) error {
	return s.update(c, func(old int64) int64 { return old + delta })
}

func (s *Store) update(c lattice.Coord, fn func(int64) int64) error {
	s.pager.mu.Lock()
	defer s.pager.mu.Unlock()
	if err := s.check(c); err != nil {
		return err
	}
	if c[0] > s.Max() {
		return fmt.Errorf("%w: %v beyond shell %d", lattice.ErrOutOfBounds, c, s.Max())
	}
	b := s.blocks[c[0]]
	cells, err := s.pager.resident(b, s.background)
	if err != nil {
		return err
	}
	i := lattice.ShellIndex(c)
	cells[i] = fn(cells[i])
	b.dirty = true
	return nil
}

// Close frees the store's memory and drops its spilled shells.
func (s *Store) Close() error {
	s.pager.mu.Lock()
	defer s.pager.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.pager.release(s)
}
