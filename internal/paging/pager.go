package paging

import (
	"container/list"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/san-kum/aethersim/internal/lattice"
)

// ErrBlockUnavailable indicates a spilled block the backing no longer has.
var ErrBlockUnavailable = errors.New("paging: block unavailable")

// Key identifies one shell of one store generation.
type Key struct {
	Generation uint64
	Shell      int
}

func (k Key) String() string {
	return fmt.Sprintf("gen-%d/shell-%d", k.Generation, k.Shell)
}

// Backing persists spilled blocks. Load returns ErrBlockUnavailable for a
// block that was never saved or has been dropped.
type Backing interface {
	Save(key Key, cells []int64) error
	Load(key Key) ([]int64, error)
	Drop(generation uint64) error
	Close() error
}

// Stats counts pager traffic since creation.
type Stats struct {
	Resident int64 `json:"resident_bytes"`
	Spills   int   `json:"spills"`
	Restores int   `json:"restores"`
}

// Pager keeps the shells of every store it creates within a shared byte
// budget, spilling least recently used shells to its backing.
type Pager struct {
	mu      sync.Mutex
	backing Backing
	budget  int64
	used    int64
	lru     *list.List
	gen     uint64
	stats   Stats
	logger  *log.Logger
}

// NewPager creates a pager. A budget below one shell still works: the
// shell being accessed is always kept resident.
func NewPager(backing Backing, budget int64, logger *log.Logger) *Pager {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Pager{
		backing: backing,
		budget:  budget,
		lru:     list.New(),
		logger:  logger,
	}
}

// Factory satisfies lattice.Factory.
func (p *Pager) Factory(dim, max int, background int64) (lattice.Store, error) {
	return p.NewStore(dim, max, background)
}

func (p *Pager) NewStore(dim, max int, background int64) (*Store, error) {
	if dim < 1 || dim > lattice.MaxDim {
		return nil, fmt.Errorf("%w: %d", lattice.ErrDimension, dim)
	}
	if max < 0 {
		return nil, fmt.Errorf("paging: negative max %d", max)
	}

	p.mu.Lock()
	p.gen++
	gen := p.gen
	p.mu.Unlock()

	s := &Store{
		pager:      p,
		gen:        gen,
		dim:        dim,
		background: background,
		blocks:     make([]*block, max+1),
	}
	for x := range s.blocks {
		s.blocks[x] = &block{key: Key{Generation: gen, Shell: x}, size: lattice.ShellSize(dim, x)}
	}
	return s, nil
}

func (p *Pager) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.stats
	s.Resident = p.used
	return s
}

// Close closes the backing.
func (p *Pager) Close() error {
	return p.backing.Close()
}

type block struct {
	key     Key
	size    int
	cells   []int64
	dirty   bool
	spilled bool
	elem    *list.Element
}

func (b *block) bytes() int64 { return int64(b.size) * 8 }

// resident returns the cells of b, restoring or allocating them as needed.
// The caller holds p.mu.
func (p *Pager) resident(b *block, background int64) ([]int64, error) {
	if b.cells != nil {
		p.lru.MoveToFront(b.elem)
		return b.cells, nil
	}

	if b.spilled {
		cells, err := p.backing.Load(b.key)
		if err != nil {
			return nil, err
		}
		if len(cells) != b.size {
			return nil, fmt.Errorf("%w: %s has %d cells, want %d", ErrBlockUnavailable, b.key, len(cells), b.size)
		}
		b.cells = cells
		p.stats.Restores++
	} else {
		b.cells = make([]int64, b.size)
		if background != 0 {
			for i := range b.cells {
				b.cells[i] = background
			}
		}
		b.dirty = true
	}
	b.elem = p.lru.PushFront(b)
	p.used += b.bytes()

	if err := p.evict(b); err != nil {
		return nil, err
	}
	return b.cells, nil
}

// evict spills blocks from the back of the list until the budget holds,
// never spilling keep.
func (p *Pager) evict(keep *block) error {
	for p.used > p.budget {
		e := p.lru.Back()
		if e == nil {
			return nil
		}
		b := e.Value.(*block)
		if b == keep {
			return nil
		}
		if b.dirty || !b.spilled {
			if err := p.backing.Save(b.key, b.cells); err != nil {
				return fmt.Errorf("paging: spill %s: %w", b.key, err)
			}
			p.stats.Spills++
		}
		p.lru.Remove(e)
		p.used -= b.bytes()
		b.cells, b.elem = nil, nil
		b.dirty, b.spilled = false, true
	}
	return nil
}

// release forgets every block of s. The caller holds p.mu.
func (p *Pager) release(s *Store) error {
	spilled := false
	for _, b := range s.blocks {
		if b.elem != nil {
			p.lru.Remove(b.elem)
			p.used -= b.bytes()
		}
		spilled = spilled || b.spilled
		b.cells, b.elem = nil, nil
	}
	if !spilled {
		return nil
	}
	if err := p.backing.Drop(s.gen); err != nil {
		p.logger.Printf("drop generation %d: %v", s.gen, err)
		return err
	}
	return nil
}
