// Package lattice provides coordinates, hyper-octant symmetry and the
// growable stores used by the automata.
//
// The lattices simulated here are symmetric under every reflection and
// permutation of the axes, so only one canonical representative of each
// symmetry class is kept:
//
//   - [Coord]: a point of the n-dimensional integer lattice
//   - [Canonicalize]: maps any point to its canonical representative
//     (non-negative components sorted descending)
//   - [Orbit] and [Multiplicity]: the reverse expansion
//   - [Store]: storage contract for canonical cells
//   - [Jagged]: in-memory store, one slice per shell
//
// # Layout
//
// Shell k of a store holds the canonical coordinates whose first (and
// largest) component equals k. Inside a shell, cells are ordered by the
// combinatorial rank of the remaining components, which gives shells of
// size 1 in 1D, k+1 in 2D and triangular/tetrahedral sizes in 3D/4D.
//
// # Thread Safety
//
// Stores are NOT safe for concurrent mutation. An automaton owns its
// store exclusively.
package lattice
