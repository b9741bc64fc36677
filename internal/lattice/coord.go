package lattice

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// MaxDim is the highest lattice dimension supported by the stores.
const MaxDim = 4

type Coord []int

func (c Coord) Clone() Coord {
	out := make(Coord, len(c))
	copy(out, c)
	return out
}

func (c Coord) Equal(o Coord) bool {
	if len(c) != len(o) {
		return false
	}
	for i := range c {
		if c[i] != o[i] {
			return false
		}
	}
	return true
}

func (c Coord) String() string {
	parts := make([]string, len(c))
	for i, v := range c {
		parts[i] = strconv.Itoa(v)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// Canonicalize returns the canonical representative of c: absolute values
// sorted descending, so the first component is the outermost axis.
func Canonicalize(c Coord) Coord {
	out := make(Coord, len(c))
	CanonicalizeInto(out, c)
	return out
}

// CanonicalizeInto writes the canonical form of c into dst, which must have
// the same length. dst may alias c. math.MinInt maps to math.MaxInt, which
// lies outside every store.
func CanonicalizeInto(dst, c Coord) {
	for i, v := range c {
		if v == math.MinInt {
			v = math.MaxInt
		} else if v < 0 {
			v = -v
		}
		dst[i] = v
	}
	// insertion sort, n <= 4
	for i := 1; i < len(dst); i++ {
		v := dst[i]
		j := i - 1
		for j >= 0 && dst[j] < v {
			dst[j+1] = dst[j]
			j--
		}
		dst[j+1] = v
	}
}

func IsCanonical(c Coord) bool {
	for i, v := range c {
		if v < 0 {
			return false
		}
		if i > 0 && v > c[i-1] {
			return false
		}
	}
	return true
}

// Neighbors returns the 2n von Neumann neighbors of c, ordered by axis with
// the positive direction first.
func Neighbors(c Coord) []Coord {
	out := make([]Coord, 0, 2*len(c))
	for axis := range c {
		up := c.Clone()
		up[axis]++
		down := c.Clone()
		down[axis]--
		out = append(out, up, down)
	}
	return out
}

// NeighborsInto fills dst (len 2n, each of len n) without allocating.
func NeighborsInto(dst []Coord, c Coord) {
	for axis := range c {
		up, down := dst[2*axis], dst[2*axis+1]
		copy(up, c)
		copy(down, c)
		up[axis]++
		down[axis]--
	}
}

// Multiplicity is the number of lattice points whose canonical form is c.
func Multiplicity(c Coord) int64 {
	m := int64(factorial(len(c)))
	run := 1
	for i, v := range c {
		if v != 0 {
			m *= 2
		}
		if i > 0 && v == c[i-1] {
			run++
		} else {
			m /= int64(factorial(run))
			run = 1
		}
	}
	m /= int64(factorial(run))
	return m
}

// Orbit expands a canonical coordinate into every distinct point that
// maps onto it, sorted lexicographically.
func Orbit(c Coord) []Coord {
	perms := distinctPermutations(c)
	out := make([]Coord, 0, Multiplicity(c))
	for _, p := range perms {
		nonzero := make([]int, 0, len(p))
		for i, v := range p {
			if v != 0 {
				nonzero = append(nonzero, i)
			}
		}
		for mask := 0; mask < 1<<len(nonzero); mask++ {
			q := p.Clone()
			for bit, axis := range nonzero {
				if mask&(1<<bit) != 0 {
					q[axis] = -q[axis]
				}
			}
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		for k := range out[i] {
			if out[i][k] != out[j][k] {
				return out[i][k] < out[j][k]
			}
		}
		return false
	})
	return out
}

func distinctPermutations(c Coord) []Coord {
	vals := c.Clone()
	sort.Ints(vals)
	var out []Coord
	used := make([]bool, len(vals))
	cur := make(Coord, 0, len(vals))
	var rec func()
	rec = func() {
		if len(cur) == len(vals) {
			out = append(out, cur.Clone())
			return
		}
		for i := range vals {
			if used[i] || (i > 0 && vals[i] == vals[i-1] && !used[i-1]) {
				continue
			}
			used[i] = true
			cur = append(cur, vals[i])
			rec()
			cur = cur[:len(cur)-1]
			used[i] = false
		}
	}
	rec()
	return out
}

func factorial(n int) int {
	f := 1
	for i := 2; i <= n; i++ {
		f *= i
	}
	return f
}
