package lattice

// binomial returns C(n, k) for the small k used by shell indexing.
func binomial(n, k int) int {
	if k < 0 || n < k {
		return 0
	}
	r := 1
	for i := 1; i <= k; i++ {
		r = r * (n - k + i) / i
	}
	return r
}

// ShellSize is the number of canonical cells whose first component is x.
func ShellSize(dim, x int) int {
	k := dim - 1
	return binomial(x+k, k)
}

// CellCount is the number of canonical cells with first component <= max.
func CellCount(dim, max int) int {
	if max < 0 {
		return 0
	}
	return binomial(max+dim, dim)
}

// ShellIndex ranks the trailing components of a canonical coordinate within
// its shell.
func ShellIndex(c Coord) int {
	k := len(c) - 1
	idx := 0
	for i := 1; i < len(c); i++ {
		r := k - i + 1
		idx += binomial(c[i]+r-1, r)
	}
	return idx
}

// ForEachCanonical visits every canonical coordinate with first component
// <= max in store order. The coordinate passed to fn is reused between
// calls.
func ForEachCanonical(dim, max int, fn func(Coord) error) error {
	if max < 0 || dim <= 0 {
		return nil
	}
	c := make(Coord, dim)
	for {
		if err := fn(c); err != nil {
			return err
		}
		i := dim - 1
		for i > 0 && c[i] >= c[i-1] {
			i--
		}
		if i == 0 {
			if c[0] >= max {
				return nil
			}
			c[0]++
		} else {
			c[i]++
		}
		for j := i + 1; j < dim; j++ {
			c[j] = 0
		}
	}
}

// Index is the position of a canonical coordinate in store order.
func Index(c Coord) int {
	return CellCount(len(c), c[0]-1) + ShellIndex(c)
}
