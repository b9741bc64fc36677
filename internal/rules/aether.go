package rules

// Aether shares value with every strictly smaller neighbor in tiers. Each
// tier levels the cell against the largest remaining smaller neighbor,
// splitting the difference among that neighbor, every smaller one and the
// cell itself.
type Aether struct{}

func (Aether) Name() string { return "Aether" }

func (Aether) ValidateSource(dim int, source int64) error {
	return validateAetherSource(dim, source)
}

func (Aether) Topple(value int64, neighbors []int64, shares []int64) (int64, bool) {
	clearShares(shares)
	var buf [MaxNeighbors]int
	rel := relevant(buf[:0], value, neighbors)
	if len(rel) == 0 {
		return value, false
	}
	sortByValue(rel, neighbors, true)

	toppled := false
	var prev int64
	for i, n := range rel {
		nv := neighbors[n]
		if i > 0 && nv == prev {
			continue
		}
		toShare := value - nv
		count := int64(len(rel) - i + 1)
		share := toShare / count
		if share != 0 {
			toppled = true
			value = nv + share + toShare%count
			for _, m := range rel[i:] {
				shares[m] += share
			}
		}
		prev = nv
	}
	return value, toppled
}

// relevant appends the indexes of neighbors strictly smaller than value.
func relevant(dst []int, value int64, neighbors []int64) []int {
	for i, v := range neighbors {
		if v < value {
			dst = append(dst, i)
		}
	}
	return dst
}
