package rules

import "math"

// NearAether1 walks the smaller neighbors from the largest down. Shares
// already given raise the remaining neighbors before the next tier is
// compared.
type NearAether1 struct{}

func (NearAether1) Name() string { return "NearAether1" }

func (NearAether1) ValidateSource(dim int, source int64) error {
	return validateAetherSource(dim, source)
}

func (NearAether1) Topple(value int64, neighbors []int64, shares []int64) (int64, bool) {
	clearShares(shares)
	var buf [MaxNeighbors]int
	rel := relevant(buf[:0], value, neighbors)
	if len(rel) == 0 {
		return value, false
	}
	sortByValue(rel, neighbors, false)

	var raised [MaxNeighbors]int64
	for i, n := range rel {
		raised[i] = neighbors[n]
	}

	toppled := false
	var prev int64
	for i := len(rel) - 1; i >= 0; i-- {
		nv := raised[i]
		if i < len(rel)-1 && nv == prev {
			continue
		}
		count := int64(i + 2)
		toShare := value - nv
		share := toShare / count
		if share != 0 {
			toppled = true
			value = nv + toShare%count + share
			nv += share
			for j := 0; j <= i; j++ {
				shares[rel[j]] += share
				raised[j] += share
			}
		}
		prev = nv
	}
	return value, toppled
}

// NearAether2 levels the cell against its biggest smaller neighbor in one
// tier, sharing with every smaller neighbor.
type NearAether2 struct{}

func (NearAether2) Name() string { return "NearAether2" }

func (NearAether2) ValidateSource(dim int, source int64) error {
	return validateAetherSource(dim, source)
}

func (NearAether2) Topple(value int64, neighbors []int64, shares []int64) (int64, bool) {
	clearShares(shares)
	var buf [MaxNeighbors]int
	rel := relevant(buf[:0], value, neighbors)
	if len(rel) == 0 {
		return value, false
	}
	biggest := int64(math.MinInt64)
	for _, n := range rel {
		if neighbors[n] > biggest {
			biggest = neighbors[n]
		}
	}

	count := int64(len(rel) + 1)
	toShare := value - biggest
	share := toShare / count
	if share == 0 {
		return value, false
	}
	for _, n := range rel {
		shares[n] = share
	}
	return biggest + toShare%count + share, true
}

// NearAether3 levels the cell against its smallest neighbor, sharing only
// with the neighbors tied at that value.
type NearAether3 struct{}

func (NearAether3) Name() string { return "NearAether3" }

func (NearAether3) ValidateSource(dim int, source int64) error {
	return validateAetherSource(dim, source)
}

func (NearAether3) Topple(value int64, neighbors []int64, shares []int64) (int64, bool) {
	clearShares(shares)
	if value == math.MinInt64 {
		return value, false
	}
	smallest := value - 1
	var buf [MaxNeighbors]int
	tied := buf[:0]
	for i, v := range neighbors {
		if v < smallest {
			smallest = v
			tied = append(tied[:0], i)
		} else if v == smallest {
			tied = append(tied, i)
		}
	}
	if len(tied) == 0 {
		return value, false
	}

	count := int64(len(tied) + 1)
	toShare := value - smallest
	share := toShare / count
	if share == 0 {
		return value, false
	}
	for _, n := range tied {
		shares[n] = share
	}
	return smallest + toShare%count + share, true
}
