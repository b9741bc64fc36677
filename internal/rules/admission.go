package rules

import (
	"fmt"
	"math"
	"math/big"
)

// MaxNeighboringDifference is the largest value difference between two
// neighboring cells reached during the evolution of an Aether-family
// automaton started from a single source.
func MaxNeighboringDifference(dim int, source *big.Int) *big.Int {
	if source.Sign() >= 0 {
		return new(big.Int).Set(source)
	}
	if dim == 1 {
		return new(big.Int).Neg(source)
	}
	half := new(big.Int).Quo(new(big.Int).Neg(source), big.NewInt(2))
	spread := big.NewInt(int64(2*dim + 1))
	d := new(big.Int).Mul(half, spread)
	d.Add(d, source)
	return d.Abs(d)
}

// MinAllowedSource is the most negative single source whose maximum
// neighboring difference stays within max.
func MinAllowedSource(dim int, max *big.Int) *big.Int {
	if max.Sign() == 0 {
		return new(big.Int)
	}
	if dim == 1 {
		return new(big.Int).Neg(max)
	}
	doubleDimMinusOne := big.NewInt(int64(2*dim - 1))
	if max.Cmp(doubleDimMinusOne) < 0 {
		return big.NewInt(-1)
	}
	// The difference grows by 2*dim-1 every second unit of source, so the
	// closed form can be off by one.
	v1 := new(big.Int).Mul(big.NewInt(2), max)
	v1.Quo(v1, new(big.Int).Neg(doubleDimMinusOne))
	v2 := new(big.Int).Sub(v1, big.NewInt(1))
	if MaxNeighboringDifference(dim, v2).Cmp(max) > 0 {
		return v1
	}
	return v2
}

// MinInt64Source is MinAllowedSource for the int64 accumulator.
func MinInt64Source(dim int) int64 {
	return MinAllowedSource(dim, big.NewInt(math.MaxInt64)).Int64()
}

func validateAetherSource(dim int, source int64) error {
	if source >= 0 {
		return nil
	}
	diff := MaxNeighboringDifference(dim, big.NewInt(source))
	if diff.Cmp(big.NewInt(math.MaxInt64)) > 0 {
		return fmt.Errorf("%w: %d in %dD reaches neighboring difference %s (min allowed %d)",
			ErrUnsafeInitialValue, source, dim, diff, MinInt64Source(dim))
	}
	return nil
}
