package rules

import "fmt"

// AbelianSandpile topples a cell holding at least 2n grains, sending one
// grain to each neighbor.
type AbelianSandpile struct{}

func (AbelianSandpile) Name() string { return "AbelianSandpile" }

func (AbelianSandpile) ValidateSource(dim int, source int64) error {
	if source < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeSource, source)
	}
	return nil
}

func (AbelianSandpile) Topple(value int64, neighbors []int64, shares []int64) (int64, bool) {
	threshold := int64(len(neighbors))
	if value < threshold {
		clearShares(shares)
		return value, false
	}
	for i := range shares {
		shares[i] = 1
	}
	return value - threshold, true
}
