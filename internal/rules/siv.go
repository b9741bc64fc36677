package rules

import "fmt"

// SpreadIntegerValue divides a cell's value by 2n+1. Neighbors already
// holding the cell's value are balanced: their share stays in the cell.
type SpreadIntegerValue struct{}

func (SpreadIntegerValue) Name() string { return "SpreadIntegerValue" }

func (SpreadIntegerValue) SupportsBackground() bool { return true }

// ValidateBackground rejects a source whose excess over the background does
// not fit in int64. Every value stays between the two, so the excess bounds
// the lattice statistics.
func (SpreadIntegerValue) ValidateBackground(source, background int64) error {
	d := source - background
	if (background > 0 && d > source) || (background < 0 && d < source) {
		return fmt.Errorf("%w: source %d is too far from background %d", ErrUnsafeInitialValue, source, background)
	}
	return nil
}

func (SpreadIntegerValue) Topple(value int64, neighbors []int64, shares []int64) (int64, bool) {
	clearShares(shares)
	count := int64(len(neighbors) + 1)
	if value == 0 || (value > -count && value < count) {
		return value, false
	}

	allEqual := true
	for _, v := range neighbors {
		if v != value {
			allEqual = false
			break
		}
	}
	if allEqual {
		return value, false
	}

	share := value / count
	keep := value%count + share
	for i, v := range neighbors {
		if v == value {
			keep += share
		} else {
			shares[i] = share
		}
	}
	return keep, true
}
