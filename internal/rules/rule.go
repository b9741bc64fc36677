package rules

import "errors"

// MaxNeighbors is the von Neumann neighborhood size of the largest
// supported lattice (4D).
const MaxNeighbors = 8

var (
	// ErrUnsafeInitialValue indicates a source whose evolution could overflow int64.
	ErrUnsafeInitialValue = errors.New("rules: initial value outside safe int64 range")

	// ErrNegativeSource indicates a negative source for a rule that requires >= 0.
	ErrNegativeSource = errors.New("rules: initial value must be non-negative")
)

// Rule redistributes the value of one cell among its von Neumann
// neighbors. Topple receives the cell value and the values of its 2n
// neighbors, writes the amount sent to each neighbor into shares (same
// length as neighbors) and returns what the cell keeps. toppled reports
// whether any nonzero share was produced.
//
// Rules must be isotropic: neighbors holding equal values receive equal
// shares. The symmetric engine relies on this to fold shares across
// mirror planes.
type Rule interface {
	Name() string
	Topple(value int64, neighbors []int64, shares []int64) (keep int64, toppled bool)
}

// SourceValidator is implemented by rules that restrict the source value.
type SourceValidator interface {
	ValidateSource(dim int, source int64) error
}

// BackgroundRule is implemented by rules that support a nonzero value in
// the unstored region.
type BackgroundRule interface {
	SupportsBackground() bool
}

// BackgroundValidator is implemented by background rules that restrict the
// distance between the source and the background.
type BackgroundValidator interface {
	ValidateBackground(source, background int64) error
}

func clearShares(shares []int64) {
	for i := range shares {
		shares[i] = 0
	}
}

// sortByValue orders neighbor indexes by value, descending when desc is set.
func sortByValue(idx []int, values []int64, desc bool) {
	for i := 1; i < len(idx); i++ {
		cur := idx[i]
		j := i - 1
		for j >= 0 && outOfOrder(values[idx[j]], values[cur], desc) {
			idx[j+1] = idx[j]
			j--
		}
		idx[j+1] = cur
	}
}

func outOfOrder(a, b int64, desc bool) bool {
	if desc {
		return a < b
	}
	return a > b
}
