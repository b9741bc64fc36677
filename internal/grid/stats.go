package grid

import (
	"math"

	"github.com/san-kum/aethersim/internal/lattice"
)

// Summary aggregates the values of a grid over its bounds.
type Summary struct {
	Cells   int
	Sum     int64
	Min     int64
	Max     int64
	NonZero int
}

func Summarize(g Grid) (Summary, error) {
	s := Summary{Min: math.MaxInt64, Max: math.MinInt64}
	err := ForEach(g, func(_ lattice.Coord, v int64) error {
		s.Cells++
		s.Sum += v
		if v < s.Min {
			s.Min = v
		}
		if v > s.Max {
			s.Max = v
		}
		if v != 0 {
			s.NonZero++
		}
		return nil
	})
	if s.Cells == 0 {
		s.Min, s.Max = 0, 0
	}
	return s, err
}
