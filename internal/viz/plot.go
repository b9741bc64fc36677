package viz

import (
	"fmt"
	"sort"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/aethersim/internal/automaton"
)

var statFields = map[string]func(s automaton.Stats) float64{
	"excess":         func(s automaton.Stats) float64 { return float64(s.Excess) },
	"toppled":        func(s automaton.Stats) float64 { return float64(s.Toppled) },
	"max_x":          func(s automaton.Stats) float64 { return float64(s.MaxX) },
	"min":            func(s automaton.Stats) float64 { return float64(s.MinValue) },
	"max":            func(s automaton.Stats) float64 { return float64(s.MaxValue) },
	"non_background": func(s automaton.Stats) float64 { return float64(s.NonBackground) },
}

// Fields lists the statistics Plot accepts.
func Fields() []string {
	names := make([]string, 0, len(statFields))
	for name := range statFields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Series extracts one statistic from a run's history.
func Series(history []automaton.Stats, field string) ([]float64, error) {
	get, ok := statFields[field]
	if !ok {
		return nil, fmt.Errorf("unknown field: %s", field)
	}
	out := make([]float64, len(history))
	for i, s := range history {
		out[i] = get(s)
	}
	return out, nil
}

// Plot charts one statistic against the step number.
func Plot(history []automaton.Stats, field string, width, height int) (string, error) {
	series, err := Series(history, field)
	if err != nil {
		return "", err
	}
	if len(series) == 0 {
		return "", fmt.Errorf("no steps to plot")
	}
	return asciigraph.Plot(series,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(field)), nil
}
