package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/san-kum/aethersim/internal/automaton"
	"github.com/san-kum/aethersim/internal/grid"
	"github.com/san-kum/aethersim/internal/lattice"
)

// Section is the JSON form of a grid. Values is flat, row-major with the
// last axis fastest.
type Section struct {
	Name   string  `json:"name"`
	Step   uint64  `json:"step"`
	Dim    int     `json:"dim"`
	Min    []int   `json:"min"`
	Max    []int   `json:"max"`
	Values []int64 `json:"values"`
}

func NewSection(name string, step uint64, g grid.Grid) (*Section, error) {
	b := g.Bounds()
	s := &Section{
		Name:   name,
		Step:   step,
		Dim:    g.Dim(),
		Min:    append([]int(nil), b.Min...),
		Max:    append([]int(nil), b.Max...),
		Values: make([]int64, 0, b.Size()),
	}
	err := grid.ForEach(g, func(_ lattice.Coord, v int64) error {
		s.Values = append(s.Values, v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

func WriteJSON(w io.Writer, s *Section) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(s)
}

// WriteCSV writes one row per point: the coordinates then the value.
func WriteCSV(w io.Writer, g grid.Grid) error {
	cw := csv.NewWriter(w)
	header := make([]string, 0, g.Dim()+1)
	for i := 0; i < g.Dim(); i++ {
		header = append(header, "x"+strconv.Itoa(i))
	}
	if err := cw.Write(append(header, "value")); err != nil {
		return err
	}
	row := make([]string, g.Dim()+1)
	err := grid.ForEach(g, func(c lattice.Coord, v int64) error {
		for i, x := range c {
			row[i] = strconv.Itoa(x)
		}
		row[len(c)] = strconv.FormatInt(v, 10)
		return cw.Write(row)
	})
	if err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

// WriteStatsJSON writes a run's per-step statistics as a JSON array.
func WriteStatsJSON(w io.Writer, history []automaton.Stats) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if history == nil {
		history = []automaton.Stats{}
	}
	return encoder.Encode(history)
}
