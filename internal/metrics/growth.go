package metrics

import "github.com/san-kum/aethersim/internal/automaton"

// GrowthRate is the stored extent gained per observed step.
type GrowthRate struct {
	name    string
	first   int
	last    int
	samples int
}

func NewGrowthRate() *GrowthRate {
	return &GrowthRate{name: "growth_rate"}
}

func (g *GrowthRate) Name() string { return g.name }

func (g *GrowthRate) Observe(s automaton.Stats) {
	if g.samples == 0 {
		g.first = s.MaxX
	}
	g.last = s.MaxX
	g.samples++
}

func (g *GrowthRate) Value() float64 {
	if g.samples < 2 {
		return 0
	}
	return float64(g.last-g.first) / float64(g.samples-1)
}

func (g *GrowthRate) Reset() {
	g.first, g.last, g.samples = 0, 0, 0
}

// Spread is the share of the stored cube whose points differ from the
// background at the last observation.
type Spread struct {
	name   string
	dim    int
	spread float64
}

func NewSpread(dim int) *Spread {
	return &Spread{name: "spread", dim: dim}
}

func (s *Spread) Name() string { return s.name }

func (s *Spread) Observe(st automaton.Stats) {
	points := 1.0
	for i := 0; i < s.dim; i++ {
		points *= float64(2*st.MaxX + 1)
	}
	s.spread = float64(st.NonBackground) / points
}

func (s *Spread) Value() float64 { return s.spread }
func (s *Spread) Reset()         { s.spread = 0 }
