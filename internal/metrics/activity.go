package metrics

import "github.com/san-kum/aethersim/internal/automaton"

// Activity is the mean number of canonical cells toppled per step.
type Activity struct {
	name    string
	sum     float64
	samples int
}

func NewActivity() *Activity {
	return &Activity{name: "activity"}
}

func (a *Activity) Name() string { return a.name }

func (a *Activity) Observe(s automaton.Stats) {
	a.sum += float64(s.Toppled)
	a.samples++
}

func (a *Activity) Value() float64 {
	if a.samples == 0 {
		return 0
	}
	return a.sum / float64(a.samples)
}

func (a *Activity) Reset() {
	a.sum = 0
	a.samples = 0
}

// PeakToppled is the most canonical cells toppled in a single step.
type PeakToppled struct {
	name string
	peak int
}

func NewPeakToppled() *PeakToppled {
	return &PeakToppled{name: "peak_toppled"}
}

func (p *PeakToppled) Name() string { return p.name }

func (p *PeakToppled) Observe(s automaton.Stats) {
	if s.Toppled > p.peak {
		p.peak = s.Toppled
	}
}

func (p *PeakToppled) Value() float64 { return float64(p.peak) }
func (p *PeakToppled) Reset()         { p.peak = 0 }
