package sim

import (
	"time"

	"github.com/san-kum/aethersim/internal/automaton"
)

// Metric folds per-step statistics into one number.
type Metric interface {
	Name() string
	Observe(s automaton.Stats)
	Value() float64
	Reset()
}

// Observer is called after every successful step. A non-nil error stops
// the run.
type Observer interface {
	OnStep(ev StepEvent) error
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ev StepEvent) error

func (f ObserverFunc) OnStep(ev StepEvent) error { return f(ev) }

// StepEvent describes the step just completed. Automaton must only be
// read inside OnStep.
type StepEvent struct {
	Automaton *automaton.Automaton
	Stats     automaton.Stats
	Elapsed   time.Duration
}

type Config struct {
	// MaxSteps bounds the run; zero means no bound and needs UntilStable.
	MaxSteps uint64
	// UntilStable ends the run at the first step that changes nothing.
	UntilStable bool
	// LogEvery prints progress every n steps; zero disables it.
	LogEvery uint64
}

type Result struct {
	Name       string             `json:"name"`
	Stats      []automaton.Stats  `json:"stats"`
	Metrics    map[string]float64 `json:"metrics"`
	StepsTaken uint64             `json:"steps_taken"`
	Stable     bool               `json:"stable"`
	Elapsed    time.Duration      `json:"elapsed"`
}

// Final is the last recorded statistics entry.
func (r *Result) Final() automaton.Stats {
	if len(r.Stats) == 0 {
		return automaton.Stats{}
	}
	return r.Stats[len(r.Stats)-1]
}
