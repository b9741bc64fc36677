package sim

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/san-kum/aethersim/internal/automaton"
)

// Simulator drives one automaton, feeding metrics and observers.
type Simulator struct {
	a         *automaton.Automaton
	metrics   []Metric
	observers []Observer
	logger    *log.Logger
}

func New(a *automaton.Automaton, logger *log.Logger) *Simulator {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Simulator{
		a:         a,
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
		logger:    logger,
	}
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) Automaton() *automaton.Automaton { return s.a }

// Run steps the automaton until cfg says to stop. On error the partial
// result is returned with it.
func (s *Simulator) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	result := &Result{
		Name:    s.a.SubFolderPath(),
		Stats:   make([]automaton.Stats, 0, 64),
		Metrics: make(map[string]float64),
	}
	for _, m := range s.metrics {
		m.Reset()
	}

	start := time.Now()
	defer func() {
		result.Elapsed = time.Since(start)
		for _, m := range s.metrics {
			result.Metrics[m.Name()] = m.Value()
		}
	}()

	st, err := s.a.Stats()
	if err != nil {
		return result, err
	}
	s.record(result, st)
	s.logger.Printf("start %s at step %d (max %d)", result.Name, st.Step, st.MaxX)

	for cfg.MaxSteps == 0 || result.StepsTaken < cfg.MaxSteps {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		changed, err := s.a.NextStep(ctx)
		if err != nil {
			return result, err
		}
		result.StepsTaken++

		st, err := s.a.Stats()
		if err != nil {
			return result, err
		}
		s.record(result, st)

		ev := StepEvent{Automaton: s.a, Stats: st, Elapsed: time.Since(start)}
		for _, obs := range s.observers {
			if err := obs.OnStep(ev); err != nil {
				return result, fmt.Errorf("observer at step %d: %w", st.Step, err)
			}
		}

		if cfg.LogEvery > 0 && st.Step%cfg.LogEvery == 0 {
			s.logger.Printf("step %d max %d toppled %d excess %d", st.Step, st.MaxX, st.Toppled, st.Excess)
		}

		if !changed {
			result.Stable = true
			if cfg.UntilStable {
				break
			}
		}
	}

	s.logger.Printf("done %s: %d steps, stable=%v", result.Name, result.StepsTaken, result.Stable)
	return result, nil
}

func (s *Simulator) record(result *Result, st automaton.Stats) {
	result.Stats = append(result.Stats, st)
	for _, m := range s.metrics {
		m.Observe(st)
	}
}

func validateConfig(cfg Config) error {
	if cfg.MaxSteps == 0 && !cfg.UntilStable {
		return fmt.Errorf("max steps must be positive unless running until stable")
	}
	return nil
}
