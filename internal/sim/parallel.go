package sim

import (
	"context"
	"fmt"
	"io"
	"log"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/aethersim/internal/automaton"
)

// Job builds and runs one automaton inside an Ensemble.
type Job struct {
	Build   func() (*automaton.Automaton, error)
	Config  Config
	Metrics func() []Metric
}

// Ensemble runs independent automata concurrently. Each automaton is
// confined to its own goroutine.
type Ensemble struct {
	jobs   []Job
	limit  int
	logger *log.Logger
}

func NewEnsemble(limit int, logger *log.Logger) *Ensemble {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Ensemble{limit: limit, logger: logger}
}

func (e *Ensemble) Add(j Job) { e.jobs = append(e.jobs, j) }

// Run executes every job and returns results in job order. The first
// failure cancels the remaining jobs.
func (e *Ensemble) Run(ctx context.Context) ([]*Result, error) {
	results := make([]*Result, len(e.jobs))
	g, ctx := errgroup.WithContext(ctx)
	if e.limit > 0 {
		g.SetLimit(e.limit)
	}

	for i, job := range e.jobs {
		i, job := i, job
		g.Go(func() error {
			a, err := job.Build()
			if err != nil {
				return fmt.Errorf("job %d: %w", i, err)
			}
			defer a.Close()

			s := New(a, e.logger)
			if job.Metrics != nil {
				for _, m := range job.Metrics() {
					s.AddMetric(m)
				}
			}
			r, err := s.Run(ctx, job.Config)
			results[i] = r
			if err != nil {
				return fmt.Errorf("job %d (%s): %w", i, a.SubFolderPath(), err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
