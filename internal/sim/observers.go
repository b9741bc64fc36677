package sim

import (
	"github.com/san-kum/aethersim/internal/automaton"
	"github.com/san-kum/aethersim/internal/backup"
)

// Backups saves a backup under root every n steps.
func Backups(root string, every uint64) Observer {
	return ObserverFunc(func(ev StepEvent) error {
		if every == 0 || ev.Stats.Step%every != 0 {
			return nil
		}
		return backup.Save(backup.Path(root, ev.Automaton), ev.Automaton)
	})
}

// RecordWriter accepts one record per call, e.g. a compressed JSONL log.
type RecordWriter interface {
	Write(v any) error
}

// LogStats writes the statistics of every step to w.
func LogStats(w RecordWriter) Observer {
	return ObserverFunc(func(ev StepEvent) error {
		return w.Write(ev.Stats)
	})
}

// ComplianceTracker checks toppling alternation after every step. The
// automaton needs topple tracking.
type ComplianceTracker struct {
	Steps      int
	Violations int64
	sum        float64
	worst      float64
}

func NewComplianceTracker() *ComplianceTracker {
	return &ComplianceTracker{worst: 1}
}

func (c *ComplianceTracker) OnStep(ev StepEvent) error {
	r, err := automaton.CheckCompliance(ev.Automaton)
	if err != nil {
		return err
	}
	ratio := r.Ratio()
	c.Steps++
	c.Violations += r.Violations
	c.sum += ratio
	c.worst = min(c.worst, ratio)
	return nil
}

// Mean is the average compliant ratio over all checked steps.
func (c *ComplianceTracker) Mean() float64 {
	if c.Steps == 0 {
		return 1
	}
	return c.sum / float64(c.Steps)
}

// Worst is the lowest compliant ratio seen.
func (c *ComplianceTracker) Worst() float64 { return c.worst }
