package automaton

import (
	"errors"
	"fmt"
)

// Domain errors for automaton construction and stepping.
var (
	// ErrUnsupportedConfig indicates a configuration the engine cannot run,
	// such as an even enclosed side or a dimension outside 1..4.
	ErrUnsupportedConfig = errors.New("automaton: unsupported configuration")

	// ErrBoundaryOverrun indicates a share deposited beyond the newly built
	// store. The store is not swapped when it occurs.
	ErrBoundaryOverrun = errors.New("automaton: share deposited beyond store boundary")

	// ErrSnapshotMismatch indicates a snapshot that does not describe a valid state.
	ErrSnapshotMismatch = errors.New("automaton: snapshot inconsistent with its header")
)

// StepError wraps a failure raised while building the next state.
type StepError struct {
	Step    uint64
	Wrapped error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d: %v", e.Step, e.Wrapped)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}
