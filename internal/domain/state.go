package domain

import "fmt"

// RunState is the explicit pipeline stage of one review run. Representing
// the stage as a tagged value keeps failure states inspectable and testable
// instead of being implicit in control flow.
type RunState int

const (
	StateIdle RunState = iota
	StateDiffParsed
	StateCommentsExtracted
	StateValidated
	StateAggregated
	StateSubmitted
	StateFailed
)

// String returns the state name.
func (s RunState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDiffParsed:
		return "diff_parsed"
	case StateCommentsExtracted:
		return "comments_extracted"
	case StateValidated:
		return "validated"
	case StateAggregated:
		return "aggregated"
	case StateSubmitted:
		return "submitted"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// CanTransition reports whether moving from s to next is a legal step.
// Stages advance strictly in order. StateFailed is reachable only from
// StateIdle: only diff parsing is fatal, every later stage degrades
// individual candidates instead of aborting the run.
func (s RunState) CanTransition(next RunState) bool {
	if next == StateFailed {
		return s == StateIdle
	}
	return next == s+1 && next <= StateSubmitted
}

// Run tracks the pipeline stage for one review invocation.
type Run struct {
	state RunState
}

// NewRun returns a run in StateIdle.
func NewRun() *Run {
	return &Run{state: StateIdle}
}

// State returns the current stage.
func (r *Run) State() RunState {
	return r.state
}

// Advance moves the run to next, or reports the illegal transition.
func (r *Run) Advance(next RunState) error {
	if !r.state.CanTransition(next) {
		return fmt.Errorf("illegal run transition %s -> %s", r.state, next)
	}
	r.state = next
	return nil
}
