// Package engine runs a resolved module plan sequentially, driving error
// recovery and publishing progress events.
//
// The engine is single-threaded: modules run one at a time, in plan order,
// and a failure suspends the run at exactly one point while the Recoverer
// decides how to continue. Event delivery is the only place concurrency
// enters, and that is the Sink implementation's concern.
package engine

// Status is a module's position in its lifecycle. Every module ends a run
// in one of the terminal statuses, or stays Pending when an abort ends the
// run before it started.
type Status int

const (
	// StatusPending means the module has not started.
	StatusPending Status = iota
	// StatusRunning means the module is executing.
	StatusRunning
	// StatusSucceeded means the module completed, or was already satisfied.
	StatusSucceeded
	// StatusFailed means the module failed and was not skipped.
	StatusFailed
	// StatusSkipped means a recovery decision skipped the module.
	StatusSkipped
	// StatusSkippedCascade means the module never ran because a
	// dependency did not succeed.
	StatusSkippedCascade
)

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	case StatusSkipped:
		return "skipped"
	case StatusSkippedCascade:
		return "skipped (dependency)"
	default:
		return "unknown"
	}
}

// Terminal reports whether the status is final.
func (s Status) Terminal() bool {
	switch s {
	case StatusSucceeded, StatusFailed, StatusSkipped, StatusSkippedCascade:
		return true
	default:
		return false
	}
}

// Decision is a Recoverer's answer to a module failure.
type Decision int

const (
	// DecisionRetry reruns the failed module.
	DecisionRetry Decision = iota
	// DecisionSkip marks the module Skipped and continues the run.
	DecisionSkip
	// DecisionAbort marks the module Failed and ends the run.
	DecisionAbort
)

// String implements fmt.Stringer.
func (d Decision) String() string {
	switch d {
	case DecisionRetry:
		return "retry"
	case DecisionSkip:
		return "skip"
	case DecisionAbort:
		return "abort"
	default:
		return "unknown"
	}
}
