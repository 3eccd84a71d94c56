package engine

import "time"

// Result records one module's outcome.
type Result struct {
	ModuleID string
	Status   Status
	// Attempts counts how many times the module ran; zero when it never
	// started.
	Attempts int
	// Err is the last failure for Failed and Skipped modules, and the
	// cascade cause description for SkippedCascade.
	Err error
	// Remediation is the command that repairs the module (or, for
	// SkippedCascade, its failed dependency). Empty for Succeeded and
	// Pending entries.
	Remediation string
	Duration    time.Duration
}

// Summary aggregates a finished (or aborted) run.
type Summary struct {
	// Results holds one entry per planned module, in plan order,
	// including modules still Pending after an abort.
	Results []Result
	// Aborted is set when a recovery decision or cancellation ended the
	// run early.
	Aborted bool
	// DryRun mirrors the run context flag, for display.
	DryRun bool
}

// Count returns how many modules ended in the given status.
func (s *Summary) Count(status Status) int {
	n := 0
	for _, r := range s.Results {
		if r.Status == status {
			n++
		}
	}
	return n
}

// Succeeded reports whether every planned module succeeded.
func (s *Summary) Succeeded() bool {
	for _, r := range s.Results {
		if r.Status != StatusSucceeded {
			return false
		}
	}
	return !s.Aborted
}

// ExitCode maps the run outcome to the process exit code: 0 when everything
// succeeded, 1 otherwise. Resolution failures never reach a Summary; they
// exit 2 from main.
func (s *Summary) ExitCode() int {
	if s.Succeeded() {
		return 0
	}
	return 1
}
