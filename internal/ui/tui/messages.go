// Package tui provides the Bubble Tea front-end for interactive
// provisioning runs: module selection, confirmation, live progress, error
// recovery prompts and the final summary.
package tui

import "github.com/gvmtool/gvm/internal/engine"

// EngineEventMsg wraps one engine event for the model.
type EngineEventMsg struct {
	Event engine.Event
}

// PromptRecoveryMsg asks the user for a recovery decision. The engine is
// suspended until a decision is sent back on the decisions channel.
type PromptRecoveryMsg struct {
	Failure engine.FailureContext
}

// RunDoneMsg signals that the engine goroutine finished.
type RunDoneMsg struct {
	Summary *engine.Summary
	Err     error
}

// ErrMsg carries a fatal error.
type ErrMsg struct{ Err error }
