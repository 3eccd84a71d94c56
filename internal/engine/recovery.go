package engine

import (
	"context"

	"github.com/go-logr/logr"

	"github.com/gvmtool/gvm/internal/config"
)

// FailureContext describes one module failure for the Recoverer.
type FailureContext struct {
	// ModuleID is the failed module.
	ModuleID string
	// Attempt is the attempt that failed, counted from 1.
	Attempt int
	// Err is the failure cause.
	Err error
	// Hint is a short classification of the cause, when one is known.
	Hint string
	// Remediation is the suggested repair command, e.g. "gvm fix apt".
	Remediation string
}

// Recoverer decides how the engine proceeds after a module failure. The
// engine blocks on Decide; an interactive implementation may take as long as
// the user needs. Decide must respect ctx cancellation and return
// DecisionAbort when the context ends.
type Recoverer interface {
	Decide(ctx context.Context, fc FailureContext) Decision
}

// Policy is a non-interactive Recoverer driven by configuration. A retry
// policy is bounded: once MaxAttempts is reached it downgrades to abort so a
// persistent failure cannot loop forever.
type Policy struct {
	OnFailure   Decision
	MaxAttempts int
	Log         logr.Logger
}

// PolicyFromConfig builds the Policy the recovery config section describes.
func PolicyFromConfig(rc config.Recovery, log logr.Logger) *Policy {
	onFailure := DecisionAbort
	switch rc.OnFailure {
	case "retry":
		onFailure = DecisionRetry
	case "skip":
		onFailure = DecisionSkip
	}
	return &Policy{OnFailure: onFailure, MaxAttempts: rc.MaxAttempts, Log: log}
}

// Decide implements Recoverer.
func (p *Policy) Decide(ctx context.Context, fc FailureContext) Decision {
	if ctx.Err() != nil {
		return DecisionAbort
	}

	decision := p.OnFailure
	if decision == DecisionRetry && fc.Attempt >= p.MaxAttempts {
		p.Log.Info("retry budget exhausted, aborting",
			"module", fc.ModuleID, "attempts", fc.Attempt)
		decision = DecisionAbort
	}

	p.Log.Info("recovery decision",
		"module", fc.ModuleID, "attempt", fc.Attempt, "decision", decision.String())
	return decision
}
