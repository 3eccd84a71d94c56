package handlers

import (
	"context"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/go-logr/logr"

	"github.com/gvmtool/gvm/internal/config"
	"github.com/gvmtool/gvm/internal/engine"
)

// promptDecision is a factory variable so tests can script the prompt.
var promptDecision = func(fc engine.FailureContext) (engine.Decision, error) {
	var choice engine.Decision

	title := fmt.Sprintf("Module %s failed (attempt %d)", fc.ModuleID, fc.Attempt)
	description := fc.Err.Error()
	if fc.Hint != "" {
		description += "\nhint: " + fc.Hint
	}
	if fc.Remediation != "" {
		description += "\nsuggested: " + fc.Remediation
	}

	form := huh.NewForm(huh.NewGroup(
		huh.NewSelect[engine.Decision]().
			Title(title).
			Description(description).
			Options(
				huh.NewOption("Retry the module", engine.DecisionRetry),
				huh.NewOption("Skip it and continue", engine.DecisionSkip),
				huh.NewOption("Abort the run", engine.DecisionAbort),
			).
			Value(&choice),
	))
	if err := form.Run(); err != nil {
		return engine.DecisionAbort, err
	}
	return choice, nil
}

// huhRecoverer asks the user on the terminal what to do about a failure,
// used by plain (non-TUI) runs on a TTY. Retries stay bounded by the
// configured max attempts even when chosen interactively.
type huhRecoverer struct {
	log    logr.Logger
	policy config.Recovery
}

// Decide implements engine.Recoverer.
func (r *huhRecoverer) Decide(ctx context.Context, fc engine.FailureContext) engine.Decision {
	if ctx.Err() != nil {
		return engine.DecisionAbort
	}

	decision, err := promptDecision(fc)
	if err != nil {
		r.log.Error(err, "recovery prompt failed, aborting")
		return engine.DecisionAbort
	}
	if decision == engine.DecisionRetry && fc.Attempt >= r.policy.MaxAttempts {
		r.log.Info("retry budget exhausted, aborting", "module", fc.ModuleID)
		return engine.DecisionAbort
	}
	return decision
}
