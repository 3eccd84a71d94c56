package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/gvmtool/gvm/internal/catalog"
	"github.com/gvmtool/gvm/internal/engine"
	"github.com/gvmtool/gvm/internal/plan"
	"github.com/gvmtool/gvm/internal/progress"
)

// Params configures an interactive run.
type Params struct {
	Registry *catalog.Registry
	RC       *catalog.RunContext
	// Preselected module ids start checked in the selector, typically the
	// persisted previous selection.
	Preselected []string
	// Recoverer overrides the interactive prompt when non-nil.
	Recoverer engine.Recoverer
}

// Outcome is what an interactive session produced.
type Outcome struct {
	// Summary is nil when the user quit before confirming.
	Summary *engine.Summary
	// ConfirmedIDs is the selection the user confirmed, for persistence.
	ConfirmedIDs []string
	// RunErr is the engine's error, nil on full success.
	RunErr error
}

// Run drives the interactive session. Resolution failures are returned as
// the error (ConfigError or CycleError, exit code 2); run failures live in
// Outcome.RunErr.
func Run(ctx context.Context, params Params) (Outcome, error) {
	decisions := make(chan engine.Decision, 1)

	// The engine gets its own cancellable context so ctrl+c mid-run
	// aborts the run instead of orphaning the goroutine.
	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	m := NewModel(params.Registry, params.Preselected, params.RC.DryRun)
	m.decisions = decisions
	m.cancelRun = cancelRun
	m.resolve = func(ids []string) ([]catalog.Module, error) {
		return plan.Resolve(params.Registry, ids)
	}

	var p *tea.Program
	m.start = func(mods []catalog.Module) {
		go func() {
			recoverer := params.Recoverer
			if recoverer == nil {
				recoverer = &promptRecoverer{send: func(msg tea.Msg) { p.Send(msg) }, decisions: decisions}
			}
			reporter := progress.NewReporter(progress.DefaultInterval,
				engine.SinkFunc(func(ev engine.Event) { p.Send(EngineEventMsg{Event: ev}) }))

			summary, err := engine.New(mods, params.RC, recoverer, reporter).Run(runCtx)
			p.Send(RunDoneMsg{Summary: summary, Err: err})
		}()
	}

	p = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	finalModel, err := p.Run()
	if err != nil {
		return Outcome{}, fmt.Errorf("terminal UI failed: %w", err)
	}

	fm := finalModel.(Model)
	if fm.PlanErr != nil {
		return Outcome{}, fm.PlanErr
	}
	return Outcome{
		Summary:      fm.Summary,
		ConfirmedIDs: fm.ConfirmedIDs,
		RunErr:       fm.RunErr,
	}, nil
}

// promptRecoverer surfaces failures as an ErrorPrompt screen and blocks the
// engine goroutine until the user decides.
type promptRecoverer struct {
	send      func(tea.Msg)
	decisions <-chan engine.Decision
}

// Decide implements engine.Recoverer.
func (r *promptRecoverer) Decide(ctx context.Context, fc engine.FailureContext) engine.Decision {
	r.send(PromptRecoveryMsg{Failure: fc})
	select {
	case d := <-r.decisions:
		return d
	case <-ctx.Done():
		return engine.DecisionAbort
	}
}
