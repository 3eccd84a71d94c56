package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-logr/logr"

	"github.com/gvmtool/gvm/internal/catalog"
	"github.com/gvmtool/gvm/internal/sysutil"
)

// Engine executes a resolved plan.
type Engine struct {
	modules   []catalog.Module
	rc        *catalog.RunContext
	recoverer Recoverer
	sink      Sink

	now func() time.Time
}

// New builds an engine for the given plan. The recoverer decides failure
// handling; sink receives events and may be nil.
func New(modules []catalog.Module, rc *catalog.RunContext, recoverer Recoverer, sink Sink) *Engine {
	if sink == nil {
		sink = discardSink{}
	}
	return &Engine{
		modules:   modules,
		rc:        rc,
		recoverer: recoverer,
		sink:      sink,
		now:       time.Now,
	}
}

// Run executes the plan and always returns a complete summary, aborted or
// not. The returned error is non-nil only when the run did not fully
// succeed, so callers can surface it without re-inspecting the summary.
func (e *Engine) Run(ctx context.Context) (*Summary, error) {
	statuses := make(map[string]Status, len(e.modules))
	summary := &Summary{DryRun: e.rc.DryRun}

	for i, m := range e.modules {
		if err := ctx.Err(); err != nil {
			summary.Aborted = true
			summary.Results = append(summary.Results, e.pendingResults(i)...)
			break
		}

		if cause, blocked := e.blockedBy(m, statuses); blocked {
			res := Result{
				ModuleID:    m.ID,
				Status:      StatusSkippedCascade,
				Err:         fmt.Errorf("dependency %s did not succeed", cause),
				Remediation: "gvm fix " + cause,
			}
			statuses[m.ID] = res.Status
			summary.Results = append(summary.Results, res)
			e.publishFinished(res)
			continue
		}

		res := e.runModule(ctx, m)
		statuses[m.ID] = res.Status
		summary.Results = append(summary.Results, res)
		e.publishFinished(res)

		if res.Status == StatusFailed {
			summary.Aborted = true
			summary.Results = append(summary.Results, e.pendingResults(i+1)...)
			break
		}
	}

	e.sink.Publish(Event{Kind: EventRunFinished, Time: e.now(), Summary: summary})

	if summary.Succeeded() {
		return summary, nil
	}
	if summary.Aborted {
		return summary, errors.New("provisioning aborted")
	}
	return summary, errors.New("provisioning finished with skipped or failed modules")
}

// blockedBy returns the first dependency that reached a terminal status
// other than Succeeded. Plan order guarantees dependencies run first, so a
// missing status entry means the dependency was not part of this plan and
// does not block.
func (e *Engine) blockedBy(m catalog.Module, statuses map[string]Status) (string, bool) {
	for _, dep := range m.DependsOn {
		depID := catalog.NormalizeID(dep)
		if st, ran := statuses[depID]; ran && st != StatusSucceeded {
			return depID, true
		}
	}
	return "", false
}

// runModule drives one module through its attempt loop until it reaches a
// terminal status.
func (e *Engine) runModule(ctx context.Context, m catalog.Module) Result {
	log := e.rc.Log.WithValues("module", m.ID)
	started := e.now()

	for attempt := 1; ; attempt++ {
		e.sink.Publish(Event{
			Kind:     EventModuleStarted,
			ModuleID: m.ID,
			Time:     e.now(),
			Attempt:  attempt,
		})

		err := e.attempt(ctx, m, log)
		if err == nil {
			e.recordDone(m, log)
			return Result{
				ModuleID: m.ID,
				Status:   StatusSucceeded,
				Attempts: attempt,
				Duration: e.now().Sub(started),
			}
		}

		log.Error(err, "module attempt failed", "attempt", attempt)
		fc := failureContext(m.ID, attempt, err)

		decision := e.recoverer.Decide(ctx, fc)
		if ctx.Err() != nil {
			decision = DecisionAbort
		}

		switch decision {
		case DecisionRetry:
			continue
		case DecisionSkip:
			return Result{
				ModuleID:    m.ID,
				Status:      StatusSkipped,
				Attempts:    attempt,
				Err:         err,
				Remediation: fc.Remediation,
				Duration:    e.now().Sub(started),
			}
		default:
			return Result{
				ModuleID:    m.ID,
				Status:      StatusFailed,
				Attempts:    attempt,
				Err:         err,
				Remediation: fc.Remediation,
				Duration:    e.now().Sub(started),
			}
		}
	}
}

// attempt runs one module attempt: the already-satisfied short-circuit, then
// Apply.
func (e *Engine) attempt(ctx context.Context, m catalog.Module, log logr.Logger) error {
	if !e.rc.Force {
		if ok, reason := m.Capability.Check(e.rc); ok {
			log.Info("already satisfied", "reason", reason)
			e.sink.Publish(Event{
				Kind:     EventModuleProgress,
				ModuleID: m.ID,
				Time:     e.now(),
				Step:     "already satisfied: " + reason,
			})
			return nil
		}
	}

	progress := func(step string) {
		e.sink.Publish(Event{
			Kind:     EventModuleProgress,
			ModuleID: m.ID,
			Time:     e.now(),
			Step:     step,
		})
	}
	return m.Capability.Apply(ctx, e.rc, progress)
}

// recordDone writes the idempotency marker. Marker failures are logged, not
// fatal: the provisioning itself succeeded.
func (e *Engine) recordDone(m catalog.Module, log logr.Logger) {
	if e.rc.DryRun {
		return
	}
	if err := e.rc.Markers.MarkDone(m.ID); err != nil {
		log.Error(err, "failed to write completion marker")
	}
}

// pendingResults builds Pending entries for modules from index on, used when
// an abort ends the run early.
func (e *Engine) pendingResults(from int) []Result {
	var out []Result
	for _, m := range e.modules[from:] {
		out = append(out, Result{ModuleID: m.ID, Status: StatusPending})
	}
	return out
}

func (e *Engine) publishFinished(res Result) {
	e.sink.Publish(Event{
		Kind:     EventModuleFinished,
		ModuleID: res.ModuleID,
		Time:     e.now(),
		Status:   res.Status,
		Err:      res.Err,
	})
}

// failureContext classifies err for the recovery prompt.
func failureContext(moduleID string, attempt int, err error) FailureContext {
	fc := FailureContext{ModuleID: moduleID, Attempt: attempt, Err: err}

	var capErr *catalog.CapabilityError
	if errors.As(err, &capErr) {
		fc.Hint = capErr.Hint
		fc.Remediation = capErr.Remediation
	}
	if fc.Hint == "" && sysutil.IsPermissionError(err) {
		fc.Hint = "insufficient privileges; re-run with sudo"
	}
	if fc.Remediation == "" {
		fc.Remediation = "gvm fix " + moduleID
	}
	return fc
}
