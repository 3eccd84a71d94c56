package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gvmtool/gvm/internal/catalog"
	"github.com/gvmtool/gvm/internal/config"
	"github.com/gvmtool/gvm/internal/state"
	"github.com/gvmtool/gvm/internal/sysutil"
)

// fakeCapability scripts a module's behavior per attempt.
type fakeCapability struct {
	// failures is how many attempts fail before one succeeds.
	failures int
	// satisfied makes Check short-circuit.
	satisfied bool

	applies int
	checks  int
}

func (f *fakeCapability) Apply(_ context.Context, _ *catalog.RunContext, progress catalog.ProgressFunc) error {
	f.applies++
	progress("working")
	if f.applies <= f.failures {
		return errors.New("boom")
	}
	return nil
}

func (f *fakeCapability) Check(_ *catalog.RunContext) (bool, string) {
	f.checks++
	return f.satisfied, "already provisioned"
}

func (f *fakeCapability) Fix(_ context.Context, _ *catalog.RunContext) error { return nil }

// scriptedRecoverer returns canned decisions in order, then aborts.
type scriptedRecoverer struct {
	decisions []Decision
	seen      []FailureContext
}

func (r *scriptedRecoverer) Decide(_ context.Context, fc FailureContext) Decision {
	r.seen = append(r.seen, fc)
	if len(r.decisions) == 0 {
		return DecisionAbort
	}
	d := r.decisions[0]
	r.decisions = r.decisions[1:]
	return d
}

func testRunContext(t *testing.T) *catalog.RunContext {
	t.Helper()
	return &catalog.RunContext{
		Config:  config.Default(),
		Runner:  sysutil.DryRunner{Log: logr.Discard()},
		Markers: state.NewStore(t.TempDir()),
		Log:     logr.Discard(),
	}
}

func modules(caps map[string]*fakeCapability, deps map[string][]string, order ...string) []catalog.Module {
	out := make([]catalog.Module, 0, len(order))
	for _, id := range order {
		out = append(out, catalog.Module{ID: id, DependsOn: deps[id], Capability: caps[id]})
	}
	return out
}

func statusByID(s *Summary) map[string]Status {
	out := map[string]Status{}
	for _, r := range s.Results {
		out[r.ModuleID] = r.Status
	}
	return out
}

func TestRunAllSucceed(t *testing.T) {
	caps := map[string]*fakeCapability{"apt": {}, "ssh": {}}
	rc := testRunContext(t)

	var events []Event
	eng := New(modules(caps, map[string][]string{"ssh": {"apt"}}, "apt", "ssh"),
		rc, &scriptedRecoverer{}, SinkFunc(func(ev Event) { events = append(events, ev) }))

	summary, err := eng.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, summary.Succeeded())
	assert.Equal(t, 0, summary.ExitCode())
	assert.Equal(t, 2, summary.Count(StatusSucceeded))

	// Markers written for both modules.
	assert.True(t, rc.Markers.Done("apt"))
	assert.True(t, rc.Markers.Done("ssh"))

	// Last event is the run summary.
	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, EventRunFinished, last.Kind)
	require.NotNil(t, last.Summary)
}

func TestRunRetryThenSuccess(t *testing.T) {
	caps := map[string]*fakeCapability{"apt": {failures: 2}}
	rec := &scriptedRecoverer{decisions: []Decision{DecisionRetry, DecisionRetry}}

	eng := New(modules(caps, nil, "apt"), testRunContext(t), rec, nil)
	summary, err := eng.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, summary.Results, 1)
	assert.Equal(t, StatusSucceeded, summary.Results[0].Status)
	assert.Equal(t, 3, summary.Results[0].Attempts)

	// The recoverer saw escalating attempt numbers.
	require.Len(t, rec.seen, 2)
	assert.Equal(t, 1, rec.seen[0].Attempt)
	assert.Equal(t, 2, rec.seen[1].Attempt)
	assert.Equal(t, "gvm fix apt", rec.seen[0].Remediation)
}

func TestRunSkipContinues(t *testing.T) {
	caps := map[string]*fakeCapability{"shell": {failures: 99}, "user": {}}
	rec := &scriptedRecoverer{decisions: []Decision{DecisionSkip}}

	eng := New(modules(caps, nil, "shell", "user"), testRunContext(t), rec, nil)
	summary, err := eng.Run(context.Background())
	require.Error(t, err)

	st := statusByID(summary)
	assert.Equal(t, StatusSkipped, st["shell"])
	assert.Equal(t, StatusSucceeded, st["user"])
	assert.False(t, summary.Aborted)
	assert.Equal(t, 1, summary.ExitCode())
}

func TestRunSkipCascadesToDependents(t *testing.T) {
	caps := map[string]*fakeCapability{
		"apt": {failures: 99}, "ssh": {}, "user": {}, "shell": {},
	}
	deps := map[string][]string{"ssh": {"apt"}, "user": {"apt"}}
	rec := &scriptedRecoverer{decisions: []Decision{DecisionSkip}}

	eng := New(modules(caps, deps, "apt", "ssh", "shell", "user"), testRunContext(t), rec, nil)
	summary, err := eng.Run(context.Background())
	require.Error(t, err)

	st := statusByID(summary)
	assert.Equal(t, StatusSkipped, st["apt"])
	assert.Equal(t, StatusSkippedCascade, st["ssh"])
	assert.Equal(t, StatusSkippedCascade, st["user"])
	assert.Equal(t, StatusSucceeded, st["shell"], "independent module still runs")

	// Cascaded modules never executed.
	assert.Zero(t, caps["ssh"].applies)
	assert.Zero(t, caps["user"].applies)
}

func TestResultsCarryRemediation(t *testing.T) {
	caps := map[string]*fakeCapability{"apt": {failures: 99}, "ssh": {}}
	deps := map[string][]string{"ssh": {"apt"}}
	rec := &scriptedRecoverer{decisions: []Decision{DecisionSkip}}

	eng := New(modules(caps, deps, "apt", "ssh"), testRunContext(t), rec, nil)
	summary, err := eng.Run(context.Background())
	require.Error(t, err)

	byID := map[string]Result{}
	for _, r := range summary.Results {
		byID[r.ModuleID] = r
	}
	assert.Equal(t, "gvm fix apt", byID["apt"].Remediation)
	// The cascaded module points at its failed dependency.
	assert.Equal(t, "gvm fix apt", byID["ssh"].Remediation)
}

func TestFailedResultCarriesCapabilityRemediation(t *testing.T) {
	caps := map[string]*fakeCapability{"apt": {failures: 99}}
	rec := &scriptedRecoverer{decisions: []Decision{DecisionAbort}}

	eng := New(modules(caps, nil, "apt"), testRunContext(t), rec, nil)
	summary, err := eng.Run(context.Background())
	require.Error(t, err)

	require.Len(t, summary.Results, 1)
	assert.Equal(t, StatusFailed, summary.Results[0].Status)
	assert.Equal(t, "gvm fix apt", summary.Results[0].Remediation)
}

func TestRunAbortLeavesRemainingPending(t *testing.T) {
	caps := map[string]*fakeCapability{"apt": {failures: 99}, "ssh": {}, "shell": {}}
	rec := &scriptedRecoverer{decisions: []Decision{DecisionAbort}}

	eng := New(modules(caps, map[string][]string{"ssh": {"apt"}}, "apt", "ssh", "shell"),
		testRunContext(t), rec, nil)
	summary, err := eng.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "aborted")

	st := statusByID(summary)
	assert.Equal(t, StatusFailed, st["apt"])
	assert.Equal(t, StatusPending, st["ssh"])
	assert.Equal(t, StatusPending, st["shell"])
	assert.True(t, summary.Aborted)
	assert.Equal(t, 1, summary.ExitCode())
}

func TestRunAlreadySatisfiedShortCircuits(t *testing.T) {
	caps := map[string]*fakeCapability{"apt": {satisfied: true}}
	rc := testRunContext(t)

	eng := New(modules(caps, nil, "apt"), rc, &scriptedRecoverer{}, nil)
	summary, err := eng.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StatusSucceeded, summary.Results[0].Status)
	assert.Zero(t, caps["apt"].applies, "Apply must not run when Check passes")
}

func TestRunForceBypassesCheck(t *testing.T) {
	caps := map[string]*fakeCapability{"apt": {satisfied: true}}
	rc := testRunContext(t)
	rc.Force = true

	eng := New(modules(caps, nil, "apt"), rc, &scriptedRecoverer{}, nil)
	_, err := eng.Run(context.Background())
	require.NoError(t, err)

	assert.Zero(t, caps["apt"].checks)
	assert.Equal(t, 1, caps["apt"].applies)
}

func TestRunDryRunWritesNoMarkers(t *testing.T) {
	caps := map[string]*fakeCapability{"apt": {}}
	rc := testRunContext(t)
	rc.DryRun = true

	eng := New(modules(caps, nil, "apt"), rc, &scriptedRecoverer{}, nil)
	summary, err := eng.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, summary.DryRun)
	assert.False(t, rc.Markers.Done("apt"))
}

func TestRunCancelledContext(t *testing.T) {
	caps := map[string]*fakeCapability{"apt": {}, "ssh": {}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	eng := New(modules(caps, nil, "apt", "ssh"), testRunContext(t), &scriptedRecoverer{}, nil)
	summary, err := eng.Run(ctx)
	require.Error(t, err)

	assert.True(t, summary.Aborted)
	st := statusByID(summary)
	assert.Equal(t, StatusPending, st["apt"])
	assert.Equal(t, StatusPending, st["ssh"])
}

func TestPolicyRetryDowngradesToAbort(t *testing.T) {
	p := PolicyFromConfig(config.Recovery{OnFailure: "retry", MaxAttempts: 3}, logr.Discard())

	ctx := context.Background()
	assert.Equal(t, DecisionRetry, p.Decide(ctx, FailureContext{Attempt: 1}))
	assert.Equal(t, DecisionRetry, p.Decide(ctx, FailureContext{Attempt: 2}))
	assert.Equal(t, DecisionAbort, p.Decide(ctx, FailureContext{Attempt: 3}))
}

func TestPolicySkipAndAbort(t *testing.T) {
	ctx := context.Background()

	skip := PolicyFromConfig(config.Recovery{OnFailure: "skip", MaxAttempts: 1}, logr.Discard())
	assert.Equal(t, DecisionSkip, skip.Decide(ctx, FailureContext{Attempt: 5}))

	abort := PolicyFromConfig(config.Recovery{OnFailure: "abort", MaxAttempts: 3}, logr.Discard())
	assert.Equal(t, DecisionAbort, abort.Decide(ctx, FailureContext{Attempt: 1}))
}

func TestPolicyAbortsOnCancelledContext(t *testing.T) {
	p := PolicyFromConfig(config.Recovery{OnFailure: "retry", MaxAttempts: 10}, logr.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Equal(t, DecisionAbort, p.Decide(ctx, FailureContext{Attempt: 1}))
}

func TestPolicyWithRetryEngineIntegration(t *testing.T) {
	// A module that always fails under a bounded retry policy ends up
	// Failed after MaxAttempts attempts.
	caps := map[string]*fakeCapability{"apt": {failures: 99}}
	p := PolicyFromConfig(config.Recovery{OnFailure: "retry", MaxAttempts: 3}, logr.Discard())

	eng := New(modules(caps, nil, "apt"), testRunContext(t), p, nil)
	summary, err := eng.Run(context.Background())
	require.Error(t, err)

	require.Len(t, summary.Results, 1)
	assert.Equal(t, StatusFailed, summary.Results[0].Status)
	assert.Equal(t, 3, summary.Results[0].Attempts)
}
