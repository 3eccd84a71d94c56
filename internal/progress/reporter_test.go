package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gvmtool/gvm/internal/engine"
)

// collect returns a reporter with a fake clock and the slice its subscriber
// fills.
func collect(t *testing.T, interval time.Duration) (*Reporter, *[]engine.Event, *time.Time) {
	t.Helper()
	var events []engine.Event
	r := NewReporter(interval, engine.SinkFunc(func(ev engine.Event) {
		events = append(events, ev)
	}))
	clock := time.Unix(1000, 0)
	r.now = func() time.Time { return clock }
	return r, &events, &clock
}

func tick(step string) engine.Event {
	return engine.Event{Kind: engine.EventModuleProgress, ModuleID: "apt", Step: step}
}

func TestFirstTickPassesThrough(t *testing.T) {
	r, events, _ := collect(t, 100*time.Millisecond)

	r.Publish(tick("one"))
	require.Len(t, *events, 1)
	assert.Equal(t, "one", (*events)[0].Step)
}

func TestThrottledTicksCoalesceLatestWins(t *testing.T) {
	r, events, clock := collect(t, 100*time.Millisecond)

	r.Publish(tick("one"))
	*clock = clock.Add(10 * time.Millisecond)
	r.Publish(tick("two"))
	*clock = clock.Add(10 * time.Millisecond)
	r.Publish(tick("three"))

	// Only the first went out; two was displaced by three.
	require.Len(t, *events, 1)

	*clock = clock.Add(200 * time.Millisecond)
	r.Publish(tick("four"))
	require.Len(t, *events, 2)
	assert.Equal(t, "four", (*events)[1].Step)
}

func TestFlushDeliversPendingTick(t *testing.T) {
	r, events, clock := collect(t, 100*time.Millisecond)

	r.Publish(tick("one"))
	*clock = clock.Add(10 * time.Millisecond)
	r.Publish(tick("two"))
	require.Len(t, *events, 1)

	r.Flush()
	require.Len(t, *events, 2)
	assert.Equal(t, "two", (*events)[1].Step)

	// Nothing left to flush.
	r.Flush()
	assert.Len(t, *events, 2)
}

func TestLifecycleEventsNeverDropped(t *testing.T) {
	r, events, clock := collect(t, 100*time.Millisecond)

	r.Publish(tick("one"))
	*clock = clock.Add(5 * time.Millisecond)
	r.Publish(tick("held"))
	r.Publish(engine.Event{Kind: engine.EventModuleFinished, ModuleID: "apt",
		Status: engine.StatusSucceeded})

	// The held tick is flushed ahead of the terminal event.
	require.Len(t, *events, 3)
	assert.Equal(t, "held", (*events)[1].Step)
	assert.Equal(t, engine.EventModuleFinished, (*events)[2].Kind)
}

func TestModuleStartedPassesThroughImmediately(t *testing.T) {
	r, events, clock := collect(t, 100*time.Millisecond)

	r.Publish(engine.Event{Kind: engine.EventModuleStarted, ModuleID: "apt", Attempt: 1})
	*clock = clock.Add(time.Millisecond)
	r.Publish(engine.Event{Kind: engine.EventModuleStarted, ModuleID: "ssh", Attempt: 1})

	assert.Len(t, *events, 2)
}

func TestSubscribeFansOut(t *testing.T) {
	var a, b int
	r := NewReporter(DefaultInterval)
	r.Subscribe(engine.SinkFunc(func(engine.Event) { a++ }))
	r.Subscribe(engine.SinkFunc(func(engine.Event) { b++ }))

	r.Publish(engine.Event{Kind: engine.EventRunFinished})
	assert.Equal(t, 1, a)
	assert.Equal(t, 1, b)
}

func TestNonPositiveIntervalUsesDefault(t *testing.T) {
	r := NewReporter(0)
	assert.Equal(t, DefaultInterval, r.interval)
}
