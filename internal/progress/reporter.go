// Package progress throttles the engine's event stream for display.
//
// Modules may emit sub-step ticks far faster than a UI can usefully render.
// The reporter forwards at most one progress event per interval and keeps
// only the latest tick while throttled; lifecycle events (module started,
// module finished, run finished) are never dropped or delayed, and any
// pending tick is flushed ahead of them so ordering is preserved.
package progress

import (
	"time"

	"github.com/gvmtool/gvm/internal/engine"
)

// DefaultInterval is the minimum spacing between forwarded progress ticks.
const DefaultInterval = 100 * time.Millisecond

// Reporter implements engine.Sink. Publish is called from the engine
// goroutine only, so no locking is needed; subscribers receive events on
// that same goroutine and must hand off quickly.
type Reporter struct {
	interval time.Duration
	subs     []engine.Sink
	now      func() time.Time

	lastTick time.Time
	pending  *engine.Event
}

// NewReporter returns a reporter forwarding to subs. A non-positive interval
// falls back to DefaultInterval.
func NewReporter(interval time.Duration, subs ...engine.Sink) *Reporter {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Reporter{interval: interval, subs: subs, now: time.Now}
}

// Subscribe adds a sink. Must be called before the run starts.
func (r *Reporter) Subscribe(s engine.Sink) {
	r.subs = append(r.subs, s)
}

// Publish implements engine.Sink.
func (r *Reporter) Publish(ev engine.Event) {
	if ev.Kind != engine.EventModuleProgress {
		// Lifecycle events pass through immediately, preceded by any
		// tick they would otherwise reorder past.
		r.Flush()
		r.forward(ev)
		return
	}

	if r.now().Sub(r.lastTick) < r.interval {
		// Latest wins while throttled.
		pending := ev
		r.pending = &pending
		return
	}
	r.pending = nil
	r.lastTick = r.now()
	r.forward(ev)
}

// Flush forwards the held tick, if any. Called automatically before
// lifecycle events; callers may also invoke it when the stream goes idle.
func (r *Reporter) Flush() {
	if r.pending == nil {
		return
	}
	ev := *r.pending
	r.pending = nil
	r.lastTick = r.now()
	r.forward(ev)
}

func (r *Reporter) forward(ev engine.Event) {
	for _, s := range r.subs {
		s.Publish(ev)
	}
}
