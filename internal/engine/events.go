package engine

import "time"

// EventKind discriminates engine events.
type EventKind int

const (
	// EventModuleStarted fires when a module attempt begins.
	EventModuleStarted EventKind = iota
	// EventModuleProgress carries a sub-step description from a running
	// module. Progress events are droppable; consumers may coalesce them.
	EventModuleProgress
	// EventModuleFinished fires when a module reaches a terminal status.
	// Never dropped.
	EventModuleFinished
	// EventRunFinished fires once, after the last module, with the
	// summary attached. Never dropped.
	EventRunFinished
)

// Event is one engine occurrence. Fields beyond Kind, ModuleID and Time are
// populated per kind.
type Event struct {
	Kind     EventKind
	ModuleID string
	Time     time.Time

	// Attempt counts module attempts from 1, for started events.
	Attempt int
	// Step describes the current sub-step, for progress events.
	Step string
	// Status is the terminal status, for finished events.
	Status Status
	// Err is the failure cause when Status is Failed or Skipped.
	Err error
	// Summary is attached to the run-finished event.
	Summary *Summary
}

// Sink receives engine events in order. Publish is called from the engine
// goroutine only; implementations decide how to fan events out.
type Sink interface {
	Publish(Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Event)

// Publish implements Sink.
func (f SinkFunc) Publish(ev Event) { f(ev) }

// discardSink drops everything; used when no sink is configured.
type discardSink struct{}

func (discardSink) Publish(Event) {}
