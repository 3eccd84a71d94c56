// Package catalog defines the provisioning modules gvm knows about and the
// registry that holds them.
//
// A module pairs a stable identifier with the capability that implements it
// and the list of modules it depends on. The registry preserves insertion
// order, which downstream code uses as the deterministic tie-break when
// several modules become runnable at once.
package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-logr/logr"

	"github.com/gvmtool/gvm/internal/config"
	"github.com/gvmtool/gvm/internal/state"
	"github.com/gvmtool/gvm/internal/sysutil"
)

// ProgressFunc receives sub-step descriptions while a capability runs.
// Implementations must be cheap; capabilities may call it at arbitrary rate.
type ProgressFunc func(step string)

// RunContext carries everything a capability needs for one run. It is built
// once per invocation and shared read-only by every module.
type RunContext struct {
	Config  *config.Config
	Runner  sysutil.Runner
	Markers *state.Store
	Log     logr.Logger

	// DryRun rehearses the run: capabilities traverse their full control
	// flow but mutate nothing.
	DryRun bool
	// Force ignores completion markers and capability checks.
	Force bool
	// Verbose raises log verbosity for module commands.
	Verbose bool
}

// Capability is the work a module performs.
type Capability interface {
	// Apply provisions the module, reporting sub-steps through progress.
	Apply(ctx context.Context, rc *RunContext, progress ProgressFunc) error

	// Check reports whether the module's outcome is already in place,
	// with a short human-readable reason.
	Check(rc *RunContext) (bool, string)

	// Fix re-applies the module after clearing any partial state,
	// for targeted repair outside a full run.
	Fix(ctx context.Context, rc *RunContext) error
}

// Module is a catalog entry: an id, what it provides, and what it needs.
type Module struct {
	// ID is the stable identifier, e.g. "apt" or "desktop:xfce".
	ID string
	// Title is the short human-readable name shown in the selector.
	Title string
	// Description is one line of detail for the selector and `gvm info`.
	Description string
	// DependsOn lists module ids that must succeed before this one runs.
	DependsOn []string
	// Capability does the work.
	Capability Capability
}

// Registry holds the known modules in insertion order.
type Registry struct {
	modules []Module
	byID    map[string]int
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byID: map[string]int{}}
}

// Add registers a module. Ids are case-insensitive and must be unique.
func (r *Registry) Add(m Module) error {
	id := NormalizeID(m.ID)
	if id == "" {
		return fmt.Errorf("module id must not be empty")
	}
	if _, exists := r.byID[id]; exists {
		return fmt.Errorf("module %q registered twice", id)
	}
	m.ID = id
	r.byID[id] = len(r.modules)
	r.modules = append(r.modules, m)
	return nil
}

// Get returns the module with the given id.
func (r *Registry) Get(id string) (Module, bool) {
	i, ok := r.byID[NormalizeID(id)]
	if !ok {
		return Module{}, false
	}
	return r.modules[i], true
}

// Index returns the registration position of id, used as the deterministic
// tie-break for scheduling. Unknown ids return -1.
func (r *Registry) Index(id string) int {
	i, ok := r.byID[NormalizeID(id)]
	if !ok {
		return -1
	}
	return i
}

// All returns the modules in registration order. The returned slice is a
// copy; callers may reorder it.
func (r *Registry) All() []Module {
	out := make([]Module, len(r.modules))
	copy(out, r.modules)
	return out
}

// Len returns the number of registered modules.
func (r *Registry) Len() int {
	return len(r.modules)
}

// NormalizeID canonicalizes a module id for lookups.
func NormalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
