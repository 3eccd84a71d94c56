// Package plan turns a module selection into a deterministic execution
// order.
//
// Resolution expands the selection to its dependency closure, then
// topologically sorts it. When several modules are runnable at once the one
// registered first in the catalog goes first, so the same selection always
// produces the same order.
package plan

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gvmtool/gvm/internal/catalog"
)

// ConfigError reports an invalid selection or a module whose declared
// dependency does not exist. It is a user/configuration problem, not a
// runtime failure, and maps to exit code 2.
type ConfigError struct {
	msg string
}

// Error implements error.
func (e *ConfigError) Error() string { return e.msg }

// CycleError reports a dependency cycle. Cycle holds the ids along the
// cycle, first id repeated at the end.
type CycleError struct {
	Cycle []string
}

// Error implements error.
func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle: %s", strings.Join(e.Cycle, " -> "))
}

// Resolve expands requested to its dependency closure over reg and returns
// the modules in execution order.
func Resolve(reg *catalog.Registry, requested []string) ([]catalog.Module, error) {
	if len(requested) == 0 {
		return nil, &ConfigError{msg: "no modules selected"}
	}

	// Normalize and validate the selection first so unknown ids are
	// reported as what the user typed, not as a dependency problem.
	seen := map[string]bool{}
	var queue []string
	for _, raw := range requested {
		id := catalog.NormalizeID(raw)
		if _, ok := reg.Get(id); !ok {
			return nil, &ConfigError{msg: fmt.Sprintf("unknown module %q", strings.TrimSpace(raw))}
		}
		if !seen[id] {
			seen[id] = true
			queue = append(queue, id)
		}
	}

	// Closure over dependencies.
	closure := map[string]catalog.Module{}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		m, _ := reg.Get(id)
		closure[id] = m
		for _, dep := range m.DependsOn {
			depID := catalog.NormalizeID(dep)
			if _, ok := reg.Get(depID); !ok {
				return nil, &ConfigError{msg: fmt.Sprintf("module %q depends on unknown module %q", id, dep)}
			}
			if !seen[depID] {
				seen[depID] = true
				queue = append(queue, depID)
			}
		}
	}

	return sortModules(reg, closure)
}

// All resolves every registered module, used by --all runs.
func All(reg *catalog.Registry) ([]catalog.Module, error) {
	modules := reg.All()
	ids := make([]string, len(modules))
	for i, m := range modules {
		ids[i] = m.ID
	}
	return Resolve(reg, ids)
}

// sortModules runs Kahn's algorithm over the closure. The ready set is kept
// ordered by catalog registration index.
func sortModules(reg *catalog.Registry, closure map[string]catalog.Module) ([]catalog.Module, error) {
	indegree := map[string]int{}
	dependents := map[string][]string{}
	for id, m := range closure {
		indegree[id] += 0
		for _, dep := range m.DependsOn {
			depID := catalog.NormalizeID(dep)
			if _, in := closure[depID]; !in {
				continue
			}
			indegree[id]++
			dependents[depID] = append(dependents[depID], id)
		}
	}

	var ready []string
	for id, deg := range indegree {
		if deg == 0 {
			ready = append(ready, id)
		}
	}
	sortByIndex(reg, ready)

	var order []catalog.Module
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		order = append(order, closure[id])

		var unlocked []string
		for _, dep := range dependents[id] {
			indegree[dep]--
			if indegree[dep] == 0 {
				unlocked = append(unlocked, dep)
			}
		}
		if len(unlocked) > 0 {
			ready = append(ready, unlocked...)
			sortByIndex(reg, ready)
		}
	}

	if len(order) < len(closure) {
		return nil, &CycleError{Cycle: findCycle(closure, indegree)}
	}
	return order, nil
}

func sortByIndex(reg *catalog.Registry, ids []string) {
	sort.Slice(ids, func(i, j int) bool {
		return reg.Index(ids[i]) < reg.Index(ids[j])
	})
}

// findCycle walks the leftover nodes (indegree > 0) until it revisits one,
// producing a concrete cycle path for the error message.
func findCycle(closure map[string]catalog.Module, indegree map[string]int) []string {
	var start string
	leftovers := make([]string, 0, len(indegree))
	for id, deg := range indegree {
		if deg > 0 {
			leftovers = append(leftovers, id)
		}
	}
	sort.Strings(leftovers)
	if len(leftovers) == 0 {
		return nil
	}
	start = leftovers[0]

	// Follow any dependency edge that stays among the leftovers; the walk
	// must eventually loop.
	stuck := map[string]bool{}
	for _, id := range leftovers {
		stuck[id] = true
	}

	var path []string
	visited := map[string]int{}
	cur := start
	for {
		if at, seen := visited[cur]; seen {
			cycle := append(path[at:], cur)
			return cycle
		}
		visited[cur] = len(path)
		path = append(path, cur)

		next := ""
		for _, dep := range closure[cur].DependsOn {
			depID := catalog.NormalizeID(dep)
			if stuck[depID] {
				next = depID
				break
			}
		}
		if next == "" {
			return path
		}
		cur = next
	}
}
