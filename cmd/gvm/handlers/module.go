package handlers

import (
	"context"

	"github.com/gvmtool/gvm/internal/plan"
)

// RunModules resolves the named modules (plus dependencies) and runs them
// with plain output.
func RunModules(ctx context.Context, opts Options, ids []string) error {
	env, err := buildEnvironment(opts, false)
	if err != nil {
		return err
	}
	defer env.closeLog()

	mods, err := plan.Resolve(env.registry, ids)
	if err != nil {
		return err
	}
	return runPlain(ctx, env, mods)
}
