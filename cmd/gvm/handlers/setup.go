package handlers

import (
	"context"

	"github.com/gvmtool/gvm/internal/catalog"
	"github.com/gvmtool/gvm/internal/engine"
	"github.com/gvmtool/gvm/internal/plan"
	"github.com/gvmtool/gvm/internal/selection"
	"github.com/gvmtool/gvm/internal/ui/tui"
)

// runTUI is a factory variable so tests can fake the interactive session.
var runTUI = tui.Run

// Setup runs the full provisioning flow: interactive selection in a
// terminal, or a plain run over all (or the previously selected) modules.
func Setup(ctx context.Context, opts Options, all bool) error {
	interactive := stdoutIsTerminal() && !opts.Plain && !all

	env, err := buildEnvironment(opts, interactive)
	if err != nil {
		return err
	}
	defer env.closeLog()

	if interactive {
		return setupInteractive(ctx, env)
	}
	return setupPlain(ctx, env, all)
}

func setupInteractive(ctx context.Context, env *environment) error {
	selPath, err := selection.DefaultPath()
	if err != nil {
		return err
	}
	var preselected []string
	if rec, err := selection.Load(selPath); err == nil && rec != nil {
		preselected = rec.Modules
	}

	outcome, err := runTUI(ctx, tui.Params{
		Registry:    env.registry,
		RC:          env.rc,
		Preselected: preselected,
	})
	if err != nil {
		return err
	}

	if len(outcome.ConfirmedIDs) > 0 {
		if err := selection.Save(selPath, outcome.ConfirmedIDs); err != nil {
			env.rc.Log.Error(err, "failed to persist selection")
		}
	}
	if outcome.Summary != nil {
		return outcome.RunErr
	}
	// Quit before confirming: nothing ran, nothing to report.
	return nil
}

func setupPlain(ctx context.Context, env *environment, all bool) error {
	var mods []catalog.Module
	var err error
	if all {
		mods, err = plan.All(env.registry)
	} else {
		ids := previousOrAllIDs(env.registry)
		mods, err = plan.Resolve(env.registry, ids)
	}
	if err != nil {
		return err
	}
	return runPlain(ctx, env, mods)
}

// previousOrAllIDs returns the persisted selection filtered to known
// modules, or every module when no usable selection exists.
func previousOrAllIDs(reg *catalog.Registry) []string {
	selPath, err := selection.DefaultPath()
	if err == nil {
		if rec, err := selection.Load(selPath); err == nil && rec != nil {
			var known []string
			for _, id := range rec.Modules {
				if _, ok := reg.Get(id); ok {
					known = append(known, id)
				}
			}
			if len(known) > 0 {
				return known
			}
		}
	}

	var ids []string
	for _, m := range reg.All() {
		ids = append(ids, m.ID)
	}
	return ids
}

// runPlain executes modules with line output and the configured (or
// prompted) recovery behavior.
func runPlain(ctx context.Context, env *environment, mods []catalog.Module) error {
	recoverer := plainRecoverer(env)
	sink := newPlainSink(env.rc.DryRun)

	_, err := engine.New(mods, env.rc, recoverer, sink).Run(ctx)
	return err
}

// plainRecoverer prompts on a TTY and falls back to the configured policy
// otherwise.
func plainRecoverer(env *environment) engine.Recoverer {
	if stdoutIsTerminal() {
		return &huhRecoverer{log: env.rc.Log, policy: env.cfg.Recovery}
	}
	return engine.PolicyFromConfig(env.cfg.Recovery, env.rc.Log)
}
