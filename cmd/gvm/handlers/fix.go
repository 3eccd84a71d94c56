package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
)

// confirmFix is a factory variable so tests can script the prompt.
var confirmFix = func(id string) (bool, error) {
	confirmed := false
	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(fmt.Sprintf("Re-run module %s from scratch?", id)).
			Description("Its completion marker will be cleared first.").
			Value(&confirmed),
	))
	if err := form.Run(); err != nil {
		return false, err
	}
	return confirmed, nil
}

// Fix clears a module's completion marker and re-applies it.
func Fix(ctx context.Context, opts Options, id string, yes bool) error {
	env, err := buildEnvironment(opts, false)
	if err != nil {
		return err
	}
	defer env.closeLog()

	mod, ok := env.registry.Get(id)
	if !ok {
		var known []string
		for _, m := range env.registry.All() {
			known = append(known, m.ID)
		}
		return fmt.Errorf("unknown module %q, valid modules: %s", id, strings.Join(known, ", "))
	}

	if !yes && stdoutIsTerminal() {
		confirmed, err := confirmFix(mod.ID)
		if err != nil {
			return err
		}
		if !confirmed {
			fmt.Println("fix cancelled")
			return nil
		}
	}

	fmt.Printf("--> fixing %s\n", mod.ID)
	if err := mod.Capability.Fix(ctx, env.rc); err != nil {
		return fmt.Errorf("fix failed: %w", err)
	}

	if !env.rc.DryRun {
		if err := env.rc.Markers.MarkDone(mod.ID); err != nil {
			env.rc.Log.Error(err, "failed to write completion marker", "module", mod.ID)
		}
	}
	fmt.Printf("[OK] %s repaired\n", mod.ID)
	return nil
}
