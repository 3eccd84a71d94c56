package handlers

import (
	"context"
	"io"
	"os"
	"testing"

	"github.com/go-logr/logr"

	"github.com/gvmtool/gvm/internal/catalog"
	"github.com/gvmtool/gvm/internal/config"
)

// saveAndRestoreFactories saves and restores the package factory functions.
func saveAndRestoreFactories(t *testing.T) {
	origLoadConfig := loadConfig
	origNewCatalog := newCatalog
	origMarkerDir := markerDir
	origIsTerminal := stdoutIsTerminal
	origRunTUI := runTUI
	origPromptDecision := promptDecision
	origConfirmFix := confirmFix
	origRunConfigForm := runConfigForm
	origLaunchSession := launchSession

	t.Cleanup(func() {
		loadConfig = origLoadConfig
		newCatalog = origNewCatalog
		markerDir = origMarkerDir
		stdoutIsTerminal = origIsTerminal
		runTUI = origRunTUI
		promptDecision = origPromptDecision
		confirmFix = origConfirmFix
		runConfigForm = origRunConfigForm
		launchSession = origLaunchSession
	})
}

// fakeCapability records Apply and Fix invocations.
type fakeCapability struct {
	applied   *[]string
	fixed     *[]string
	id        string
	applyErr  error
	fixErr    error
	satisfied bool
}

func (c *fakeCapability) Apply(_ context.Context, _ *catalog.RunContext, _ catalog.ProgressFunc) error {
	if c.applied != nil {
		*c.applied = append(*c.applied, c.id)
	}
	return c.applyErr
}

func (c *fakeCapability) Check(_ *catalog.RunContext) (bool, string) {
	return c.satisfied, "already satisfied"
}

func (c *fakeCapability) Fix(_ context.Context, _ *catalog.RunContext) error {
	if c.fixed != nil {
		*c.fixed = append(*c.fixed, c.id)
	}
	return c.fixErr
}

// installTestEnvironment points every factory at an in-memory registry and
// temp state, and returns the slice Apply invocations are recorded into.
func installTestEnvironment(t *testing.T) *[]string {
	t.Helper()
	saveAndRestoreFactories(t)

	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_STATE_HOME", t.TempDir())

	applied := &[]string{}

	loadConfig = func(string) (*config.Config, error) {
		return config.Default(), nil
	}
	newCatalog = func(*config.Config, logr.Logger) (*catalog.Registry, error) {
		reg := catalog.NewRegistry()
		mods := []catalog.Module{
			{ID: "apt", Title: "APT", Capability: &fakeCapability{id: "apt", applied: applied}},
			{ID: "ssh", Title: "SSH", DependsOn: []string{"apt"},
				Capability: &fakeCapability{id: "ssh", applied: applied}},
			{ID: "shell", Title: "Shell", DependsOn: []string{"apt"},
				Capability: &fakeCapability{id: "shell", applied: applied}},
		}
		for _, m := range mods {
			if err := reg.Add(m); err != nil {
				return nil, err
			}
		}
		return reg, nil
	}
	dir := t.TempDir()
	markerDir = func() (string, error) { return dir, nil }
	stdoutIsTerminal = func() bool { return false }

	return applied
}

// captureOutput captures what fn writes to stdout.
func captureOutput(t *testing.T, fn func()) string {
	t.Helper()
	orig := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	os.Stdout = w
	defer func() { os.Stdout = orig }()

	fn()

	w.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read captured output: %v", err)
	}
	return string(out)
}
