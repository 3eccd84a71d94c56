// Package modules implements the provisioning capabilities gvm ships with
// and assembles them into the catalog.
//
// Every capability follows the same contract: Check answers "is the outcome
// already in place", Apply converges the system toward it, and Fix clears
// partial state before re-applying. Under dry-run all commands go through
// the DryRunner and file writes are logged instead of performed, so the
// control flow rehearsed is the control flow a real run would take.
package modules

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/gvmtool/gvm/internal/catalog"
	"github.com/gvmtool/gvm/internal/config"
	"github.com/gvmtool/gvm/internal/sysutil"
	"github.com/go-logr/logr"
)

// Catalog builds the module registry for the given configuration: the five
// core modules plus one desktop:<name> module per discovered desktop
// definition.
func Catalog(cfg *config.Config, log logr.Logger) (*catalog.Registry, error) {
	reg := catalog.NewRegistry()

	core := []catalog.Module{
		{
			ID:          "apt",
			Title:       "APT package manager",
			Description: "Harden APT, repair dpkg state and install base packages",
			Capability:  &APT{},
		},
		{
			ID:          "ssh",
			Title:       "SSH server",
			Description: "Configure sshd, seed user keys and start the service",
			DependsOn:   []string{"apt"},
			Capability:  &SSH{},
		},
		{
			ID:          "shell",
			Title:       "Shell environment",
			Description: "Install the Starship prompt and the login banner",
			Capability:  &Shell{},
		},
		{
			ID:          "gui",
			Title:       "GUI support",
			Description: "Wayland display plumbing and launch helpers",
			DependsOn:   []string{"shell"},
			Capability:  &GUI{},
		},
		{
			ID:          "user",
			Title:       "VM user",
			Description: "Set the VM user password and passwordless sudo",
			DependsOn:   []string{"apt"},
			Capability:  &User{},
		},
	}
	for _, m := range core {
		if err := reg.Add(m); err != nil {
			return nil, err
		}
	}

	userDir, err := config.UserPackagesDir()
	if err != nil {
		return nil, err
	}
	desktops, err := catalog.ScanDesktops(log, userDir)
	if err != nil {
		return nil, err
	}
	for _, d := range desktops {
		m := catalog.Module{
			ID:          "desktop:" + d.Meta.Name,
			Title:       d.DisplayName() + " desktop",
			Description: d.Meta.Description,
			DependsOn:   []string{"apt"},
			Capability:  &DesktopInstall{Desktop: d},
		}
		if err := reg.Add(m); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// writeFile is the dry-run-aware file write every module uses.
func writeFile(rc *catalog.RunContext, path string, content []byte, perm os.FileMode) error {
	if rc.DryRun {
		rc.Log.Info("dry-run: would write file", "path", path, "bytes", len(content), "mode", perm)
		return nil
	}
	return sysutil.SafeWrite(path, content, perm)
}

// ensureSnippet is the dry-run-aware managed-block write.
func ensureSnippet(rc *catalog.RunContext, path, name, body string) error {
	if rc.DryRun {
		rc.Log.Info("dry-run: would ensure snippet", "path", path, "block", name)
		return nil
	}
	return sysutil.EnsureSnippet(path, name, body)
}

// expandPath resolves a leading ~ and environment variables in target paths
// from desktop definitions.
func expandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return os.ExpandEnv(path)
}

// homePath joins elem under the current user's home directory.
func homePath(elem ...string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(append([]string{home}, elem...)...), nil
}
