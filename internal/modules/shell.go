package modules

import (
	"context"
	"fmt"
	"os"

	"github.com/gvmtool/gvm/internal/catalog"
	"github.com/gvmtool/gvm/internal/sysutil"
)

const (
	bannerScriptPath = "/etc/profile.d/00-gvm-banner.sh"
	starshipBlock    = "starship"
)

// Shell installs the Starship prompt, wires it into the user's bashrc and
// writes the login banner script.
type Shell struct{}

// Check implements catalog.Capability.
func (s *Shell) Check(rc *catalog.RunContext) (bool, string) {
	if rc.Markers.Done("shell") {
		return true, "completion marker present"
	}
	bashrc, err := homePath(".bashrc")
	if err == nil && sysutil.HasSnippet(bashrc, starshipBlock) {
		if _, err := os.Stat(bannerScriptPath); err == nil || !rc.Config.Features.ShowBanner {
			return true, "shell environment already configured"
		}
	}
	return false, "shell environment not configured"
}

// Apply implements catalog.Capability.
func (s *Shell) Apply(ctx context.Context, rc *catalog.RunContext, progress catalog.ProgressFunc) error {
	if !rc.Config.Features.InstallShellMods {
		progress("shell modifications disabled in configuration")
		return nil
	}

	progress("installing starship prompt")
	// Debian trixie carries starship in the archive; fall back to the
	// upstream installer on older suites.
	if _, err := rc.Runner.Run(ctx, "sudo", "apt-get", "-y", "install", "starship"); err != nil {
		rc.Log.Info("starship not in archive, using upstream installer", "error", err.Error())
		if _, err := rc.Runner.Run(ctx, "sh", "-c",
			"curl -fsSL https://starship.rs/install.sh | sh -s -- -y"); err != nil {
			return catalog.Fail("shell", "starship installation failed", err)
		}
	}

	progress("configuring starship in bashrc")
	bashrc, err := homePath(".bashrc")
	if err != nil {
		return catalog.Fail("shell", "cannot resolve home directory", err)
	}
	if err := ensureSnippet(rc, bashrc, starshipBlock, `eval "$(starship init bash)"`); err != nil {
		return catalog.Fail("shell", "failed to update bashrc", err)
	}

	if rc.Config.Features.ShowBanner {
		progress("writing login banner")
		if err := writeFile(rc, bannerScriptPath, []byte(s.bannerScript(rc)), 0o755); err != nil {
			return catalog.Fail("shell", "failed to write banner script", err)
		}
	}

	progress("shell environment complete")
	return nil
}

// Fix implements catalog.Capability.
func (s *Shell) Fix(ctx context.Context, rc *catalog.RunContext) error {
	if err := rc.Markers.Clear("shell"); err != nil {
		return err
	}
	return s.Apply(ctx, rc, func(string) {})
}

// bannerScript renders the login banner shown by interactive shells.
func (s *Shell) bannerScript(rc *catalog.RunContext) string {
	cfg := rc.Config
	return fmt.Sprintf(`#!/bin/sh
# Login banner written by gvm.
[ -n "$SSH_CONNECTION" ] || [ -t 0 ] || exit 0

echo "=== %s ==="
echo "Host:   $(hostname)"
echo "Kernel: $(uname -r)"
echo "SSH:    port %d (forwarded)"
echo "%s"
`, cfg.Banner.Title, cfg.Ports.SSHForward, cfg.Banner.SSHNote)
}
