package modules

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/gvmtool/gvm/internal/catalog"
)

const (
	aptConfPath = "/etc/apt/apt.conf.d/99-gvm-robust"
	mirrorsPath = "/etc/apt/mirrors/debian.list"
)

// APT hardens the package manager, repairs dpkg state, brings the system up
// to date and installs the configured base packages. It is the foundation
// module: everything that installs packages depends on it.
type APT struct{}

// Check implements catalog.Capability.
func (a *APT) Check(rc *catalog.RunContext) (bool, string) {
	if rc.Markers.Done("apt") {
		return true, "completion marker present"
	}
	if _, err := os.Stat(aptConfPath); err == nil {
		return true, "APT hardening configuration already present"
	}
	return false, "APT hardening not configured"
}

// Apply implements catalog.Capability.
func (a *APT) Apply(ctx context.Context, rc *catalog.RunContext, progress catalog.ProgressFunc) error {
	progress("hardening APT configuration")
	if err := a.harden(rc); err != nil {
		return catalog.Fail("apt", "failed to write APT hardening config", err)
	}

	progress("checking mirror configuration")
	if err := a.repairMirrors(rc, progress); err != nil {
		return catalog.Fail("apt", "mirror repair failed", err)
	}

	progress("cleaning APT caches")
	// Cache cleaning is best-effort; a failure here never blocks the run.
	if _, err := rc.Runner.Run(ctx, "sudo", "apt", "clean"); err != nil {
		rc.Log.Info("apt clean failed, continuing", "error", err.Error())
	}

	progress("repairing dpkg state")
	if _, err := rc.Runner.Run(ctx, "sudo", "dpkg", "--configure", "-a"); err != nil {
		return catalog.Fail("apt", "dpkg repair failed", err)
	}
	if _, err := rc.Runner.Run(ctx, "sudo", "apt-get", "-y", "-f", "install"); err != nil {
		return catalog.Fail("apt", "broken dependency repair failed", err)
	}

	progress("updating package lists")
	if _, err := rc.Runner.Run(ctx, "sudo", "apt", "update"); err != nil {
		return catalog.Fail("apt", "package list update failed", err)
	}

	progress("upgrading installed packages")
	if _, err := rc.Runner.Run(ctx, "sudo", "apt", "full-upgrade", "-y"); err != nil {
		return catalog.Fail("apt", "system upgrade failed", err)
	}

	if pkgs := rc.Config.APT.BasePackages; len(pkgs) > 0 {
		if err := InstallPackages(ctx, rc, progress, pkgs); err != nil {
			return catalog.Fail("apt", "base package installation failed", err)
		}
	}

	progress("APT configuration complete")
	return nil
}

// Fix implements catalog.Capability.
func (a *APT) Fix(ctx context.Context, rc *catalog.RunContext) error {
	if err := rc.Markers.Clear("apt"); err != nil {
		return err
	}
	return a.Apply(ctx, rc, func(string) {})
}

// harden writes the robust APT configuration drop-in.
func (a *APT) harden(rc *catalog.RunContext) error {
	apt := rc.Config.APT
	content := fmt.Sprintf(`// gvm robust APT configuration
// Prevents failures on slow or unreliable connections

Acquire::Retries "%d";
Acquire::http::Timeout "%d";
Acquire::https::Timeout "%d";
Acquire::http::Pipeline-Depth "%d";
Dpkg::Use-Pty "0";
`, apt.Retries, apt.HTTPTimeout, apt.HTTPSTimeout, apt.PipelineDepth)

	return writeFile(rc, aptConfPath, []byte(content), 0o644)
}

// repairMirrors restores the mirror+file list to one-URL-per-line form.
// Earlier tool versions wrote full source entries into it, which breaks the
// mirror+file: directive; the original URLs are preserved when repairing.
func (a *APT) repairMirrors(rc *catalog.RunContext, progress catalog.ProgressFunc) error {
	data, err := os.ReadFile(mirrorsPath) // #nosec G304
	if err != nil {
		if os.IsNotExist(err) {
			progress("no mirrors file present, skipping")
			return nil
		}
		return err
	}

	urls, corrupted := extractMirrorURLs(string(data))
	if !corrupted {
		progress("mirror file OK")
		return nil
	}
	if len(urls) == 0 {
		urls = rc.Config.APT.Mirrors
	}

	progress("repairing corrupted mirror file")
	content := strings.Join(urls, "\n") + "\n"
	return writeFile(rc, mirrorsPath, []byte(content), 0o644)
}

// extractMirrorURLs pulls the mirror URLs out of the file content and
// reports whether any line carried extra fields beyond the URL.
func extractMirrorURLs(content string) (urls []string, corrupted bool) {
	seen := map[string]bool{}
	for _, line := range strings.Split(strings.TrimSpace(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		url := line
		if strings.Contains(line, " ") {
			corrupted = true
			url = strings.Fields(line)[0]
		}
		if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
			continue
		}
		if !seen[url] {
			seen[url] = true
			urls = append(urls, url)
		}
	}
	return urls, corrupted
}

// InstallPackages installs packages with the download-first strategy: fetch
// everything into the cache, then install offline from it. A flaky
// connection then fails in the cheap download phase instead of mid-install.
func InstallPackages(ctx context.Context, rc *catalog.RunContext, progress catalog.ProgressFunc, packages []string) error {
	if len(packages) == 0 {
		return nil
	}

	progress(fmt.Sprintf("downloading %d packages", len(packages)))
	args := append([]string{"apt-get", "-y", "--download-only", "install"}, packages...)
	if _, err := rc.Runner.Run(ctx, "sudo", args...); err != nil {
		return fmt.Errorf("package download failed: %w", err)
	}

	progress(fmt.Sprintf("installing %d packages from cache", len(packages)))
	args = append([]string{"apt-get", "-y", "--no-download", "install"}, packages...)
	if _, err := rc.Runner.Run(ctx, "sudo", args...); err != nil {
		return fmt.Errorf("package installation failed: %w", err)
	}
	return nil
}
