package modules

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/gvmtool/gvm/internal/catalog"
)

// DesktopInstall installs one desktop environment: its packages with the
// download-first strategy, its configuration files and its launch script.
type DesktopInstall struct {
	Desktop *catalog.Desktop
}

func (d *DesktopInstall) id() string {
	return "desktop:" + d.Desktop.Meta.Name
}

// Check implements catalog.Capability. The desktop counts as installed when
// every core package reports "install ok installed".
func (d *DesktopInstall) Check(rc *catalog.RunContext) (bool, string) {
	if rc.Markers.Done(d.id()) {
		return true, "completion marker present"
	}
	core := d.Desktop.Packages.Core
	if len(core) == 0 {
		return false, "no core packages declared"
	}
	for _, pkg := range core {
		out, err := rc.Runner.Run(context.Background(), "dpkg-query", "-W", "-f=${Status}", pkg)
		if err != nil || !strings.Contains(out, "install ok installed") {
			return false, fmt.Sprintf("desktop %q not installed", d.Desktop.Meta.Name)
		}
	}
	return true, fmt.Sprintf("desktop %q already installed", d.Desktop.Meta.Name)
}

// Apply implements catalog.Capability.
func (d *DesktopInstall) Apply(ctx context.Context, rc *catalog.RunContext, progress catalog.ProgressFunc) error {
	desk := d.Desktop

	if conflict := d.installedConflict(ctx, rc); conflict != "" {
		rc.Log.Info("conflicting desktop detected", "desktop", desk.Meta.Name, "conflict", conflict)
		progress(fmt.Sprintf("warning: conflicts with installed desktop %q", conflict))
	}

	progress("installing packages for " + desk.DisplayName())
	if err := InstallPackages(ctx, rc, progress, desk.AllPackages()); err != nil {
		return catalog.Fail(d.id(), "package installation failed", err)
	}

	if len(desk.Files) > 0 {
		progress("writing configuration files")
		for target, content := range desk.Files {
			path := expandPath(target)
			mode := os.FileMode(0o644)
			if strings.HasPrefix(strings.TrimSpace(content), "#!") {
				mode = 0o755
			}
			body := strings.TrimRight(content, "\n") + "\n"
			if err := writeFile(rc, path, []byte(body), mode); err != nil {
				return catalog.Fail(d.id(), "failed to write "+path, err)
			}
		}
	}

	progress("writing launch script")
	if desk.Session.StartCommand == "" {
		rc.Log.Info("no session start command, skipping launcher", "desktop", desk.Meta.Name)
	} else {
		binDir, err := homePath(".local", "bin")
		if err != nil {
			return catalog.Fail(d.id(), "cannot resolve home directory", err)
		}
		path := binDir + "/" + LauncherName(desk)
		if err := writeFile(rc, path, []byte(LauncherScript(desk)), 0o755); err != nil {
			return catalog.Fail(d.id(), "failed to write launch script", err)
		}
	}

	progress(desk.DisplayName() + " installation complete")
	return nil
}

// Fix implements catalog.Capability.
func (d *DesktopInstall) Fix(ctx context.Context, rc *catalog.RunContext) error {
	if err := rc.Markers.Clear(d.id()); err != nil {
		return err
	}
	return d.Apply(ctx, rc, func(string) {})
}

// installedConflict returns the name of a conflicting desktop whose core
// packages are present, or "".
func (d *DesktopInstall) installedConflict(ctx context.Context, rc *catalog.RunContext) string {
	for _, pkg := range d.Desktop.Conflicts.Packages {
		out, err := rc.Runner.Run(ctx, "dpkg-query", "-W", "-f=${Status}", pkg)
		if err == nil && strings.Contains(out, "install ok installed") {
			return pkg
		}
	}
	return ""
}
