package modules

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gvmtool/gvm/internal/catalog"
	"github.com/gvmtool/gvm/internal/config"
)

// displayEnablerPath is dropped in by the GrapheneOS Terminal app when the
// graphical display is enabled; launchers source it when present.
const displayEnablerPath = "$HOME/.config/linuxvm/enable_display"

// GUI prepares the launch plumbing for graphical sessions: ~/.local/bin on
// PATH, the generic start-gui helper and one launcher per discovered
// desktop definition.
type GUI struct{}

// Check implements catalog.Capability.
func (g *GUI) Check(rc *catalog.RunContext) (bool, string) {
	if rc.Markers.Done("gui") {
		return true, "completion marker present"
	}
	startGUI, err := homePath(".local", "bin", "start-gui")
	if err == nil {
		if _, err := os.Stat(startGUI); err == nil {
			return true, "GUI helpers already installed"
		}
	}
	return false, "GUI helpers not installed"
}

// Apply implements catalog.Capability.
func (g *GUI) Apply(_ context.Context, rc *catalog.RunContext, progress catalog.ProgressFunc) error {
	binDir, err := homePath(".local", "bin")
	if err != nil {
		return catalog.Fail("gui", "cannot resolve home directory", err)
	}

	progress("creating " + binDir)
	if !rc.DryRun {
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			return catalog.Fail("gui", "failed to create launcher directory", err)
		}
	}

	progress("writing start-gui helper")
	if err := writeFile(rc, filepath.Join(binDir, "start-gui"), []byte(startGUIScript()), 0o755); err != nil {
		return catalog.Fail("gui", "failed to write start-gui helper", err)
	}

	progress("writing desktop launchers")
	userDir, err := config.UserPackagesDir()
	if err != nil {
		return catalog.Fail("gui", "cannot resolve packages directory", err)
	}
	desktops, err := catalog.ScanDesktops(rc.Log, userDir)
	if err != nil {
		return catalog.Fail("gui", "desktop discovery failed", err)
	}
	created := 0
	for _, d := range desktops {
		if d.Session.StartCommand == "" {
			rc.Log.Info("skipping launcher, no session start command", "desktop", d.Meta.Name)
			continue
		}
		path := filepath.Join(binDir, LauncherName(d))
		if err := writeFile(rc, path, []byte(LauncherScript(d)), 0o755); err != nil {
			return catalog.Fail("gui", "failed to write launcher for "+d.Meta.Name, err)
		}
		created++
	}
	progress(fmt.Sprintf("created %d desktop launchers", created))

	progress("adding ~/.local/bin to PATH")
	bashrc, err := homePath(".bashrc")
	if err != nil {
		return catalog.Fail("gui", "cannot resolve home directory", err)
	}
	if err := ensureSnippet(rc, bashrc, "local-bin-path",
		`export PATH="$HOME/.local/bin:$PATH"`); err != nil {
		return catalog.Fail("gui", "failed to update PATH in bashrc", err)
	}

	progress("GUI support complete")
	return nil
}

// Fix implements catalog.Capability.
func (g *GUI) Fix(ctx context.Context, rc *catalog.RunContext) error {
	if err := rc.Markers.Clear("gui"); err != nil {
		return err
	}
	return g.Apply(ctx, rc, func(string) {})
}

// LauncherName derives the launcher filename for a desktop, always prefixed
// start- and reduced to a safe slug.
func LauncherName(d *catalog.Desktop) string {
	name := d.Session.HelperScriptName
	if name == "" {
		name = strings.ToLower(strings.ReplaceAll(d.Meta.Name, " ", "-"))
	}
	name = filepath.Base(name)
	name = regexp.MustCompile(`[^a-zA-Z0-9_-]`).ReplaceAllString(name, "-")
	name = strings.Trim(regexp.MustCompile(`-+`).ReplaceAllString(name, "-"), "-")
	if name == "" {
		name = "desktop"
	}
	if !strings.HasPrefix(name, "start-") {
		name = "start-" + name
	}
	return name
}

// LauncherScript renders the launch script for a desktop: source the display
// enabler, wait for the Wayland socket, export the session environment and
// exec the session command with its fallback.
func LauncherScript(d *catalog.Desktop) string {
	var b strings.Builder
	fmt.Fprintf(&b, `#!/bin/bash
# gvm desktop launcher: %s
# %s

if [ -f "%s" ]; then
    source "%s"
fi

check_display_ready() {
    local runtime_dir="${XDG_RUNTIME_DIR:-/run/user/$(id -u)}"
    local wayland_display="${WAYLAND_DISPLAY:-wayland-0}"
    [ -S "$runtime_dir/$wayland_display" ]
}

if ! check_display_ready; then
    echo ""
    echo "Display not ready"
    echo ""
    echo "Enable the display from the GrapheneOS Terminal app"
    echo "(display icon, top-right corner), then run this script again."
    echo ""
    exit 1
fi

`, d.Meta.Name, d.Meta.Description, displayEnablerPath, displayEnablerPath)

	validKey := regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	for _, v := range d.Environment.Vars {
		if key, value, found := strings.Cut(v, "="); found {
			if validKey.MatchString(key) {
				fmt.Fprintf(&b, "export %s=%s\n", key, shellQuote(value))
			}
		} else if validKey.MatchString(v) {
			fmt.Fprintf(&b, "export %s\n", v)
		}
	}

	wrap := ""
	if d.RequiresDBus() {
		wrap = "dbus-run-session "
	}
	fmt.Fprintf(&b, "\necho \"Starting %s...\"\n", d.DisplayName())
	if d.Session.FallbackCommand != "" {
		fmt.Fprintf(&b, "if ! %s%s; then\n    exec %s%s\nfi\n",
			wrap, d.Session.StartCommand, wrap, d.Session.FallbackCommand)
	} else {
		fmt.Fprintf(&b, "exec %s%s\n", wrap, d.Session.StartCommand)
	}
	return b.String()
}

// startGUIScript renders the generic entry point that lists the installed
// launchers.
func startGUIScript() string {
	return fmt.Sprintf(`#!/bin/bash
# gvm GUI helper: lists the installed desktop launchers.

if [ -f "%s" ]; then
    source "%s"
fi

echo ""
echo "gvm GUI helper"
echo "=============="
echo ""
echo "Available desktop launchers:"
echo ""
for script in ~/.local/bin/start-*; do
    if [ -x "$script" ] && [ "$(basename "$script")" != "start-gui" ]; then
        echo "  $(basename "$script")"
    fi
done
echo ""
echo "Usage: start-<desktop-name> to launch a desktop"
echo ""
`, displayEnablerPath, displayEnablerPath)
}

// shellQuote wraps value in single quotes, escaping embedded ones.
func shellQuote(value string) string {
	return "'" + strings.ReplaceAll(value, "'", `'\''`) + "'"
}
