package catalog

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-logr/logr"
	"gopkg.in/yaml.v3"
)

//go:embed desktops/*.yaml
var builtinDesktops embed.FS

// Desktop describes an installable desktop environment, loaded from a YAML
// definition. Built-in definitions ship embedded in the binary; files in
// $XDG_CONFIG_HOME/gvm/packages override built-ins with the same name.
type Desktop struct {
	Meta struct {
		Name        string `yaml:"name"`
		Type        string `yaml:"type"`
		DisplayName string `yaml:"display_name"`
		Description string `yaml:"description"`
	} `yaml:"meta"`

	Packages struct {
		Core           []string `yaml:"core"`
		Optional       []string `yaml:"optional"`
		WaylandHelpers []string `yaml:"wayland_helpers"`
		User           []string `yaml:"user_packages"`
	} `yaml:"packages"`

	Environment struct {
		Vars []string `yaml:"vars"`
	} `yaml:"environment"`

	// Files maps target paths to file content written verbatim during
	// installation. Paths may use ~ and environment variables.
	Files map[string]string `yaml:"files"`

	Session struct {
		StartCommand     string `yaml:"start_command"`
		FallbackCommand  string `yaml:"fallback_command"`
		RequiresDBus     *bool  `yaml:"requires_dbus"`
		HelperScriptName string `yaml:"helper_script_name"`
	} `yaml:"session"`

	Conflicts struct {
		Desktops []string `yaml:"desktops"`
		Packages []string `yaml:"packages"`
	} `yaml:"conflicts"`
}

// DisplayName returns the UI name, falling back to the canonical name.
func (d *Desktop) DisplayName() string {
	if d.Meta.DisplayName != "" {
		return d.Meta.DisplayName
	}
	return d.Meta.Name
}

// AllPackages returns every package the desktop installs, core first.
func (d *Desktop) AllPackages() []string {
	var out []string
	out = append(out, d.Packages.Core...)
	out = append(out, d.Packages.Optional...)
	out = append(out, d.Packages.WaylandHelpers...)
	out = append(out, d.Packages.User...)
	return out
}

// RequiresDBus reports whether the session must be wrapped in
// dbus-run-session. Unset defaults to true, matching what most desktop
// sessions need.
func (d *Desktop) RequiresDBus() bool {
	return d.Session.RequiresDBus == nil || *d.Session.RequiresDBus
}

// ScanDesktops loads every desktop definition: the embedded built-ins, then
// any extra directories (later directories override earlier ones by name).
// Malformed files are logged and skipped rather than failing the scan.
// Results are sorted by name for stable catalog ordering.
func ScanDesktops(log logr.Logger, userDirs ...string) ([]*Desktop, error) {
	byName := map[string]*Desktop{}

	entries, err := fs.ReadDir(builtinDesktops, "desktops")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded desktop definitions: %w", err)
	}
	for _, entry := range entries {
		data, err := fs.ReadFile(builtinDesktops, "desktops/"+entry.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to read embedded desktop %s: %w", entry.Name(), err)
		}
		addDesktop(log, byName, entry.Name(), data)
	}

	for _, dir := range userDirs {
		files, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("failed to scan desktop directory %s: %w", dir, err)
		}
		for _, f := range files {
			if f.IsDir() || !strings.HasSuffix(f.Name(), ".yaml") {
				continue
			}
			path := filepath.Join(dir, f.Name())
			data, err := os.ReadFile(path) // #nosec G304
			if err != nil {
				log.Error(err, "skipping unreadable desktop definition", "path", path)
				continue
			}
			addDesktop(log, byName, path, data)
		}
	}

	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]*Desktop, 0, len(names))
	for _, name := range names {
		out = append(out, byName[name])
	}
	return out, nil
}

// addDesktop parses one definition and merges it into byName, overriding any
// earlier definition with the same canonical name.
func addDesktop(log logr.Logger, byName map[string]*Desktop, source string, data []byte) {
	var d Desktop
	if err := yaml.Unmarshal(data, &d); err != nil {
		log.Error(err, "skipping malformed desktop definition", "source", source)
		return
	}
	if d.Meta.Type != "desktop" {
		log.V(1).Info("skipping non-desktop definition", "source", source, "type", d.Meta.Type)
		return
	}
	if d.Meta.Name == "" {
		log.Error(nil, "skipping desktop definition without meta.name", "source", source)
		return
	}
	byName[NormalizeID(d.Meta.Name)] = &d
}
