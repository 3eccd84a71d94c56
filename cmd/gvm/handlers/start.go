package handlers

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
)

// launchSession is a factory variable so tests can avoid exec'ing a
// desktop session.
var launchSession = func(path string) error {
	cmd := exec.Command(path) // #nosec G204 -- launcher paths come from ~/.local/bin discovery
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// installedLaunchers lists the start-* scripts gvm wrote, sans the generic
// start-gui helper, keyed by desktop name.
func installedLaunchers() (map[string]string, error) {
	binDir, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	binDir = filepath.Join(binDir, ".local", "bin")

	entries, err := os.ReadDir(binDir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, err
	}

	launchers := map[string]string{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, "start-") || name == "start-gui" {
			continue
		}
		launchers[strings.TrimPrefix(name, "start-")] = filepath.Join(binDir, name)
	}
	return launchers, nil
}

// Start launches an installed desktop by name. With an empty name it
// launches the only installed desktop, or lists the candidates.
func Start(name string) error {
	launchers, err := installedLaunchers()
	if err != nil {
		return err
	}
	if len(launchers) == 0 {
		return fmt.Errorf("no desktop launchers installed; run 'gvm desktop <name>' first")
	}

	if name == "" {
		if len(launchers) > 1 {
			names := launcherNames(launchers)
			return fmt.Errorf("several desktops installed (%s); run 'gvm start <name>'",
				strings.Join(names, ", "))
		}
		for _, path := range launchers {
			return launchSession(path)
		}
	}

	path, ok := launchers[name]
	if !ok {
		return fmt.Errorf("desktop %q is not installed; 'gvm start --list' shows what is", name)
	}
	return launchSession(path)
}

// StartList writes the installed desktop launchers.
func StartList(out io.Writer) error {
	launchers, err := installedLaunchers()
	if err != nil {
		return err
	}
	if len(launchers) == 0 {
		fmt.Fprintln(out, "no desktop launchers installed")
		return nil
	}
	for _, name := range launcherNames(launchers) {
		fmt.Fprintf(out, "%s\t(%s)\n", name, launchers[name])
	}
	return nil
}

func launcherNames(launchers map[string]string) []string {
	names := make([]string, 0, len(launchers))
	for name := range launchers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
