// Package main is the entry point for the gvm CLI.
//
// gvm provisions a Debian VM (typically the GrapheneOS Terminal VM) from a
// catalog of modules: package manager hardening, SSH access, shell
// environment, GUI plumbing, the VM user and optional desktop environments.
//
// Commands: setup, apt, ssh, shell, gui, user, desktop, fix, info, gpu,
// config, start, version, completion.
//
// For detailed usage information, run:
//
//	gvm --help
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/gvmtool/gvm/cmd/gvm/commands"
	"github.com/gvmtool/gvm/internal/plan"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)
	if err := commands.Root().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps errors to the documented codes: 2 for selection or
// dependency resolution problems, 1 for everything else. Full success never
// reaches here.
func exitCode(err error) int {
	var cfgErr *plan.ConfigError
	var cycleErr *plan.CycleError
	if errors.As(err, &cfgErr) || errors.As(err, &cycleErr) {
		return 2
	}
	return 1
}
