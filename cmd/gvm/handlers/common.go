// Package handlers implements the business logic for CLI commands.
//
// This package contains handler functions that are called by command
// definitions in the commands package. Handlers are framework-agnostic and
// can be tested independently of the CLI framework.
package handlers

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"github.com/mattn/go-isatty"

	"github.com/gvmtool/gvm/internal/catalog"
	"github.com/gvmtool/gvm/internal/config"
	"github.com/gvmtool/gvm/internal/modules"
	"github.com/gvmtool/gvm/internal/state"
	"github.com/gvmtool/gvm/internal/sysutil"
)

// Options carries the flags shared by the provisioning commands.
type Options struct {
	ConfigPath string
	DryRun     bool
	Force      bool
	Verbose    bool
	Plain      bool
}

// Factory function variables - can be replaced in tests for dependency
// injection.
var (
	// loadConfig loads the layered configuration.
	loadConfig = config.Load

	// newCatalog builds the module registry.
	newCatalog = modules.Catalog

	// markerDir resolves the completion marker directory.
	markerDir = state.DefaultDir

	// stdoutIsTerminal reports whether stdout is a TTY.
	stdoutIsTerminal = func() bool {
		return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	}
)

// environment is everything a provisioning handler needs, assembled once
// per invocation.
type environment struct {
	cfg      *config.Config
	registry *catalog.Registry
	rc       *catalog.RunContext
	closeLog func()
}

// buildEnvironment loads config, builds the catalog and assembles the run
// context. logToFile redirects logs to the state directory so they do not
// fight the TUI for the terminal.
func buildEnvironment(opts Options, logToFile bool) (*environment, error) {
	cfg, err := loadConfig(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	log, closeLog, err := newLogger(opts.Verbose, logToFile)
	if err != nil {
		return nil, err
	}

	registry, err := newCatalog(cfg, log)
	if err != nil {
		closeLog()
		return nil, err
	}

	dir, err := markerDir()
	if err != nil {
		closeLog()
		return nil, err
	}

	var runner sysutil.Runner
	if opts.DryRun {
		runner = sysutil.DryRunner{Log: log}
	} else {
		runner = sysutil.ExecRunner{Log: log}
	}

	return &environment{
		cfg:      cfg,
		registry: registry,
		rc: &catalog.RunContext{
			Config:  cfg,
			Runner:  runner,
			Markers: state.NewStore(dir),
			Log:     log,
			DryRun:  opts.DryRun,
			Force:   opts.Force,
			Verbose: opts.Verbose,
		},
		closeLog: closeLog,
	}, nil
}

// newLogger builds the funcr logger. File mode appends to
// $XDG_STATE_HOME/gvm/run.log.
func newLogger(verbose, toFile bool) (logr.Logger, func(), error) {
	sink := os.Stderr
	closeLog := func() {}

	if toFile {
		stateDir, err := config.StateDir()
		if err != nil {
			return logr.Logger{}, nil, err
		}
		if err := os.MkdirAll(stateDir, 0o755); err != nil {
			return logr.Logger{}, nil, fmt.Errorf("failed to create state directory: %w", err)
		}
		path := filepath.Join(stateDir, "run.log")
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644) // #nosec G304
		if err != nil {
			return logr.Logger{}, nil, fmt.Errorf("failed to open log file %s: %w", path, err)
		}
		sink = f
		closeLog = func() { f.Close() }
	}

	verbosity := 0
	if verbose {
		verbosity = 1
	}
	log := funcr.New(func(prefix, args string) {
		if prefix != "" {
			fmt.Fprintf(sink, "%s: %s\n", prefix, args)
		} else {
			fmt.Fprintln(sink, args)
		}
	}, funcr.Options{Verbosity: verbosity, LogTimestamp: true})

	return log, closeLog, nil
}
