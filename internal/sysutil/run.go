// Package sysutil provides the command runner and host probes the
// provisioning modules are built on. The Runner interface is the seam that
// lets modules run real commands, simulate them under dry-run, or be tested
// against a fake.
package sysutil

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/go-logr/logr"
)

// Runner executes host commands on behalf of a module.
type Runner interface {
	// Run executes name with args and returns combined output.
	Run(ctx context.Context, name string, args ...string) (string, error)

	// RunInput is Run with data supplied on the command's stdin.
	RunInput(ctx context.Context, input, name string, args ...string) (string, error)
}

// ExecRunner runs commands for real via os/exec.
type ExecRunner struct {
	Log logr.Logger
}

// Run implements Runner.
func (r ExecRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	return r.RunInput(ctx, "", name, args...)
}

// RunInput implements Runner.
func (r ExecRunner) RunInput(ctx context.Context, input, name string, args ...string) (string, error) {
	r.Log.V(1).Info("running command", "cmd", name, "args", args)

	// #nosec G204 -- commands come from module code, not user input
	cmd := exec.CommandContext(ctx, name, args...)
	if input != "" {
		cmd.Stdin = strings.NewReader(input)
	}

	out, err := cmd.CombinedOutput()
	output := string(out)
	if err != nil {
		return output, fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, lastLines(output, 5))
	}
	return output, nil
}

// DryRunner logs the command instead of executing it and reports success.
// Installed as the run's Runner when --dry-run is set, so every module
// exercises its full control flow without touching the system.
type DryRunner struct {
	Log logr.Logger
}

// Run implements Runner.
func (r DryRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	return r.RunInput(ctx, "", name, args...)
}

// RunInput implements Runner.
func (r DryRunner) RunInput(_ context.Context, _, name string, args ...string) (string, error) {
	r.Log.Info("dry-run: would run command", "cmd", name, "args", args)
	return "", nil
}

// IsPermissionError reports whether err (or the command output embedded in
// it) indicates missing privileges. Used to attach an elevate-privileges
// hint to the failure context.
func IsPermissionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, os.ErrPermission) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "permission denied") ||
		strings.Contains(msg, "operation not permitted") ||
		strings.Contains(msg, "are you root")
}

// lastLines returns the trailing n non-empty lines of s, joined by "; ".
// Command output can be long; error messages only need the tail.
func lastLines(s string, n int) string {
	var lines []string
	for _, line := range strings.Split(strings.TrimSpace(s), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "; ")
}
