package handlers

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/gvmtool/gvm/internal/sysutil"
)

// Info writes a system snapshot and the module catalog with dependency and
// completion state.
func Info(ctx context.Context, opts Options, out io.Writer) error {
	env, err := buildEnvironment(opts, false)
	if err != nil {
		return err
	}
	defer env.closeLog()

	codename, err := sysutil.DebianCodename()
	if err != nil {
		codename = "unknown"
	}
	sshState := "inactive"
	if sysutil.ServiceActive(ctx, env.rc.Runner, "ssh") {
		sshState = "active"
	}
	portState := "closed"
	if sysutil.PortListening(env.cfg.Ports.SSHForward) {
		portState = "listening"
	}

	fmt.Fprintf(out, "Distribution:   Debian %s\n", codename)
	fmt.Fprintf(out, "SSH service:    %s\n", sshState)
	fmt.Fprintf(out, "SSH port %d:  %s\n", env.cfg.Ports.SSHForward, portState)
	fmt.Fprintln(out)

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "MODULE\tDEPENDS ON\tSTATE\tDESCRIPTION")

	for _, m := range env.registry.All() {
		deps := "-"
		if len(m.DependsOn) > 0 {
			deps = strings.Join(m.DependsOn, ", ")
		}

		status := "not run"
		if at := env.rc.Markers.DoneAt(m.ID); !at.IsZero() {
			status = "done " + at.Local().Format(time.DateOnly)
		} else if env.rc.Markers.Done(m.ID) {
			status = "done"
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", m.ID, deps, status, m.Description)
	}
	return w.Flush()
}
