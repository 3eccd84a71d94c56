package handlers

import (
	"fmt"
	"os"

	"github.com/gvmtool/gvm/internal/engine"
	"github.com/gvmtool/gvm/internal/progress"
)

// newPlainSink returns a throttled sink that prints one line per event,
// for --plain runs and non-TTY environments.
func newPlainSink(dryRun bool) engine.Sink {
	prefix := ""
	if dryRun {
		prefix = "[dry-run] "
	}
	return progress.NewReporter(progress.DefaultInterval, engine.SinkFunc(func(ev engine.Event) {
		switch ev.Kind {
		case engine.EventModuleStarted:
			if ev.Attempt > 1 {
				fmt.Printf("%s--> %s (attempt %d)\n", prefix, ev.ModuleID, ev.Attempt)
			} else {
				fmt.Printf("%s--> %s\n", prefix, ev.ModuleID)
			}
		case engine.EventModuleProgress:
			fmt.Printf("%s    %s: %s\n", prefix, ev.ModuleID, ev.Step)
		case engine.EventModuleFinished:
			mark := statusMark(ev.Status)
			if ev.Err != nil {
				fmt.Printf("%s%s %s: %s\n", prefix, mark, ev.ModuleID, ev.Err)
			} else {
				fmt.Printf("%s%s %s\n", prefix, mark, ev.ModuleID)
			}
		case engine.EventRunFinished:
			printSummary(ev.Summary, prefix)
		}
	}))
}

func statusMark(s engine.Status) string {
	switch s {
	case engine.StatusSucceeded:
		return "[OK]"
	case engine.StatusFailed:
		return "[!!]"
	case engine.StatusSkipped, engine.StatusSkippedCascade:
		return "[--]"
	default:
		return "[  ]"
	}
}

func printSummary(s *engine.Summary, prefix string) {
	if s == nil {
		return
	}
	// One line per module that needs attention, remediation included.
	for _, res := range s.Results {
		if res.Status == engine.StatusSucceeded {
			continue
		}
		line := fmt.Sprintf("%s%s %s", prefix, statusMark(res.Status), res.ModuleID)
		if res.Status == engine.StatusPending {
			line += ": not run"
		}
		if res.Remediation != "" {
			line += fmt.Sprintf("  (try '%s')", res.Remediation)
		}
		fmt.Println(line)
	}
	fmt.Printf("%s%d succeeded, %d failed, %d skipped, %d pending\n",
		prefix,
		s.Count(engine.StatusSucceeded),
		s.Count(engine.StatusFailed),
		s.Count(engine.StatusSkipped)+s.Count(engine.StatusSkippedCascade),
		s.Count(engine.StatusPending))
	if s.Aborted {
		fmt.Fprintln(os.Stderr, "run aborted")
	}
}
