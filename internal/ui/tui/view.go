package tui

import (
	"fmt"
	"strings"

	"github.com/gvmtool/gvm/internal/engine"
)

func renderView(m Model) string {
	var b strings.Builder

	renderHeader(&b, m)

	switch m.screen {
	case screenSelecting:
		renderSelecting(&b, m)
	case screenConfirming:
		renderConfirming(&b, m)
	case screenRunning:
		renderRunning(&b, m)
	case screenErrorPrompt:
		renderRunning(&b, m)
		renderPrompt(&b, m)
	case screenSummary:
		renderSummary(&b, m)
	}

	renderFooter(&b, m)
	return b.String()
}

func renderHeader(b *strings.Builder, m Model) {
	title := "gvm: VM provisioning"
	if m.dryRun {
		title += " (dry run)"
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")
}

func renderSelecting(b *strings.Builder, m Model) {
	b.WriteString(sectionStyle.Render("  Select modules"))
	b.WriteString("\n")

	for i, it := range m.items {
		cursor := "  "
		if i == m.cursor {
			cursor = activeStyle.Render("> ")
		}
		box := "[ ]"
		if it.selected {
			box = okStyle.Render("[x]")
		}
		line := fmt.Sprintf("%s%s %s", cursor, box, it.module.Title)
		if i == m.cursor {
			line += subtitleStyle.Render("  " + it.module.Description)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
}

func renderConfirming(b *strings.Builder, m Model) {
	b.WriteString(sectionStyle.Render("  Execution order"))
	b.WriteString("\n")

	for i, mod := range m.planned {
		line := fmt.Sprintf("  %d. %s", i+1, mod.Title)
		if len(mod.DependsOn) > 0 {
			line += dimStyle.Render("  (needs " + strings.Join(mod.DependsOn, ", ") + ")")
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	note := "\n  Run these modules?"
	if m.dryRun {
		note = "\n  Rehearse these modules? Nothing will be changed."
	}
	b.WriteString(warningStyle.Render(note))
	b.WriteString("\n")
}

func renderRunning(b *strings.Builder, m Model) {
	b.WriteString(sectionStyle.Render("  Modules"))
	b.WriteString("\n")

	for _, mod := range m.planned {
		b.WriteString("  ")
		b.WriteString(statusLine(m, mod.ID, mod.Title))
		b.WriteString("\n")
	}
}

func statusLine(m Model, id, title string) string {
	status := m.statuses[id]
	switch status {
	case engine.StatusSucceeded:
		return fmt.Sprintf("%s %s", okStyle.Render(checkMark), title)
	case engine.StatusFailed:
		return fmt.Sprintf("%s %s %s", failedStyle.Render(crossMark), title,
			failedStyle.Render(m.steps[id]))
	case engine.StatusSkipped, engine.StatusSkippedCascade:
		return fmt.Sprintf("%s %s %s", warningStyle.Render(skipMark), title,
			dimStyle.Render(status.String()))
	case engine.StatusRunning:
		line := fmt.Sprintf("%s %s %s", m.spin.View(), activeStyle.Render(title),
			dimStyle.Render(m.steps[id]))
		if attempt := m.attempts[id]; attempt > 1 {
			line += warningStyle.Render(fmt.Sprintf(" (attempt %d)", attempt))
		}
		return line
	default:
		return fmt.Sprintf("%s %s", dimStyle.Render(pendingMark), dimStyle.Render(title))
	}
}

func renderPrompt(b *strings.Builder, m Model) {
	if m.prompt == nil {
		return
	}
	fc := m.prompt

	b.WriteString(sectionStyle.Render("  Module failed"))
	b.WriteString("\n")
	fmt.Fprintf(b, "  %s %s (attempt %d)\n",
		failedStyle.Render(crossMark), fc.ModuleID, fc.Attempt)
	if fc.Err != nil {
		fmt.Fprintf(b, "  %s\n", failedStyle.Render(fc.Err.Error()))
	}
	if fc.Hint != "" {
		fmt.Fprintf(b, "  %s\n", warningStyle.Render("hint: "+fc.Hint))
	}
	if fc.Remediation != "" {
		fmt.Fprintf(b, "  %s\n", dimStyle.Render("suggested: "+fc.Remediation))
	}
	b.WriteString(activeStyle.Render("\n  [r]etry  [s]kip  [a]bort"))
	b.WriteString("\n")
}

func renderSummary(b *strings.Builder, m Model) {
	if m.Summary == nil {
		return
	}
	s := m.Summary

	b.WriteString(sectionStyle.Render("  Summary"))
	b.WriteString("\n")

	for _, res := range s.Results {
		mark, style := pendingMark, dimStyle
		switch res.Status {
		case engine.StatusSucceeded:
			mark, style = checkMark, okStyle
		case engine.StatusFailed:
			mark, style = crossMark, failedStyle
		case engine.StatusSkipped, engine.StatusSkippedCascade:
			mark, style = skipMark, warningStyle
		}
		line := fmt.Sprintf("  %s %s", style.Render(mark), res.ModuleID)
		if res.Status == engine.StatusSkippedCascade && res.Err != nil {
			line += dimStyle.Render("  " + res.Err.Error())
		}
		if res.Attempts > 1 {
			line += dimStyle.Render(fmt.Sprintf("  (%d attempts)", res.Attempts))
		}
		if res.Remediation != "" {
			line += warningStyle.Render("  fix: " + res.Remediation)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	counts := fmt.Sprintf("\n  %d succeeded, %d failed, %d skipped, %d pending",
		s.Count(engine.StatusSucceeded),
		s.Count(engine.StatusFailed),
		s.Count(engine.StatusSkipped)+s.Count(engine.StatusSkippedCascade),
		s.Count(engine.StatusPending))
	if s.Succeeded() {
		b.WriteString(okStyle.Render(counts))
	} else {
		b.WriteString(warningStyle.Render(counts))
	}
	if s.Aborted {
		b.WriteString(failedStyle.Render("  (aborted)"))
	}
	if s.DryRun {
		b.WriteString(dimStyle.Render("  [dry run]"))
	}
	b.WriteString("\n")
}

func renderFooter(b *strings.Builder, m Model) {
	var help string
	switch m.screen {
	case screenSelecting:
		help = "space toggle · a all · n none · enter continue · q quit"
	case screenConfirming:
		help = "enter run · esc back · q quit"
	case screenRunning:
		help = "running... · ctrl+c abort"
		if m.aborting {
			help = "aborting..."
		}
	case screenErrorPrompt:
		help = "r retry · s skip · a abort"
	case screenSummary:
		help = "press any key to exit"
	}
	b.WriteString(footerStyle.Render("  " + help))
	b.WriteString("\n")
}
