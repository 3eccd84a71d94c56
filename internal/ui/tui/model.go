package tui

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/gvmtool/gvm/internal/catalog"
	"github.com/gvmtool/gvm/internal/engine"
)

// screen is the model's active screen.
type screen int

const (
	screenSelecting screen = iota
	screenConfirming
	screenRunning
	screenErrorPrompt
	screenSummary
)

// item is one selectable catalog module.
type item struct {
	module   catalog.Module
	selected bool
}

// Model is the Bubble Tea model for a provisioning run.
type Model struct {
	items  []item
	cursor int
	screen screen

	// resolve turns the selection into an execution order; set by Run.
	resolve func(ids []string) ([]catalog.Module, error)
	// start launches the engine goroutine; set by Run.
	start func(mods []catalog.Module)
	// cancelRun cancels the engine's context; set by Run.
	cancelRun func()
	// decisions carries recovery decisions back to the suspended engine.
	decisions chan<- engine.Decision

	// planned is the resolved execution order shown on the confirm screen.
	planned []catalog.Module
	// ConfirmedIDs is the selection as confirmed, persisted after exit.
	ConfirmedIDs []string

	statuses map[string]engine.Status
	steps    map[string]string
	attempts map[string]int
	prompt   *engine.FailureContext

	Summary *engine.Summary
	RunErr  error
	// PlanErr is a resolution failure; it maps to exit code 2.
	PlanErr error

	dryRun   bool
	aborting bool
	spin     spinner.Model
	keys     keyMap
	width    int
}

// NewModel builds the selection model. preselected ids start checked;
// unknown ids in the persisted record are ignored here.
func NewModel(reg *catalog.Registry, preselected []string, dryRun bool) Model {
	pre := map[string]bool{}
	for _, id := range preselected {
		pre[catalog.NormalizeID(id)] = true
	}

	var items []item
	for _, m := range reg.All() {
		items = append(items, item{module: m, selected: pre[m.ID]})
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = activeStyle

	return Model{
		items:    items,
		dryRun:   dryRun,
		statuses: map[string]engine.Status{},
		steps:    map[string]string{},
		attempts: map[string]int{},
		spin:     sp,
		keys:     defaultKeyMap(),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return m.spin.Tick
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.updateKeys(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case EngineEventMsg:
		m.applyEvent(msg.Event)

	case PromptRecoveryMsg:
		fc := msg.Failure
		m.prompt = &fc
		m.screen = screenErrorPrompt

	case RunDoneMsg:
		m.Summary = msg.Summary
		m.RunErr = msg.Err
		m.screen = screenSummary

	case ErrMsg:
		m.RunErr = msg.Err
		return m, tea.Quit
	}

	return m, nil
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// ctrl+c quits immediately outside a run. Mid-run it cancels the
	// engine's context instead, so the run ends as a real abort: the
	// current module records Failed, the rest stay Pending, and the
	// summary (with its exit code) still arrives via RunDoneMsg.
	if msg.String() == "ctrl+c" {
		if m.screen == screenRunning || m.screen == screenErrorPrompt {
			if m.cancelRun != nil {
				m.cancelRun()
			}
			m.aborting = true
			m.prompt = nil
			m.screen = screenRunning
			return m, nil
		}
		return m, tea.Quit
	}

	switch m.screen {
	case screenSelecting:
		return m.updateSelecting(msg)
	case screenConfirming:
		return m.updateConfirming(msg)
	case screenErrorPrompt:
		return m.updateErrorPrompt(msg)
	case screenSummary:
		return m, tea.Quit
	default: // screenRunning: engine drives, keys are ignored
		return m, nil
	}
}

func (m Model) updateSelecting(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Toggle):
		m.items[m.cursor].selected = !m.items[m.cursor].selected
	case key.Matches(msg, m.keys.All):
		for i := range m.items {
			m.items[i].selected = true
		}
	case key.Matches(msg, m.keys.None):
		for i := range m.items {
			m.items[i].selected = false
		}
	case key.Matches(msg, m.keys.Confirm):
		ids := m.selectedIDs()
		if len(ids) == 0 {
			return m, nil
		}
		planned, err := m.resolve(ids)
		if err != nil {
			m.PlanErr = err
			return m, tea.Quit
		}
		m.planned = planned
		m.screen = screenConfirming
	}
	return m, nil
}

func (m Model) updateConfirming(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.screen = screenSelecting
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Confirm):
		m.ConfirmedIDs = m.selectedIDs()
		for _, mod := range m.planned {
			m.statuses[mod.ID] = engine.StatusPending
		}
		m.screen = screenRunning
		m.start(m.planned)
	}
	return m, nil
}

func (m Model) updateErrorPrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var decision engine.Decision
	switch {
	case key.Matches(msg, m.keys.Retry):
		decision = engine.DecisionRetry
	case key.Matches(msg, m.keys.Skip):
		decision = engine.DecisionSkip
	case key.Matches(msg, m.keys.Abort):
		decision = engine.DecisionAbort
	default:
		return m, nil
	}

	m.prompt = nil
	m.screen = screenRunning
	m.decisions <- decision
	return m, nil
}

// applyEvent folds one engine event into the display state.
func (m *Model) applyEvent(ev engine.Event) {
	switch ev.Kind {
	case engine.EventModuleStarted:
		m.statuses[ev.ModuleID] = engine.StatusRunning
		m.attempts[ev.ModuleID] = ev.Attempt
		m.steps[ev.ModuleID] = "starting"
	case engine.EventModuleProgress:
		m.steps[ev.ModuleID] = ev.Step
	case engine.EventModuleFinished:
		m.statuses[ev.ModuleID] = ev.Status
		if ev.Err != nil {
			m.steps[ev.ModuleID] = ev.Err.Error()
		}
	case engine.EventRunFinished:
		// RunDoneMsg carries the summary; nothing to fold here.
	}
}

func (m Model) selectedIDs() []string {
	var ids []string
	for _, it := range m.items {
		if it.selected {
			ids = append(ids, it.module.ID)
		}
	}
	return ids
}

// View implements tea.Model.
func (m Model) View() string {
	return renderView(m)
}
