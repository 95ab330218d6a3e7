package tui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Veraticus/mindspend/internal/calculator"
	"github.com/Veraticus/mindspend/internal/flow"
	"github.com/Veraticus/mindspend/internal/tui/themes"
)

// Phase is the screen the program is on.
type Phase int

// Phases.
const (
	PhaseCoolingOff Phase = iota
	PhaseResolving
	PhaseResults
	PhaseFailed
)

// Outcome is what the program ended with.
type Outcome struct {
	Err    error
	Answer calculator.RegretAnswer
	Result calculator.Result
	// Completed is true once results were resolved.
	Completed bool
	Canceled  bool
}

// Model holds the check screen state.
type Model struct {
	err      error
	theme    themes.Theme
	resolve  tea.Cmd
	help     help.Model
	progress progress.Model
	keymap   KeyMap
	answer   calculator.RegretAnswer
	result   calculator.Result
	tick     flow.Tick
	width    int
	cursor   int
	phase    Phase
	canceled bool
	quitting bool
}

// newModel creates a model that runs resolve when the countdown ends.
func newModel(cfg Config, resolve tea.Cmd) Model {
	bar := progress.New(progress.WithSolidFill(string(cfg.Theme.Primary)), progress.WithoutPercentage())
	bar.Width = cfg.Width
	return Model{
		theme:    cfg.Theme,
		keymap:   DefaultKeyMap(),
		help:     help.New(),
		progress: bar,
		resolve:  resolve,
		width:    cfg.Width,
		tick:     flow.Tick{Remaining: cfg.Countdown.Duration},
	}
}

// Init initializes the model. The countdown is driven from outside.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = min(msg.Width-4, 80)
		if m.width > 10 {
			m.progress.Width = m.width
		}
		return m, nil

	case tickMsg:
		if m.phase == PhaseCoolingOff {
			m.tick = flow.Tick(msg)
		}
		return m, nil

	case countdownDoneMsg:
		return m.handleCountdownDone(msg)

	case resultMsg:
		if msg.err != nil {
			m.phase = PhaseFailed
			m.err = msg.err
			m.quitting = true
			return m, tea.Quit
		}
		m.phase = PhaseResults
		m.result = msg.result
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleCountdownDone(msg countdownDoneMsg) (tea.Model, tea.Cmd) {
	if m.phase != PhaseCoolingOff || m.canceled {
		return m, nil
	}
	if msg.err != nil {
		m.canceled = true
		m.quitting = true
		return m, tea.Quit
	}
	m.phase = PhaseResolving
	m.tick = flow.Tick{Progress: 1}
	return m, m.resolve
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.phase {
	case PhaseCoolingOff:
		if key.Matches(msg, m.keymap.Cancel) {
			m.canceled = true
			m.quitting = true
			return m, tea.Quit
		}

	case PhaseResults:
		switch {
		case key.Matches(msg, m.keymap.Yes):
			m.answer = calculator.RegretYes
			m.cursor = 0
		case key.Matches(msg, m.keymap.Unsure):
			m.answer = calculator.RegretUnsure
			m.cursor = 1
		case key.Matches(msg, m.keymap.No):
			m.answer = calculator.RegretNo
			m.cursor = 2
		case key.Matches(msg, m.keymap.Left):
			m.cursor = (m.cursor + len(calculator.RegretAnswers) - 1) % len(calculator.RegretAnswers)
		case key.Matches(msg, m.keymap.Right):
			m.cursor = (m.cursor + 1) % len(calculator.RegretAnswers)
		case key.Matches(msg, m.keymap.Select):
			m.answer = calculator.RegretAnswers[m.cursor]
		case key.Matches(msg, m.keymap.Quit):
			m.quitting = true
			return m, tea.Quit
		}

	case PhaseFailed:
		m.quitting = true
		return m, tea.Quit

	case PhaseResolving:
	}
	return m, nil
}

// Phase returns the current screen.
func (m Model) Phase() Phase {
	return m.phase
}

// Outcome reports how the program ended.
func (m Model) Outcome() Outcome {
	return Outcome{
		Result:    m.result,
		Answer:    m.answer,
		Err:       m.err,
		Completed: m.phase == PhaseResults,
		Canceled:  m.canceled,
	}
}
