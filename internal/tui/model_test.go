package tui

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/mindspend/internal/calculator"
	"github.com/Veraticus/mindspend/internal/flow"
	"github.com/Veraticus/mindspend/internal/model"
	"github.com/Veraticus/mindspend/internal/tui/themes"
)

func testResult() calculator.Result {
	freedom := 100000.0
	return calculator.Present(120, "headphones", model.CategoryTech, model.Profile{
		HourlyWage:         20,
		WorkingDaysPerYear: 220,
		MonthlyExpenses:    2000,
		FreedomGoal:        &freedom,
	})
}

func testModel(resolve tea.Cmd) Model {
	cfg := defaultConfig()
	cfg.Theme = themes.Plain
	cfg.Countdown = flow.NewCountdown(10 * time.Second)
	return newModel(cfg, resolve)
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	require.True(t, ok)
	return nm, cmd
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestModel_CoolOffView(t *testing.T) {
	m := testModel(nil)

	assert.Equal(t, PhaseCoolingOff, m.Phase())
	assert.Contains(t, m.View(), CoolOffMessage)
	assert.Contains(t, m.View(), "10s left")

	m, _ = update(t, m, tickMsg{Remaining: 4 * time.Second, Progress: 0.6})
	assert.Contains(t, m.View(), "4s left")
}

func TestModel_CountdownResolvesResults(t *testing.T) {
	calls := 0
	resolve := func() tea.Msg {
		calls++
		return resultMsg{result: testResult()}
	}
	m := testModel(resolve)

	m, cmd := update(t, m, countdownDoneMsg{})
	assert.Equal(t, PhaseResolving, m.Phase())
	require.NotNil(t, cmd)

	m, _ = update(t, m, cmd())
	assert.Equal(t, 1, calls)
	assert.Equal(t, PhaseResults, m.Phase())

	view := m.View()
	assert.Contains(t, view, "headphones")
	assert.Contains(t, view, "6h of work")
	assert.Contains(t, view, "1.8 days of your emergency buffer")
	assert.Contains(t, view, "17.1 days of utilities")
	assert.Contains(t, view, "Future Freedom")
	assert.Contains(t, view, calculator.RegretQuestion)

	// A late tick or second done message changes nothing.
	m, cmd = update(t, m, countdownDoneMsg{})
	assert.Nil(t, cmd)
	assert.Equal(t, PhaseResults, m.Phase())

	outcome := m.Outcome()
	assert.True(t, outcome.Completed)
	assert.False(t, outcome.Canceled)
	assert.Equal(t, "headphones", outcome.Result.Label)
}

func TestModel_CancelDuringCoolOff(t *testing.T) {
	m := testModel(func() tea.Msg {
		t.Fatal("resolver must not run after cancel")
		return nil
	})

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.True(t, isQuit(cmd))
	assert.Contains(t, m.View(), "Nothing was saved")

	m, cmd = update(t, m, countdownDoneMsg{})
	assert.Nil(t, cmd)

	outcome := m.Outcome()
	assert.True(t, outcome.Canceled)
	assert.False(t, outcome.Completed)
}

func TestModel_CountdownError(t *testing.T) {
	m := testModel(nil)

	m, cmd := update(t, m, countdownDoneMsg{err: context.Canceled})
	assert.True(t, isQuit(cmd))
	assert.True(t, m.Outcome().Canceled)
}

func TestModel_ResolveFailure(t *testing.T) {
	boom := errors.New("store unavailable")
	m := testModel(nil)

	m, _ = update(t, m, countdownDoneMsg{})
	m, cmd := update(t, m, resultMsg{err: boom})
	assert.True(t, isQuit(cmd))
	assert.Equal(t, PhaseFailed, m.Phase())
	assert.Contains(t, m.View(), "store unavailable")
	assert.ErrorIs(t, m.Outcome().Err, boom)
}

func TestModel_RegretAnswers(t *testing.T) {
	tests := []struct {
		name     string
		keys     []tea.KeyMsg
		expected calculator.RegretAnswer
	}{
		{name: "shortcut yes", keys: []tea.KeyMsg{keyRunes("y")}, expected: calculator.RegretYes},
		{name: "shortcut no", keys: []tea.KeyMsg{keyRunes("n")}, expected: calculator.RegretNo},
		{name: "shortcut unsure", keys: []tea.KeyMsg{keyRunes("u")}, expected: calculator.RegretUnsure},
		{
			name:     "move and select",
			keys:     []tea.KeyMsg{{Type: tea.KeyRight}, {Type: tea.KeyRight}, {Type: tea.KeyEnter}},
			expected: calculator.RegretNo,
		},
		{
			name:     "wrap left",
			keys:     []tea.KeyMsg{{Type: tea.KeyLeft}, {Type: tea.KeyEnter}},
			expected: calculator.RegretNo,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := testModel(nil)
			m, _ = update(t, m, countdownDoneMsg{})
			m, _ = update(t, m, resultMsg{result: testResult()})

			for _, k := range tt.keys {
				m, _ = update(t, m, k)
			}
			assert.Equal(t, tt.expected, m.Outcome().Answer)
			assert.Contains(t, m.View(), tt.expected.Advice())

			m, cmd := update(t, m, keyRunes("q"))
			assert.True(t, isQuit(cmd))
			assert.Equal(t, tt.expected, m.Outcome().Answer)
		})
	}
}

func TestModel_WindowResize(t *testing.T) {
	m := testModel(nil)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 50, Height: 20})
	assert.Equal(t, 46, m.progress.Width)

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 200, Height: 20})
	assert.Equal(t, 80, m.progress.Width)
}

func TestRun_RequiresResolver(t *testing.T) {
	_, err := Run(context.Background())
	assert.ErrorIs(t, err, ErrNoResolver)
}

func TestOptions(t *testing.T) {
	cfg := defaultConfig()
	for _, opt := range []Option{
		WithTheme(themes.Plain),
		WithCoolOff(3 * time.Second),
		WithWidth(42),
		WithWidth(0),
		WithAltScreen(),
	} {
		opt(&cfg)
	}

	assert.Equal(t, 3*time.Second, cfg.Countdown.Duration)
	assert.Equal(t, 42, cfg.Width)
	assert.True(t, cfg.AltScreen)

	WithCountdown(flow.Countdown{Duration: time.Second, Interval: 100 * time.Millisecond})(&cfg)
	assert.Equal(t, 100*time.Millisecond, cfg.Countdown.Interval)
}
