// Package tui runs the cool-off countdown and results screen as a bubbletea
// program.
package tui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Veraticus/mindspend/internal/flow"
)

// ErrNoResolver is returned when Run is called without WithResolver.
var ErrNoResolver = errors.New("a result resolver is required")

// Run shows the countdown and, once it runs out, the results from the
// resolver. Canceling ctx or pressing Esc during the countdown ends the
// program without calling the resolver.
func Run(ctx context.Context, opts ...Option) (Outcome, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Resolve == nil {
		return Outcome{}, ErrNoResolver
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	resolve := func() tea.Msg {
		result, err := cfg.Resolve(ctx)
		return resultMsg{result: result, err: err}
	}

	programOpts := []tea.ProgramOption{tea.WithContext(ctx)}
	if cfg.AltScreen {
		programOpts = append(programOpts, tea.WithAltScreen())
	}
	program := tea.NewProgram(newModel(cfg, resolve), programOpts...)

	go func() {
		err := cfg.Countdown.Run(ctx, func(t flow.Tick) {
			program.Send(tickMsg(t))
		})
		program.Send(countdownDoneMsg{err: err})
	}()

	final, err := program.Run()
	cancel()

	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) {
			outcome := Outcome{Canceled: true}
			if m, ok := final.(Model); ok && m.Phase() == PhaseResults {
				outcome = m.Outcome()
			}
			return outcome, nil
		}
		return Outcome{}, fmt.Errorf("failed to run TUI: %w", err)
	}

	m, ok := final.(Model)
	if !ok {
		return Outcome{}, errors.New("TUI returned an unexpected model")
	}
	outcome := m.Outcome()
	if outcome.Err != nil {
		return outcome, outcome.Err
	}
	return outcome, nil
}
