package tui

import (
	"github.com/Veraticus/mindspend/internal/calculator"
	"github.com/Veraticus/mindspend/internal/flow"
)

// tickMsg carries one countdown tick.
type tickMsg flow.Tick

// countdownDoneMsg is sent once when the countdown stops.
type countdownDoneMsg struct {
	err error
}

// resultMsg carries the resolved results.
type resultMsg struct {
	err    error
	result calculator.Result
}
