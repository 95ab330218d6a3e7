package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all keyboard shortcuts.
type KeyMap struct {
	Left   key.Binding
	Right  key.Binding
	Select key.Binding

	// Regret answers
	Yes    key.Binding
	Unsure key.Binding
	No     key.Binding

	Cancel key.Binding
	Quit   key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Left: key.NewBinding(
			key.WithKeys("h", "left"),
			key.WithHelp("←/h", "previous"),
		),
		Right: key.NewBinding(
			key.WithKeys("l", "right", "tab"),
			key.WithHelp("→/l", "next"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter", " "),
			key.WithHelp("Enter", "answer"),
		),
		Yes: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "yes"),
		),
		Unsure: key.NewBinding(
			key.WithKeys("u", "?"),
			key.WithHelp("u", "not sure"),
		),
		No: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "no"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc", "ctrl+c"),
			key.WithHelp("Esc", "cancel"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "done"),
		),
	}
}

// coolOffHelp is shown under the countdown.
func (k KeyMap) coolOffHelp() []key.Binding {
	return []key.Binding{k.Cancel}
}

// resultsHelp is shown under the regret question.
func (k KeyMap) resultsHelp() []key.Binding {
	return []key.Binding{k.Yes, k.Unsure, k.No, k.Select, k.Quit}
}
