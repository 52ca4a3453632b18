package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the dashboard shortcuts.
type KeyMap struct {
	Up        key.Binding
	Down      key.Binding
	NextPanel key.Binding
	PrevPanel key.Binding
	Range7    key.Binding
	Range30   key.Binding
	Range90   key.Binding
	Refresh   key.Binding
	Help      key.Binding
	Quit      key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("↓/j", "down"),
		),
		NextPanel: key.NewBinding(
			key.WithKeys("tab", "l", "right"),
			key.WithHelp("tab", "next panel"),
		),
		PrevPanel: key.NewBinding(
			key.WithKeys("shift+tab", "h", "left"),
			key.WithHelp("shift+tab", "previous panel"),
		),
		Range7: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "7 days"),
		),
		Range30: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "30 days"),
		),
		Range90: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "90 days"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r", "ctrl+r"),
			key.WithHelp("r", "refresh"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextPanel, k.Refresh, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.NextPanel, k.PrevPanel},
		{k.Range7, k.Range30, k.Range90},
		{k.Refresh, k.Help, k.Quit},
	}
}
