package console

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings of the console.
type KeyMap struct {
	// List navigation.
	Up       key.Binding
	Down     key.Binding
	PrevPage key.Binding
	NextPage key.Binding

	// List filters. Each press selects the next option.
	Search   key.Binding
	Severity key.Binding
	Status   key.Binding
	Sort     key.Binding

	// List actions.
	New       key.Binding
	QuickEdit key.Binding
	Open      key.Binding
	Refresh   key.Binding

	// Forms and detail view.
	NextField key.Binding
	PrevField key.Binding
	PrevValue key.Binding // Select the previous option of a choice field.
	NextValue key.Binding // Select the next option of a choice field.
	Submit    key.Binding
	Close     key.Binding
	Back      key.Binding

	Quit      key.Binding
	ForceQuit key.Binding
}

// DefaultKeyMap is the built-in key binding set.
var DefaultKeyMap = KeyMap{
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "down"),
	),
	PrevPage: key.NewBinding(
		key.WithKeys("h", "left", "pgup"),
		key.WithHelp("h/←", "previous"),
	),
	NextPage: key.NewBinding(
		key.WithKeys("l", "right", "pgdown"),
		key.WithHelp("l/→", "next"),
	),
	Search: key.NewBinding(
		key.WithKeys("/"),
		key.WithHelp("/", "search"),
	),
	Severity: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "severity"),
	),
	Status: key.NewBinding(
		key.WithKeys("t"),
		key.WithHelp("t", "status"),
	),
	Sort: key.NewBinding(
		key.WithKeys("o"),
		key.WithHelp("o", "sort"),
	),
	New: key.NewBinding(
		key.WithKeys("n"),
		key.WithHelp("n", "new incident"),
	),
	QuickEdit: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "view / update"),
	),
	Open: key.NewBinding(
		key.WithKeys("v"),
		key.WithHelp("v", "open page"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r", "ctrl+r"),
		key.WithHelp("r", "refresh"),
	),
	NextField: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "next field"),
	),
	PrevField: key.NewBinding(
		key.WithKeys("shift+tab"),
		key.WithHelp("S-tab", "previous field"),
	),
	PrevValue: key.NewBinding(
		key.WithKeys("left"),
		key.WithHelp("←", "previous option"),
	),
	NextValue: key.NewBinding(
		key.WithKeys("right"),
		key.WithHelp("→", "next option"),
	),
	Submit: key.NewBinding(
		key.WithKeys("ctrl+s"),
		key.WithHelp("C-s", "submit"),
	),
	Close: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "close"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc", "b"),
		key.WithHelp("b", "back to list"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q"),
		key.WithHelp("q", "quit"),
	),
	ForceQuit: key.NewBinding(
		key.WithKeys("ctrl+c"),
	),
}
