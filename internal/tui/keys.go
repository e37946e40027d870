package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up         key.Binding
	Down       key.Binding
	Create     key.Binding
	Delete     key.Binding
	Toggle     key.Binding
	Untrack    key.Binding
	Reset      key.Binding
	Poll       key.Binding
	AutoCreate key.Binding
	Logs       key.Binding
	Help       key.Binding
	Quit       key.Binding

	// first-run selection
	Select key.Binding
	Apply  key.Binding
	Skip   key.Binding

	// log view
	Top    key.Binding
	Bottom key.Binding
	Filter key.Binding
	Back   key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:       key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Create:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "create worktree")),
		Delete:     key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete worktree")),
		Toggle:     key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "toggle tracked")),
		Untrack:    key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "untrack")),
		Reset:      key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "reset to undecided")),
		Poll:       key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "fetch now")),
		AutoCreate: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "toggle auto-create")),
		Logs:       key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "logs")),
		Help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),

		Select: key.NewBinding(key.WithKeys(" ", "space"), key.WithHelp("space", "select")),
		Apply:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "apply")),
		Skip:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "skip")),

		Top:    key.NewBinding(key.WithKeys("g", "home"), key.WithHelp("g", "top")),
		Bottom: key.NewBinding(key.WithKeys("G", "end"), key.WithHelp("G", "bottom")),
		Filter: key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "this branch / all")),
		Back:   key.NewBinding(key.WithKeys("esc", "l", "q"), key.WithHelp("esc", "back")),
	}
}

// normalHelp is the binding list shown in the help overlay.
func (k keyMap) normalHelp() []key.Binding {
	return []key.Binding{
		k.Up, k.Down, k.Create, k.Delete, k.Toggle, k.Untrack, k.Reset,
		k.Poll, k.AutoCreate, k.Logs, k.Help, k.Quit,
	}
}
