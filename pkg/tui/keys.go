package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up          key.Binding
	Down        key.Binding
	Toggle      key.Binding
	Execute     key.Binding
	Generate    key.Binding
	Orchestrate key.Binding
	PageUp      key.Binding
	PageDown    key.Binding
	Quit        key.Binding
}

var keys = keyMap{
	Up:          key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:        key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Toggle:      key.NewBinding(key.WithKeys(" ", "tab"), key.WithHelp("space", "details")),
	Execute:     key.NewBinding(key.WithKeys("x", "enter"), key.WithHelp("x", "execute")),
	Generate:    key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "generate")),
	Orchestrate: key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "orchestrate")),
	PageUp:      key.NewBinding(key.WithKeys("pgup", "b"), key.WithHelp("pgup", "scroll up")),
	PageDown:    key.NewBinding(key.WithKeys("pgdown", "f"), key.WithHelp("pgdn", "scroll down")),
	Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

func (k keyMap) help() []key.Binding {
	return []key.Binding{k.Generate, k.Orchestrate, k.Execute, k.Toggle, k.Up, k.Down, k.Quit}
}
