package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the chat.
type keyMap struct {
	up     key.Binding
	down   key.Binding
	send   key.Binding
	focus  key.Binding
	back   key.Binding
	scroll key.Binding
	quit   key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		send:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "send")),
		focus:  key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "choices")),
		back:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "type instead")),
		scroll: key.NewBinding(key.WithKeys("pgup", "pgdown"), key.WithHelp("pgup/pgdn", "scroll")),
		quit:   key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.send, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.send},
		{k.focus, k.back, k.scroll},
		{k.quit},
	}
}
