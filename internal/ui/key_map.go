package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up      key.Binding
	down    key.Binding
	enter   key.Binding
	back    key.Binding
	tab     key.Binding
	prev    key.Binding
	next    key.Binding
	sync    key.Binding
	syncAll key.Binding
	yes     key.Binding
	no      key.Binding
	refresh key.Binding
	quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		enter:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "details")),
		back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		tab:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch view")),
		prev:    key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "prev month")),
		next:    key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next month")),
		sync:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sync")),
		syncAll: key.NewBinding(key.WithKeys("S"), key.WithHelp("S", "sync all upcoming")),
		yes:     key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "yes")),
		no:      key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "no")),
		refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter, k.back},
		{k.tab, k.prev, k.next},
		{k.sync, k.syncAll, k.refresh, k.quit},
	}
}
