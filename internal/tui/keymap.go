package tui

import "charm.land/bubbles/v2/key"

// keyMap represents key map data used by this package.
type keyMap struct {
	quit       key.Binding
	reload     key.Binding
	toggleHelp key.Binding
	prevWeek   key.Binding
	nextWeek   key.Binding
	moveUp     key.Binding
	moveDown   key.Binding
	today      key.Binding
	copyName   key.Binding
}

// newKeyMap constructs key map.
func newKeyMap() keyMap {
	return keyMap{
		quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		reload:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		toggleHelp: key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		prevWeek:   key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("h/←", "previous week")),
		nextWeek:   key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("l/→", "next week")),
		moveUp:     key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "day up")),
		moveDown:   key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "day down")),
		today:      key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "today")),
		copyName:   key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy engineer")),
	}
}

// ShortHelp handles short help.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.prevWeek, k.nextWeek, k.today, k.copyName, k.toggleHelp, k.quit}
}

// FullHelp handles full help.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.prevWeek, k.nextWeek, k.moveUp, k.moveDown, k.today},
		{k.copyName, k.reload, k.toggleHelp, k.quit},
	}
}
