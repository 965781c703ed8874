package tui

import (
	"testing"

	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"
)

// TestKeyMapMatchesAliases verifies each navigation binding accepts its vim key and arrow alias.
func TestKeyMapMatchesAliases(t *testing.T) {
	km := newKeyMap()
	cases := []struct {
		name    string
		binding key.Binding
		msgs    []tea.KeyPressMsg
	}{
		{name: "previous week", binding: km.prevWeek, msgs: []tea.KeyPressMsg{keyRune('h'), {Code: tea.KeyLeft}}},
		{name: "next week", binding: km.nextWeek, msgs: []tea.KeyPressMsg{keyRune('l'), {Code: tea.KeyRight}}},
		{name: "day up", binding: km.moveUp, msgs: []tea.KeyPressMsg{keyRune('k'), {Code: tea.KeyUp}}},
		{name: "day down", binding: km.moveDown, msgs: []tea.KeyPressMsg{keyRune('j'), {Code: tea.KeyDown}}},
		{name: "quit", binding: km.quit, msgs: []tea.KeyPressMsg{keyRune('q'), {Code: 'c', Mod: tea.ModCtrl}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for _, msg := range tc.msgs {
				if !key.Matches(msg, tc.binding) {
					t.Fatalf("expected %q to match %v", msg.String(), tc.binding.Keys())
				}
			}
		})
	}
	if key.Matches(keyRune('x'), km.nextWeek) {
		t.Fatal("unexpected match for unbound key")
	}
}

// TestKeyMapHelp verifies every binding is reachable from full help.
func TestKeyMapHelp(t *testing.T) {
	km := newKeyMap()
	if got := len(km.ShortHelp()); got != 6 {
		t.Fatalf("expected 6 short help bindings, got %d", got)
	}
	seen := map[string]bool{}
	for _, column := range km.FullHelp() {
		for _, binding := range column {
			seen[binding.Help().Desc] = true
		}
	}
	for _, want := range []string{"previous week", "next week", "day up", "day down", "today", "copy engineer", "reload", "toggle help", "quit"} {
		if !seen[want] {
			t.Fatalf("full help missing %q", want)
		}
	}
}
