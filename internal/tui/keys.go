package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// KeyMap defines the key bindings of the watch UI.
type KeyMap struct {
	// Channel shortcuts select the current version of a channel.
	Nightly key.Binding
	Beta    key.Binding
	Release key.Binding

	Quit key.Binding
}

// DefaultKeyMap is the built-in key binding set.
var DefaultKeyMap = KeyMap{
	Nightly: key.NewBinding(
		key.WithKeys("n", "1"),
		key.WithHelp("n", "nightly"),
	),
	Beta: key.NewBinding(
		key.WithKeys("b", "2"),
		key.WithHelp("b", "beta"),
	),
	Release: key.NewBinding(
		key.WithKeys("r", "3"),
		key.WithHelp("r", "release"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// channelFor maps a channel shortcut to its channel name.
func (k KeyMap) channelFor(msg tea.KeyMsg) (string, bool) {
	switch {
	case key.Matches(msg, k.Nightly):
		return "nightly", true
	case key.Matches(msg, k.Beta):
		return "beta", true
	case key.Matches(msg, k.Release):
		return "release", true
	}
	return "", false
}

// help renders the key hints shown in the footer.
func (k KeyMap) help() string {
	bindings := []key.Binding{k.Nightly, k.Beta, k.Release, k.Quit}
	hints := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		hints = append(hints, h.Key+" "+h.Desc)
	}
	return strings.Join(hints, "  ")
}
