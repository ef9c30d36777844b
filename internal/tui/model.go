package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jpalmerr/releaseboard/internal/router"
	"github.com/jpalmerr/releaseboard/internal/state"
)

const defaultTitle = "Release Dashboard"

// Navigator applies a location fragment and reports whether it matched.
type Navigator func(fragment string) bool

// snapshotMsg carries a snapshot from the subscription into the event loop.
type snapshotMsg struct {
	snap state.State
}

// subscriptionClosedMsg signals that the dashboard shut down.
type subscriptionClosedMsg struct{}

// Model is the bubbletea model of the watch UI.
type Model struct {
	title    string
	service  string
	view     state.View
	snaps    <-chan state.State
	navigate Navigator
	keys     KeyMap

	// status is a one-line notice, e.g. an unknown channel version.
	status string
}

// New returns a model rendering snapshots received on snaps. Channel
// shortcuts build fragments for service and pass them to navigate, which
// may be nil for a read-only UI.
func New(title, service string, snaps <-chan state.State, navigate Navigator) Model {
	if title == "" {
		title = defaultTitle
	}
	return Model{
		title:    title,
		service:  service,
		view:     state.NewView(state.Initial()),
		snaps:    snaps,
		navigate: navigate,
		keys:     DefaultKeyMap,
	}
}

// Init implements tea.Model. Starts listening for snapshots.
func (m Model) Init() tea.Cmd {
	if m.snaps == nil {
		return nil
	}
	return listenForSnapshot(m.snaps)
}

// listenForSnapshot returns a tea.Cmd that blocks until a snapshot
// arrives, then delivers it as a snapshotMsg.
func listenForSnapshot(ch <-chan state.State) tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-ch
		if !ok {
			return subscriptionClosedMsg{}
		}
		return snapshotMsg{snap: snap}
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		if channel, ok := m.keys.channelFor(msg); ok {
			m.selectChannel(channel)
		}

	case snapshotMsg:
		m.view = state.NewView(msg.snap)
		return m, listenForSnapshot(m.snaps)

	case subscriptionClosedMsg:
		return m, tea.Quit
	}
	return m, nil
}

// selectChannel navigates to the current version of channel for the
// first product that has one.
func (m *Model) selectChannel(channel string) {
	for _, row := range m.view.Channels {
		if row.Channel != channel {
			continue
		}
		if row.Version == "" {
			m.status = capitalize(channel) + " version not known yet"
			return
		}
		if m.navigate == nil {
			return
		}
		m.status = ""
		m.navigate(router.Fragment(m.service, row.Product, row.Version))
		return
	}
}

// View implements tea.Model.
func (m Model) View() string {
	help := m.keys.help()
	if m.status != "" {
		help = m.status + "  " + help
	}
	return renderScreen(m.title, m.view, help)
}

// Current returns the view currently displayed.
func (m Model) Current() state.View {
	return m.view
}
