// Package console is the interactive incident console: a paginated,
// filterable incident list with create and quick-edit modals, and a page
// per incident. Views talk to the incident API only through Incidents and
// receive every result as a message on the bubbletea event loop.
package console

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

type route int

const (
	routeList route = iota
	routeDetail
)

// Model routes between the list and the detail page.
type Model struct {
	s       *session
	route   route
	list    ListModel
	detail  DetailModel
	initCmd tea.Cmd

	width  int
	height int
}

// New creates the console, starting at the list.
func New(ctx context.Context, api Incidents, opts Options) Model {
	m := Model{s: newSession(ctx, api, opts), route: routeList}
	m.list, m.initCmd = newListModel(m.s)
	return m
}

// NewAtIncident creates the console, starting at the page of incident id.
func NewAtIncident(ctx context.Context, api Incidents, opts Options, id string) Model {
	m := Model{s: newSession(ctx, api, opts), route: routeDetail}
	m.detail, m.initCmd = newDetailModel(m.s, id)
	return m
}

// Init returns the first load of the starting view.
func (m Model) Init() tea.Cmd {
	return m.initCmd
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, m.s.keys.ForceQuit) ||
			key.Matches(msg, m.s.keys.Quit) && !m.capturesKeys() {
			m.list.release()
			m.detail.release()
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.list, _ = m.list.Update(msg)
		m.detail, _ = m.detail.Update(msg)
		return m, nil

	case openDetailMsg:
		m.list.release()
		m.route = routeDetail
		m.detail, cmd = newDetailModel(m.s, msg.id)
		m.detail, _ = m.detail.Update(tea.WindowSizeMsg{Width: m.width, Height: m.height})
		return m, cmd

	case backToListMsg:
		m.detail.release()
		m.route = routeList
		m.list, cmd = newListModel(m.s)
		m.list, _ = m.list.Update(tea.WindowSizeMsg{Width: m.width, Height: m.height})
		return m, cmd
	}

	if m.route == routeDetail {
		m.detail, cmd = m.detail.Update(msg)
	} else {
		m.list, cmd = m.list.Update(msg)
	}
	return m, cmd
}

func (m Model) capturesKeys() bool {
	return m.route == routeList && m.list.capturesKeys()
}

// View implements tea.Model.
func (m Model) View() string {
	if m.route == routeDetail {
		return m.detail.View()
	}
	return m.list.View()
}
