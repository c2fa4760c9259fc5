package console

import (
	"context"
	"fmt"
	"strings"

	"github.com/bissquit/incident-console/internal/domain"
	"github.com/bissquit/incident-console/internal/format"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/x/ansi"
)

const placeholder = format.Placeholder

type sortOption struct {
	sort  domain.Sort
	label string
}

var sortOptions = []sortOption{
	{domain.Sort{Field: domain.SortByCreatedAt, Direction: domain.Desc}, "Newest first"},
	{domain.Sort{Field: domain.SortByCreatedAt, Direction: domain.Asc}, "Oldest first"},
	{domain.Sort{Field: domain.SortBySeverity, Direction: domain.Asc}, "Severity (SEV1 first)"},
	{domain.Sort{Field: domain.SortByTitle, Direction: domain.Asc}, "Title A–Z"},
}

// The empty value of each filter means "all".
var (
	severityFilters = append([]domain.Severity{""}, domain.Severities...)
	statusFilters   = append([]domain.Status{""}, domain.Statuses...)
)

// searchSettledMsg fires once the search field has been quiet for the
// debounce period. Only the timer with the latest seq counts.
type searchSettledMsg struct {
	seq uint64
}

// openDetailMsg asks the router to show an incident's own page.
type openDetailMsg struct {
	id string
}

// ListModel is the incident list: filters, sort, debounced search, paging
// and the create and quick-edit modals.
//
// Every change to the query inputs issues exactly one List call. Each call
// carries a generation number; results from any earlier generation are
// dropped and their requests cancelled.
type ListModel struct {
	s *session

	page      int
	sortIndex int
	severity  domain.Severity
	status    domain.Status
	search    textinput.Model
	searchSeq uint64
	debounced string
	refresh   int

	gen    uint64
	cancel context.CancelFunc
	result Async[*domain.Page]
	cursor int

	modalGen   uint64
	createOpen bool
	create     CreateForm
	quickOpen  bool
	quick      QuickEdit

	width  int
	height int
}

func newListModel(s *session) (ListModel, tea.Cmd) {
	search := textinput.New()
	search.Prompt = ""
	search.Placeholder = "Search title, service, owner..."
	search.Width = 32

	m := ListModel{s: s, search: search}
	cmd := m.reload()
	return m, cmd
}

// Query returns the list query the current inputs describe.
func (m ListModel) Query() domain.Query {
	return domain.Query{
		Page:     m.page,
		Size:     m.s.pageSize,
		Sort:     sortOptions[m.sortIndex].sort,
		Severity: m.severity,
		Status:   m.status,
		Search:   m.debounced,
	}
}

// CanPrev reports whether the Previous control is enabled.
func (m ListModel) CanPrev() bool {
	return m.page > 0
}

// CanNext reports whether the Next control is enabled.
func (m ListModel) CanNext() bool {
	page, ok := m.result.Value()
	return ok && m.page < page.TotalPages-1
}

// reload supersedes any list request in flight and issues a new one.
func (m *ListModel) reload() tea.Cmd {
	m.release()
	m.gen++
	ctx, cancel := context.WithCancel(m.s.ctx)
	m.cancel = cancel
	m.result = m.result.Start()
	return m.s.list(ctx, m.gen, m.Query())
}

// release cancels the list request in flight, if any.
func (m *ListModel) release() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
}

// resetAndReload is the effect of every filter change.
func (m *ListModel) resetAndReload() tea.Cmd {
	m.page = 0
	return m.reload()
}

func (m *ListModel) bumpRefresh() tea.Cmd {
	m.refresh++
	return m.reload()
}

// Update handles a message for the list or one of its modals.
func (m ListModel) Update(msg tea.Msg) (ListModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case pageLoadedMsg:
		m.applyPage(msg)
		return m, nil

	case searchSettledMsg:
		if msg.seq != m.searchSeq || m.search.Value() == m.debounced {
			return m, nil
		}
		m.debounced = m.search.Value()
		cmd := m.resetAndReload()
		return m, cmd

	case incidentCreatedMsg:
		if m.createOpen && msg.gen == m.create.gen {
			var cmd tea.Cmd
			m.create, cmd = m.create.Update(msg)
			after := m.afterCreate()
			return m, tea.Batch(cmd, after)
		}
		// The form was closed before the answer came back.
		if msg.err == nil {
			cmd := m.bumpRefresh()
			return m, cmd
		}
		return m, nil

	case incidentLoadedMsg, incidentUpdatedMsg:
		if !m.quickOpen {
			return m, nil
		}
		var cmd tea.Cmd
		m.quick, cmd = m.quick.Update(msg)
		after := m.afterQuick()
		return m, tea.Batch(cmd, after)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	switch {
	case m.createOpen:
		m.create, cmd = m.create.Update(msg)
	case m.quickOpen:
		m.quick, cmd = m.quick.Update(msg)
	case m.search.Focused():
		m.search, cmd = m.search.Update(msg)
	}
	return m, cmd
}

func (m *ListModel) applyPage(msg pageLoadedMsg) {
	if msg.gen != m.gen {
		m.s.logger.Debug("dropping superseded list result", "generation", msg.gen, "current", m.gen)
		return
	}
	m.release()
	if msg.err != nil {
		m.s.logger.Warn("list incidents failed", "error", msg.err)
		m.result = m.result.Fail(msg.err)
		return
	}
	m.result = m.result.Succeed(msg.page)
	m.cursor = min(m.cursor, max(len(msg.page.Content)-1, 0))
}

func (m *ListModel) afterCreate() tea.Cmd {
	switch m.create.state {
	case modalClosed:
		m.createOpen = false
	case modalClosedRefresh:
		m.createOpen = false
		return m.bumpRefresh()
	}
	return nil
}

func (m *ListModel) afterQuick() tea.Cmd {
	switch m.quick.state {
	case modalClosed:
		m.quickOpen = false
	case modalClosedRefresh:
		m.quickOpen = false
		return m.bumpRefresh()
	}
	return nil
}

func (m ListModel) handleKey(msg tea.KeyMsg) (ListModel, tea.Cmd) {
	var cmd tea.Cmd
	if m.createOpen {
		m.create, cmd = m.create.Update(msg)
		after := m.afterCreate()
		return m, tea.Batch(cmd, after)
	}
	if m.quickOpen {
		m.quick, cmd = m.quick.Update(msg)
		after := m.afterQuick()
		return m, tea.Batch(cmd, after)
	}
	if m.search.Focused() {
		return m.handleSearchKey(msg)
	}

	keys := m.s.keys
	switch {
	case key.Matches(msg, keys.Up):
		m.cursor = max(m.cursor-1, 0)

	case key.Matches(msg, keys.Down):
		if page, ok := m.result.Value(); ok {
			m.cursor = min(m.cursor+1, max(len(page.Content)-1, 0))
		}

	case key.Matches(msg, keys.PrevPage):
		if m.CanPrev() {
			m.page--
			m.cursor = 0
			cmd := m.reload()
			return m, cmd
		}

	case key.Matches(msg, keys.NextPage):
		if m.CanNext() {
			m.page++
			m.cursor = 0
			cmd := m.reload()
			return m, cmd
		}

	case key.Matches(msg, keys.Search):
		return m, m.search.Focus()

	case key.Matches(msg, keys.Severity):
		m.severity = cycle(severityFilters, m.severity, 1)
		cmd := m.resetAndReload()
		return m, cmd

	case key.Matches(msg, keys.Status):
		m.status = cycle(statusFilters, m.status, 1)
		cmd := m.resetAndReload()
		return m, cmd

	case key.Matches(msg, keys.Sort):
		m.sortIndex = (m.sortIndex + 1) % len(sortOptions)
		cmd := m.resetAndReload()
		return m, cmd

	case key.Matches(msg, keys.Refresh):
		cmd := m.bumpRefresh()
		return m, cmd

	case key.Matches(msg, keys.New):
		m.modalGen++
		m.create, cmd = newCreateForm(m.s, m.modalGen)
		m.createOpen = true
		return m, cmd

	case key.Matches(msg, keys.QuickEdit):
		if incident, ok := m.selected(); ok {
			m.modalGen++
			m.quick, cmd = newQuickEdit(m.s, m.modalGen, incident.ID)
			m.quickOpen = true
			return m, cmd
		}

	case key.Matches(msg, keys.Open):
		if incident, ok := m.selected(); ok {
			id := incident.ID
			return m, func() tea.Msg { return openDetailMsg{id: id} }
		}
	}
	return m, nil
}

// handleSearchKey edits the search text. Each edit restarts the debounce
// timer; the query only changes when the timer fires.
func (m ListModel) handleSearchKey(msg tea.KeyMsg) (ListModel, tea.Cmd) {
	if key.Matches(msg, m.s.keys.Close) || msg.Type == tea.KeyEnter {
		m.search.Blur()
		return m, nil
	}

	before := m.search.Value()
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if m.search.Value() == before {
		return m, cmd
	}
	m.searchSeq++
	return m, tea.Batch(cmd, m.s.after(m.s.debounce, searchSettledMsg{seq: m.searchSeq}))
}

func (m ListModel) selected() (domain.Incident, bool) {
	page, ok := m.result.Value()
	if !ok || m.cursor >= len(page.Content) {
		return domain.Incident{}, false
	}
	return page.Content[m.cursor], true
}

// capturesKeys reports whether a text field or modal owns the keyboard.
func (m ListModel) capturesKeys() bool {
	return m.search.Focused() || m.createOpen || m.quickOpen
}

// View renders the list, or the open modal.
func (m ListModel) View() string {
	if m.createOpen {
		return m.overlay(m.create.View())
	}
	if m.quickOpen {
		return m.overlay(m.quick.View())
	}

	t := m.s.theme
	keys := m.s.keys
	sections := []string{
		t.title().Render("Incident Tracker") + "  " + t.faint().Render("n  + New Incident"),
		m.viewFilters(),
		"",
		m.viewBody(),
		"",
		m.s.help.ShortHelpView([]key.Binding{
			keys.Search, keys.Severity, keys.Status, keys.Sort,
			keys.QuickEdit, keys.Open, keys.Refresh, keys.Quit,
		}),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m ListModel) overlay(modal string) string {
	if m.width <= 0 || m.height <= 0 {
		return modal
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal)
}

func (m ListModel) viewFilters() string {
	t := m.s.theme

	severity := "All Severities"
	if m.severity != "" {
		severity = t.severity(m.severity).Render(string(m.severity))
	}
	status := "All Statuses"
	if m.status != "" {
		status = t.status(m.status).Render(string(m.status))
	}

	label := func(s string) string { return t.faint().Render(s) }
	return strings.Join([]string{
		label("Search: ") + m.search.View(),
		label("Severity: ") + severity,
		label("Status: ") + status,
		label("Sort: ") + sortOptions[m.sortIndex].label,
	}, "   ")
}

func (m ListModel) viewBody() string {
	t := m.s.theme
	page, ok := m.result.Value()

	switch {
	case m.result.Phase() == Failed:
		return t.errorStyle().Render(errorText(m.result.Err(), msgListFailed)) + "\n" +
			t.faint().Render("press r to retry")
	case !ok:
		return t.faint().Render("Loading...")
	case page.TotalElements == 0 || len(page.Content) == 0:
		return "No incidents found."
	}

	return m.viewTable(page) + "\n" + m.viewPager(page)
}

func (m ListModel) viewTable(page *domain.Page) string {
	t := m.s.theme
	f := m.s.format

	rows := make([][]string, 0, len(page.Content))
	for i, incident := range page.Content {
		marker := "  "
		if i == m.cursor {
			marker = "› "
		}
		rows = append(rows, []string{
			marker + ansi.Truncate(incident.Title, 40, "…"),
			incident.Service,
			string(incident.Severity),
			string(incident.Status),
			incident.OwnerOr(placeholder),
			ansi.Truncate(strings.ReplaceAll(incident.SummaryOr(placeholder), "\n", " "), 32, "…"),
			f.Timestamp(incident.CreatedAt),
			f.Timestamp(incident.UpdatedAt),
		})
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(t.BorderColor)).
		Headers("Title", "Service", "Severity", "Status", "Owner", "Summary", "Created", "Updated").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			style := lipgloss.NewStyle().Padding(0, 1)
			if row == table.HeaderRow {
				return style.Bold(true).Foreground(t.HeaderForeground)
			}
			if row < 0 || row >= len(page.Content) {
				return style
			}
			incident := page.Content[row]
			switch col {
			case 2:
				style = style.Inherit(t.severity(incident.Severity))
			case 3:
				style = style.Inherit(t.status(incident.Status))
			}
			if row == m.cursor {
				style = style.Background(t.SelectedBackground)
			}
			return style
		}).
		Render()
}

func (m ListModel) viewPager(page *domain.Page) string {
	t := m.s.theme
	control := func(label string, enabled bool) string {
		if !enabled {
			return t.faint().Render(label)
		}
		return label
	}

	line := fmt.Sprintf("%s   Page %d of %d (%s total)   %s",
		control("‹ Previous", m.CanPrev()),
		m.page+1,
		max(page.TotalPages, 1),
		m.s.format.Count(page.TotalElements),
		control("Next ›", m.CanNext()),
	)
	if m.result.Loading() {
		line += "   " + t.faint().Render("Loading...")
	}
	return line
}
