package console

import (
	"context"
	"strings"

	"github.com/bissquit/incident-console/internal/domain"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type detailField int

const (
	detailSeverity detailField = iota
	detailStatus
	detailFieldCount
)

// backToListMsg asks the router to show a fresh list.
type backToListMsg struct{}

// DetailModel is the page of a single incident. Severity and status can be
// changed in place; the summary is read-only.
type DetailModel struct {
	s      *session
	id     string
	page   uint64 // identifies this page's updates; survives reloads
	gen    uint64 // current load
	cancel context.CancelFunc

	incident Async[*domain.Incident]
	focus    detailField
	pending  int
	seq      uint64
	errText  string

	width int
}

func newDetailModel(s *session, id string) (DetailModel, tea.Cmd) {
	d := DetailModel{s: s, id: id, page: s.nextGen()}
	cmd := d.load()
	return d, cmd
}

// ID returns the incident shown by the page.
func (d DetailModel) ID() string { return d.id }

func (d *DetailModel) load() tea.Cmd {
	d.release()
	d.gen = d.s.nextGen()
	ctx, cancel := context.WithCancel(d.s.ctx)
	d.cancel = cancel
	d.incident = d.incident.Start()
	d.errText = ""
	return d.s.fetch(ctx, ownerDetail, d.gen, d.id)
}

func (d *DetailModel) release() {
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
}

// Update handles keys and the results addressed to this page.
func (d DetailModel) Update(msg tea.Msg) (DetailModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		d.width = msg.Width
		return d, nil

	case incidentLoadedMsg:
		if msg.owner != ownerDetail || msg.gen != d.gen {
			return d, nil
		}
		d.release()
		if msg.err != nil {
			d.s.logger.Warn("get incident failed", "incident_id", d.id, "error", msg.err)
			d.incident = d.incident.Fail(msg.err)
			return d, nil
		}
		d.incident = d.incident.Succeed(msg.incident)
		return d, nil

	case incidentUpdatedMsg:
		if msg.owner != ownerDetail || msg.gen != d.page {
			return d, nil
		}
		d.pending--
		if msg.err != nil {
			d.s.logger.Warn("update incident failed", "incident_id", d.id, "error", msg.err)
			d.errText = errorText(msg.err, msgUpdateFailed)
			return d, nil
		}
		if msg.seq == d.seq {
			d.incident = d.incident.Succeed(msg.incident)
			d.errText = ""
		}
		return d, nil

	case tea.KeyMsg:
		return d.handleKey(msg)
	}
	return d, nil
}

func (d DetailModel) handleKey(msg tea.KeyMsg) (DetailModel, tea.Cmd) {
	keys := d.s.keys
	switch {
	case key.Matches(msg, keys.Back):
		d.release()
		return d, func() tea.Msg { return backToListMsg{} }

	case key.Matches(msg, keys.Refresh):
		cmd := d.load()
		return d, cmd

	case key.Matches(msg, keys.Up, keys.PrevField):
		d.focus = (d.focus + detailFieldCount - 1) % detailFieldCount

	case key.Matches(msg, keys.Down, keys.NextField):
		d.focus = (d.focus + 1) % detailFieldCount

	case key.Matches(msg, keys.PrevValue, keys.NextValue):
		delta := 1
		if key.Matches(msg, keys.PrevValue) {
			delta = -1
		}
		cmd := d.change(delta)
		return d, cmd
	}
	return d, nil
}

// change sends the next severity or status. Nothing is applied locally
// until the server answers; changes are ignored while one is in flight.
func (d *DetailModel) change(delta int) tea.Cmd {
	incident, ok := d.incident.Value()
	if !ok || d.incident.Phase() == Failed || d.pending > 0 {
		return nil
	}

	var req domain.UpdateRequest
	if d.focus == detailSeverity {
		next := cycle(domain.Severities, incident.Severity, delta)
		req.Severity = &next
	} else {
		next := cycle(domain.Statuses, incident.Status, delta)
		req.Status = &next
	}

	d.pending++
	d.seq++
	return d.s.update(ownerDetail, d.page, d.seq, d.id, req)
}

// View renders the page.
func (d DetailModel) View() string {
	t := d.s.theme
	keys := d.s.keys
	help := d.s.help.ShortHelpView([]key.Binding{keys.Back, keys.PrevValue, keys.NextValue, keys.Refresh, keys.Quit})

	incident, ok := d.incident.Value()
	switch {
	case d.incident.Phase() == Failed:
		return t.errorStyle().Render(errorText(d.incident.Err(), msgFetchFailed)) + "\n\n" + help
	case !ok:
		return t.faint().Render("Loading...") + "\n\n" + help
	}

	f := d.s.format
	var b strings.Builder
	b.WriteString(t.title().Render(incident.Title))
	b.WriteString("  ")
	b.WriteString(t.faint().Render("b  Back to List"))
	b.WriteString("\n\n")

	if d.errText != "" {
		b.WriteString(t.errorStyle().Render(d.errText))
		b.WriteString("\n\n")
	}

	b.WriteString(field(t, "ID", false, incident.ID))
	b.WriteString(field(t, "Service", false, incident.Service))
	b.WriteString(field(t, "Severity", d.focus == detailSeverity,
		choice(t.severity(incident.Severity).Render(string(incident.Severity)), d.focus == detailSeverity)))
	b.WriteString(field(t, "Status", d.focus == detailStatus,
		choice(t.status(incident.Status).Render(string(incident.Status)), d.focus == detailStatus)))
	b.WriteString(field(t, "Owner", false, incident.OwnerOr(placeholder)))
	b.WriteString(field(t, "Created", false, f.Timestamp(incident.CreatedAt)))
	b.WriteString(field(t, "Updated", false, f.Timestamp(incident.UpdatedAt)))
	if d.pending > 0 {
		b.WriteString(t.faint().Render("saving..."))
		b.WriteString("\n")
	}

	if summary := incident.SummaryOr(""); summary != "" {
		width := 72
		if d.width > 0 {
			width = min(width, d.width)
		}
		b.WriteString("\n")
		b.WriteString(t.label(false).UnsetWidth().Bold(true).Render("Summary"))
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Width(width).Render(summary))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(help)
	return b.String()
}
