package console

import (
	"context"
	"strings"

	"github.com/bissquit/incident-console/internal/domain"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
)

type quickField int

const (
	quickSeverity quickField = iota
	quickStatus
	quickSummary
	quickUpdate
	quickFieldCount
)

// QuickEdit is the modal opened from a list row. It loads the incident on
// its own and sends every change straight to the API; the list behind it is
// only refreshed when the modal is closed with its Update action.
type QuickEdit struct {
	s      *session
	id     string
	gen    uint64
	cancel context.CancelFunc

	incident Async[*domain.Incident]
	summary  textarea.Model
	focus    quickField

	pending        int    // updates in flight
	seq            uint64 // last update sent
	closeWhenSaved bool
	errText        string
	state          modalState
}

func newQuickEdit(s *session, gen uint64, id string) (QuickEdit, tea.Cmd) {
	ctx, cancel := context.WithCancel(s.ctx)
	q := QuickEdit{
		s:       s,
		id:      id,
		gen:     gen,
		cancel:  cancel,
		summary: newSummaryArea(4),
	}
	q.incident = q.incident.Start()
	return q, q.s.fetch(ctx, ownerQuickEdit, gen, id)
}

// close releases the load request if it is still running.
func (q *QuickEdit) close(state modalState) {
	if q.cancel != nil {
		q.cancel()
		q.cancel = nil
	}
	q.state = state
}

// Update handles keys and the results addressed to this modal.
func (q QuickEdit) Update(msg tea.Msg) (QuickEdit, tea.Cmd) {
	switch msg := msg.(type) {
	case incidentLoadedMsg:
		if msg.owner != ownerQuickEdit || msg.gen != q.gen {
			return q, nil
		}
		if q.cancel != nil {
			q.cancel()
			q.cancel = nil
		}
		if msg.err != nil {
			q.incident = q.incident.Fail(msg.err)
			return q, nil
		}
		q.incident = q.incident.Succeed(msg.incident)
		q.summary.SetValue(msg.incident.SummaryOr(""))
		return q, nil

	case incidentUpdatedMsg:
		if msg.owner != ownerQuickEdit || msg.gen != q.gen {
			return q, nil
		}
		q.pending--
		if msg.err != nil {
			q.errText = errorText(msg.err, msgUpdateFailed)
			q.closeWhenSaved = false
			return q, nil
		}
		if msg.seq == q.seq {
			q.incident = q.incident.Succeed(msg.incident)
			q.errText = ""
			if q.focus != quickSummary {
				q.summary.SetValue(msg.incident.SummaryOr(""))
			}
		}
		if q.closeWhenSaved && q.pending == 0 {
			q.close(modalClosedRefresh)
		}
		return q, nil

	case tea.KeyMsg:
		return q.handleKey(msg)
	}

	if q.focus == quickSummary {
		var cmd tea.Cmd
		q.summary, cmd = q.summary.Update(msg)
		return q, cmd
	}
	return q, nil
}

func (q QuickEdit) handleKey(msg tea.KeyMsg) (QuickEdit, tea.Cmd) {
	keys := q.s.keys

	if key.Matches(msg, keys.Close) {
		cmd := q.commitSummary()
		q.close(modalClosed)
		return q, cmd
	}

	if _, ok := q.incident.Value(); !ok {
		return q, nil
	}

	switch {
	case key.Matches(msg, keys.Submit),
		msg.Type == tea.KeyEnter && q.focus == quickUpdate:
		return q.updateAction()

	case key.Matches(msg, keys.NextField):
		cmd := q.setFocus((q.focus + 1) % quickFieldCount)
		return q, cmd

	case key.Matches(msg, keys.PrevField):
		cmd := q.setFocus((q.focus + quickFieldCount - 1) % quickFieldCount)
		return q, cmd

	case key.Matches(msg, keys.PrevValue, keys.NextValue) && (q.focus == quickSeverity || q.focus == quickStatus):
		delta := 1
		if key.Matches(msg, keys.PrevValue) {
			delta = -1
		}
		cmd := q.changeChoice(delta)
		return q, cmd
	}

	if q.focus == quickSummary {
		var cmd tea.Cmd
		q.summary, cmd = q.summary.Update(msg)
		return q, cmd
	}
	return q, nil
}

// setFocus moves focus, committing the summary when focus leaves it.
func (q *QuickEdit) setFocus(field quickField) tea.Cmd {
	var cmds []tea.Cmd
	if q.focus == quickSummary && field != quickSummary {
		cmds = append(cmds, q.commitSummary())
	}
	q.focus = field
	if field == quickSummary {
		cmds = append(cmds, q.summary.Focus())
	} else {
		q.summary.Blur()
	}
	return tea.Batch(cmds...)
}

// changeChoice sends a severity or status change. Changes are ignored while
// an earlier update is in flight.
func (q *QuickEdit) changeChoice(delta int) tea.Cmd {
	incident, _ := q.incident.Value()
	if q.pending > 0 {
		return nil
	}
	var req domain.UpdateRequest
	if q.focus == quickSeverity {
		next := cycle(domain.Severities, incident.Severity, delta)
		req.Severity = &next
	} else {
		next := cycle(domain.Statuses, incident.Status, delta)
		req.Status = &next
	}
	return q.send(req)
}

// commitSummary sends the trimmed summary if it differs from the stored
// one. An empty summary is sent as "" rather than left out.
func (q *QuickEdit) commitSummary() tea.Cmd {
	if q.focus != quickSummary {
		return nil
	}
	incident, ok := q.incident.Value()
	if !ok {
		return nil
	}
	value := strings.TrimSpace(q.summary.Value())
	q.summary.SetValue(value)
	if value == incident.SummaryOr("") {
		return nil
	}
	return q.send(domain.UpdateRequest{Summary: &value})
}

func (q *QuickEdit) send(req domain.UpdateRequest) tea.Cmd {
	q.pending++
	q.seq++
	return q.s.update(ownerQuickEdit, q.gen, q.seq, q.id, req)
}

// updateAction closes the modal and asks the list to refresh, once every
// change sent from the modal has been answered.
func (q QuickEdit) updateAction() (QuickEdit, tea.Cmd) {
	cmd := q.commitSummary()
	if q.pending > 0 {
		q.closeWhenSaved = true
		return q, cmd
	}
	q.close(modalClosedRefresh)
	return q, cmd
}

// capturesText reports whether printable keys go to the summary field.
func (q QuickEdit) capturesText() bool {
	return q.focus == quickSummary
}

// View renders the modal.
func (q QuickEdit) View() string {
	t := q.s.theme
	var b strings.Builder

	b.WriteString(modalHeader(t, "Incident Details"))
	b.WriteString("\n\n")

	incident, ok := q.incident.Value()
	switch {
	case q.incident.Phase() == Failed:
		b.WriteString(t.errorStyle().Render(errorText(q.incident.Err(), msgFetchFailed)))
		return t.modal().Render(b.String())
	case !ok:
		b.WriteString(t.faint().Render("Loading..."))
		return t.modal().Render(b.String())
	}

	if q.errText != "" {
		b.WriteString(t.errorStyle().Render(q.errText))
		b.WriteString("\n\n")
	}

	b.WriteString(field(t, "Title", false, incident.Title))
	b.WriteString(field(t, "Service", false, incident.Service))
	b.WriteString(field(t, "Severity", q.focus == quickSeverity,
		choice(t.severity(incident.Severity).Render(string(incident.Severity)), q.focus == quickSeverity)))
	b.WriteString(field(t, "Status", q.focus == quickStatus,
		choice(t.status(incident.Status).Render(string(incident.Status)), q.focus == quickStatus)))
	b.WriteString(field(t, "Owner", false, incident.OwnerOr(placeholder)))
	b.WriteString(t.label(q.focus == quickSummary).Render("Summary"))
	b.WriteString("\n")
	b.WriteString(q.summary.View())
	b.WriteString("\n\n")

	action := "[ Update ]"
	if q.focus == quickUpdate {
		action = t.label(true).UnsetWidth().Render(action)
	}
	if q.pending > 0 {
		action += t.faint().Render("  saving...")
	}
	b.WriteString(action)

	return t.modal().Render(b.String())
}
