package console

import (
	"strings"

	"github.com/bissquit/incident-console/internal/domain"
	"github.com/bissquit/incident-console/internal/incidentapi"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type createField int

const (
	createTitle createField = iota
	createService
	createSeverity
	createStatus
	createOwner
	createSummary
	createFieldCount
)

// modalState tells the list what a modal wants after an update.
type modalState int

const (
	modalOpen modalState = iota
	modalClosed
	modalClosedRefresh
)

// CreateForm is the new incident modal.
type CreateForm struct {
	s   *session
	gen uint64

	title   textinput.Model
	service textinput.Model
	owner   textinput.Model
	summary textarea.Model

	severity domain.Severity
	status   domain.Status
	focus    createField

	submit  Async[*domain.Incident]
	errText string
	state   modalState
}

func newCreateForm(s *session, gen uint64) (CreateForm, tea.Cmd) {
	f := CreateForm{
		s:        s,
		gen:      gen,
		title:    newInput("What is broken?"),
		service:  newInput("orders"),
		owner:    newInput("who is on it"),
		summary:  newSummaryArea(3),
		severity: domain.SeveritySEV3,
		status:   domain.StatusOpen,
	}
	cmd := f.setFocus(createTitle)
	return f, cmd
}

func newInput(placeholder string) textinput.Model {
	in := textinput.New()
	in.Prompt = ""
	in.Placeholder = placeholder
	in.Width = 40
	return in
}

func newSummaryArea(height int) textarea.Model {
	ta := textarea.New()
	ta.Placeholder = "Add or edit summary..."
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.SetWidth(56)
	ta.SetHeight(height)
	return ta
}

func (f *CreateForm) setFocus(field createField) tea.Cmd {
	f.focus = field
	f.title.Blur()
	f.service.Blur()
	f.owner.Blur()
	f.summary.Blur()

	switch field {
	case createTitle:
		return f.title.Focus()
	case createService:
		return f.service.Focus()
	case createOwner:
		return f.owner.Focus()
	case createSummary:
		return f.summary.Focus()
	}
	return nil
}

// request builds the create payload from the form: owner trimmed, blank
// summary left out.
func (f CreateForm) request() domain.CreateRequest {
	status := f.status
	summary := f.summary.Value()
	return domain.CreateRequest{
		Title:    f.title.Value(),
		Service:  f.service.Value(),
		Severity: f.severity,
		Status:   &status,
		Owner:    f.owner.Value(),
		Summary:  &summary,
	}.Normalize()
}

// Update handles keys and the create result.
func (f CreateForm) Update(msg tea.Msg) (CreateForm, tea.Cmd) {
	switch msg := msg.(type) {
	case incidentCreatedMsg:
		if msg.gen != f.gen {
			return f, nil
		}
		if msg.err != nil {
			f.submit = f.submit.Fail(msg.err)
			f.errText = createErrorText(msg.err)
			return f, nil
		}
		f.submit = f.submit.Succeed(msg.incident)
		f.state = modalClosedRefresh
		return f, nil

	case tea.KeyMsg:
		return f.handleKey(msg)
	}
	return f.forward(msg)
}

func (f CreateForm) handleKey(msg tea.KeyMsg) (CreateForm, tea.Cmd) {
	keys := f.s.keys
	switch {
	case key.Matches(msg, keys.Close):
		f.state = modalClosed
		return f, nil

	case key.Matches(msg, keys.Submit),
		msg.Type == tea.KeyEnter && f.focus != createSummary:
		return f.submitForm()

	case key.Matches(msg, keys.NextField):
		cmd := f.setFocus((f.focus + 1) % createFieldCount)
		return f, cmd

	case key.Matches(msg, keys.PrevField):
		cmd := f.setFocus((f.focus + createFieldCount - 1) % createFieldCount)
		return f, cmd

	case key.Matches(msg, keys.PrevValue, keys.NextValue) && (f.focus == createSeverity || f.focus == createStatus):
		delta := 1
		if key.Matches(msg, keys.PrevValue) {
			delta = -1
		}
		if f.focus == createSeverity {
			f.severity = cycle(domain.Severities, f.severity, delta)
		} else {
			f.status = cycle(domain.Statuses, f.status, delta)
		}
		return f, nil
	}
	return f.forward(msg)
}

func (f CreateForm) forward(msg tea.Msg) (CreateForm, tea.Cmd) {
	var cmd tea.Cmd
	switch f.focus {
	case createTitle:
		f.title, cmd = f.title.Update(msg)
	case createService:
		f.service, cmd = f.service.Update(msg)
	case createOwner:
		f.owner, cmd = f.owner.Update(msg)
	case createSummary:
		f.summary, cmd = f.summary.Update(msg)
	}
	return f, cmd
}

// submitForm validates locally and only then sends the request.
func (f CreateForm) submitForm() (CreateForm, tea.Cmd) {
	if f.submit.Loading() {
		return f, nil
	}

	req := f.request()
	if err := f.s.validate.Struct(req); err != nil {
		if fields, ok := domain.FieldErrors(err); ok {
			f.errText = (&incidentapi.ValidationError{Fields: fields}).Error()
		} else {
			f.errText = err.Error()
		}
		return f, nil
	}

	f.errText = ""
	f.submit = f.submit.Start()
	return f, f.s.create(f.gen, req)
}

// capturesText reports whether printable keys go to a text field.
func (f CreateForm) capturesText() bool {
	return f.focus != createSeverity && f.focus != createStatus
}

// View renders the modal.
func (f CreateForm) View() string {
	t := f.s.theme
	var b strings.Builder

	b.WriteString(modalHeader(t, "New Incident"))
	b.WriteString("\n\n")
	if f.errText != "" {
		b.WriteString(t.errorStyle().Render(f.errText))
		b.WriteString("\n\n")
	}

	b.WriteString(field(t, "Title *", f.focus == createTitle, f.title.View()))
	b.WriteString(field(t, "Service *", f.focus == createService, f.service.View()))
	b.WriteString(field(t, "Severity *", f.focus == createSeverity,
		choice(t.severity(f.severity).Render(string(f.severity)), f.focus == createSeverity)))
	b.WriteString(field(t, "Status", f.focus == createStatus,
		choice(t.status(f.status).Render(string(f.status)), f.focus == createStatus)))
	b.WriteString(field(t, "Owner *", f.focus == createOwner, f.owner.View()))
	b.WriteString(t.label(f.focus == createSummary).Render("Summary"))
	b.WriteString("\n")
	b.WriteString(f.summary.View())
	b.WriteString("\n\n")

	action := "[ Create ]"
	if f.submit.Loading() {
		action = "Creating..."
	}
	b.WriteString(t.faint().Render("esc cancel  ·  C-s ") + action)

	return t.modal().Render(b.String())
}

func modalHeader(t Theme, title string) string {
	return t.title().Render(title) + "  " + t.faint().Render("×")
}

func field(t Theme, label string, focused bool, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, t.label(focused).Render(label), " ", value) + "\n"
}

func choice(value string, focused bool) string {
	if focused {
		return "‹ " + value + " ›"
	}
	return value
}
