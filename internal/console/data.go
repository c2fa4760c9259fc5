package console

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/bissquit/incident-console/internal/domain"
	"github.com/bissquit/incident-console/internal/format"
	"github.com/bissquit/incident-console/internal/incidentapi"
	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-playground/validator/v10"
)

// Incidents is the data access every view uses. *incidentapi.Client
// implements it.
type Incidents interface {
	List(ctx context.Context, q domain.Query) (*domain.Page, error)
	Get(ctx context.Context, id string) (*domain.Incident, error)
	Create(ctx context.Context, req domain.CreateRequest) (*domain.Incident, error)
	Update(ctx context.Context, id string, req domain.UpdateRequest) (*domain.Incident, error)
}

var _ Incidents = (*incidentapi.Client)(nil)

// Options configures the console.
type Options struct {
	PageSize       int           // list page size, default 10
	SearchDebounce time.Duration // quiet period before a search is sent, default 300ms
	Formatter      *format.Formatter
	Logger         *slog.Logger
}

const (
	defaultPageSize       = 10
	defaultSearchDebounce = 300 * time.Millisecond
)

// session holds the dependencies shared by every view of one console.
type session struct {
	ctx      context.Context
	api      Incidents
	format   *format.Formatter
	logger   *slog.Logger
	keys     KeyMap
	theme    Theme
	help     help.Model
	validate *validator.Validate
	pageSize int
	debounce time.Duration
	lastGen  uint64

	// after delivers msg once d has passed.
	after func(d time.Duration, msg tea.Msg) tea.Cmd
}

func newSession(ctx context.Context, api Incidents, opts Options) *session {
	s := &session{
		ctx:      ctx,
		api:      api,
		format:   opts.Formatter,
		logger:   opts.Logger,
		keys:     DefaultKeyMap,
		theme:    DefaultTheme,
		help:     help.New(),
		validate: domain.NewValidator(),
		pageSize: opts.PageSize,
		debounce: opts.SearchDebounce,
		after: func(d time.Duration, msg tea.Msg) tea.Cmd {
			return tea.Tick(d, func(time.Time) tea.Msg { return msg })
		},
	}
	if s.format == nil {
		s.format = format.FromEnvironment()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.pageSize <= 0 {
		s.pageSize = defaultPageSize
	}
	if s.debounce <= 0 {
		s.debounce = defaultSearchDebounce
	}
	return s
}

// nextGen returns a generation number no other request of the session
// has used.
func (s *session) nextGen() uint64 {
	s.lastGen++
	return s.lastGen
}

// owner identifies which view issued a single-incident request.
type owner int

const (
	ownerQuickEdit owner = iota
	ownerDetail
)

// pageLoadedMsg is the result of a list query.
type pageLoadedMsg struct {
	gen  uint64
	page *domain.Page
	err  error
}

// incidentLoadedMsg is the result of fetching one incident.
type incidentLoadedMsg struct {
	owner    owner
	gen      uint64
	incident *domain.Incident
	err      error
}

// incidentUpdatedMsg is the result of a partial update. seq orders the
// updates sent by one view.
type incidentUpdatedMsg struct {
	owner    owner
	gen      uint64
	seq      uint64
	incident *domain.Incident
	err      error
}

// incidentCreatedMsg is the result of a create request.
type incidentCreatedMsg struct {
	gen      uint64
	incident *domain.Incident
	err      error
}

func (s *session) list(ctx context.Context, gen uint64, q domain.Query) tea.Cmd {
	return func() tea.Msg {
		page, err := s.api.List(ctx, q)
		return pageLoadedMsg{gen: gen, page: page, err: err}
	}
}

func (s *session) fetch(ctx context.Context, o owner, gen uint64, id string) tea.Cmd {
	return func() tea.Msg {
		incident, err := s.api.Get(ctx, id)
		return incidentLoadedMsg{owner: o, gen: gen, incident: incident, err: err}
	}
}

func (s *session) update(o owner, gen, seq uint64, id string, req domain.UpdateRequest) tea.Cmd {
	ctx := s.ctx
	return func() tea.Msg {
		incident, err := s.api.Update(ctx, id, req)
		return incidentUpdatedMsg{owner: o, gen: gen, seq: seq, incident: incident, err: err}
	}
}

func (s *session) create(gen uint64, req domain.CreateRequest) tea.Cmd {
	ctx := s.ctx
	return func() tea.Msg {
		incident, err := s.api.Create(ctx, req)
		return incidentCreatedMsg{gen: gen, incident: incident, err: err}
	}
}

// Error texts shown when the server gives nothing more specific.
const (
	msgListFailed   = "Failed to fetch incidents"
	msgFetchFailed  = "Failed to fetch incident"
	msgCreateFailed = "Failed to create incident"
	msgUpdateFailed = "Failed to update incident"
	msgNotFound     = "Incident not found"
)

// errorText maps a data access error to the text a view shows.
func errorText(err error, fallback string) string {
	var validationErr *incidentapi.ValidationError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, incidentapi.ErrNotFound):
		return msgNotFound
	case errors.As(err, &validationErr):
		return validationErr.Error()
	}
	return fallback
}

// createErrorText prefers the server's message for a failed create.
func createErrorText(err error) string {
	var reqErr *incidentapi.RequestError
	if errors.As(err, &reqErr) && reqErr.Message != "" {
		return reqErr.Message
	}
	return errorText(err, msgCreateFailed)
}

// cycle returns the option delta steps away from current, wrapping around.
// An unknown current value counts as the first option.
func cycle[T comparable](options []T, current T, delta int) T {
	i := 0
	for j, o := range options {
		if o == current {
			i = j
			break
		}
	}
	n := len(options)
	return options[((i+delta)%n+n)%n]
}
