package console

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/bissquit/incident-console/internal/domain"
	"github.com/bissquit/incident-console/internal/format"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type listCall struct {
	ctx context.Context
	q   domain.Query
}

type updateCall struct {
	id  string
	req domain.UpdateRequest
}

// fakeAPI implements Incidents in memory and records every call.
type fakeAPI struct {
	mu sync.Mutex

	total     int64
	pageFn    func(q domain.Query) (*domain.Page, error)
	listCalls []listCall

	incident *domain.Incident
	getErr   error
	gets     []string

	createErr error
	creates   []domain.CreateRequest

	updateErr error
	updates   []updateCall
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		total: 25,
		incident: &domain.Incident{
			ID:        "inc-1",
			Title:     "DB down",
			Service:   "orders",
			Severity:  domain.SeveritySEV1,
			Status:    domain.StatusOpen,
			Owner:     domain.StringPtr("alice"),
			Summary:   domain.StringPtr("replica lag"),
			CreatedAt: t0,
			UpdatedAt: t0,
		},
	}
}

func (f *fakeAPI) List(ctx context.Context, q domain.Query) (*domain.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls = append(f.listCalls, listCall{ctx: ctx, q: q})
	if f.pageFn != nil {
		return f.pageFn(q)
	}

	var content []domain.Incident
	for i := q.Page * q.Size; i < min(int(f.total), (q.Page+1)*q.Size); i++ {
		content = append(content, domain.Incident{
			ID:        fmt.Sprintf("inc-%d", i+1),
			Title:     fmt.Sprintf("%s/%s p%d #%d", q.Severity, q.Status, q.Page, i),
			Service:   "orders",
			Severity:  domain.SeveritySEV2,
			Status:    domain.StatusOpen,
			CreatedAt: t0,
			UpdatedAt: t0,
		})
	}
	page := domain.NewPage(content, q.Page, q.Size, f.total)
	return &page, nil
}

func (f *fakeAPI) Get(_ context.Context, id string) (*domain.Incident, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets = append(f.gets, id)
	if f.getErr != nil {
		return nil, f.getErr
	}
	out := *f.incident
	out.ID = id
	return &out, nil
}

func (f *fakeAPI) Create(_ context.Context, req domain.CreateRequest) (*domain.Incident, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates = append(f.creates, req)
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &domain.Incident{ID: "new", Title: req.Title, Service: req.Service, Severity: req.Severity, Status: *req.Status}, nil
}

func (f *fakeAPI) Update(_ context.Context, id string, req domain.UpdateRequest) (*domain.Incident, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, updateCall{id: id, req: req})
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	out := *f.incident
	out.ID = id
	if req.Status != nil {
		out.Status = *req.Status
	}
	if req.Severity != nil {
		out.Severity = *req.Severity
	}
	if req.Summary != nil {
		out.Summary = req.Summary
		if *req.Summary == "" {
			out.Summary = nil
		}
	}
	out.UpdatedAt = out.UpdatedAt.Add(time.Minute)
	f.incident = &out
	return &out, nil
}

func (f *fakeAPI) listCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.listCalls)
}

func (f *fakeAPI) lastQuery() domain.Query {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls[len(f.listCalls)-1].q
}

func (f *fakeAPI) updateCalls() []updateCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]updateCall(nil), f.updates...)
}

func (f *fakeAPI) createCalls() []domain.CreateRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.CreateRequest(nil), f.creates...)
}

// fakeClock records debounce timers instead of starting them.
type fakeClock struct {
	delays []time.Duration
	msgs   []tea.Msg
}

func (c *fakeClock) after(d time.Duration, msg tea.Msg) tea.Cmd {
	c.delays = append(c.delays, d)
	c.msgs = append(c.msgs, msg)
	return nil
}

func newTestSession(t *testing.T, api Incidents) (*session, *fakeClock) {
	t.Helper()

	s := newSession(context.Background(), api, Options{
		Formatter: format.New("en-US", time.UTC),
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	clock := &fakeClock{}
	s.after = clock.after
	return s, clock
}

// collect runs cmd and returns the messages it produces, flattening
// batches. Commands that do not finish promptly, such as cursor blinks,
// are ignored.
func collect(t *testing.T, cmd tea.Cmd) []tea.Msg {
	t.Helper()
	if cmd == nil {
		return nil
	}

	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()

	select {
	case msg := <-ch:
		if batch, ok := msg.(tea.BatchMsg); ok {
			var out []tea.Msg
			for _, c := range batch {
				out = append(out, collect(t, c)...)
			}
			return out
		}
		if msg == nil {
			return nil
		}
		return []tea.Msg{msg}
	case <-time.After(50 * time.Millisecond):
		return nil
	}
}

// updater is any view with a bubbletea style Update.
type updater[M any] interface {
	Update(tea.Msg) (M, tea.Cmd)
}

// pump runs cmd and feeds its messages back into m until nothing is left.
func pump[M updater[M]](t *testing.T, m M, cmd tea.Cmd) M {
	t.Helper()
	for i := 0; i < 10 && cmd != nil; i++ {
		var cmds []tea.Cmd
		for _, msg := range collect(t, cmd) {
			var c tea.Cmd
			m, c = m.Update(msg)
			cmds = append(cmds, c)
		}
		cmd = tea.Batch(cmds...)
	}
	return m
}

// press sends one key and pumps the resulting commands.
func press[M updater[M]](t *testing.T, m M, msg tea.KeyMsg) M {
	t.Helper()
	m, cmd := m.Update(msg)
	return pump(t, m, cmd)
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var (
	keyEnter    = tea.KeyMsg{Type: tea.KeyEnter}
	keyEsc      = tea.KeyMsg{Type: tea.KeyEsc}
	keyTab      = tea.KeyMsg{Type: tea.KeyTab}
	keyShiftTab = tea.KeyMsg{Type: tea.KeyShiftTab}
	keyLeft     = tea.KeyMsg{Type: tea.KeyLeft}
	keyRight    = tea.KeyMsg{Type: tea.KeyRight}
	keyDown     = tea.KeyMsg{Type: tea.KeyDown}
	keySubmit   = tea.KeyMsg{Type: tea.KeyCtrlS}
	keyCtrlC    = tea.KeyMsg{Type: tea.KeyCtrlC}
)

// loadedList returns a list model whose first page has been loaded.
func loadedList(t *testing.T, api *fakeAPI) (ListModel, *fakeClock) {
	t.Helper()
	s, clock := newTestSession(t, api)
	m, cmd := newListModel(s)
	m = pump(t, m, cmd)
	require.Equal(t, Loaded, m.result.Phase())
	return m, clock
}
