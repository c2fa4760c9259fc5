// Package incidents implements the development incident API: an HTTP
// handler, the service holding the record semantics, and the storage
// interface it runs on.
package incidents

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/bissquit/incident-console/internal/domain"
	"github.com/bissquit/incident-console/internal/pkg/ctxlog"
	"github.com/bissquit/incident-console/internal/pkg/metrics"
	"github.com/google/uuid"
)

// Paging limits of the list endpoint.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Service implements incident record semantics.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a new incident service.
func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Create assigns an ID and timestamps and stores the incident.
// A missing status defaults to OPEN and a blank summary is stored as null.
func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Incident, error) {
	now := s.now()

	status := domain.StatusOpen
	if req.Status != nil {
		status = *req.Status
	}

	incident := &domain.Incident{
		ID:        uuid.NewString(),
		Title:     req.Title,
		Service:   req.Service,
		Severity:  req.Severity,
		Status:    status,
		Owner:     domain.StringPtr(req.Owner),
		Summary:   blankToNil(req.Summary),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, incident); err != nil {
		return nil, fmt.Errorf("create incident: %w", err)
	}
	s.recordCount(ctx)

	ctxlog.FromContext(ctx).Info("incident created",
		"incident_id", incident.ID,
		"severity", incident.Severity,
		"service", incident.Service,
	)
	return incident, nil
}

// Get returns one incident or ErrIncidentNotFound.
func (s *Service) Get(ctx context.Context, id string) (*domain.Incident, error) {
	incident, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get incident: %w", err)
	}
	return incident, nil
}

// List returns one page of incidents matching q.
func (s *Service) List(ctx context.Context, q domain.Query) (*domain.Page, error) {
	if q.Page < 0 {
		return nil, fmt.Errorf("%w: page must not be negative", ErrInvalidQuery)
	}
	if q.Size <= 0 {
		q.Size = DefaultPageSize
	}
	if q.Size > MaxPageSize {
		q.Size = MaxPageSize
	}
	if q.Page > math.MaxInt/q.Size {
		return nil, fmt.Errorf("%w: page %d is out of range", ErrInvalidQuery, q.Page)
	}
	if q.Sort.Field == "" {
		q.Sort = domain.DefaultSort
	}

	items, total, err := s.repo.List(ctx, ListFilter{
		Severity: q.Severity,
		Status:   q.Status,
		Search:   strings.TrimSpace(q.Search),
		Sort:     q.Sort,
		Offset:   q.Page * q.Size,
		Limit:    q.Size,
	})
	if err != nil {
		return nil, fmt.Errorf("list incidents: %w", err)
	}

	page := domain.NewPage(items, q.Page, q.Size, total)
	return &page, nil
}

// Update applies the non-nil fields of req. A blank summary clears the
// stored summary. UpdatedAt always advances.
func (s *Service) Update(ctx context.Context, id string, req domain.UpdateRequest) (*domain.Incident, error) {
	incident, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("update incident: %w", err)
	}

	if req.Status != nil {
		incident.Status = *req.Status
	}
	if req.Severity != nil {
		incident.Severity = *req.Severity
	}
	if req.Summary != nil {
		incident.Summary = blankToNil(req.Summary)
	}

	now := s.now()
	if !now.After(incident.UpdatedAt) {
		now = incident.UpdatedAt.Add(time.Microsecond)
	}
	incident.UpdatedAt = now

	if err := s.repo.Update(ctx, incident); err != nil {
		return nil, fmt.Errorf("update incident: %w", err)
	}

	ctxlog.FromContext(ctx).Info("incident updated",
		"incident_id", incident.ID,
		"status", incident.Status,
		"severity", incident.Severity,
	)
	return incident, nil
}

func (s *Service) recordCount(ctx context.Context) {
	count, err := s.repo.Count(ctx)
	if err != nil {
		ctxlog.FromContext(ctx).Warn("failed to count incidents", "error", err)
		return
	}
	metrics.IncidentsStored.Set(float64(count))
}

func blankToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return domain.StringPtr(*s)
}
