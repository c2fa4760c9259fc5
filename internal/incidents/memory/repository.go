// Package memory provides an in-memory incident repository.
package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/bissquit/incident-console/internal/domain"
	"github.com/bissquit/incident-console/internal/incidents"
)

// Repository keeps incidents in memory. Safe for concurrent use.
// Stored values are copied on the way in and out.
type Repository struct {
	mu        sync.RWMutex
	incidents map[string]domain.Incident
}

// NewRepository creates an empty repository.
func NewRepository() *Repository {
	return &Repository{incidents: make(map[string]domain.Incident)}
}

var _ incidents.Repository = (*Repository)(nil)

// Create stores a new incident.
func (r *Repository) Create(_ context.Context, incident *domain.Incident) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.incidents[incident.ID] = clone(*incident)
	return nil
}

// GetByID returns the incident or incidents.ErrIncidentNotFound.
func (r *Repository) GetByID(_ context.Context, id string) (*domain.Incident, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	incident, ok := r.incidents[id]
	if !ok {
		return nil, incidents.ErrIncidentNotFound
	}
	out := clone(incident)
	return &out, nil
}

// Update replaces a stored incident.
func (r *Repository) Update(_ context.Context, incident *domain.Incident) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.incidents[incident.ID]; !ok {
		return incidents.ErrIncidentNotFound
	}
	r.incidents[incident.ID] = clone(*incident)
	return nil
}

// Count returns the number of stored incidents.
func (r *Repository) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.incidents), nil
}

// List filters, orders and windows the stored incidents. Returns the window
// and the number of incidents matching the filter.
//
// When a search term is given, incidents whose title starts with it come
// first; the requested sort orders incidents within each of the two groups.
func (r *Repository) List(_ context.Context, filter incidents.ListFilter) ([]domain.Incident, int64, error) {
	search := strings.ToLower(strings.TrimSpace(filter.Search))

	r.mu.RLock()
	matched := make([]domain.Incident, 0, len(r.incidents))
	for _, incident := range r.incidents {
		if matches(incident, filter, search) {
			matched = append(matched, clone(incident))
		}
	}
	r.mu.RUnlock()

	slices.SortFunc(matched, func(a, b domain.Incident) int {
		if search != "" {
			if c := cmp.Compare(prefixRank(a, search), prefixRank(b, search)); c != 0 {
				return c
			}
		}
		c := compare(a, b, filter.Sort.Field)
		if filter.Sort.Direction == domain.Desc {
			c = -c
		}
		if c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	total := int64(len(matched))
	if filter.Offset < 0 || filter.Offset >= len(matched) {
		return []domain.Incident{}, total, nil
	}
	end := len(matched)
	if filter.Limit > 0 && filter.Limit < end-filter.Offset {
		end = filter.Offset + filter.Limit
	}
	return matched[filter.Offset:end], total, nil
}

func matches(incident domain.Incident, filter incidents.ListFilter, search string) bool {
	if filter.Severity != "" && incident.Severity != filter.Severity {
		return false
	}
	if filter.Status != "" && incident.Status != filter.Status {
		return false
	}
	if search == "" {
		return true
	}
	return contains(incident.Title, search) ||
		contains(incident.Service, search) ||
		(incident.Owner != nil && contains(*incident.Owner, search)) ||
		(incident.Summary != nil && contains(*incident.Summary, search))
}

func contains(value, lowerNeedle string) bool {
	return strings.Contains(strings.ToLower(value), lowerNeedle)
}

func prefixRank(incident domain.Incident, search string) int {
	if strings.HasPrefix(strings.ToLower(incident.Title), search) {
		return 0
	}
	return 1
}

func compare(a, b domain.Incident, field domain.SortField) int {
	switch field {
	case domain.SortBySeverity:
		return cmp.Compare(a.Severity.Rank(), b.Severity.Rank())
	case domain.SortByTitle:
		return cmp.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
	default:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
}

func clone(incident domain.Incident) domain.Incident {
	if incident.Owner != nil {
		incident.Owner = domain.StringPtr(*incident.Owner)
	}
	if incident.Summary != nil {
		incident.Summary = domain.StringPtr(*incident.Summary)
	}
	return incident
}
