package incidents

import (
	"context"

	"github.com/bissquit/incident-console/internal/domain"
)

// Repository defines the interface for incident storage.
type Repository interface {
	Create(ctx context.Context, incident *domain.Incident) error
	GetByID(ctx context.Context, id string) (*domain.Incident, error)
	List(ctx context.Context, filter ListFilter) ([]domain.Incident, int64, error)
	Update(ctx context.Context, incident *domain.Incident) error
	Count(ctx context.Context) (int, error)
}

// ListFilter selects and orders one window of incidents.
// Empty Severity, Status and Search match everything.
type ListFilter struct {
	Severity domain.Severity
	Status   domain.Status
	Search   string
	Sort     domain.Sort
	Offset   int
	Limit    int
}
