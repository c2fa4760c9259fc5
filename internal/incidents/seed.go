package incidents

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/bissquit/incident-console/internal/domain"
	"github.com/bissquit/incident-console/internal/pkg/ctxlog"
	"github.com/google/uuid"
)

var seedServices = []string{
	"Payment Gateway", "User Authentication", "API Gateway", "Notification Service",
	"Search Engine", "Order Service", "Inventory Service", "Analytics Platform",
	"CDN", "Database Cluster", "Cache Layer", "Message Queue",
	"File Storage", "Email Service", "SMS Gateway", "Reporting Service",
}

var seedProblems = []string{
	"Elevated error rate", "Latency spike", "Connection pool exhausted",
	"Certificate expired", "Disk usage above threshold", "Replica lag",
	"Memory leak after deploy", "Upstream timeouts", "Partial outage",
	"Degraded throughput", "Failed health checks", "Stale cache entries",
}

var seedOwners = []string{
	"Aarav Sharma", "Priya Patel", "Rohan Gupta", "Ananya Iyer",
	"Vikram Nair", "Meera Reddy", "Kabir Singh", "Isha Verma",
}

var seedSummaries = []string{
	"Rolled back the last deploy.",
	"Traffic shifted to the secondary region.",
	"Root cause under investigation.",
	"Vendor confirmed an upstream issue.",
	"Scaled out the affected pool.",
}

// Seed fills an empty repository with count demo incidents created over the
// 180 days before now. It does nothing when incidents already exist.
func Seed(ctx context.Context, repo Repository, count int, now time.Time, rng *rand.Rand) error {
	existing, err := repo.Count(ctx)
	if err != nil {
		return fmt.Errorf("count incidents: %w", err)
	}
	if existing > 0 {
		ctxlog.FromContext(ctx).Info("incidents already exist, skipping seed", "count", existing)
		return nil
	}

	base := now.Add(-180 * 24 * time.Hour)
	for i := 0; i < count; i++ {
		incident := seedIncident(base, rng)
		if err := repo.Create(ctx, &incident); err != nil {
			return fmt.Errorf("seed incident %d: %w", i, err)
		}
	}

	ctxlog.FromContext(ctx).Info("seeded demo incidents", "count", count)
	return nil
}

func seedIncident(base time.Time, rng *rand.Rand) domain.Incident {
	service := pick(rng, seedServices)
	created := base.Add(time.Duration(rng.IntN(180*24)) * time.Hour)

	var summary *string
	if rng.IntN(2) == 0 {
		summary = domain.StringPtr(pick(rng, seedSummaries))
	}

	return domain.Incident{
		ID:        uuid.NewString(),
		Title:     fmt.Sprintf("%s in %s", pick(rng, seedProblems), service),
		Service:   service,
		Severity:  pick(rng, domain.Severities),
		Status:    pick(rng, domain.Statuses),
		Owner:     domain.StringPtr(pick(rng, seedOwners)),
		Summary:   summary,
		CreatedAt: created,
		UpdatedAt: created.Add(time.Duration(rng.IntN(73)) * time.Hour),
	}
}

func pick[T any](rng *rand.Rand, items []T) T {
	return items[rng.IntN(len(items))]
}
