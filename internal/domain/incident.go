// Package domain holds the incident record types shared by the API client,
// the console views and the development API stub.
package domain

import (
	"strings"
	"time"
)

// Severity represents the urgency tier of an incident.
type Severity string

// Severities, most urgent first.
const (
	SeveritySEV1 Severity = "SEV1"
	SeveritySEV2 Severity = "SEV2"
	SeveritySEV3 Severity = "SEV3"
	SeveritySEV4 Severity = "SEV4"
)

// Severities lists all severities in urgency order.
var Severities = []Severity{SeveritySEV1, SeveritySEV2, SeveritySEV3, SeveritySEV4}

// IsValid checks if the severity is one of SEV1..SEV4.
func (s Severity) IsValid() bool {
	return s.Rank() > 0
}

// Rank returns 1 for SEV1 through 4 for SEV4, and 0 for unknown values.
// A lower rank is more urgent.
func (s Severity) Rank() int {
	for i, sev := range Severities {
		if s == sev {
			return i + 1
		}
	}
	return 0
}

// Status represents the lifecycle stage of an incident.
type Status string

// Incident statuses.
const (
	StatusOpen      Status = "OPEN"
	StatusMitigated Status = "MITIGATED"
	StatusResolved  Status = "RESOLVED"
)

// Statuses lists all statuses in lifecycle order.
var Statuses = []Status{StatusOpen, StatusMitigated, StatusResolved}

// IsValid checks if the status is known.
func (s Status) IsValid() bool {
	switch s {
	case StatusOpen, StatusMitigated, StatusResolved:
		return true
	}
	return false
}

// Field length limits enforced on create.
const (
	MaxTitleLength   = 255
	MaxServiceLength = 100
	MaxOwnerLength   = 100
	MaxSummaryLength = 2000
)

// Incident is a tracked operational event.
// ID and CreatedAt are assigned by the server and never changed by clients.
type Incident struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Service   string    `json:"service"`
	Severity  Severity  `json:"severity"`
	Status    Status    `json:"status"`
	Owner     *string   `json:"owner"`
	Summary   *string   `json:"summary"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// OwnerOr returns the owner or fallback when the owner is null.
func (i *Incident) OwnerOr(fallback string) string {
	if i.Owner == nil {
		return fallback
	}
	return *i.Owner
}

// SummaryOr returns the summary or fallback when the summary is null.
func (i *Incident) SummaryOr(fallback string) string {
	if i.Summary == nil {
		return fallback
	}
	return *i.Summary
}

// CreateRequest is the payload of POST /api/incidents.
type CreateRequest struct {
	Title    string   `json:"title" validate:"required,max=255"`
	Service  string   `json:"service" validate:"required,max=100"`
	Severity Severity `json:"severity" validate:"required,oneof=SEV1 SEV2 SEV3 SEV4"`
	Status   *Status  `json:"status,omitempty" validate:"omitempty,oneof=OPEN MITIGATED RESOLVED"`
	Owner    string   `json:"owner" validate:"required,max=100"`
	Summary  *string  `json:"summary,omitempty" validate:"omitempty,max=2000"`
}

// Normalize trims the owner and turns a blank summary into an absent one.
func (r CreateRequest) Normalize() CreateRequest {
	r.Owner = strings.TrimSpace(r.Owner)
	if r.Summary != nil {
		trimmed := strings.TrimSpace(*r.Summary)
		if trimmed == "" {
			r.Summary = nil
		} else {
			r.Summary = &trimmed
		}
	}
	return r
}

// UpdateRequest is the payload of PATCH /api/incidents/{id}.
// Nil fields are left out of the body and leave the stored value untouched.
// A non-nil empty Summary is sent as "".
type UpdateRequest struct {
	Status   *Status   `json:"status,omitempty" validate:"omitempty,oneof=OPEN MITIGATED RESOLVED"`
	Severity *Severity `json:"severity,omitempty" validate:"omitempty,oneof=SEV1 SEV2 SEV3 SEV4"`
	Summary  *string   `json:"summary,omitempty" validate:"omitempty,max=2000"`
}

// IsEmpty reports whether the update carries no fields.
func (r UpdateRequest) IsEmpty() bool {
	return r.Status == nil && r.Severity == nil && r.Summary == nil
}

// Page is one page of a server-paginated incident listing.
type Page struct {
	Content       []Incident `json:"content"`
	TotalElements int64      `json:"totalElements"`
	TotalPages    int        `json:"totalPages"`
	Size          int        `json:"size"`
	Number        int        `json:"number"`
	First         bool       `json:"first"`
	Last          bool       `json:"last"`
	Empty         bool       `json:"empty"`
}

// NewPage builds a page with the derived counters and flags filled in.
func NewPage(content []Incident, number, size int, total int64) Page {
	if content == nil {
		content = make([]Incident, 0)
	}
	totalPages := 0
	if size > 0 {
		totalPages = int((total + int64(size) - 1) / int64(size))
	}
	return Page{
		Content:       content,
		TotalElements: total,
		TotalPages:    totalPages,
		Size:          size,
		Number:        number,
		First:         number == 0,
		Last:          number >= totalPages-1,
		Empty:         len(content) == 0,
	}
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}
