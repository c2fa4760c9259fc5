package domain

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// SortField is a field incidents can be ordered by.
type SortField string

// Sort fields.
const (
	SortByCreatedAt SortField = "createdAt"
	SortBySeverity  SortField = "severity"
	SortByTitle     SortField = "title"
)

// SortDirection is ascending or descending order.
type SortDirection string

// Sort directions.
const (
	Asc  SortDirection = "asc"
	Desc SortDirection = "desc"
)

// Sort is a sort key and direction, encoded on the wire as "field,direction".
type Sort struct {
	Field     SortField
	Direction SortDirection
}

// DefaultSort orders newest incidents first.
var DefaultSort = Sort{Field: SortByCreatedAt, Direction: Desc}

// ErrInvalidSort is returned when a sort string cannot be parsed.
var ErrInvalidSort = errors.New("invalid sort")

// String returns the wire form, e.g. "createdAt,desc".
func (s Sort) String() string {
	return string(s.Field) + "," + string(s.Direction)
}

// ParseSort parses "field,direction". The direction defaults to asc.
func ParseSort(raw string) (Sort, error) {
	field, dir, found := strings.Cut(raw, ",")
	s := Sort{Field: SortField(field), Direction: Asc}
	if found {
		s.Direction = SortDirection(strings.ToLower(dir))
	}

	switch s.Field {
	case SortByCreatedAt, SortBySeverity, SortByTitle:
	default:
		return Sort{}, fmt.Errorf("%w: unknown field %q", ErrInvalidSort, field)
	}
	if s.Direction != Asc && s.Direction != Desc {
		return Sort{}, fmt.Errorf("%w: unknown direction %q", ErrInvalidSort, dir)
	}
	return s, nil
}

// Query is the filter, sort and paging input of a list request.
// Empty Severity, Status and Search mean "no filter".
type Query struct {
	Page     int
	Size     int
	Sort     Sort
	Severity Severity
	Status   Status
	Search   string
}

// Values encodes the query as URL parameters, leaving out any parameter
// whose value is absent or empty. Search is trimmed first.
func (q Query) Values() url.Values {
	v := url.Values{}
	v.Set("page", strconv.Itoa(q.Page))
	if q.Size > 0 {
		v.Set("size", strconv.Itoa(q.Size))
	}
	if q.Sort.Field != "" {
		v.Set("sort", q.Sort.String())
	}
	if q.Severity != "" {
		v.Set("severity", string(q.Severity))
	}
	if q.Status != "" {
		v.Set("status", string(q.Status))
	}
	if search := strings.TrimSpace(q.Search); search != "" {
		v.Set("search", search)
	}
	return v
}
