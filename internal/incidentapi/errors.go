package incidentapi

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrNotFound is returned by Get and Update when the server answers 404.
var ErrNotFound = errors.New("incident not found")

// ErrRequestFailed matches every *RequestError via errors.Is.
var ErrRequestFailed = errors.New("request failed")

// RequestError is any non-2xx response or transport failure that is not
// reported as ErrNotFound or *ValidationError.
type RequestError struct {
	Op         string
	StatusCode int    // 0 for transport failures
	Message    string // server supplied message, if any
	Err        error
}

func (e *RequestError) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	b.WriteString(" incident")
	if e.Op == "list" {
		b.WriteString("s")
	}
	if e.StatusCode > 0 {
		fmt.Fprintf(&b, ": status %d", e.StatusCode)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Is reports whether target is ErrRequestFailed.
func (e *RequestError) Is(target error) bool { return target == ErrRequestFailed }

func (e *RequestError) Unwrap() error { return e.Err }

// ValidationError carries the per-field messages the server reported for a
// rejected create request.
type ValidationError struct {
	Fields map[string]string
}

// Error joins the field messages as "field: message" pairs in field order.
func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return strings.Join(parts, "; ")
}
