package domain

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeverity_Rank(t *testing.T) {
	tests := []struct {
		severity Severity
		rank     int
		valid    bool
	}{
		{SeveritySEV1, 1, true},
		{SeveritySEV2, 2, true},
		{SeveritySEV3, 3, true},
		{SeveritySEV4, 4, true},
		{"SEV5", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.severity), func(t *testing.T) {
			assert.Equal(t, tt.rank, tt.severity.Rank())
			assert.Equal(t, tt.valid, tt.severity.IsValid())
		})
	}
}

func TestStatus_IsValid(t *testing.T) {
	for _, s := range Statuses {
		assert.True(t, s.IsValid(), s)
	}
	assert.False(t, Status("CLOSED").IsValid())
	assert.False(t, Status("open").IsValid())
}

func TestCreateRequest_Validation(t *testing.T) {
	v := validator.New()

	valid := CreateRequest{
		Title:    "DB down",
		Service:  "orders",
		Severity: SeveritySEV1,
		Owner:    "alice",
	}
	require.NoError(t, v.Struct(valid))

	tests := []struct {
		name   string
		mutate func(*CreateRequest)
		field  string
	}{
		{"missing title", func(r *CreateRequest) { r.Title = "" }, "Title"},
		{"title too long", func(r *CreateRequest) { r.Title = strings.Repeat("x", MaxTitleLength+1) }, "Title"},
		{"missing service", func(r *CreateRequest) { r.Service = "" }, "Service"},
		{"service too long", func(r *CreateRequest) { r.Service = strings.Repeat("x", MaxServiceLength+1) }, "Service"},
		{"missing owner", func(r *CreateRequest) { r.Owner = "" }, "Owner"},
		{"unknown severity", func(r *CreateRequest) { r.Severity = "SEV9" }, "Severity"},
		{"unknown status", func(r *CreateRequest) { s := Status("DONE"); r.Status = &s }, "Status"},
		{"summary too long", func(r *CreateRequest) { r.Summary = StringPtr(strings.Repeat("x", MaxSummaryLength+1)) }, "Summary"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)

			err := v.Struct(req)
			require.Error(t, err)

			var verrs validator.ValidationErrors
			require.ErrorAs(t, err, &verrs)
			assert.Equal(t, tt.field, verrs[0].Field())
		})
	}
}

func TestCreateRequest_Normalize(t *testing.T) {
	t.Run("blank summary becomes absent", func(t *testing.T) {
		req := CreateRequest{Owner: "  alice ", Summary: StringPtr("   ")}.Normalize()
		assert.Equal(t, "alice", req.Owner)
		assert.Nil(t, req.Summary)

		body, err := json.Marshal(req)
		require.NoError(t, err)
		assert.NotContains(t, string(body), "summary")
	})

	t.Run("summary is trimmed", func(t *testing.T) {
		req := CreateRequest{Summary: StringPtr(" replica lag ")}.Normalize()
		require.NotNil(t, req.Summary)
		assert.Equal(t, "replica lag", *req.Summary)
	})
}

func TestUpdateRequest_JSON(t *testing.T) {
	t.Run("empty summary is sent", func(t *testing.T) {
		body, err := json.Marshal(UpdateRequest{Summary: StringPtr("")})
		require.NoError(t, err)
		assert.JSONEq(t, `{"summary":""}`, string(body))
	})

	t.Run("only changed fields are sent", func(t *testing.T) {
		status := StatusMitigated
		body, err := json.Marshal(UpdateRequest{Status: &status})
		require.NoError(t, err)
		assert.JSONEq(t, `{"status":"MITIGATED"}`, string(body))
	})

	assert.True(t, UpdateRequest{}.IsEmpty())
}

func TestIncident_NullableFields(t *testing.T) {
	var inc Incident
	err := json.Unmarshal([]byte(`{
		"id": "6f1c", "title": "DB down", "service": "orders",
		"severity": "SEV1", "status": "OPEN", "owner": null, "summary": null,
		"createdAt": "2026-01-02T10:00:00Z", "updatedAt": "2026-01-02T10:05:00.123456Z"
	}`), &inc)
	require.NoError(t, err)

	assert.Nil(t, inc.Owner)
	assert.Equal(t, "—", inc.OwnerOr("—"))
	assert.Equal(t, "", inc.SummaryOr(""))
	assert.True(t, inc.UpdatedAt.After(inc.CreatedAt))
}

func TestNewPage(t *testing.T) {
	tests := []struct {
		name       string
		count      int
		number     int
		total      int64
		totalPages int
		first      bool
		last       bool
		empty      bool
	}{
		{"no results", 0, 0, 0, 0, true, true, true},
		{"single page", 3, 0, 3, 1, true, true, false},
		{"first of three", 10, 0, 25, 3, true, false, false},
		{"middle", 10, 1, 25, 3, false, false, false},
		{"last", 5, 2, 25, 3, false, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := NewPage(make([]Incident, tt.count), tt.number, 10, tt.total)
			assert.Equal(t, tt.totalPages, page.TotalPages)
			assert.Equal(t, tt.first, page.First)
			assert.Equal(t, tt.last, page.Last)
			assert.Equal(t, tt.empty, page.Empty)
			assert.NotNil(t, page.Content)
		})
	}
}
