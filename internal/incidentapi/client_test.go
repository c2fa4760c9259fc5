package incidentapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bissquit/incident-console/internal/domain"
	"github.com/bissquit/incident-console/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleIncident = `{
	"id": "0b7e3c1a-52e4-4a8e-9d3f-0c1f1d2a9e11",
	"title": "DB down",
	"service": "orders",
	"severity": "SEV1",
	"status": "OPEN",
	"owner": "alice",
	"summary": null,
	"createdAt": "2026-03-01T09:00:00Z",
	"updatedAt": "2026-03-01T09:00:00Z"
}`

// newTestClient starts server with contract validation in front of handler.
func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	validator := testutil.NewOpenAPIValidator(t)
	server := httptest.NewServer(validator.Middleware(t)(handler))
	t.Cleanup(server.Close)

	client, err := NewClient(Config{BaseURL: server.URL})
	require.NoError(t, err)
	return client
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestNewClient_Defaults(t *testing.T) {
	client, err := NewClient(Config{BaseURL: "http://localhost:8080"})
	require.NoError(t, err)

	assert.Equal(t, defaultTimeout, client.config.Timeout)
	assert.Equal(t, defaultUserAgent, client.config.UserAgent)
	assert.Equal(t, "http://localhost:8080/api/incidents", client.endpoint.String())
	assert.Nil(t, client.limiter)
}

func TestNewClient_InvalidBaseURL(t *testing.T) {
	for _, raw := range []string{"", "localhost:8080", "/api"} {
		_, err := NewClient(Config{BaseURL: raw})
		assert.Error(t, err, raw)
	}
}

func TestClient_List(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/incidents", r.URL.Path)

		q := r.URL.Query()
		assert.Equal(t, "1", q.Get("page"))
		assert.Equal(t, "10", q.Get("size"))
		assert.Equal(t, "createdAt,desc", q.Get("sort"))
		assert.Equal(t, "SEV1", q.Get("severity"))
		assert.False(t, q.Has("status"), "empty status must be omitted")
		assert.False(t, q.Has("search"), "blank search must be omitted")

		writeJSON(w, http.StatusOK, `{
			"content": [`+sampleIncident+`],
			"totalElements": 11, "totalPages": 2, "size": 10, "number": 1,
			"first": false, "last": true, "empty": false
		}`)
	})

	page, err := client.List(context.Background(), domain.Query{
		Page:     1,
		Size:     10,
		Sort:     domain.DefaultSort,
		Severity: domain.SeveritySEV1,
		Search:   "  ",
	})
	require.NoError(t, err)

	require.Len(t, page.Content, 1)
	assert.Equal(t, "DB down", page.Content[0].Title)
	assert.Equal(t, int64(11), page.TotalElements)
	assert.Equal(t, 2, page.TotalPages)
	assert.True(t, page.Last)
}

func TestClient_List_ServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusBadRequest, `{"message":"invalid sort"}`)
	})

	_, err := client.List(context.Background(), domain.Query{Size: 10})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRequestFailed)

	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, http.StatusBadRequest, reqErr.StatusCode)
	assert.Equal(t, "invalid sort", reqErr.Message)
}

func TestClient_Get(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/incidents/0b7e3c1a-52e4-4a8e-9d3f-0c1f1d2a9e11", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		writeJSON(w, http.StatusOK, sampleIncident)
	})

	incident, err := client.Get(context.Background(), "0b7e3c1a-52e4-4a8e-9d3f-0c1f1d2a9e11")
	require.NoError(t, err)
	assert.Equal(t, domain.SeveritySEV1, incident.Severity)
	assert.Equal(t, "alice", incident.OwnerOr(""))
	assert.Nil(t, incident.Summary)
}

func TestClient_Get_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantNF  bool
		wantReq bool
	}{
		{"not found", http.StatusNotFound, true, false},
		{"server error", http.StatusInternalServerError, false, true},
		{"bad gateway", http.StatusBadGateway, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, tt.status, `{"message":"nope"}`)
			}))
			defer server.Close()

			client, err := NewClient(Config{BaseURL: server.URL})
			require.NoError(t, err)

			_, err = client.Get(context.Background(), "missing")
			require.Error(t, err)
			assert.Equal(t, tt.wantNF, errors.Is(err, ErrNotFound))
			assert.Equal(t, tt.wantReq, errors.Is(err, ErrRequestFailed))
		})
	}
}

func TestClient_Create(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "DB down", body["title"])
		assert.Equal(t, "alice", body["owner"])
		assert.NotContains(t, body, "summary")

		writeJSON(w, http.StatusCreated, sampleIncident)
	})

	incident, err := client.Create(context.Background(), domain.CreateRequest{
		Title:    "DB down",
		Service:  "orders",
		Severity: domain.SeveritySEV1,
		Owner:    "alice",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, incident.ID)
}

func TestClient_Create_ValidationErrors(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusBadRequest, `{
			"message": "validation failed",
			"errors": {"title": "Title is required", "owner": "Owner is required"}
		}`)
	})

	_, err := client.Create(context.Background(), domain.CreateRequest{
		Title: "x", Service: "orders", Severity: domain.SeveritySEV2, Owner: "bob",
	})
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Title is required", verr.Fields["title"])
	assert.Equal(t, "owner: Owner is required; title: Title is required", err.Error())
	assert.False(t, errors.Is(err, ErrRequestFailed))
}

func TestClient_Create_GeneralError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusBadRequest, `{"message":"duplicate incident"}`)
	})

	_, err := client.Create(context.Background(), domain.CreateRequest{
		Title: "x", Service: "orders", Severity: domain.SeveritySEV2, Owner: "bob",
	})

	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, "duplicate incident", reqErr.Message)
}

func TestClient_Update(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.JSONEq(t, `{"summary":""}`, string(body))

		writeJSON(w, http.StatusOK, sampleIncident)
	})

	_, err := client.Update(context.Background(), "0b7e3c1a-52e4-4a8e-9d3f-0c1f1d2a9e11",
		domain.UpdateRequest{Summary: domain.StringPtr("")})
	require.NoError(t, err)
}

func TestClient_Update_NotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, `{"message":"Incident not found"}`)
	})

	status := domain.StatusResolved
	_, err := client.Update(context.Background(), "gone", domain.UpdateRequest{Status: &status})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClient_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `{"content": [`)
	}))
	defer server.Close()

	client, err := NewClient(Config{BaseURL: server.URL})
	require.NoError(t, err)

	_, err = client.List(context.Background(), domain.Query{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRequestFailed)
	assert.Contains(t, err.Error(), "decode response")
}

func TestClient_NetworkError(t *testing.T) {
	client, err := NewClient(Config{
		BaseURL: "http://localhost:59999",
		Timeout: 100 * time.Millisecond,
	})
	require.NoError(t, err)

	_, err = client.Get(context.Background(), "abc")
	require.Error(t, err)

	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Zero(t, reqErr.StatusCode)
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestClient_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(100 * time.Millisecond)
		writeJSON(w, http.StatusOK, sampleIncident)
	}))
	defer server.Close()

	client, err := NewClient(Config{BaseURL: server.URL})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = client.Get(ctx, "abc")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, ErrRequestFailed)
}

func TestClient_RateLimit(t *testing.T) {
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits++
		writeJSON(w, http.StatusOK, sampleIncident)
	}))
	defer server.Close()

	client, err := NewClient(Config{BaseURL: server.URL, RateLimit: 0.001})
	require.NoError(t, err)

	_, err = client.Get(context.Background(), "first")
	require.NoError(t, err)

	// The bucket is empty now; a short deadline cannot be met.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = client.Get(ctx, "second")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRequestFailed)
	assert.Equal(t, 1, hits)
}

func TestValidationError_Message(t *testing.T) {
	err := &ValidationError{Fields: map[string]string{"title": "size must be between 0 and 255"}}
	assert.Equal(t, "title: size must be between 0 and 255", err.Error())
}

func TestRequestError_Message(t *testing.T) {
	tests := []struct {
		err  *RequestError
		want string
	}{
		{&RequestError{Op: "list", StatusCode: 503}, "list incidents: status 503"},
		{&RequestError{Op: "create", StatusCode: 400, Message: "bad"}, "create incident: status 400: bad"},
		{&RequestError{Op: "get", Err: io.EOF}, "get incident: EOF"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.err.Error())
	}
}
