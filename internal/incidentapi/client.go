// Package incidentapi is the HTTP client for the incident record API
// served under /api/incidents.
package incidentapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/bissquit/incident-console/internal/domain"
	"github.com/bissquit/incident-console/internal/pkg/ctxlog"
	"github.com/bissquit/incident-console/internal/pkg/metrics"
	"golang.org/x/time/rate"
)

const (
	basePath         = "/api/incidents"
	defaultTimeout   = 10 * time.Second
	defaultUserAgent = "incident-console"

	// maxErrorBody bounds how much of a failed response is read.
	maxErrorBody = 64 << 10
)

// Config holds client configuration.
type Config struct {
	BaseURL   string        // scheme and host of the API, e.g. http://localhost:8080
	Timeout   time.Duration // per request timeout, default 10s
	RateLimit float64       // requests per second, 0 disables limiting
	UserAgent string

	// HTTPClient overrides the default client; Timeout is ignored when set.
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client calls the incident API. It performs no retries.
type Client struct {
	config     Config
	endpoint   *url.URL
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewClient creates a new client. Returns error if BaseURL is not an absolute URL.
func NewClient(config Config) (*Client, error) {
	if config.Timeout == 0 {
		config.Timeout = defaultTimeout
	}
	if config.UserAgent == "" {
		config.UserAgent = defaultUserAgent
	}

	base, err := url.Parse(config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url %q must include scheme and host", config.BaseURL)
	}
	endpoint := base.JoinPath(basePath)

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.Timeout}
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	c := &Client{
		config:     config,
		endpoint:   endpoint,
		httpClient: httpClient,
		logger:     logger.With("component", "incidentapi"),
	}
	if config.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(config.RateLimit), 1)
	}
	return c, nil
}

// List fetches one page of incidents matching q.
func (c *Client) List(ctx context.Context, q domain.Query) (*domain.Page, error) {
	u := *c.endpoint
	u.RawQuery = q.Values().Encode()

	var page domain.Page
	if err := c.do(ctx, "list", http.MethodGet, &u, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Get fetches a single incident. Returns ErrNotFound on 404.
func (c *Client) Get(ctx context.Context, id string) (*domain.Incident, error) {
	var incident domain.Incident
	if err := c.do(ctx, "get", http.MethodGet, c.endpoint.JoinPath(id), nil, &incident); err != nil {
		return nil, err
	}
	return &incident, nil
}

// Create creates an incident. Returns *ValidationError when the server reports
// per-field errors.
func (c *Client) Create(ctx context.Context, req domain.CreateRequest) (*domain.Incident, error) {
	var incident domain.Incident
	if err := c.do(ctx, "create", http.MethodPost, c.endpoint, req, &incident); err != nil {
		return nil, err
	}
	return &incident, nil
}

// Update applies a partial update. Returns ErrNotFound on 404.
func (c *Client) Update(ctx context.Context, id string, req domain.UpdateRequest) (*domain.Incident, error) {
	var incident domain.Incident
	if err := c.do(ctx, "update", http.MethodPatch, c.endpoint.JoinPath(id), req, &incident); err != nil {
		return nil, err
	}
	return &incident, nil
}

func (c *Client) do(ctx context.Context, op, method string, u *url.URL, body, out any) (err error) {
	start := time.Now()
	logger := ctxlog.FromContextOr(ctx, c.logger)

	status := 0
	defer func() {
		duration := time.Since(start)
		metrics.ClientRequestDuration.WithLabelValues(op, outcome(err)).Observe(duration.Seconds())
		logger.Debug("incident api request",
			"operation", op,
			"method", method,
			"url", u.String(),
			"status", status,
			"duration_ms", duration.Milliseconds(),
			"error", err,
		)
	}()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return &RequestError{Op: op, Err: err}
		}
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal %s request: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.config.UserAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &RequestError{Op: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()
	status = resp.StatusCode

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.handleErrorResponse(op, resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &RequestError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

type errorBody struct {
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors"`
}

func (c *Client) handleErrorResponse(op string, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var body errorBody
	_ = json.Unmarshal(raw, &body)

	switch {
	case resp.StatusCode == http.StatusNotFound && (op == "get" || op == "update"):
		return ErrNotFound

	case op == "create" && len(body.Errors) > 0:
		return &ValidationError{Fields: body.Errors}

	default:
		return &RequestError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Message:    body.Message,
		}
	}
}

func outcome(err error) string {
	var validationErr *ValidationError
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.As(err, &validationErr):
		return "validation"
	default:
		return "failed"
	}
}
