package incidents

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/bissquit/incident-console/internal/domain"
	"github.com/bissquit/incident-console/internal/pkg/ctxlog"
	"github.com/bissquit/incident-console/internal/pkg/httputil"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// Handler serves the incident API over HTTP.
type Handler struct {
	service   *Service
	validator *validator.Validate
}

// NewHandler creates a new incident handler.
func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: domain.NewValidator(),
	}
}

// RegisterRoutes registers the incident routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/incidents", func(r chi.Router) {
		r.Get("/", h.ListIncidents)
		r.Post("/", h.CreateIncident)
		r.Get("/{id}", h.GetIncident)
		r.Patch("/{id}", h.UpdateIncident)
	})
}

// ListIncidents handles GET /incidents request.
func (h *Handler) ListIncidents(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	page, err := h.service.List(r.Context(), q)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, page)
}

// CreateIncident handles POST /incidents request.
func (h *Handler) CreateIncident(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	req = req.Normalize()
	req.Title = strings.TrimSpace(req.Title)
	req.Service = strings.TrimSpace(req.Service)

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	incident, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusCreated, incident)
}

// GetIncident handles GET /incidents/{id} request.
func (h *Handler) GetIncident(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	r = r.WithContext(ctxlog.With(r.Context(), "incident_id", id))

	incident, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, incident)
}

// UpdateIncident handles PATCH /incidents/{id} request.
func (h *Handler) UpdateIncident(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	r = r.WithContext(ctxlog.With(r.Context(), "incident_id", id))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req domain.UpdateRequest
	if err := dec.Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	incident, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, incident)
}

func parseQuery(r *http.Request) (domain.Query, error) {
	params := r.URL.Query()
	q := domain.Query{
		Sort:   domain.DefaultSort,
		Search: params.Get("search"),
	}

	var err error
	if q.Page, err = intParam(params.Get("page"), 0); err != nil {
		return q, errors.New("invalid page")
	}
	if q.Size, err = intParam(params.Get("size"), DefaultPageSize); err != nil {
		return q, errors.New("invalid size")
	}
	if q.Page < 0 || q.Size < 1 {
		return q, errors.New("page must be >= 0 and size must be >= 1")
	}

	if raw := params.Get("sort"); raw != "" {
		if q.Sort, err = domain.ParseSort(raw); err != nil {
			return q, err
		}
	}
	if raw := params.Get("severity"); raw != "" {
		q.Severity = domain.Severity(raw)
		if !q.Severity.IsValid() {
			return q, errors.New("invalid severity")
		}
	}
	if raw := params.Get("status"); raw != "" {
		q.Status = domain.Status(raw)
		if !q.Status.IsValid() {
			return q, errors.New("invalid status")
		}
	}
	return q, nil
}

func intParam(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}

func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	httputil.HandleError(r.Context(), w, err, []httputil.ErrorMapping{
		{Error: ErrIncidentNotFound, Status: http.StatusNotFound, Message: "Incident not found"},
		{Error: ErrInvalidQuery, Status: http.StatusBadRequest},
	})
}
