package incidents

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/codedchaitanya/On-Call-Incident-Management-System/internal/domain"
	"github.com/codedchaitanya/On-Call-Incident-Management-System/internal/pkg/ctxlog"
	"github.com/codedchaitanya/On-Call-Incident-Management-System/internal/pkg/httputil"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"golang.org/x/time/rate"
)

var errorMappings = []httputil.ErrorMapping{
	{Error: ErrIncidentNotFound, Status: http.StatusNotFound, Message: "incident not found"},
	{Error: ErrNoEscalationPath, Status: http.StatusConflict},
	{Error: ErrInvalidState, Status: http.StatusConflict},
	{Error: ErrValidation, Status: http.StatusBadRequest},
}

const dateLayout = "2006-01-02"

// Handler handles HTTP requests for incidents.
type Handler struct {
	service      *Service
	notifier     Notifier
	sweepLimiter *rate.Limiter
	validator    *validator.Validate
}

// NewHandler creates a new incidents handler. A nil sweepLimiter leaves the
// manual sweep endpoint unlimited.
func NewHandler(service *Service, notifier Notifier, sweepLimiter *rate.Limiter) *Handler {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Handler{
		service:      service,
		notifier:     notifier,
		sweepLimiter: sweepLimiter,
		validator:    validator.New(),
	}
}

// RegisterRoutes registers incident and metrics routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/incidents", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/trigger", h.Trigger)
		r.With(httputil.RateLimitMiddleware(h.sweepLimiter)).Post("/escalate/check", h.CheckEscalations)
		r.Route("/{id}", func(r chi.Router) {
			r.Use(incidentLogger)
			r.Get("/", h.Get)
			r.Post("/acknowledge", h.Acknowledge)
			r.Post("/resolve", h.Resolve)
			r.Post("/escalate", h.Escalate)
		})
	})
	r.Get("/metrics", h.GetStats)
}

// incidentLogger tags the request logger with the incident id from the path.
func incidentLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := ctxlog.With(r.Context(), "incident_id", chi.URLParam(r, "id"))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// TriggerRequest represents request body for triggering an incident.
type TriggerRequest struct {
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description"`
	ServiceName string `json:"service_name" validate:"required,max=255"`
	AutoAssign  *bool  `json:"auto_assign"`
	Deduplicate *bool  `json:"deduplicate"`
}

// EscalateResponse is returned by POST /incidents/{id}/escalate.
type EscalateResponse struct {
	Incident            *domain.Incident `json:"incident"`
	Level               int              `json:"level"`
	NotificationChannel string           `json:"notification_channel"`
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

// Trigger handles POST /incidents/trigger.
func (h *Handler) Trigger(w http.ResponseWriter, r *http.Request) {
	var req TriggerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		h.notifier.Notify(r.Context(), "Error", "Missing required fields: title, service_name", domain.SeverityError)
		httputil.ValidationError(w, err)
		return
	}

	result, err := h.service.Create(r.Context(), CreateInput{
		Title:       req.Title,
		Description: req.Description,
		ServiceName: req.ServiceName,
		AutoAssign:  boolOr(req.AutoAssign, true),
		Deduplicate: boolOr(req.Deduplicate, true),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	status := http.StatusCreated
	if !result.Created {
		status = http.StatusOK
	}
	httputil.Success(w, status, result.Incident)
}

// List handles GET /incidents.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ListFilter{ServiceName: q.Get("service_name")}

	if s := q.Get("status"); s != "" {
		status := domain.IncidentStatus(s)
		if !status.IsValid() {
			httputil.Error(w, http.StatusBadRequest, "invalid status")
			return
		}
		filter.Status = &status
	}

	var err error
	if filter.Limit, err = parseNonNegative(q.Get("limit")); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid limit")
		return
	}
	if filter.Offset, err = parseNonNegative(q.Get("offset")); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid offset")
		return
	}

	list, err := h.service.List(r.Context(), filter)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, list)
}

// Get handles GET /incidents/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	incident, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, incident)
}

// Acknowledge handles POST /incidents/{id}/acknowledge.
func (h *Handler) Acknowledge(w http.ResponseWriter, r *http.Request) {
	incident, err := h.service.Acknowledge(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	httputil.Success(w, http.StatusOK, incident)
}

// Resolve handles POST /incidents/{id}/resolve.
func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	incident, err := h.service.Resolve(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	httputil.Success(w, http.StatusOK, incident)
}

// Escalate handles POST /incidents/{id}/escalate.
func (h *Handler) Escalate(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Escalate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	httputil.Success(w, http.StatusOK, EscalateResponse{
		Incident:            result.Incident,
		Level:               result.Level.Level,
		NotificationChannel: result.Level.NotificationChannel,
	})
}

// CheckEscalations handles POST /incidents/escalate/check.
func (h *Handler) CheckEscalations(w http.ResponseWriter, r *http.Request) {
	var timeout time.Duration
	if s := r.URL.Query().Get("timeout_seconds"); s != "" {
		seconds, err := strconv.Atoi(s)
		if err != nil || seconds <= 0 {
			httputil.Error(w, http.StatusBadRequest, "timeout_seconds must be a positive integer")
			return
		}
		timeout = time.Duration(seconds) * time.Second
	}

	result, err := h.service.Sweep(r.Context(), timeout)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, result)
}

// GetStats handles GET /metrics.
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := StatsFilter{ServiceName: q.Get("service_name")}

	from, err := parseDate(q.Get("start_date"), false)
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid start_date, use RFC3339 or YYYY-MM-DD")
		return
	}
	to, err := parseDate(q.Get("end_date"), true)
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid end_date, use RFC3339 or YYYY-MM-DD")
		return
	}
	filter.From, filter.To = from, to

	stats, err := h.service.Stats(r.Context(), filter)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, stats)
}

// fail notifies the feed about rejected lifecycle requests before writing the error.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, ErrIncidentNotFound) || errors.Is(err, ErrInvalidState) || errors.Is(err, ErrValidation) {
		h.notifier.Notify(r.Context(), "Error", err.Error(), domain.SeverityError)
	}
	httputil.HandleError(r.Context(), w, err, errorMappings)
}

func parseNonNegative(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, errors.New("must be a non-negative integer")
	}
	return n, nil
}

// parseDate accepts RFC3339 or a bare date. A bare end date covers the whole day.
func parseDate(s string, endOfDay bool) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		t = t.UTC()
		return &t, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
