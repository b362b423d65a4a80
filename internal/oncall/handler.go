package oncall

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/codedchaitanya/On-Call-Incident-Management-System/internal/pkg/httputil"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

var errorMappings = []httputil.ErrorMapping{
	{Error: ErrScheduleNotFound, Status: http.StatusNotFound, Message: "schedule not found"},
	{Error: ErrNoOnCall, Status: http.StatusNotFound},
	{Error: ErrInvalidInterval, Status: http.StatusBadRequest},
	{Error: ErrInvalidSchedule, Status: http.StatusBadRequest},
}

// Handler handles HTTP requests for on-call schedules.
type Handler struct {
	service   *Service
	validator *validator.Validate
}

// NewHandler creates a new on-call handler.
func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(),
	}
}

// RegisterRoutes registers on-call routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/oncall", func(r chi.Router) {
		r.Get("/current", h.GetCurrent)
		r.Route("/schedules", func(r chi.Router) {
			r.Get("/", h.ListSchedules)
			r.Post("/", h.CreateSchedule)
			r.Get("/{id}", h.GetSchedule)
			r.Put("/{id}", h.UpdateSchedule)
			r.Delete("/{id}", h.DeleteSchedule)
		})
	})
}

// ScheduleRequest represents request body for creating or replacing a schedule.
type ScheduleRequest struct {
	ResponderID string    `json:"responder_id" validate:"required,max=255"`
	ServiceName string    `json:"service_name" validate:"required,max=255"`
	StartTime   time.Time `json:"start_time" validate:"required"`
	EndTime     time.Time `json:"end_time" validate:"required"`
	IsOverride  bool      `json:"is_override"`
}

func (req ScheduleRequest) toInput() ScheduleInput {
	return ScheduleInput{
		ResponderID: req.ResponderID,
		ServiceName: req.ServiceName,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		IsOverride:  req.IsOverride,
	}
}

// CreateSchedule handles POST /oncall/schedules.
func (h *Handler) CreateSchedule(w http.ResponseWriter, r *http.Request) {
	var req ScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	schedule, err := h.service.CreateSchedule(r.Context(), req.toInput())
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusCreated, schedule)
}

// ListSchedules handles GET /oncall/schedules.
func (h *Handler) ListSchedules(w http.ResponseWriter, r *http.Request) {
	filter := ScheduleFilter{
		ServiceName: r.URL.Query().Get("service_name"),
		ResponderID: r.URL.Query().Get("responder_id"),
	}

	schedules, err := h.service.ListSchedules(r.Context(), filter)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, schedules)
}

// GetSchedule handles GET /oncall/schedules/{id}.
func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	schedule, err := h.service.GetSchedule(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, schedule)
}

// UpdateSchedule handles PUT /oncall/schedules/{id}.
func (h *Handler) UpdateSchedule(w http.ResponseWriter, r *http.Request) {
	var req ScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	schedule, err := h.service.UpdateSchedule(r.Context(), chi.URLParam(r, "id"), req.toInput())
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, schedule)
}

// DeleteSchedule handles DELETE /oncall/schedules/{id}.
func (h *Handler) DeleteSchedule(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteSchedule(r.Context(), chi.URLParam(r, "id")); err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetCurrent handles GET /oncall/current?service_name=.
func (h *Handler) GetCurrent(w http.ResponseWriter, r *http.Request) {
	serviceName := r.URL.Query().Get("service_name")
	if serviceName == "" {
		httputil.Error(w, http.StatusBadRequest, "service_name is required")
		return
	}

	schedule, err := h.service.CurrentOnCall(r.Context(), serviceName)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, schedule)
}
