package escalation

import (
	"encoding/json"
	"net/http"

	"github.com/codedchaitanya/On-Call-Incident-Management-System/internal/pkg/httputil"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

var errorMappings = []httputil.ErrorMapping{
	{Error: ErrLevelNotFound, Status: http.StatusNotFound},
	{Error: ErrLevelExists, Status: http.StatusConflict},
	{Error: ErrInvalidLevel, Status: http.StatusBadRequest},
}

// Handler handles HTTP requests for escalation levels.
type Handler struct {
	service   *Service
	validator *validator.Validate
}

// NewHandler creates a new escalation handler.
func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(),
	}
}

// RegisterRoutes registers escalation routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/escalation/levels", func(r chi.Router) {
		r.Get("/", h.ListLevels)
		r.Post("/", h.CreateLevel)
		r.Get("/{id}", h.GetLevel)
		r.Put("/{id}", h.UpdateLevel)
		r.Delete("/{id}", h.DeleteLevel)
	})
}

// LevelRequest represents request body for creating or replacing a level.
type LevelRequest struct {
	ServiceName         string `json:"service_name" validate:"required,max=255"`
	Level               int    `json:"level" validate:"required,min=1"`
	NotificationChannel string `json:"notification_channel" validate:"omitempty,max=255"`
}

func (req LevelRequest) toInput() LevelInput {
	return LevelInput{
		ServiceName:         req.ServiceName,
		Level:               req.Level,
		NotificationChannel: req.NotificationChannel,
	}
}

// ListLevels handles GET /escalation/levels.
func (h *Handler) ListLevels(w http.ResponseWriter, r *http.Request) {
	levels, err := h.service.ListLevels(r.Context(), r.URL.Query().Get("service_name"))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, levels)
}

// CreateLevel handles POST /escalation/levels.
func (h *Handler) CreateLevel(w http.ResponseWriter, r *http.Request) {
	var req LevelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	level, err := h.service.CreateLevel(r.Context(), req.toInput())
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusCreated, level)
}

// GetLevel handles GET /escalation/levels/{id}.
func (h *Handler) GetLevel(w http.ResponseWriter, r *http.Request) {
	level, err := h.service.GetLevel(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, level)
}

// UpdateLevel handles PUT /escalation/levels/{id}.
func (h *Handler) UpdateLevel(w http.ResponseWriter, r *http.Request) {
	var req LevelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	level, err := h.service.UpdateLevel(r.Context(), chi.URLParam(r, "id"), req.toInput())
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, level)
}

// DeleteLevel handles DELETE /escalation/levels/{id}.
func (h *Handler) DeleteLevel(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteLevel(r.Context(), chi.URLParam(r, "id")); err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
