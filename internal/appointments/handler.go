package appointments

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/wolfman30/dental-premium/pkg/logging"
)

// Handler serves the public booking endpoint and the admin triage API.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

// PublicRoutes are mounted under /api.
func (h *Handler) PublicRoutes(r chi.Router) {
	r.Post("/appointments", h.Create)
}

// AdminRoutes are mounted under /admin.
func (h *Handler) AdminRoutes(r chi.Router) {
	r.Get("/appointments", h.List)
	r.Get("/appointments/stats", h.Stats)
	r.Patch("/appointments/{id}/status", h.SetStatus)
	r.Delete("/appointments/{id}", h.Delete)
}

// Create accepts a booking request from the public site.
// POST /api/appointments
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	appt, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.handleError(w, err, "")
		return
	}
	writeJSON(w, http.StatusCreated, appt)
}

// List returns appointments newest first, optionally filtered by ?status=.
// GET /admin/appointments
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	status := Status(strings.ToLower(strings.TrimSpace(r.URL.Query().Get("status"))))
	list, err := h.service.List(r.Context(), status)
	if err != nil {
		h.handleError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

type statusRequest struct {
	Status Status `json:"status"`
}

// SetStatus updates the triage status.
// PATCH /admin/appointments/{id}/status
func (h *Handler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	appt, err := h.service.SetStatus(r.Context(), id, req.Status)
	if err != nil {
		h.handleError(w, err, id)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

// Delete removes an appointment.
// DELETE /admin/appointments/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.handleError(w, err, id)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Stats returns per-status counts.
// GET /admin/appointments/stats
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		h.handleError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) handleError(w http.ResponseWriter, err error, id string) {
	switch {
	case errors.Is(err, ErrMissingPatientName), errors.Is(err, ErrMissingContact), errors.Is(err, ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment not found")
	default:
		h.logger.Error("appointment operation failed", "appointment_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
