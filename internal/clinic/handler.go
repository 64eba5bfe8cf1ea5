package clinic

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/wolfman30/dental-premium/pkg/logging"
)

// Handler exposes the catalog and clinic configuration over HTTP.
type Handler struct {
	store  *Store
	logger *logging.Logger
}

// NewHandler creates a new clinic HTTP handler.
func NewHandler(store *Store, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		store:  store,
		logger: logger,
	}
}

// PublicRoutes are mounted under /api.
func (h *Handler) PublicRoutes(r chi.Router) {
	r.Get("/services", h.ListServices)
	r.Get("/config", h.GetConfig)
	r.Get("/site", h.GetSite)
}

// AdminRoutes are mounted under /admin behind the JWT guard.
func (h *Handler) AdminRoutes(r chi.Router) {
	r.Get("/services", h.ListServices)
	r.Post("/services", h.CreateService)
	r.Put("/services/{id}", h.UpdateService)
	r.Delete("/services/{id}", h.DeleteService)
	r.Get("/config", h.GetConfig)
	r.Put("/config", h.UpdateConfig)
	r.Post("/seed", h.Seed)
}

// ListServices returns the catalog.
// GET /api/services
func (h *Handler) ListServices(w http.ResponseWriter, r *http.Request) {
	services, err := h.store.ListServices(r.Context())
	if err != nil {
		h.logger.Warn("failed to list services, serving defaults", "error", err)
		services = DefaultServices()
	}
	writeJSON(w, http.StatusOK, services)
}

// GetConfig returns the clinic configuration.
// GET /api/config
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.store.GetConfig(r.Context())
	if err != nil {
		h.logger.Warn("failed to get clinic config, serving defaults", "error", err)
		cfg = DefaultConfig()
	}
	writeJSON(w, http.StatusOK, cfg)
}

// GetSite returns catalog and configuration in one payload.
// GET /api/site
func (h *Handler) GetSite(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Site(r.Context()))
}

// CreateService adds a new offering with a generated id.
// POST /admin/services
func (h *Handler) CreateService(w http.ResponseWriter, r *http.Request) {
	var svc ServiceOffering
	if err := json.NewDecoder(r.Body).Decode(&svc); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	created, err := h.store.AddService(r.Context(), svc)
	if err != nil {
		h.handleServiceError(w, err, "")
		return
	}
	h.logger.Info("service created", "id", created.ID, "name", created.Name)
	writeJSON(w, http.StatusCreated, created)
}

// UpdateService replaces an existing offering.
// PUT /admin/services/{id}
func (h *Handler) UpdateService(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var svc ServiceOffering
	if err := json.NewDecoder(r.Body).Decode(&svc); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	updated, err := h.store.UpdateService(r.Context(), id, svc)
	if err != nil {
		h.handleServiceError(w, err, id)
		return
	}
	h.logger.Info("service updated", "id", id)
	writeJSON(w, http.StatusOK, updated)
}

// DeleteService removes an offering.
// DELETE /admin/services/{id}
func (h *Handler) DeleteService(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.store.DeleteService(r.Context(), id); err != nil {
		h.handleServiceError(w, err, id)
		return
	}
	h.logger.Info("service deleted", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

// UpdateConfig replaces the clinic configuration.
// PUT /admin/config
func (h *Handler) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	var cfg Config
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := h.store.PutConfig(r.Context(), cfg); err != nil {
		if errors.Is(err, ErrInvalidConfig) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("failed to save clinic config", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save config")
		return
	}
	h.logger.Info("clinic config updated", "locations", len(cfg.Locations))
	writeJSON(w, http.StatusOK, cfg)
}

// Seed writes the defaults into an empty store.
// POST /admin/seed
func (h *Handler) Seed(w http.ResponseWriter, r *http.Request) {
	res, err := h.store.Seed(r.Context())
	if err != nil {
		h.logger.Error("seed failed", "error", err)
		writeError(w, http.StatusInternalServerError, "seed failed")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) handleServiceError(w http.ResponseWriter, err error, id string) {
	switch {
	case errors.Is(err, ErrInvalidService):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrServiceNotFound):
		writeError(w, http.StatusNotFound, "service not found")
	default:
		h.logger.Error("service operation failed", "id", id, "error", err)
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
