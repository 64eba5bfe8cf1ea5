package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/dental-premium/internal/http/middleware"
	"github.com/wolfman30/dental-premium/pkg/logging"
)

// Authenticator is satisfied by *Service.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (Session, error)
}

// Handler exposes the login endpoint.
type Handler struct {
	auth   Authenticator
	logger *logging.Logger
}

func NewHandler(auth Authenticator, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{auth: auth, logger: logger}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Routes mounts POST /login; the caller applies rate limiting.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/login", h.Login)
}

// Login handles POST /auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": MsgInvalidCredential})
		return
	}

	session, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		status := http.StatusUnauthorized
		if !errors.Is(err, ErrInvalidCredential) && !errors.Is(err, ErrUserNotFound) && !errors.Is(err, ErrWrongPassword) {
			status = http.StatusInternalServerError
			h.logger.Error("admin login failed", "error", err)
		} else {
			h.logger.Warn("admin login rejected", "error", err)
		}
		writeJSON(w, status, map[string]string{"error": Message(err)})
		return
	}
	h.logger.Info("admin logged in", "email", session.Email)
	writeJSON(w, http.StatusOK, session)
}

// Me handles GET /admin/me behind AdminJWT.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.AdminClaimsFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}
	resp := map[string]any{
		"email": claims.Subject,
		"role":  claims.Role,
	}
	if claims.ExpiresAt != nil {
		resp["expiresAt"] = claims.ExpiresAt.Time.UTC().Format(time.RFC3339)
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
