package router

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/dental-premium/internal/appointments"
	"github.com/wolfman30/dental-premium/internal/auth"
	"github.com/wolfman30/dental-premium/internal/clinic"
	"github.com/wolfman30/dental-premium/internal/conversation"
	"github.com/wolfman30/dental-premium/internal/dashboard"
	httpmiddleware "github.com/wolfman30/dental-premium/internal/http/middleware"
	"github.com/wolfman30/dental-premium/internal/webchat"
	"github.com/wolfman30/dental-premium/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger              *logging.Logger
	ClinicHandler       *clinic.Handler
	AppointmentsHandler *appointments.Handler
	ConversationHandler *conversation.Handler
	WebchatHandler      *webchat.Handler
	AuthHandler         *auth.Handler
	DashboardHandler    *dashboard.Handler
	MetricsHandler      http.Handler
	AdminAuthSecret     string
	CORSAllowedOrigins  []string
	LoginLimiter        *httpmiddleware.RateLimiter

	// StaticDir serves a pre-built frontend when set.
	StaticDir string
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints
	r.Group(func(public chi.Router) {
		public.Get("/health", health)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		public.Route("/api", func(api chi.Router) {
			if cfg.ClinicHandler != nil {
				cfg.ClinicHandler.PublicRoutes(api)
			}
			if cfg.AppointmentsHandler != nil {
				cfg.AppointmentsHandler.PublicRoutes(api)
			}
			if cfg.ConversationHandler != nil {
				cfg.ConversationHandler.PublicRoutes(api)
			}
		})
		if cfg.WebchatHandler != nil {
			public.Get("/chat/ws", cfg.WebchatHandler.HandleWebSocket)
		}
	})

	if cfg.AuthHandler != nil {
		r.Route("/auth", func(authRoutes chi.Router) {
			if cfg.LoginLimiter != nil {
				authRoutes.Use(httpmiddleware.RateLimit(cfg.LoginLimiter))
			}
			cfg.AuthHandler.Routes(authRoutes)
		})
	}

	// Admin routes (protected by HMAC JWT)
	if cfg.AdminAuthSecret != "" {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			if cfg.AuthHandler != nil {
				admin.Get("/me", cfg.AuthHandler.Me)
			}
			if cfg.ClinicHandler != nil {
				cfg.ClinicHandler.AdminRoutes(admin)
			}
			if cfg.AppointmentsHandler != nil {
				cfg.AppointmentsHandler.AdminRoutes(admin)
			}
			if cfg.ConversationHandler != nil {
				cfg.ConversationHandler.AdminRoutes(admin)
			}
			if cfg.DashboardHandler != nil {
				admin.Get("/dashboard", cfg.DashboardHandler.GetDashboard)
			}
		})
	}

	if dir := strings.TrimSpace(cfg.StaticDir); dir != "" {
		r.Handle("/*", staticSite(dir))
	}

	return r
}

func health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// staticSite serves files from dir and falls back to index.html so client
// side routes of the single page app resolve.
func staticSite(dir string) http.Handler {
	files := http.FileServer(http.Dir(dir))
	index := filepath.Join(dir, "index.html")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := filepath.Join(dir, filepath.Clean("/"+r.URL.Path))
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			files.ServeHTTP(w, r)
			return
		}
		http.ServeFile(w, r, index)
	})
}
