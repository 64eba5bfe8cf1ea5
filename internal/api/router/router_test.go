package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/wolfman30/dental-premium/internal/appointments"
	"github.com/wolfman30/dental-premium/internal/auth"
	"github.com/wolfman30/dental-premium/internal/clinic"
	"github.com/wolfman30/dental-premium/internal/conversation"
	"github.com/wolfman30/dental-premium/internal/dashboard"
	"github.com/wolfman30/dental-premium/internal/docstore"
	httpmiddleware "github.com/wolfman30/dental-premium/internal/http/middleware"
	"github.com/wolfman30/dental-premium/pkg/logging"
	"github.com/wolfman30/dental-premium/pkg/password"
)

const testSecret = "router-secret"

type cannedResponder struct{}

func (cannedResponder) Respond(context.Context, string, string) string {
	return "Hola, soy el asistente."
}

func newTestRouter(t *testing.T, mutate func(*Config)) http.Handler {
	t.Helper()

	logger := logging.New("error")
	docs := docstore.NewMemoryStore()
	clinicStore := clinic.NewStore(docs, logger)
	apptService := appointments.NewService(appointments.NewRepository(docs, logger), clinicStore, logger)
	transcripts := conversation.NewTranscriptStore(docs, logger)

	authService := auth.NewService(docs, password.NewHasher(password.TestParams()),
		auth.TokenConfig{Secret: testSecret, TTL: time.Hour}, logger)
	if _, err := authService.EnsureAdmin(context.Background(), "admin@dentalpremium.com", "admin123"); err != nil {
		t.Fatalf("ensure admin: %v", err)
	}

	cfg := &Config{
		Logger:              logger,
		ClinicHandler:       clinic.NewHandler(clinicStore, logger),
		AppointmentsHandler: appointments.NewHandler(apptService, logger),
		ConversationHandler: conversation.NewHandler(cannedResponder{}, transcripts, logger),
		AuthHandler:         auth.NewHandler(authService, logger),
		DashboardHandler:    dashboard.NewHandler(apptService, transcripts, prometheus.NewRegistry(), logger),
		AdminAuthSecret:     testSecret,
		LoginLimiter:        httpmiddleware.NewRateLimiter(1, 10),
	}
	if mutate != nil {
		mutate(cfg)
	}
	return New(cfg)
}

func login(t *testing.T, router http.Handler) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"admin@dentalpremium.com","password":"admin123"}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var session auth.Session
	if err := json.NewDecoder(rr.Body).Decode(&session); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	return session.Token
}

func TestRouterHealthEndpoint(t *testing.T) {
	router := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	var resp map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode health response: %v", err)
	}
	if resp["status"] != "ok" {
		t.Errorf("expected status 'ok', got %q", resp["status"])
	}
}

func TestRouterPublicEndpoints(t *testing.T) {
	router := newTestRouter(t, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/config", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("config: expected 200, got %d", rr.Code)
	}

	body := `{"patientName":"Ana","phone":"987654321","serviceId":"1","locationId":"h1","date":"2025-03-10","time":"10:00"}`
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/appointments", strings.NewReader(body)))
	if rr.Code != http.StatusCreated {
		t.Fatalf("appointment: expected 201, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"message":"Hola"}`)))
	if rr.Code != http.StatusOK {
		t.Fatalf("chat: expected 200, got %d", rr.Code)
	}
	var chat conversation.ChatResponse
	if err := json.NewDecoder(rr.Body).Decode(&chat); err != nil {
		t.Fatalf("decode chat: %v", err)
	}
	if chat.Reply != "Hola, soy el asistente." || chat.SessionID == "" {
		t.Fatalf("unexpected chat response: %+v", chat)
	}
}

func TestRouterAdminRequiresToken(t *testing.T) {
	router := newTestRouter(t, nil)

	for _, path := range []string{"/admin/appointments", "/admin/chats", "/admin/dashboard", "/admin/me"} {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", path, rr.Code)
		}
	}
}

func TestRouterAdminWithToken(t *testing.T) {
	router := newTestRouter(t, nil)
	token := login(t, router)

	for _, path := range []string{"/admin/appointments", "/admin/appointments/stats", "/admin/chats", "/admin/dashboard", "/admin/me"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d: %s", path, rr.Code, rr.Body.String())
		}
	}
}

func TestRouterAdminDisabledWithoutSecret(t *testing.T) {
	router := newTestRouter(t, func(cfg *Config) { cfg.AdminAuthSecret = "" })

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/admin/appointments", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 when admin is disabled, got %d", rr.Code)
	}
}

func TestRouterLoginRateLimited(t *testing.T) {
	router := newTestRouter(t, func(cfg *Config) { cfg.LoginLimiter = httpmiddleware.NewRateLimiter(0.001, 1) })

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"x@y.com","password":"nope"}`))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}
	if codes[0] != http.StatusUnauthorized || codes[1] != http.StatusTooManyRequests {
		t.Fatalf("expected [401 429], got %v", codes)
	}
}

func TestRouterServesStaticSite(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>Dental Premium</h1>"), 0o644); err != nil {
		t.Fatalf("write index: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log(1)"), 0o644); err != nil {
		t.Fatalf("write asset: %v", err)
	}
	router := newTestRouter(t, func(cfg *Config) { cfg.StaticDir = dir })

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/app.js", nil))
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "console.log") {
		t.Fatalf("asset: unexpected response %d %q", rr.Code, rr.Body.String())
	}

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/servicios", nil))
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "Dental Premium") {
		t.Fatalf("spa fallback: unexpected response %d %q", rr.Code, rr.Body.String())
	}

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "ok") {
		t.Fatalf("health must not be shadowed by the static site")
	}
}
