package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/dental-premium/cmd/mainconfig"
	"github.com/wolfman30/dental-premium/internal/api/router"
	"github.com/wolfman30/dental-premium/internal/app/bootstrap"
	"github.com/wolfman30/dental-premium/internal/appointments"
	"github.com/wolfman30/dental-premium/internal/auth"
	"github.com/wolfman30/dental-premium/internal/clinic"
	appconfig "github.com/wolfman30/dental-premium/internal/config"
	"github.com/wolfman30/dental-premium/internal/conversation"
	"github.com/wolfman30/dental-premium/internal/dashboard"
	httpmiddleware "github.com/wolfman30/dental-premium/internal/http/middleware"
	"github.com/wolfman30/dental-premium/internal/notify"
	"github.com/wolfman30/dental-premium/internal/observability/metrics"
	"github.com/wolfman30/dental-premium/internal/webchat"
	"github.com/wolfman30/dental-premium/pkg/logging"
	"github.com/wolfman30/dental-premium/pkg/password"
)

func main() {
	envLoaded := mainconfig.LoadEnv()

	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting dental-premium API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"dotenv", envLoaded,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	docs, closeDocs, err := bootstrap.OpenDocStore(ctx, cfg, awsCfg, logger)
	if err != nil {
		logger.Error("failed to open document store", "error", err)
		os.Exit(1)
	}
	defer closeDocs()

	metricsHandler, registry, chatMetrics, bookingMetrics := setupMetrics()

	chain, err := bootstrap.BuildCompletionChain(ctx, cfg, awsCfg, chatMetrics, logger)
	if err != nil {
		logger.Error("failed to configure completion backend", "error", err)
		os.Exit(1)
	}
	defer chain.Close()

	// Stores and services
	clinicStore := clinic.NewStore(docs, logger)
	transcripts := conversation.NewTranscriptStore(docs, logger)

	publisher, worker := setupNotifications(ctx, cfg, awsCfg, clinicStore, bookingMetrics, logger)
	apptOpts := []appointments.Option{
		appointments.WithMetrics(bookingMetrics),
		appointments.WithPhoneRegion(cfg.DefaultPhoneRegion),
	}
	if publisher != nil {
		apptOpts = append(apptOpts, appointments.WithPublisher(publisher))
	}
	apptService := appointments.NewService(appointments.NewRepository(docs, logger), clinicStore, logger, apptOpts...)

	orchestrator := conversation.NewOrchestrator(clinicStore, chain.Client, transcripts, logger,
		conversation.WithFallbackPhone(cfg.FallbackPhone),
		conversation.WithChatMetrics(chatMetrics),
		conversation.WithBackendLabel(chain.Label),
	)

	authService := auth.NewService(docs, password.NewHasher(password.DefaultParams()), auth.TokenConfig{
		Secret: cfg.AdminJWTSecret,
		TTL:    cfg.AdminTokenTTL,
	}, logger)
	ensureAdmin(ctx, authService, cfg, logger)

	// Setup router
	routerCfg := &router.Config{
		Logger:              logger,
		ClinicHandler:       clinic.NewHandler(clinicStore, logger),
		AppointmentsHandler: appointments.NewHandler(apptService, logger),
		ConversationHandler: conversation.NewHandler(orchestrator, transcripts, logger),
		WebchatHandler:      webchat.NewHandler(orchestrator, transcripts, logger),
		AuthHandler:         auth.NewHandler(authService, logger),
		DashboardHandler:    dashboard.NewHandler(apptService, transcripts, registry, logger),
		MetricsHandler:      metricsHandler,
		AdminAuthSecret:     cfg.AdminJWTSecret,
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
		LoginLimiter:        httpmiddleware.NewRateLimiter(cfg.LoginRatePerSec, cfg.LoginBurst),
		StaticDir:           cfg.StaticDir,
	}
	if cfg.AdminJWTSecret == "" {
		logger.Warn("ADMIN_JWT_SECRET not set; admin routes are disabled")
	}
	r := router.New(routerCfg)

	// Create HTTP server. WriteTimeout covers a slow local backend plus the
	// hosted fallback.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.OllamaTimeout + 45*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
	cancel()
	if worker != nil {
		waitForWorker(shutdownCtx, worker, logger)
	}
	logger.Info("server stopped")
}

// setupMetrics registers the app collectors on a dedicated registry and
// returns the /metrics handler for it.
func setupMetrics() (http.Handler, *prometheus.Registry, *metrics.ChatMetrics, *metrics.BookingMetrics) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	chatMetrics := metrics.NewChatMetrics(registry)
	bookingMetrics := metrics.NewBookingMetrics(registry)
	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})
	return handler, registry, chatMetrics, bookingMetrics
}

// setupNotifications builds the booking publisher. With the in-memory queue
// the notification worker runs inside this process; with SQS it runs in
// cmd/notify-worker.
func setupNotifications(ctx context.Context, cfg *appconfig.Config, awsCfg aws.Config, configs notify.ConfigSource, m *metrics.BookingMetrics, logger *logging.Logger) (*notify.Publisher, *notify.Worker) {
	queue, err := bootstrap.BuildNotifyQueue(cfg, awsCfg)
	if err != nil {
		logger.Warn("booking notifications disabled", "error", err)
		return nil, nil
	}
	if queue == nil {
		logger.Info("booking notifications disabled")
		return nil, nil
	}
	publisher := notify.NewPublisher(queue, logger)

	memoryQueue, ok := queue.(*notify.MemoryQueue)
	if !ok {
		return publisher, nil
	}
	sender, provider, reason := bootstrap.BuildEmailSender(cfg, awsCfg, logger)
	if reason != "" {
		logger.Warn("email provider fallback", "provider", provider, "reason", reason)
	}
	worker := notify.NewWorker(memoryQueue, sender, configs, logger,
		notify.WithWorkerCount(1),
		notify.WithReceiveWaitSeconds(5),
		notify.WithEmailMetrics(provider, m),
	)
	worker.Start(ctx)
	logger.Info("inline notification worker started", "provider", provider)
	return publisher, worker
}

func waitForWorker(ctx context.Context, worker *notify.Worker, logger *logging.Logger) {
	done := make(chan struct{})
	go func() {
		worker.Wait()
		close(done)
	}()
	select {
	case <-done:
		logger.Info("notification worker stopped")
	case <-ctx.Done():
		logger.Error("notification worker shutdown timed out", "error", ctx.Err())
	}
}

// ensureAdmin creates the bootstrap admin account from ADMIN_EMAIL and
// ADMIN_PASSWORD when both are set.
func ensureAdmin(ctx context.Context, svc *auth.Service, cfg *appconfig.Config, logger *logging.Logger) {
	if strings.TrimSpace(cfg.AdminEmail) == "" || cfg.AdminPassword == "" {
		return
	}
	created, err := svc.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword)
	if err != nil {
		logger.Error("failed to ensure admin account", "email", cfg.AdminEmail, "error", err)
		return
	}
	if created {
		logger.Info("admin account created", "email", cfg.AdminEmail)
	}
}
