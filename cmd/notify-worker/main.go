package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/wolfman30/dental-premium/cmd/mainconfig"
	"github.com/wolfman30/dental-premium/internal/app/bootstrap"
	"github.com/wolfman30/dental-premium/internal/clinic"
	appconfig "github.com/wolfman30/dental-premium/internal/config"
	"github.com/wolfman30/dental-premium/internal/notify"
	"github.com/wolfman30/dental-premium/internal/observability/metrics"
	"github.com/wolfman30/dental-premium/pkg/logging"
)

func main() {
	mainconfig.LoadEnv()
	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel).Component("notify-worker")

	if cfg.NotifyQueue != bootstrap.QueueSQS {
		logger.Error("notify-worker consumes SQS; set NOTIFY_QUEUE=sqs", "notify_queue", cfg.NotifyQueue)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	awsConfig, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	queue, err := bootstrap.BuildNotifyQueue(cfg, awsConfig)
	if err != nil {
		logger.Error("failed to build notification queue", "error", err)
		os.Exit(1)
	}

	docs, closeDocs, err := bootstrap.OpenDocStore(ctx, cfg, awsConfig, logger)
	if err != nil {
		logger.Error("failed to open document store", "error", err)
		os.Exit(1)
	}
	defer closeDocs()

	sender, provider, reason := bootstrap.BuildEmailSender(cfg, awsConfig, logger)
	if reason != "" {
		logger.Warn("email provider fallback", "provider", provider, "reason", reason)
	}

	worker := notify.NewWorker(
		queue,
		sender,
		clinic.NewStore(docs, logger),
		logger,
		notify.WithWorkerCount(2),
		notify.WithEmailMetrics(provider, metrics.NewBookingMetrics(prometheus.DefaultRegisterer)),
	)
	worker.Start(ctx)
	logger.Info("notification worker started", "provider", provider, "queue_url", cfg.NotifyQueueURL)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down notification worker...")
	cancel()

	doneCtx, doneCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer doneCancel()

	waitCh := make(chan struct{})
	go func() {
		worker.Wait()
		close(waitCh)
	}()

	select {
	case <-waitCh:
		logger.Info("notification worker stopped")
	case <-doneCtx.Done():
		logger.Error("notification worker shutdown timed out", "error", doneCtx.Err())
	}
}
