package notify

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/wolfman30/dental-premium/internal/clinic"
	"github.com/wolfman30/dental-premium/internal/observability/metrics"
	"github.com/wolfman30/dental-premium/pkg/logging"
)

// ConfigSource yields the clinic configuration (contact email, branches).
type ConfigSource interface {
	GetConfig(ctx context.Context) (clinic.Config, error)
}

type workerConfig struct {
	workers          int
	receiveBatchSize int
	receiveWaitSecs  int
	provider         string
	metrics          *metrics.BookingMetrics
}

// WorkerOption customises a Worker.
type WorkerOption func(*workerConfig)

// WithWorkerCount sets the number of polling goroutines.
func WithWorkerCount(count int) WorkerOption {
	return func(cfg *workerConfig) {
		if count > 0 {
			cfg.workers = count
		}
	}
}

// WithReceiveWaitSeconds sets the long-poll wait per Receive call.
func WithReceiveWaitSeconds(seconds int) WorkerOption {
	return func(cfg *workerConfig) {
		if seconds >= 0 {
			cfg.receiveWaitSecs = seconds
		}
	}
}

// WithEmailMetrics records each send under the given provider label.
func WithEmailMetrics(provider string, m *metrics.BookingMetrics) WorkerOption {
	return func(cfg *workerConfig) {
		cfg.provider = provider
		cfg.metrics = m
	}
}

// Worker consumes booking events and emails the clinic.
type Worker struct {
	queue  Queue
	email  EmailSender
	config ConfigSource
	logger *logging.Logger
	cfg    workerConfig
	wg     sync.WaitGroup
}

func NewWorker(queue Queue, email EmailSender, config ConfigSource, logger *logging.Logger, opts ...WorkerOption) *Worker {
	if queue == nil {
		panic("notify: queue cannot be nil")
	}
	if email == nil {
		panic("notify: email sender cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	cfg := workerConfig{
		workers:          1,
		receiveBatchSize: 5,
		receiveWaitSecs:  20,
		provider:         "unknown",
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Worker{
		queue:  queue,
		email:  email,
		config: config,
		logger: logger,
		cfg:    cfg,
	}
}

// Start launches the polling goroutines. They stop when ctx is cancelled.
func (w *Worker) Start(ctx context.Context) {
	for i := 0; i < w.cfg.workers; i++ {
		w.wg.Add(1)
		go w.run(ctx, i+1)
	}
}

// Wait blocks until every goroutine started by Start has returned.
func (w *Worker) Wait() {
	w.wg.Wait()
}

func (w *Worker) run(ctx context.Context, workerID int) {
	defer w.wg.Done()
	w.logger.Debug("notify worker started", "worker_id", workerID)

	backoff := time.Second
	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("notify worker stopping", "worker_id", workerID)
			return
		default:
		}

		messages, err := w.queue.Receive(ctx, w.cfg.receiveBatchSize, w.cfg.receiveWaitSecs)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return
			}
			w.logger.Error("failed to receive booking events", "error", err, "worker_id", workerID)
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			if backoff < 5*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		for _, msg := range messages {
			w.HandleMessage(ctx, msg)
		}
	}
}

// HandleMessage processes one queued event. Undecodable messages are dropped;
// messages whose email fails are left on the queue for redelivery.
func (w *Worker) HandleMessage(ctx context.Context, msg QueueMessage) {
	var env Envelope
	if err := json.Unmarshal([]byte(msg.Body), &env); err != nil {
		w.logger.Error("failed to decode booking event", "error", err, "msg_id", msg.ID)
		w.deleteMessage(ctx, msg.ReceiptHandle)
		return
	}
	if env.Type != EventAppointmentRequested {
		w.logger.Warn("ignoring unknown event type", "type", env.Type, "event_id", env.ID)
		w.deleteMessage(ctx, msg.ReceiptHandle)
		return
	}

	if err := w.notifyClinic(ctx, env.Payload); err != nil {
		w.cfg.metrics.ObserveNotification(w.cfg.provider, "error")
		w.logger.Error("booking notification failed", "error", err, "appointment_id", env.Payload.AppointmentID)
		return
	}
	w.cfg.metrics.ObserveNotification(w.cfg.provider, "sent")
	w.deleteMessage(ctx, msg.ReceiptHandle)
}

func (w *Worker) notifyClinic(ctx context.Context, evt AppointmentRequestedV1) error {
	cfg := clinic.DefaultConfig()
	if w.config != nil {
		loaded, err := w.config.GetConfig(ctx)
		if err != nil {
			w.logger.Warn("using default clinic config for notification", "error", err)
		} else {
			cfg = loaded
		}
	}
	if strings.TrimSpace(cfg.Email) == "" {
		return errors.New("notify: clinic email not configured")
	}
	return w.email.Send(ctx, BuildAppointmentEmail(cfg, evt))
}

func (w *Worker) deleteMessage(ctx context.Context, receiptHandle string) {
	if err := w.queue.Delete(ctx, receiptHandle); err != nil {
		w.logger.Error("failed to delete booking event", "error", err)
	}
}
