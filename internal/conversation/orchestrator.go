package conversation

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/wolfman30/dental-premium/internal/clinic"
	"github.com/wolfman30/dental-premium/internal/observability/metrics"
	"github.com/wolfman30/dental-premium/pkg/logging"
)

const (
	// DefaultFallbackPhone is quoted when no phone is configured.
	DefaultFallbackPhone = "+51 987 654 321"

	// EmptyReplyMessage is returned when the hosted backend answers without text.
	EmptyReplyMessage = "Lo siento, tuve un problema al procesar tu solicitud. Por favor, intenta de nuevo."

	maintenancePrefix = "Lo sentimos, nuestro asistente está en mantenimiento. Por favor llama al "

	defaultContextTimeout = 5 * time.Second
)

// MaintenanceMessage is the reply used whenever no answer can be produced.
func MaintenanceMessage(phone string) string {
	if strings.TrimSpace(phone) == "" {
		phone = DefaultFallbackPhone
	}
	return maintenancePrefix + phone
}

// ContextSource supplies the catalog and clinic configuration the instruction
// is built from.
type ContextSource interface {
	ListServices(ctx context.Context) ([]clinic.ServiceOffering, error)
	GetConfig(ctx context.Context) (clinic.Config, error)
}

// TranscriptWriter persists chat turns for the admin audit view.
type TranscriptWriter interface {
	Append(ctx context.Context, sessionID, role, content string) (TranscriptMessage, error)
}

// OrchestratorOption customises an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithFallbackPhone sets the phone quoted in the maintenance reply.
func WithFallbackPhone(phone string) OrchestratorOption {
	return func(o *Orchestrator) {
		if strings.TrimSpace(phone) != "" {
			o.fallbackPhone = strings.TrimSpace(phone)
		}
	}
}

// WithChatMetrics records response outcomes and transcript failures.
func WithChatMetrics(m *metrics.ChatMetrics) OrchestratorOption {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

// WithBackendLabel names the configured backend chain in metrics when the
// answering backend is unknown.
func WithBackendLabel(label string) OrchestratorOption {
	return func(o *Orchestrator) {
		if label != "" {
			o.backendLabel = label
		}
	}
}

// WithContextTimeout bounds the catalog and config fetch.
func WithContextTimeout(timeout time.Duration) OrchestratorOption {
	return func(o *Orchestrator) {
		if timeout > 0 {
			o.contextTimeout = timeout
		}
	}
}

// Orchestrator turns one visitor message into one reply. It never returns an
// error: every failure collapses into the maintenance message.
type Orchestrator struct {
	source         ContextSource
	llm            LLMClient
	transcripts    TranscriptWriter
	logger         *logging.Logger
	metrics        *metrics.ChatMetrics
	fallbackPhone  string
	backendLabel   string
	contextTimeout time.Duration
	tracer         trace.Tracer
}

func NewOrchestrator(source ContextSource, llm LLMClient, transcripts TranscriptWriter, logger *logging.Logger, opts ...OrchestratorOption) *Orchestrator {
	if source == nil {
		panic("conversation: context source cannot be nil")
	}
	if llm == nil {
		panic("conversation: llm client cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	o := &Orchestrator{
		source:         source,
		llm:            llm,
		transcripts:    transcripts,
		logger:         logger,
		fallbackPhone:  DefaultFallbackPhone,
		backendLabel:   "unknown",
		contextTimeout: defaultContextTimeout,
		tracer:         otel.Tracer("dental.internal.conversation"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Respond answers message for the given session.
func (o *Orchestrator) Respond(ctx context.Context, message, sessionID string) string {
	ctx, span := o.tracer.Start(ctx, "conversation.respond", trace.WithAttributes(
		attribute.String("chat.session_id", sessionID),
		attribute.Int("chat.message_length", len(message)),
	))
	defer span.End()

	services, cfg, err := o.fetchContext(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "context fetch failed")
		o.logger.Error("failed to load clinic context", "error", err, "session_id", sessionID)
		return o.fail(ctx, message, sessionID)
	}

	instruction, err := BuildSystemInstruction(services, cfg)
	if err != nil {
		span.RecordError(err)
		o.logger.Error("failed to build system instruction", "error", err)
		return o.fail(ctx, message, sessionID)
	}

	resp, err := o.llm.Complete(ctx, LLMRequest{
		System:      []string{instruction},
		Messages:    []ChatMessage{{Role: ChatRoleUser, Content: message}},
		Temperature: DefaultTemperature,
		TopP:        DefaultTopP,
		TopK:        DefaultTopK,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "completion failed")
		o.logger.Error("completion failed", "error", err, "session_id", sessionID)
		return o.fail(ctx, message, sessionID)
	}

	backend := resp.Backend
	if backend == "" {
		backend = o.backendLabel
	}
	reply := resp.Text
	outcome := "ok"
	if strings.TrimSpace(reply) == "" {
		reply = EmptyReplyMessage
		outcome = "empty"
		o.logger.Warn("backend returned empty text", "backend", backend, "session_id", sessionID)
	}
	span.SetAttributes(attribute.String("chat.backend", backend), attribute.String("chat.outcome", outcome))
	o.metrics.ObserveResponse(backend, outcome)

	o.record(ctx, sessionID, ChatRoleUser, message)
	o.record(ctx, sessionID, ChatRoleAssistant, reply)
	return reply
}

func (o *Orchestrator) fetchContext(ctx context.Context) ([]clinic.ServiceOffering, clinic.Config, error) {
	ctx, cancel := context.WithTimeout(ctx, o.contextTimeout)
	defer cancel()

	var (
		services []clinic.ServiceOffering
		cfg      clinic.Config
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		services, err = o.source.ListServices(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		cfg, err = o.source.GetConfig(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, clinic.Config{}, err
	}
	return services, cfg, nil
}

func (o *Orchestrator) fail(ctx context.Context, message, sessionID string) string {
	o.metrics.ObserveResponse(o.backendLabel, "fallback")
	o.record(ctx, sessionID, ChatRoleUser, message)
	return MaintenanceMessage(o.fallbackPhone)
}

// record writes one transcript entry. Failures are logged and counted only.
func (o *Orchestrator) record(ctx context.Context, sessionID, role, content string) {
	if o.transcripts == nil || strings.TrimSpace(sessionID) == "" {
		return
	}
	if _, err := o.transcripts.Append(ctx, sessionID, role, content); err != nil {
		o.metrics.ObserveTranscriptFailure(role)
		o.logger.Warn("failed to write chat transcript", "error", err, "session_id", sessionID, "role", role)
	}
}
