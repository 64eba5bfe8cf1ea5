package conversation

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/wolfman30/dental-premium/internal/observability/metrics"
	"github.com/wolfman30/dental-premium/pkg/logging"
)

// FallbackLLMClient wraps a primary LLM client with a fallback provider.
// A primary that errors or answers with blank text is treated as failed.
type FallbackLLMClient struct {
	primary  LLMClient
	fallback LLMClient
	logger   *logging.Logger
}

// NewFallbackLLMClient creates a new fallback-enabled LLM client.
// If fallback is nil, the client will only use the primary provider.
func NewFallbackLLMClient(primary, fallback LLMClient, logger *logging.Logger) *FallbackLLMClient {
	if primary == nil {
		panic("conversation: primary llm client cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &FallbackLLMClient{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (c *FallbackLLMClient) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	resp, err := c.primary.Complete(ctx, req)
	if err == nil && strings.TrimSpace(resp.Text) == "" {
		err = ErrEmptyCompletion
	}
	if err == nil {
		return resp, nil
	}

	c.logger.Warn("primary LLM failed, attempting fallback",
		"error", err.Error(),
		"fallback_available", c.fallback != nil,
	)
	if c.fallback == nil {
		return LLMResponse{}, err
	}

	fallbackResp, fallbackErr := c.fallback.Complete(ctx, req)
	if fallbackErr != nil {
		c.logger.Error("fallback LLM also failed",
			"primary_error", err.Error(),
			"fallback_error", fallbackErr.Error(),
		)
		return LLMResponse{}, fallbackErr
	}

	c.logger.Info("fallback LLM succeeded after primary failure", "backend", fallbackResp.Backend)
	return fallbackResp, nil
}

// instrumentedClient records completion latency per backend.
type instrumentedClient struct {
	next    LLMClient
	backend string
	metrics *metrics.ChatMetrics
}

// Instrument wraps client so every call is observed under the backend label.
func Instrument(client LLMClient, backend string, m *metrics.ChatMetrics) LLMClient {
	if client == nil || m == nil {
		return client
	}
	return &instrumentedClient{next: client, backend: backend, metrics: m}
}

func (c *instrumentedClient) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	start := time.Now()
	resp, err := c.next.Complete(ctx, req)
	status := "ok"
	switch {
	case errors.Is(err, ErrEmptyCompletion):
		status = "empty"
	case err != nil:
		status = "error"
	case strings.TrimSpace(resp.Text) == "":
		status = "empty"
	}
	c.metrics.ObserveCompletion(c.backend, status, time.Since(start).Seconds())
	return resp, err
}
