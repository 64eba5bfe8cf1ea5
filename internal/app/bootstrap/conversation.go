package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	appconfig "github.com/wolfman30/dental-premium/internal/config"
	"github.com/wolfman30/dental-premium/internal/conversation"
	"github.com/wolfman30/dental-premium/internal/observability/metrics"
	"github.com/wolfman30/dental-premium/pkg/logging"
)

// Hosted completion providers accepted by HOSTED_PROVIDER.
const (
	ProviderGemini  = "gemini"
	ProviderBedrock = "bedrock"
)

// CompletionChain is the backend chain handed to the orchestrator.
type CompletionChain struct {
	Client conversation.LLMClient
	// Label names the configured chain for metrics ("local", "gemini", "bedrock").
	Label string
	Close func()
}

// BuildCompletionChain wires the hosted backend and, when COMPLETION_BACKEND is
// "local", puts the Ollama client in front of it.
func BuildCompletionChain(ctx context.Context, cfg *appconfig.Config, awsCfg aws.Config, m *metrics.ChatMetrics, logger *logging.Logger) (CompletionChain, error) {
	if cfg == nil {
		return CompletionChain{}, errors.New("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	hosted, provider, closeFn, err := buildHostedClient(ctx, cfg, awsCfg)
	if err != nil {
		return CompletionChain{}, err
	}
	hosted = conversation.Instrument(hosted, provider, m)

	if !cfg.UsesLocalCompletion() {
		logger.Info("completion backend configured", "backend", provider)
		return CompletionChain{Client: hosted, Label: provider, Close: closeFn}, nil
	}

	local := conversation.NewOllamaLLMClient(cfg.OllamaBaseURL, cfg.OllamaModel,
		conversation.WithOllamaTimeout(cfg.OllamaTimeout))
	chain := conversation.NewFallbackLLMClient(
		conversation.Instrument(local, "ollama", m),
		hosted,
		logger.Component("completion"),
	)
	logger.Info("completion backend configured",
		"backend", appconfig.CompletionLocal,
		"ollama_url", cfg.OllamaBaseURL,
		"ollama_model", cfg.OllamaModel,
		"fallback", provider,
	)
	return CompletionChain{Client: chain, Label: appconfig.CompletionLocal, Close: closeFn}, nil
}

func buildHostedClient(ctx context.Context, cfg *appconfig.Config, awsCfg aws.Config) (conversation.LLMClient, string, func(), error) {
	switch cfg.HostedProvider {
	case "", ProviderGemini:
		client, err := conversation.NewGeminiLLMClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
		if err != nil {
			return nil, "", nil, fmt.Errorf("bootstrap: gemini: %w", err)
		}
		return client, ProviderGemini, func() { _ = client.Close() }, nil
	case ProviderBedrock:
		if cfg.BedrockModelID == "" {
			return nil, "", nil, errors.New("bootstrap: bedrock: BEDROCK_MODEL_ID is required")
		}
		client := conversation.NewBedrockLLMClient(bedrockruntime.NewFromConfig(awsCfg), cfg.BedrockModelID)
		return client, ProviderBedrock, func() {}, nil
	default:
		return nil, "", nil, fmt.Errorf("bootstrap: unknown HOSTED_PROVIDER %q", cfg.HostedProvider)
	}
}
