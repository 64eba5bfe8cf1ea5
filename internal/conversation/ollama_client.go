package conversation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultOllamaTimeout = 20 * time.Second

// OllamaLLMClient talks to a local Ollama server over its generate API.
type OllamaLLMClient struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// OllamaOption customises an OllamaLLMClient.
type OllamaOption func(*OllamaLLMClient)

// WithOllamaHTTPClient overrides the HTTP client (and therefore the timeout).
func WithOllamaHTTPClient(client *http.Client) OllamaOption {
	return func(c *OllamaLLMClient) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithOllamaTimeout bounds every generate call.
func WithOllamaTimeout(timeout time.Duration) OllamaOption {
	return func(c *OllamaLLMClient) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

func NewOllamaLLMClient(baseURL, model string, opts ...OllamaOption) *OllamaLLMClient {
	c := &OllamaLLMClient{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		model:      strings.TrimSpace(model),
		httpClient: &http.Client{Timeout: defaultOllamaTimeout},
	}
	if c.baseURL == "" {
		c.baseURL = "http://localhost:11434"
	}
	if c.model == "" {
		c.model = "llama3"
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type ollamaGenerateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type ollamaGenerateResponse struct {
	Response        string `json:"response"`
	DoneReason      string `json:"done_reason"`
	PromptEvalCount int32  `json:"prompt_eval_count"`
	EvalCount       int32  `json:"eval_count"`
}

// OllamaPrompt folds the system instruction and the user question into the
// single prompt string the generate API expects.
func OllamaPrompt(system []string, message string) string {
	return "Instrucciones: " + strings.Join(system, "\n\n") + "\n\nPregunta del Usuario: " + message
}

func (c *OllamaLLMClient) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	message, _ := lastUserMessage(req.Messages)
	model := c.model
	if req.Model != "" {
		model = req.Model
	}

	body, err := json.Marshal(ollamaGenerateRequest{
		Model:  model,
		Prompt: OllamaPrompt(req.System, message),
		Stream: false,
	})
	if err != nil {
		return LLMResponse{}, fmt.Errorf("conversation: ollama encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return LLMResponse{}, fmt.Errorf("conversation: ollama build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return LLMResponse{}, fmt.Errorf("conversation: ollama unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return LLMResponse{}, fmt.Errorf("conversation: ollama status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var decoded ollamaGenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return LLMResponse{}, fmt.Errorf("conversation: ollama decode response: %w", err)
	}
	text := decoded.Response
	if strings.TrimSpace(text) == "" {
		return LLMResponse{}, fmt.Errorf("conversation: ollama: %w", ErrEmptyCompletion)
	}

	return LLMResponse{
		Text:       text,
		Backend:    "ollama",
		StopReason: decoded.DoneReason,
		Usage: TokenUsage{
			InputTokens:  decoded.PromptEvalCount,
			OutputTokens: decoded.EvalCount,
			TotalTokens:  decoded.PromptEvalCount + decoded.EvalCount,
		},
	}, nil
}
