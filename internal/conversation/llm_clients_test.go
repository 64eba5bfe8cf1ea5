package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaClientGenerate(t *testing.T) {
	var got ollamaGenerateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(map[string]any{"response": " Hola, ¿en qué te ayudo? ", "done_reason": "stop", "eval_count": 7})
	}))
	defer srv.Close()

	client := NewOllamaLLMClient(srv.URL+"/", "llama3")
	resp, err := client.Complete(context.Background(), LLMRequest{
		System:   []string{"Sé amable"},
		Messages: []ChatMessage{{Role: ChatRoleUser, Content: "Hola"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "llama3", got.Model)
	assert.False(t, got.Stream)
	assert.Equal(t, "Instrucciones: Sé amable\n\nPregunta del Usuario: Hola", got.Prompt)
	assert.Equal(t, " Hola, ¿en qué te ayudo? ", resp.Text)
	assert.Equal(t, "ollama", resp.Backend)
	assert.Equal(t, int32(7), resp.Usage.OutputTokens)
}

func TestOllamaClientEmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"response":""}`))
	}))
	defer srv.Close()

	_, err := NewOllamaLLMClient(srv.URL, "").Complete(context.Background(), LLMRequest{
		Messages: []ChatMessage{{Role: ChatRoleUser, Content: "Hola"}},
	})
	assert.ErrorIs(t, err, ErrEmptyCompletion)
}

func TestOllamaClientErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewOllamaLLMClient(srv.URL, "missing").Complete(context.Background(), LLMRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")

	unreachable := NewOllamaLLMClient("http://127.0.0.1:1", "llama3", WithOllamaTimeout(200*time.Millisecond))
	_, err = unreachable.Complete(context.Background(), LLMRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unreachable")
}

func TestFallbackClient(t *testing.T) {
	tests := []struct {
		name         string
		primary      *stubLLM
		fallback     *stubLLM
		wantText     string
		wantErr      bool
		wantFallback int
	}{
		{
			name:     "primary ok",
			primary:  &stubLLM{resp: LLMResponse{Text: "local"}},
			fallback: &stubLLM{resp: LLMResponse{Text: "hosted"}},
			wantText: "local",
		},
		{
			name:         "primary error",
			primary:      &stubLLM{err: errors.New("refused")},
			fallback:     &stubLLM{resp: LLMResponse{Text: "hosted"}},
			wantText:     "hosted",
			wantFallback: 1,
		},
		{
			name:         "primary blank",
			primary:      &stubLLM{resp: LLMResponse{Text: " "}},
			fallback:     &stubLLM{resp: LLMResponse{Text: "hosted"}},
			wantText:     "hosted",
			wantFallback: 1,
		},
		{
			name:         "both fail",
			primary:      &stubLLM{err: errors.New("refused")},
			fallback:     &stubLLM{err: errors.New("quota")},
			wantErr:      true,
			wantFallback: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewFallbackLLMClient(tt.primary, tt.fallback, nil)
			resp, err := client.Complete(context.Background(), LLMRequest{})
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantText, resp.Text)
			}
			assert.Len(t, tt.fallback.calls, tt.wantFallback)
		})
	}
}

func TestFallbackClientWithoutFallback(t *testing.T) {
	client := NewFallbackLLMClient(&stubLLM{resp: LLMResponse{}}, nil, nil)
	_, err := client.Complete(context.Background(), LLMRequest{})
	assert.ErrorIs(t, err, ErrEmptyCompletion)
}

type fakeConverse struct {
	input *bedrockruntime.ConverseInput
	out   *bedrockruntime.ConverseOutput
	err   error
}

func (f *fakeConverse) Converse(_ context.Context, in *bedrockruntime.ConverseInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error) {
	f.input = in
	return f.out, f.err
}

func TestBedrockClientComplete(t *testing.T) {
	fake := &fakeConverse{out: &bedrockruntime.ConverseOutput{
		Output: &brtypes.ConverseOutputMemberMessage{Value: brtypes.Message{
			Role:    brtypes.ConversationRoleAssistant,
			Content: []brtypes.ContentBlock{&brtypes.ContentBlockMemberText{Value: "Claro "}},
		}},
		StopReason: brtypes.StopReasonEndTurn,
		Usage:      &brtypes.TokenUsage{InputTokens: aws.Int32(10), OutputTokens: aws.Int32(2), TotalTokens: aws.Int32(12)},
	}}
	client := NewBedrockLLMClient(fake, "anthropic.claude-3-haiku")

	resp, err := client.Complete(context.Background(), LLMRequest{
		System:      []string{"instrucciones"},
		Messages:    []ChatMessage{{Role: ChatRoleUser, Content: "Hola"}},
		Temperature: DefaultTemperature,
		TopP:        DefaultTopP,
		TopK:        DefaultTopK,
	})
	require.NoError(t, err)
	assert.Equal(t, "Claro ", resp.Text)
	assert.Equal(t, "bedrock", resp.Backend)
	assert.Equal(t, int32(12), resp.Usage.TotalTokens)

	require.NotNil(t, fake.input)
	assert.Equal(t, "anthropic.claude-3-haiku", aws.ToString(fake.input.ModelId))
	require.Len(t, fake.input.System, 1)
	require.Len(t, fake.input.Messages, 1)
	require.NotNil(t, fake.input.InferenceConfig)
	assert.Equal(t, DefaultTemperature, aws.ToFloat32(fake.input.InferenceConfig.Temperature))
	assert.Equal(t, DefaultTopP, aws.ToFloat32(fake.input.InferenceConfig.TopP))
	assert.NotNil(t, fake.input.AdditionalModelRequestFields)
}

func TestBedrockClientSendsBlankUserMessage(t *testing.T) {
	fake := &fakeConverse{out: &bedrockruntime.ConverseOutput{
		Output: &brtypes.ConverseOutputMemberMessage{Value: brtypes.Message{
			Role:    brtypes.ConversationRoleAssistant,
			Content: []brtypes.ContentBlock{&brtypes.ContentBlockMemberText{Value: "¿En qué puedo ayudarte?"}},
		}},
	}}

	resp, err := NewBedrockLLMClient(fake, "m").Complete(context.Background(), LLMRequest{
		System:   []string{"instrucciones"},
		Messages: []ChatMessage{{Role: ChatRoleUser, Content: ""}},
	})
	require.NoError(t, err)
	assert.Equal(t, "¿En qué puedo ayudarte?", resp.Text)

	require.NotNil(t, fake.input)
	require.Len(t, fake.input.Messages, 1)
	assert.Equal(t, brtypes.ConversationRoleUser, fake.input.Messages[0].Role)
	require.Len(t, fake.input.Messages[0].Content, 1)
	block, ok := fake.input.Messages[0].Content[0].(*brtypes.ContentBlockMemberText)
	require.True(t, ok)
	assert.Equal(t, " ", block.Value)
}

func TestBedrockClientErrors(t *testing.T) {
	_, err := NewBedrockLLMClient(&fakeConverse{}, "").Complete(context.Background(), LLMRequest{
		Messages: []ChatMessage{{Role: ChatRoleUser, Content: "Hola"}},
	})
	require.Error(t, err)

	fake := &fakeConverse{err: errors.New("throttled")}
	_, err = NewBedrockLLMClient(fake, "m").Complete(context.Background(), LLMRequest{
		Messages: []ChatMessage{{Role: ChatRoleUser, Content: "Hola"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "throttled")

	_, err = NewBedrockLLMClient(&fakeConverse{}, "m").Complete(context.Background(), LLMRequest{})
	require.Error(t, err)
}

func TestGeminiModelConfiguration(t *testing.T) {
	model := &genai.GenerativeModel{}
	configureGeminiModel(model, LLMRequest{
		System:      []string{"instrucciones"},
		Temperature: DefaultTemperature,
		TopP:        DefaultTopP,
		TopK:        DefaultTopK,
	})

	require.NotNil(t, model.Temperature)
	assert.Equal(t, DefaultTemperature, *model.Temperature)
	require.NotNil(t, model.TopP)
	assert.Equal(t, DefaultTopP, *model.TopP)
	require.NotNil(t, model.TopK)
	assert.Equal(t, DefaultTopK, *model.TopK)
	require.NotNil(t, model.SystemInstruction)
	assert.Equal(t, genai.Text("instrucciones"), model.SystemInstruction.Parts[0])
}

func TestGeminiResponseText(t *testing.T) {
	resp, err := geminiResponse(&genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content:      &genai.Content{Parts: []genai.Part{genai.Text("Hola "), genai.Text("Ana")}},
			FinishReason: genai.FinishReasonStop,
		}},
		UsageMetadata: &genai.UsageMetadata{TotalTokenCount: 5},
	})
	require.NoError(t, err)
	assert.Equal(t, "Hola Ana", resp.Text)
	assert.Equal(t, "gemini", resp.Backend)
	assert.Equal(t, int32(5), resp.Usage.TotalTokens)

	_, err = geminiResponse(&genai.GenerateContentResponse{})
	require.Error(t, err)
}

func TestGeminiHistorySkipsSystemAndBlank(t *testing.T) {
	history := geminiHistory([]ChatMessage{
		{Role: ChatRoleSystem, Content: "x"},
		{Role: ChatRoleUser, Content: "hola"},
		{Role: ChatRoleAssistant, Content: " "},
		{Role: ChatRoleAssistant, Content: "buenas"},
	})
	require.Len(t, history, 2)
	assert.Equal(t, "user", history[0].Role)
	assert.Equal(t, "model", history[1].Role)
}
