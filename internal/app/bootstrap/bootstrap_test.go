package bootstrap

import (
	"context"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aws/aws-sdk-go-v2/aws"

	appconfig "github.com/wolfman30/dental-premium/internal/config"
	"github.com/wolfman30/dental-premium/internal/conversation"
	"github.com/wolfman30/dental-premium/internal/docstore"
	"github.com/wolfman30/dental-premium/internal/notify"
	"github.com/wolfman30/dental-premium/pkg/logging"
)

var testAWS = aws.Config{Region: "us-east-1"}

func TestBuildRedisClient(t *testing.T) {
	logger := logging.New("error")
	if client := BuildRedisClient(context.Background(), &appconfig.Config{}, logger, true); client != nil {
		t.Fatalf("expected nil client without address")
	}

	mr := miniredis.RunT(t)
	client := BuildRedisClient(context.Background(), &appconfig.Config{RedisAddr: mr.Addr()}, logger, true)
	if client == nil {
		t.Fatalf("expected client for reachable redis")
	}
	_ = client.Close()

	if client := BuildRedisClient(context.Background(), &appconfig.Config{RedisAddr: "127.0.0.1:1"}, logger, true); client != nil {
		t.Fatalf("expected nil client when ping fails")
	}
}

func TestOpenDocStoreBackends(t *testing.T) {
	logger := logging.New("error")
	ctx := context.Background()

	store, cleanup, err := OpenDocStore(ctx, &appconfig.Config{}, testAWS, logger)
	if err != nil {
		t.Fatalf("memory store: %v", err)
	}
	cleanup()
	if _, ok := store.(*docstore.MemoryStore); !ok {
		t.Fatalf("expected MemoryStore, got %T", store)
	}

	mr := miniredis.RunT(t)
	store, cleanup, err = OpenDocStore(ctx, &appconfig.Config{StoreBackend: appconfig.StoreRedis, RedisAddr: mr.Addr()}, testAWS, logger)
	if err != nil {
		t.Fatalf("redis store: %v", err)
	}
	defer cleanup()
	if _, ok := store.(*docstore.RedisStore); !ok {
		t.Fatalf("expected RedisStore, got %T", store)
	}

	store, _, err = OpenDocStore(ctx, &appconfig.Config{StoreBackend: appconfig.StoreDynamoDB, DynamoDBTable: "docs"}, testAWS, logger)
	if err != nil {
		t.Fatalf("dynamodb store: %v", err)
	}
	if _, ok := store.(*docstore.DynamoStore); !ok {
		t.Fatalf("expected DynamoStore, got %T", store)
	}
}

func TestOpenDocStoreErrors(t *testing.T) {
	logger := logging.New("error")
	cases := map[string]*appconfig.Config{
		"nil config":        nil,
		"unknown backend":   {StoreBackend: "mongo"},
		"dynamo no table":   {StoreBackend: appconfig.StoreDynamoDB},
		"postgres no url":   {StoreBackend: appconfig.StorePostgres},
		"redis unreachable": {StoreBackend: appconfig.StoreRedis, RedisAddr: "127.0.0.1:1"},
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			_, cleanup, err := OpenDocStore(context.Background(), cfg, testAWS, logger)
			if err == nil {
				t.Fatalf("expected error")
			}
			if cleanup == nil {
				t.Fatalf("cleanup must never be nil")
			}
		})
	}
}

func TestBuildCompletionChainHosted(t *testing.T) {
	cfg := &appconfig.Config{HostedProvider: ProviderBedrock, BedrockModelID: "anthropic.claude-3-haiku", CompletionBackend: appconfig.CompletionHosted}
	chain, err := BuildCompletionChain(context.Background(), cfg, testAWS, nil, logging.New("error"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer chain.Close()
	if chain.Label != ProviderBedrock {
		t.Fatalf("expected bedrock label, got %q", chain.Label)
	}
	if _, ok := chain.Client.(*conversation.BedrockLLMClient); !ok {
		t.Fatalf("expected BedrockLLMClient, got %T", chain.Client)
	}
}

func TestBuildCompletionChainLocalWrapsHosted(t *testing.T) {
	cfg := &appconfig.Config{
		CompletionBackend: appconfig.CompletionLocal,
		HostedProvider:    ProviderBedrock,
		BedrockModelID:    "m",
		OllamaBaseURL:     "http://localhost:11434",
		OllamaModel:       "gemma:2b",
	}
	chain, err := BuildCompletionChain(context.Background(), cfg, testAWS, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if chain.Label != appconfig.CompletionLocal {
		t.Fatalf("expected local label, got %q", chain.Label)
	}
	if _, ok := chain.Client.(*conversation.FallbackLLMClient); !ok {
		t.Fatalf("expected FallbackLLMClient, got %T", chain.Client)
	}
}

func TestBuildCompletionChainErrors(t *testing.T) {
	cases := map[string]*appconfig.Config{
		"nil config":       nil,
		"gemini no key":    {HostedProvider: ProviderGemini},
		"bedrock no model": {HostedProvider: ProviderBedrock},
		"unknown provider": {HostedProvider: "openai"},
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := BuildCompletionChain(context.Background(), cfg, testAWS, nil, nil); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestBuildNotifyQueue(t *testing.T) {
	q, err := BuildNotifyQueue(&appconfig.Config{}, testAWS)
	if err != nil {
		t.Fatalf("memory queue: %v", err)
	}
	if _, ok := q.(*notify.MemoryQueue); !ok {
		t.Fatalf("expected MemoryQueue, got %T", q)
	}

	q, err = BuildNotifyQueue(&appconfig.Config{NotifyQueue: QueueSQS, NotifyQueueURL: "http://localhost:4566/000000000000/bookings"}, testAWS)
	if err != nil {
		t.Fatalf("sqs queue: %v", err)
	}
	if _, ok := q.(*notify.SQSQueue); !ok {
		t.Fatalf("expected SQSQueue, got %T", q)
	}

	q, err = BuildNotifyQueue(&appconfig.Config{NotifyQueue: QueueOff}, testAWS)
	if err != nil || q != nil {
		t.Fatalf("expected disabled queue, got %T %v", q, err)
	}

	if _, err := BuildNotifyQueue(&appconfig.Config{NotifyQueue: QueueSQS}, testAWS); err == nil {
		t.Fatalf("expected error without queue url")
	}
}

func TestBuildEmailSender(t *testing.T) {
	logger := logging.New("error")

	sender, provider, reason := BuildEmailSender(&appconfig.Config{EmailProvider: "sendgrid"}, testAWS, logger)
	if _, ok := sender.(*notify.StubEmailSender); !ok || provider != "stub" {
		t.Fatalf("expected stub fallback, got %T %q", sender, provider)
	}
	if !strings.Contains(reason, "SENDGRID_API_KEY") {
		t.Fatalf("expected reason to mention the api key, got %q", reason)
	}

	sender, provider, _ = BuildEmailSender(&appconfig.Config{EmailProvider: "sendgrid", SendGridAPIKey: "SG.test"}, testAWS, logger)
	if _, ok := sender.(*notify.SendGridSender); !ok || provider != "sendgrid" {
		t.Fatalf("expected sendgrid sender, got %T %q", sender, provider)
	}

	sender, provider, _ = BuildEmailSender(&appconfig.Config{EmailProvider: "ses", EmailFrom: "citas@dentalpremium.pe"}, testAWS, logger)
	if _, ok := sender.(*notify.SESSender); !ok || provider != "ses" {
		t.Fatalf("expected ses sender, got %T %q", sender, provider)
	}
}
