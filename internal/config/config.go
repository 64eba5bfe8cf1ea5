package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Store backends accepted by STORE_BACKEND.
const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StoreDynamoDB = "dynamodb"
	StorePostgres = "postgres"
)

// Completion backends accepted by COMPLETION_BACKEND.
const (
	CompletionLocal  = "local"
	CompletionHosted = "hosted"
)

// Config holds application configuration
type Config struct {
	Port      string
	Env       string
	LogLevel  string
	StaticDir string

	// Document store
	StoreBackend  string
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool
	DynamoDBTable string

	// AWS
	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string

	// Completion backends
	CompletionBackend string
	HostedProvider    string
	GeminiAPIKey      string
	GeminiModelID     string
	BedrockModelID    string
	OllamaBaseURL     string
	OllamaModel       string
	OllamaTimeout     time.Duration
	FallbackPhone     string

	// Admin auth
	AdminJWTSecret     string
	AdminTokenTTL      time.Duration
	AdminEmail         string
	AdminPassword      string
	LoginRatePerSec    float64
	LoginBurst         int
	CORSAllowedOrigins []string

	// Booking notifications
	NotifyQueue    string
	NotifyQueueURL string
	EmailProvider  string
	SendGridAPIKey string
	EmailFrom      string
	EmailFromName  string

	DefaultPhoneRegion string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:      getEnv("PORT", "8080"),
		Env:       getEnv("ENV", "development"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		StaticDir: getEnv("STATIC_DIR", ""),

		StoreBackend:  strings.ToLower(strings.TrimSpace(getEnv("STORE_BACKEND", StoreMemory))),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),
		DynamoDBTable: getEnv("DYNAMODB_TABLE", "dental_documents"),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),

		CompletionBackend: strings.ToLower(strings.TrimSpace(getEnv("COMPLETION_BACKEND", CompletionHosted))),
		HostedProvider:    strings.ToLower(strings.TrimSpace(getEnv("HOSTED_PROVIDER", "gemini"))),
		GeminiAPIKey:      getEnv("GEMINI_API_KEY", getEnv("API_KEY", "")),
		GeminiModelID:     getEnv("GEMINI_MODEL_ID", "gemini-2.5-flash"),
		BedrockModelID:    getEnv("BEDROCK_MODEL_ID", ""),
		OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
		OllamaModel:       getEnv("OLLAMA_MODEL", "gemma:2b"),
		OllamaTimeout:     getEnvAsDuration("OLLAMA_TIMEOUT", 20*time.Second),
		FallbackPhone:     getEnv("FALLBACK_PHONE", getEnv("PHONE", "+51 987 654 321")),

		AdminJWTSecret:     getEnv("ADMIN_JWT_SECRET", ""),
		AdminTokenTTL:      getEnvAsDuration("ADMIN_TOKEN_TTL", 12*time.Hour),
		AdminEmail:         getEnv("ADMIN_EMAIL", ""),
		AdminPassword:      getEnv("ADMIN_PASSWORD", ""),
		LoginRatePerSec:    getEnvAsFloat("LOGIN_RATE_PER_SEC", 0.2),
		LoginBurst:         getEnvAsInt("LOGIN_BURST", 5),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", nil),

		NotifyQueue:    strings.ToLower(strings.TrimSpace(getEnv("NOTIFY_QUEUE", "memory"))),
		NotifyQueueURL: getEnv("NOTIFY_QUEUE_URL", ""),
		EmailProvider:  strings.ToLower(strings.TrimSpace(getEnv("EMAIL_PROVIDER", "stub"))),
		SendGridAPIKey: getEnv("SENDGRID_API_KEY", ""),
		EmailFrom:      getEnv("EMAIL_FROM", "no-reply@dentalpremium.pe"),
		EmailFromName:  getEnv("EMAIL_FROM_NAME", "Dental Premium"),

		DefaultPhoneRegion: strings.ToUpper(getEnv("DEFAULT_PHONE_REGION", "PE")),
	}
}

// UsesLocalCompletion reports whether the local backend should be tried first.
func (c *Config) UsesLocalCompletion() bool {
	return c.CompletionBackend == CompletionLocal
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma separated variable, dropping blanks.
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(valueStr, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
