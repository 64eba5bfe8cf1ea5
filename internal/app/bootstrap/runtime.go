package bootstrap

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/wolfman30/dental-premium/internal/config"
	"github.com/wolfman30/dental-premium/internal/docstore"
	"github.com/wolfman30/dental-premium/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	opts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(opts)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "addr", cfg.RedisAddr, "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// OpenDocStore picks the document store backend named by STORE_BACKEND. The
// returned cleanup func releases the backend's connections and is never nil.
func OpenDocStore(ctx context.Context, cfg *appconfig.Config, awsCfg aws.Config, logger *logging.Logger) (docstore.Store, func(), error) {
	noop := func() {}
	if cfg == nil {
		return nil, noop, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	switch cfg.StoreBackend {
	case "", appconfig.StoreMemory:
		logger.Warn("using in-memory document store; data is lost on restart")
		return docstore.NewMemoryStore(), noop, nil

	case appconfig.StoreRedis:
		client := BuildRedisClient(ctx, cfg, logger, true)
		if client == nil {
			return nil, noop, fmt.Errorf("bootstrap: redis store: %s unreachable", cfg.RedisAddr)
		}
		logger.Info("document store ready", "backend", cfg.StoreBackend, "addr", cfg.RedisAddr)
		return docstore.NewRedisStore(client), func() { _ = client.Close() }, nil

	case appconfig.StoreDynamoDB:
		if strings.TrimSpace(cfg.DynamoDBTable) == "" {
			return nil, noop, fmt.Errorf("bootstrap: dynamodb store: DYNAMODB_TABLE is required")
		}
		logger.Info("document store ready", "backend", cfg.StoreBackend, "table", cfg.DynamoDBTable)
		return docstore.NewDynamoStore(dynamodb.NewFromConfig(awsCfg), cfg.DynamoDBTable), noop, nil

	case appconfig.StorePostgres:
		if strings.TrimSpace(cfg.DatabaseURL) == "" {
			return nil, noop, fmt.Errorf("bootstrap: postgres store: DATABASE_URL is required")
		}
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, noop, fmt.Errorf("bootstrap: postgres store: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, noop, fmt.Errorf("bootstrap: postgres store: ping: %w", err)
		}
		logger.Info("document store ready", "backend", cfg.StoreBackend)
		return docstore.NewPostgresStore(pool), pool.Close, nil

	default:
		return nil, noop, fmt.Errorf("bootstrap: unknown STORE_BACKEND %q", cfg.StoreBackend)
	}
}
