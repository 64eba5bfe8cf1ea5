package docstore

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const redisKeyPrefix = "docstore:"

// updateIfExists replaces a hash field only when it is already present.
var updateIfExists = redis.NewScript(`
if redis.call("HEXISTS", KEYS[1], ARGV[1]) == 1 then
	redis.call("HSET", KEYS[1], ARGV[1], ARGV[2])
	return 1
end
return 0
`)

// RedisStore keeps each collection in a single Redis hash keyed by document id.
type RedisStore struct {
	redis  *redis.Client
	tracer trace.Tracer
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client) *RedisStore {
	if client == nil {
		panic("docstore: redis client cannot be nil")
	}
	return &RedisStore{
		redis:  client,
		tracer: otel.Tracer("dental.internal.docstore.redis"),
	}
}

func (s *RedisStore) Get(ctx context.Context, collection, id string) (Document, error) {
	if err := validateKey(collection, id); err != nil {
		return Document{}, err
	}
	ctx, span := s.tracer.Start(ctx, "docstore.redis.get")
	defer span.End()

	raw, err := s.redis.HGet(ctx, redisKey(collection), id).Bytes()
	if err == redis.Nil {
		return Document{}, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		return Document{}, fmt.Errorf("docstore: redis get %s/%s: %w", collection, id, err)
	}
	return Document{ID: id, Data: raw}, nil
}

func (s *RedisStore) List(ctx context.Context, collection string) ([]Document, error) {
	ctx, span := s.tracer.Start(ctx, "docstore.redis.list")
	defer span.End()

	all, err := s.redis.HGetAll(ctx, redisKey(collection)).Result()
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("docstore: redis list %s: %w", collection, err)
	}
	docs := make([]Document, 0, len(all))
	for id, data := range all {
		docs = append(docs, Document{ID: id, Data: []byte(data)})
	}
	sortByID(docs)
	return docs, nil
}

func (s *RedisStore) Create(ctx context.Context, collection, id string, value any) error {
	data, err := s.prepare(collection, id, value)
	if err != nil {
		return err
	}
	ctx, span := s.tracer.Start(ctx, "docstore.redis.create")
	defer span.End()

	ok, err := s.redis.HSetNX(ctx, redisKey(collection), id, data).Result()
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("docstore: redis create %s/%s: %w", collection, id, err)
	}
	if !ok {
		return ErrAlreadyExists
	}
	return nil
}

func (s *RedisStore) Put(ctx context.Context, collection, id string, value any) error {
	data, err := s.prepare(collection, id, value)
	if err != nil {
		return err
	}
	ctx, span := s.tracer.Start(ctx, "docstore.redis.put")
	defer span.End()

	if err := s.redis.HSet(ctx, redisKey(collection), id, data).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("docstore: redis put %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *RedisStore) Update(ctx context.Context, collection, id string, value any) error {
	data, err := s.prepare(collection, id, value)
	if err != nil {
		return err
	}
	ctx, span := s.tracer.Start(ctx, "docstore.redis.update")
	defer span.End()

	updated, err := updateIfExists.Run(ctx, s.redis, []string{redisKey(collection)}, id, data).Int()
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("docstore: redis update %s/%s: %w", collection, id, err)
	}
	if updated == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, collection, id string) error {
	if err := validateKey(collection, id); err != nil {
		return err
	}
	ctx, span := s.tracer.Start(ctx, "docstore.redis.delete")
	defer span.End()

	if err := s.redis.HDel(ctx, redisKey(collection), id).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("docstore: redis delete %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *RedisStore) prepare(collection, id string, value any) ([]byte, error) {
	if err := validateKey(collection, id); err != nil {
		return nil, err
	}
	return encode(value)
}

func redisKey(collection string) string {
	return redisKeyPrefix + collection
}
