package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/okian/reviewdesk/internal/domain/state"
)

const redisPingTimeout = 5 * time.Second

// RedisStore keeps the encoded document under a single key.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore connects and pings the server.
func NewRedisStore(ctx context.Context, addr, password string, db int, key string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return NewRedisStoreFromClient(client, key), nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(client *redis.Client, key string) *RedisStore {
	if key == "" {
		key = defaultSettings().redisKey
	}
	return &RedisStore{client: client, key: key}
}

func (s *RedisStore) Name() string { return BackendRedis }

func (s *RedisStore) Load(ctx context.Context) (*state.Document, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", s.key, err)
	}
	doc, err := state.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptDocument, err)
	}
	return doc, nil
}

func (s *RedisStore) Save(ctx context.Context, doc *state.Document) error {
	data, err := state.Encode(doc)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", s.key, err)
	}
	return nil
}

func (s *RedisStore) Close() error { return s.client.Close() }
