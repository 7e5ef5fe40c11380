package memory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisBackend stores memory blobs as plain Redis string values under RedisPrefix+namespace
type RedisBackend struct {
	client *redis.Client
	prefix string
}

// NewRedisBackend connects to Redis and verifies the connection
func NewRedisBackend(config *Config) (*RedisBackend, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     config.RedisURL,
		Password: config.RedisPassword,
		DB:       config.RedisDB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	prefix := config.RedisPrefix
	if prefix == "" {
		prefix = "hades:memory:"
	}

	return &RedisBackend{client: client, prefix: prefix}, nil
}

// Blob returns the blob for namespace
func (b *RedisBackend) Blob(namespace string) BlobStore {
	return &redisBlob{client: b.client, key: b.prefix + sanitizeNamespace(namespace)}
}

// Close closes the Redis client
func (b *RedisBackend) Close() error {
	return b.client.Close()
}

type redisBlob struct {
	client *redis.Client
	key    string
}

func (s *redisBlob) Load(ctx context.Context) ([]byte, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrBlobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read memory blob: %w", err)
	}
	return data, nil
}

func (s *redisBlob) Save(ctx context.Context, data []byte) error {
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to write memory blob: %w", err)
	}
	return nil
}
