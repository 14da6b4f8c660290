package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig configures the Redis durable tier.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int

	// Bucket namespaces every key as "<bucket>:<key>".
	Bucket string

	// Retention is the Redis EXPIRE applied on write so abandoned keys do not
	// pile up. It is housekeeping only; freshness is decided by the cache TTL.
	// Zero keeps keys forever.
	Retention time.Duration
}

// RedisStore is a durable tier backed by Redis.
type RedisStore struct {
	client    *redis.Client
	bucket    string
	retention time.Duration
}

// NewRedisStore creates the client. It does not contact the server; use Ping
// to check availability at startup.
func NewRedisStore(cfg RedisConfig) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
		PoolSize:     10,
		MinIdleConns: 1,
	})

	return &RedisStore{
		client:    client,
		bucket:    cfg.Bucket,
		retention: cfg.Retention,
	}
}

// Ping checks that the server is reachable.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: redis ping: %v", ErrStore, err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: redis get %s: %v", ErrStore, key, err)
	}
	return data, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.key(key), value, s.retention).Err(); err != nil {
		return fmt.Errorf("%w: redis set %s: %v", ErrStore, key, err)
	}
	return nil
}

// Close releases the connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) key(key string) string {
	if s.bucket == "" {
		return key
	}
	return s.bucket + ":" + key
}
