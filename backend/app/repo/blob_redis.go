package repo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	// TTL is a backstop for blobs the sweeper never got to, e.g. after a
	// broker restart. It is read on every Put so it can follow a horizon
	// that changes at runtime. Nil or non-positive means no expiry.
	TTL func() time.Duration
}

// RedisBlobRepository keeps blobs as plain string values.
type RedisBlobRepository struct {
	rdb    *redis.Client
	prefix string
	ttl    func() time.Duration
}

func NewRedisBlobRepository(ctx context.Context, cfg RedisConfig) (*RedisBlobRepository, error) {
	rdb := redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis %s: %w", cfg.Addr, err)
	}
	return NewRedisBlobRepositoryWithClient(rdb, cfg.Prefix, cfg.TTL), nil
}

func NewRedisBlobRepositoryWithClient(rdb *redis.Client, prefix string, ttl func() time.Duration) *RedisBlobRepository {
	if prefix == "" {
		prefix = "sagiri-relay:blob:"
	}
	return &RedisBlobRepository{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (r *RedisBlobRepository) Put(ctx context.Context, key string, src io.Reader) (int64, error) {
	data, err := io.ReadAll(src)
	if err != nil {
		return int64(len(data)), fmt.Errorf("read blob: %w", err)
	}
	if err := r.rdb.Set(ctx, r.prefix+key, data, r.expiry()).Err(); err != nil {
		return 0, fmt.Errorf("redis set: %w", err)
	}
	return int64(len(data)), nil
}

func (r *RedisBlobRepository) expiry() time.Duration {
	if r.ttl == nil {
		return 0
	}
	return max(r.ttl(), 0)
}

func (r *RedisBlobRepository) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	data, err := r.rdb.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrBlobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (r *RedisBlobRepository) Delete(ctx context.Context, key string) error {
	n, err := r.rdb.Del(ctx, r.prefix+key).Result()
	if err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	if n == 0 {
		return ErrBlobNotFound
	}
	return nil
}

func (r *RedisBlobRepository) Close() error { return r.rdb.Close() }
