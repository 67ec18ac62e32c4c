package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"coin-dashboard/src/models"

	"github.com/redis/go-redis/v9"
)

const scanBatch = 200

// RedisBackend shares cached responses between dashboard instances.
type RedisBackend struct {
	RDB       *redis.Client
	keyPrefix string
}

// -----------------------------------------------------------------------------

func NewRedisBackend(cfg models.MCacheConfig) *RedisBackend {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	return &RedisBackend{RDB: rdb, keyPrefix: cfg.KeyPrefix}
}

// -----------------------------------------------------------------------------

// Ping verifies the server is reachable.
func (r *RedisBackend) Ping(ctx context.Context) error {
	if err := r.RDB.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (r *RedisBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := r.RDB.Get(ctx, r.keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, true, nil
}

// -----------------------------------------------------------------------------

func (r *RedisBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if err := r.RDB.Set(ctx, r.keyPrefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (r *RedisBackend) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	pattern := escapeGlob(r.keyPrefix+prefix) + "*"
	iter := r.RDB.Scan(ctx, 0, pattern, scanBatch).Iterator()

	deleted := 0
	batch := make([]string, 0, scanBatch)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := r.RDB.Del(ctx, batch...).Result()
		if err != nil {
			return fmt.Errorf("redis del: %w", err)
		}
		deleted += int(n)
		batch = batch[:0]
		return nil
	}

	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == scanBatch {
			if err := flush(); err != nil {
				return deleted, err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return deleted, fmt.Errorf("redis scan: %w", err)
	}
	return deleted, flush()
}

// -----------------------------------------------------------------------------

func (r *RedisBackend) Close() error {
	return r.RDB.Close()
}

// -----------------------------------------------------------------------------

// escapeGlob quotes the characters SCAN MATCH treats specially.
func escapeGlob(s string) string {
	var b strings.Builder
	for _, c := range s {
		switch c {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(c)
	}
	return b.String()
}
