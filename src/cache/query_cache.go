package cache

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"coin-dashboard/src/interfaces"
	"coin-dashboard/src/logger"
	"coin-dashboard/src/models"

	"golang.org/x/sync/singleflight"
)

// -----------------------------------------------------------------------------

// Key builds the cache key of a request: path plus its sorted, encoded params.
func Key(path string, params map[string]string) string {
	if len(params) == 0 {
		return path
	}
	values := url.Values{}
	for k, v := range params {
		values.Set(k, v)
	}
	return path + "?" + values.Encode()
}

// -----------------------------------------------------------------------------

// QueryCache caches encoded responses and coalesces identical in-flight fetches.
type QueryCache struct {
	backend interfaces.ICacheBackend
	ttl     time.Duration
	logger  *logger.Logger
	group   singleflight.Group

	mu         sync.Mutex
	inFlight   map[string]int
	generation uint64
}

// -----------------------------------------------------------------------------

func NewQueryCache(backend interfaces.ICacheBackend, ttl time.Duration, log *logger.Logger) *QueryCache {
	if log == nil {
		log = logger.NewLogger(nil, "QueryCache")
	}
	return &QueryCache{
		backend:  backend,
		ttl:      ttl,
		logger:   log,
		inFlight: make(map[string]int),
	}
}

// -----------------------------------------------------------------------------

// NewFromConfig selects the configured backend.
func NewFromConfig(ctx context.Context, cfg *models.MConfig, log *logger.Logger) (*QueryCache, error) {
	var backend interfaces.ICacheBackend
	switch cfg.Cache.Backend {
	case "redis":
		rb := NewRedisBackend(cfg.Cache)
		if err := rb.Ping(ctx); err != nil {
			rb.Close()
			return nil, err
		}
		backend = rb
	case "", "memory":
		backend = NewMemoryBackend()
	default:
		return nil, fmt.Errorf("unsupported cache backend: %q", cfg.Cache.Backend)
	}
	log.Info("Using %s cache backend (ttl %ds)", cfg.Cache.Backend, cfg.Cache.TTLSeconds)
	return NewQueryCache(backend, time.Duration(cfg.Cache.TTLSeconds)*time.Second, log), nil
}

// -----------------------------------------------------------------------------

// Fetch returns the cached payload for key, or runs fetch once for all
// concurrent callers of the same key and stores its result. Each caller gets
// its own copy of the bytes.
func (c *QueryCache) Fetch(ctx context.Context, key string, fetch func(ctx context.Context) ([]byte, error)) ([]byte, error) {
	if data, ok := c.lookup(ctx, key); ok {
		return data, nil
	}

	ch := c.group.DoChan(key, func() (interface{}, error) {
		gen := c.begin(key)
		defer c.end(key)

		// Shared by every waiter, so it must not die with the first caller
		data, err := fetch(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		if c.current(gen) {
			if err := c.backend.Set(context.WithoutCancel(ctx), key, data, c.ttl); err != nil {
				c.logger.Warning("Failed to store %s: %v", key, err)
			}
		}
		return data, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return append([]byte(nil), res.Val.([]byte)...), nil
	}
}

// -----------------------------------------------------------------------------

func (c *QueryCache) lookup(ctx context.Context, key string) ([]byte, bool) {
	data, ok, err := c.backend.Get(ctx, key)
	if err != nil {
		c.logger.Warning("Cache read %s failed: %v", key, err)
		return nil, false
	}
	return data, ok
}

// -----------------------------------------------------------------------------

func (c *QueryCache) begin(key string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inFlight[key]++
	return c.generation
}

func (c *QueryCache) end(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inFlight[key]--; c.inFlight[key] <= 0 {
		delete(c.inFlight, key)
	}
}

func (c *QueryCache) current(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation == gen
}

// -----------------------------------------------------------------------------

// Invalidate drops stored entries under each prefix and detaches matching
// in-flight fetches, so the next Fetch goes to the network.
func (c *QueryCache) Invalidate(ctx context.Context, prefixes ...string) error {
	c.mu.Lock()
	c.generation++
	var forget []string
	for key := range c.inFlight {
		for _, p := range prefixes {
			if strings.HasPrefix(key, p) {
				forget = append(forget, key)
				break
			}
		}
	}
	c.mu.Unlock()

	for _, key := range forget {
		c.group.Forget(key)
	}

	for _, p := range prefixes {
		n, err := c.backend.DeletePrefix(ctx, p)
		if err != nil {
			return fmt.Errorf("invalidate %q: %w", p, err)
		}
		c.logger.Debug("Invalidated %d entries under %q", n, p)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (c *QueryCache) Close() error {
	return c.backend.Close()
}
