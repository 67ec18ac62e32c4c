package cache

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"coin-dashboard/src/logger"
	"coin-dashboard/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logger.Logger {
	l := logger.NewLogger(nil, "cache-test")
	l.SetOutput(io.Discard)
	return l
}

// -----------------------------------------------------------------------------

func TestKeySortsParams(t *testing.T) {
	a := Key("/coins/markets", map[string]string{"vs_currency": "usd", "page": "1", "order": "market_cap_desc"})
	b := Key("/coins/markets", map[string]string{"order": "market_cap_desc", "page": "1", "vs_currency": "usd"})
	assert.Equal(t, a, b)
	assert.Equal(t, "/coins/markets?order=market_cap_desc&page=1&vs_currency=usd", a)
	assert.Equal(t, "/global", Key("/global", nil))
}

// -----------------------------------------------------------------------------

func TestMemoryBackendTTLAndPrefix(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryBackend()
	now := time.Now()
	m.now = func() time.Time { return now }

	require.NoError(t, m.Set(ctx, "/coins/bitcoin", []byte("a"), time.Minute))
	require.NoError(t, m.Set(ctx, "/coins/markets?page=1", []byte("b"), 0))
	require.NoError(t, m.Set(ctx, "/global", []byte("c"), 0))

	v, ok, err := m.Get(ctx, "/coins/bitcoin")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "a", string(v))

	now = now.Add(2 * time.Minute)
	_, ok, _ = m.Get(ctx, "/coins/bitcoin")
	assert.False(t, ok)

	n, err := m.DeletePrefix(ctx, "/coins")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, m.Len())
}

// -----------------------------------------------------------------------------

func TestMemoryBackendCopiesValues(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryBackend()
	src := []byte("abc")
	require.NoError(t, m.Set(ctx, "k", src, 0))
	src[0] = 'x'

	got, _, _ := m.Get(ctx, "k")
	got[1] = 'y'
	again, _, _ := m.Get(ctx, "k")
	assert.Equal(t, "abc", string(again))
}

// -----------------------------------------------------------------------------

func TestFetchCoalescesConcurrentCalls(t *testing.T) {
	qc := NewQueryCache(NewMemoryBackend(), 0, quietLogger())

	var calls int32
	release := make(chan struct{})
	fetch := func(ctx context.Context) ([]byte, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return []byte(`[1,2,3]`), nil
	}

	var wg sync.WaitGroup
	results := make([][]byte, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			data, err := qc.Fetch(context.Background(), "/coins/markets?page=1", fetch)
			assert.NoError(t, err)
			results[i] = data
		}(i)
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	// A straggler that missed the flight is served from the stored result
	late, err := qc.Fetch(context.Background(), "/coins/markets?page=1", fetch)
	require.NoError(t, err)

	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
	assert.Equal(t, results[0], results[1])
	assert.Equal(t, results[0], late)
}

// -----------------------------------------------------------------------------

func TestFetchErrorIsNotCached(t *testing.T) {
	qc := NewQueryCache(NewMemoryBackend(), 0, quietLogger())
	var calls int32
	fetch := func(ctx context.Context) ([]byte, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return nil, errors.New("boom")
		}
		return []byte("ok"), nil
	}

	_, err := qc.Fetch(context.Background(), "k", fetch)
	assert.EqualError(t, err, "boom")

	data, err := qc.Fetch(context.Background(), "k", fetch)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(data))
}

// -----------------------------------------------------------------------------

func TestInvalidateForcesRefetch(t *testing.T) {
	ctx := context.Background()
	qc := NewQueryCache(NewMemoryBackend(), 0, quietLogger())
	var calls int32
	fetch := func(ctx context.Context) ([]byte, error) {
		atomic.AddInt32(&calls, 1)
		return []byte("v"), nil
	}

	_, _ = qc.Fetch(ctx, "/global", fetch)
	_, _ = qc.Fetch(ctx, "/coins/markets?page=1", fetch)
	_, _ = qc.Fetch(ctx, "/global", fetch)
	require.EqualValues(t, 2, atomic.LoadInt32(&calls))

	require.NoError(t, qc.Invalidate(ctx, "/coins/markets"))
	_, _ = qc.Fetch(ctx, "/global", fetch)
	_, _ = qc.Fetch(ctx, "/coins/markets?page=1", fetch)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

// -----------------------------------------------------------------------------

func TestInvalidateDetachesInFlightFetch(t *testing.T) {
	ctx := context.Background()
	qc := NewQueryCache(NewMemoryBackend(), 0, quietLogger())

	started := make(chan struct{})
	release := make(chan struct{})
	var calls int32
	slow := func(ctx context.Context) ([]byte, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			close(started)
			<-release
			return []byte("stale"), nil
		}
		return []byte("fresh"), nil
	}

	done := make(chan []byte)
	go func() {
		data, _ := qc.Fetch(ctx, "/global", slow)
		done <- data
	}()
	<-started

	require.NoError(t, qc.Invalidate(ctx, "/global"))
	fresh, err := qc.Fetch(ctx, "/global", slow)
	require.NoError(t, err)
	assert.Equal(t, "fresh", string(fresh))

	close(release)
	assert.Equal(t, "stale", string(<-done))

	// The detached flight finished after invalidation and must not be stored
	again, err := qc.Fetch(ctx, "/global", slow)
	require.NoError(t, err)
	assert.Equal(t, "fresh", string(again))
}

// -----------------------------------------------------------------------------

func TestFetchHonoursCallerContext(t *testing.T) {
	qc := NewQueryCache(NewMemoryBackend(), 0, quietLogger())
	release := make(chan struct{})
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := qc.Fetch(ctx, "k", func(ctx context.Context) ([]byte, error) {
		<-release
		return nil, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

// -----------------------------------------------------------------------------

func TestRedisBackend(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()
	rb := NewRedisBackend(models.MCacheConfig{RedisAddr: addr, KeyPrefix: "coin-dashboard-test:"})
	defer rb.Close()
	require.NoError(t, rb.Ping(ctx))

	require.NoError(t, rb.Set(ctx, "/coins/a", []byte("1"), time.Minute))
	require.NoError(t, rb.Set(ctx, "/coins/b", []byte("2"), 0))
	v, ok, err := rb.Get(ctx, "/coins/a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "1", string(v))

	n, err := rb.DeletePrefix(ctx, "/coins/")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, ok, err = rb.Get(ctx, "/coins/b")
	require.NoError(t, err)
	assert.False(t, ok)
}

// -----------------------------------------------------------------------------

func TestEscapeGlob(t *testing.T) {
	assert.Equal(t, `a\*b\?c\[d\]`, escapeGlob("a*b?c[d]"))
}
