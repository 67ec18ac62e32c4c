package helpers

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"coin-dashboard/src/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logger.Logger {
	l := logger.NewLogger(nil, "test")
	l.SetOutput(io.Discard)
	return l
}

// -----------------------------------------------------------------------------

func TestFetchErrorRetryable(t *testing.T) {
	assert.True(t, (&FetchError{Status: 503}).Retryable())
	assert.True(t, (&FetchError{Status: 429}).Retryable())
	assert.False(t, (&FetchError{Status: 404}).Retryable())
	assert.True(t, (&FetchError{Transport: true, Cause: errors.New("refused")}).Retryable())
	assert.False(t, (&FetchError{Transport: true, Cause: context.Canceled}).Retryable())
}

// -----------------------------------------------------------------------------

func TestFetchErrorMessageAndUnwrap(t *testing.T) {
	fe := &FetchError{Query: "details", Identifier: "bitcoin", Status: 404, BodyError: "coin not found"}
	assert.Equal(t, "details bitcoin: status 404 (coin not found)", fe.Error())

	wrapped := errors.Join(errors.New("outer"), fe)
	got, ok := AsFetchError(wrapped)
	require.True(t, ok)
	assert.Same(t, fe, got)

	_, ok = AsFetchError(errors.New("plain"))
	assert.False(t, ok)
}

// -----------------------------------------------------------------------------

func TestRetryWithBackoffStopsOnNonRetryable(t *testing.T) {
	calls := 0
	_, err := RetryWithBackoff(context.Background(), quietLogger(), "lookup", 5, time.Millisecond,
		func(err error) bool { return false },
		func(ctx context.Context) (int, error) {
			calls++
			return 0, errors.New("nope")
		})

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

// -----------------------------------------------------------------------------

func TestRetryWithBackoffEventuallySucceeds(t *testing.T) {
	calls := 0
	res, err := RetryWithBackoff(context.Background(), quietLogger(), "lookup", 3, time.Millisecond, nil,
		func(ctx context.Context) (string, error) {
			calls++
			if calls < 3 {
				return "", errors.New("flaky")
			}
			return "ok", nil
		})

	require.NoError(t, err)
	assert.Equal(t, "ok", res)
	assert.Equal(t, 3, calls)
}

// -----------------------------------------------------------------------------

func TestRetryWithBackoffHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err := RetryWithBackoff(ctx, quietLogger(), "lookup", 5, time.Hour, nil,
		func(ctx context.Context) (int, error) {
			calls++
			cancel()
			return 0, errors.New("down")
		})

	assert.EqualError(t, err, "down")
	assert.Equal(t, 1, calls)
}

// -----------------------------------------------------------------------------

func TestErrorHandlerCountsAndWraps(t *testing.T) {
	h := NewErrorHandler(quietLogger())

	err := h.Handle(&FetchError{Query: "markets", Status: 500}, "list coins")
	var netErr *NetworkError
	assert.ErrorAs(t, err, &netErr)

	err = h.Handle(errors.New("disk"), "save theme")
	var dbErr *DatabaseError
	assert.ErrorAs(t, err, &dbErr)

	assert.Equal(t, 2, h.ErrorCount())
	h.Success()
	assert.Equal(t, 1, h.ErrorCount())

	assert.ErrorIs(t, h.Handle(context.Canceled, "list coins"), context.Canceled)
	assert.Equal(t, 1, h.ErrorCount())

	assert.NoError(t, h.Handle(nil, "noop"))
	h.ResetErrorCount()
	assert.Zero(t, h.ErrorCount())
}

// -----------------------------------------------------------------------------

func TestProxyManager(t *testing.T) {
	pm := NewProxyManager([]string{"10.0.0.1:8080", "", "socks5://10.0.0.2:1080"}, "", quietLogger())
	require.True(t, pm.HasProxies())

	first, err := pm.GetCurrentProxy()
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.1:8080", first)

	pm.RotateProxy()
	second, _ := pm.GetCurrentProxy()
	assert.Equal(t, "socks5://10.0.0.2:1080", second)

	pm.RotateProxy()
	again, _ := pm.GetCurrentProxy()
	assert.Equal(t, first, again)

	fixed := NewProxyManager(nil, "custom-agent", quietLogger())
	assert.False(t, fixed.HasProxies())
	assert.Equal(t, "custom-agent", fixed.GetUserAgent())
}
