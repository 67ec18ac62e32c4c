package network

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"coin-dashboard/src/helpers"
	"coin-dashboard/src/interfaces"
	"coin-dashboard/src/logger"
	"coin-dashboard/src/models"
)

// APIKeyHeader carries the optional CoinGecko demo key.
const APIKeyHeader = "x-cg-demo-api-key"

// ErrCircuitOpen is the cause of requests rejected while the breaker is open.
var ErrCircuitOpen = errors.New("circuit breaker open")

const maxErrorBody = 64 * 1024

type AsyncNetworkManager struct {
	Config       *models.MConfig
	ProxyManager interfaces.IProxyManager
	Limiter      *RateLimiter
	Breaker      *CircuitBreaker
	Logger       *logger.Logger
	BaseDelay    time.Duration // first retry delay, doubled per attempt

	mu     sync.RWMutex
	client *http.Client
	sem    chan struct{}
}

// -----------------------------------------------------------------------------

func NewAsyncNetworkManager(cfg *models.MConfig, log *logger.Logger) *AsyncNetworkManager {
	var proxies []string
	if cfg.Network.Enabled {
		proxies = cfg.Network.Proxies
	}

	concurrent := cfg.Network.ConcurrentRequests
	if concurrent < 1 {
		concurrent = 1
	}

	nm := &AsyncNetworkManager{
		Config:       cfg,
		ProxyManager: helpers.NewProxyManager(proxies, cfg.Network.UserAgent, log.Named("ProxyManager")),
		Limiter:      NewRateLimiter(cfg.Network.RateLimitBurst, cfg.Network.RateLimitPerSecond),
		Breaker: NewCircuitBreaker(CircuitBreakerConfig{
			Name:             "coingecko",
			FailureThreshold: cfg.Network.BreakerFailureThreshold,
			SuccessThreshold: 1,
			Timeout:          time.Duration(cfg.Network.BreakerTimeoutSeconds) * time.Second,
		}, log.Named("CircuitBreaker")),
		Logger:    log,
		BaseDelay: time.Second,
		sem:       make(chan struct{}, concurrent),
	}
	nm.client = nm.createClient()
	return nm
}

// -----------------------------------------------------------------------------

func (nm *AsyncNetworkManager) createClient() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	if nm.ProxyManager.HasProxies() {
		proxyStr, err := nm.ProxyManager.GetCurrentProxy()
		if err == nil && proxyStr != "" {
			proxyURL, err := url.Parse(proxyStr)
			if err == nil {
				transport.Proxy = http.ProxyURL(proxyURL)
			}
		}
	}

	return &http.Client{
		Transport: transport,
		Timeout:   time.Duration(nm.Config.Network.RequestTimeout) * time.Second,
	}
}

// -----------------------------------------------------------------------------

func (nm *AsyncNetworkManager) httpClient() *http.Client {
	nm.mu.RLock()
	defer nm.mu.RUnlock()
	return nm.client
}

// -----------------------------------------------------------------------------

func (nm *AsyncNetworkManager) rotateProxy() {
	if !nm.ProxyManager.HasProxies() {
		return
	}

	nm.ProxyManager.RotateProxy()
	client := nm.createClient()
	nm.mu.Lock()
	nm.client = client
	nm.mu.Unlock()
}

// -----------------------------------------------------------------------------

// Get performs a GET request with rate limiting, retries and proxy rotation.
// Transport errors, 429 and 5xx are retried; any other status is returned at once.
func (nm *AsyncNetworkManager) Get(ctx context.Context, urlStr string, params map[string]string) ([]byte, error) {
	reqURL, err := url.Parse(urlStr)
	if err != nil {
		return nil, &helpers.FetchError{URL: urlStr, Cause: err}
	}

	q := reqURL.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	reqURL.RawQuery = q.Encode()
	finalURL := reqURL.String()

	maxRetries := nm.Config.Network.MaxRetries
	var lastErr *helpers.FetchError

	for i := 0; i <= maxRetries; i++ {
		if i > 0 {
			if err := sleepContext(ctx, CalculateBackoff(nm.BaseDelay, i-1)); err != nil {
				return nil, &helpers.FetchError{URL: finalURL, Transport: true, Cause: err}
			}
			nm.rotateProxy()
		}

		body, fetchErr := nm.do(ctx, finalURL)
		if fetchErr == nil {
			return body, nil
		}

		lastErr = fetchErr
		if !fetchErr.Retryable() || errors.Is(fetchErr.Cause, ErrCircuitOpen) || ctx.Err() != nil {
			return nil, fetchErr
		}
		nm.Logger.Info("Request to %s failed (attempt %d/%d): %v", reqURL.Path, i+1, maxRetries+1, fetchErr)
	}

	return nil, lastErr
}

// -----------------------------------------------------------------------------

// do issues a single attempt.
func (nm *AsyncNetworkManager) do(ctx context.Context, finalURL string) ([]byte, *helpers.FetchError) {
	if !nm.Breaker.Allow() {
		return nil, &helpers.FetchError{URL: finalURL, Status: http.StatusServiceUnavailable, Cause: ErrCircuitOpen}
	}
	if err := nm.Limiter.Wait(ctx); err != nil {
		return nil, &helpers.FetchError{URL: finalURL, Transport: true, Cause: err}
	}

	select {
	case nm.sem <- struct{}{}:
		defer func() { <-nm.sem }()
	case <-ctx.Done():
		return nil, &helpers.FetchError{URL: finalURL, Transport: true, Cause: ctx.Err()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, finalURL, nil)
	if err != nil {
		return nil, &helpers.FetchError{URL: finalURL, Cause: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", nm.ProxyManager.GetUserAgent())
	if key := nm.Config.MarketData.APIKey; key != "" {
		req.Header.Set(APIKeyHeader, key)
	}

	resp, err := nm.httpClient().Do(req)
	if err != nil {
		if ctx.Err() == nil {
			nm.Breaker.RecordFailure()
		}
		return nil, &helpers.FetchError{URL: finalURL, Transport: true, Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			nm.Breaker.RecordFailure()
		} else {
			nm.Breaker.RecordSuccess()
		}
		return nil, &helpers.FetchError{
			URL:       finalURL,
			Status:    resp.StatusCode,
			BodyError: parseErrorBody(raw),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		nm.Breaker.RecordFailure()
		return nil, &helpers.FetchError{URL: finalURL, Transport: true, Cause: fmt.Errorf("read body: %w", err)}
	}

	nm.Breaker.RecordSuccess()
	return body, nil
}

// -----------------------------------------------------------------------------

// parseErrorBody extracts the upstream error message from either
// {"error": "..."} or {"status": {"error_message": "..."}}.
func parseErrorBody(raw []byte) string {
	var payload struct {
		Error  json.RawMessage `json:"error"`
		Status struct {
			ErrorMessage string `json:"error_message"`
		} `json:"status"`
	}
	if len(raw) == 0 || json.Unmarshal(raw, &payload) != nil {
		return ""
	}

	if len(payload.Error) > 0 {
		var msg string
		if json.Unmarshal(payload.Error, &msg) == nil {
			return msg
		}
	}
	return payload.Status.ErrorMessage
}

// -----------------------------------------------------------------------------

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
