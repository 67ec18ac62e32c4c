package helpers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"coin-dashboard/src/logger"
)

// -----------------------------------------------------------------------------
// Custom Error Types
// -----------------------------------------------------------------------------

type DashboardError struct {
	Message string
	Cause   error
}

func (e *DashboardError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *DashboardError) Unwrap() error {
	return e.Cause
}

// Distinct error types for errors.As checks
type ConfigurationError struct{ DashboardError }
type NetworkError struct{ DashboardError }
type DataSourceError struct{ DashboardError }
type DatabaseError struct{ DashboardError }
type ValidationError struct{ DashboardError }

func NewValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{DashboardError{Message: fmt.Sprintf(format, args...)}}
}

func NewDatabaseError(message string, cause error) *DatabaseError {
	return &DatabaseError{DashboardError{Message: message, Cause: cause}}
}

func NewDataSourceError(message string, cause error) *DataSourceError {
	return &DataSourceError{DashboardError{Message: message, Cause: cause}}
}

// -----------------------------------------------------------------------------
// Fetch Errors
// -----------------------------------------------------------------------------

// FetchError describes a failed upstream request. Status is 0 when no HTTP
// response was received.
type FetchError struct {
	Query      string // logical query name ("markets", "details", "chart", ...)
	Identifier string // coin id for per-coin queries
	URL        string
	Status     int
	BodyError  string // "error" field of the upstream JSON body, if any
	Transport  bool   // no response (DNS, refused, timeout, canceled)
	Cause      error
}

func (e *FetchError) Error() string {
	var b strings.Builder
	b.WriteString(e.Query)
	if e.Identifier != "" {
		b.WriteString(" ")
		b.WriteString(e.Identifier)
	}
	switch {
	case e.Transport:
		b.WriteString(": transport failure")
	case e.Status != 0:
		fmt.Fprintf(&b, ": status %d", e.Status)
	default:
		b.WriteString(": failed")
	}
	if e.BodyError != "" {
		fmt.Fprintf(&b, " (%s)", e.BodyError)
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

func (e *FetchError) Unwrap() error {
	return e.Cause
}

// Retryable reports whether re-issuing the request may succeed.
func (e *FetchError) Retryable() bool {
	if e.Transport {
		return !errors.Is(e.Cause, context.Canceled)
	}
	return e.Status == 429 || e.Status >= 500
}

// AsFetchError unwraps err into a *FetchError when it carries one.
func AsFetchError(err error) (*FetchError, bool) {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

// -----------------------------------------------------------------------------
// Retry Logic
// -----------------------------------------------------------------------------

// RetryWithBackoff attempts fn up to maxRetries times with exponential backoff.
// It stops early when ctx is done or when retryable reports false.
func RetryWithBackoff[T any](ctx context.Context, log *logger.Logger, operation string, maxRetries int, baseDelay time.Duration, retryable func(error) bool, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	if maxRetries < 1 {
		maxRetries = 1
	}

	for attempt := 0; attempt < maxRetries; attempt++ {
		res, err := fn(ctx)
		if err == nil {
			return res, nil
		}

		lastErr = err
		if attempt == maxRetries-1 || (retryable != nil && !retryable(err)) {
			break
		}

		delay := baseDelay * (1 << attempt)
		if log != nil {
			log.Warning("Attempt %d/%d failed for %s: %v. Retrying in %v", attempt+1, maxRetries, operation, err, delay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, lastErr
		case <-timer.C:
		}
	}

	return zero, lastErr
}

// -----------------------------------------------------------------------------
// Error Handler
// -----------------------------------------------------------------------------

// ErrorHandler logs failures and tracks how many happened since the last success.
type ErrorHandler struct {
	Logger                 *logger.Logger
	MaxErrorsBeforeWarning int

	mu         sync.Mutex
	errorCount int
}

func NewErrorHandler(log *logger.Logger) *ErrorHandler {
	if log == nil {
		log = logger.NewLogger(nil, "ErrorHandler")
	}
	return &ErrorHandler{
		Logger:                 log,
		MaxErrorsBeforeWarning: 10,
	}
}

// -----------------------------------------------------------------------------

func (e *ErrorHandler) ErrorCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.errorCount
}

// -----------------------------------------------------------------------------

func (e *ErrorHandler) ResetErrorCount() {
	e.mu.Lock()
	e.errorCount = 0
	e.mu.Unlock()
}

// -----------------------------------------------------------------------------

// Success decays the failure counter.
func (e *ErrorHandler) Success() {
	e.mu.Lock()
	if e.errorCount > 0 {
		e.errorCount--
	}
	e.mu.Unlock()
}

// -----------------------------------------------------------------------------

// Handle logs err under operation and wraps it into the matching error type.
// Cancellation is not counted as a failure.
func (e *ErrorHandler) Handle(err error, operation string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		e.Logger.Debug("%s canceled", operation)
		return err
	}

	e.mu.Lock()
	e.errorCount++
	count := e.errorCount
	e.mu.Unlock()

	e.Logger.Error("Error in %s: %v", operation, err)
	if count == e.MaxErrorsBeforeWarning {
		e.Logger.Warning("%d consecutive failures, upstream may be degraded", count)
	}

	if _, ok := AsFetchError(err); ok {
		return &NetworkError{DashboardError{Message: fmt.Sprintf("%s failed", operation), Cause: err}}
	}
	lower := strings.ToLower(operation)
	if strings.Contains(lower, "database") || strings.Contains(lower, "save") {
		return &DatabaseError{DashboardError{Message: fmt.Sprintf("%s failed", operation), Cause: err}}
	}
	return &DashboardError{Message: fmt.Sprintf("%s failed", operation), Cause: err}
}
