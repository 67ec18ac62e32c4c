package network

import "time"

const maxBackoff = 60 * time.Second

// CalculateBackoff returns base * 2^retryCount, capped at maxBackoff.
// A negative retryCount returns base.
func CalculateBackoff(base time.Duration, retryCount int) time.Duration {
	if retryCount < 0 {
		return base
	}
	// 2^30 seconds is far beyond the cap
	if retryCount > 30 {
		return maxBackoff
	}

	backoff := base * time.Duration(1<<retryCount)
	if backoff > maxBackoff || backoff <= 0 {
		return maxBackoff
	}
	return backoff
}
