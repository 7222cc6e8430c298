package httpclient

import (
	"context"
	"math"
	"time"

	"docsearch/pkg/apperror"

	"github.com/samber/lo"
)

// RetryConfig defines retry behavior.
type RetryConfig struct {
	MaxAttempts         int
	BaseDelay           time.Duration
	MaxDelay            time.Duration
	BackoffMultiplier   float64
	RetryableErrorTypes []apperror.Type
}

// DefaultRetryConfig provides sensible defaults.
var DefaultRetryConfig = RetryConfig{
	MaxAttempts:       3,
	BaseDelay:         1 * time.Second,
	MaxDelay:          10 * time.Second,
	BackoffMultiplier: 2.0,
	RetryableErrorTypes: []apperror.Type{
		apperror.TypeNetwork,
		apperror.TypeTimeout,
		apperror.TypeAPI,
	},
}

// Delay is the pause after a failed attempt (1-based):
// min(BaseDelay * BackoffMultiplier^(attempt-1), MaxDelay).
func (rc RetryConfig) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := float64(rc.BaseDelay) * math.Pow(rc.BackoffMultiplier, float64(attempt-1))
	if delay > float64(rc.MaxDelay) || math.IsInf(delay, 1) {
		delay = float64(rc.MaxDelay)
	}
	return time.Duration(delay)
}

// ShouldRetry reports whether err is both of a configured retryable type and retryable itself.
func (rc RetryConfig) ShouldRetry(err *apperror.AppError) bool {
	if err == nil {
		return false
	}
	return lo.Contains(rc.RetryableErrorTypes, err.Type()) && err.Retryable()
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

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
