package services

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"github.com/custodia-labs/sercha-adaptor/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-adaptor/internal/logger"
)

// NeverRetry returns a handler that gives up on the first failure.
func NeverRetry() driven.ExceptionHandler {
	return driven.ExceptionHandlerFunc(func(context.Context, error, int) bool {
		return false
	})
}

// RetryUpTo returns a handler that retries immediately while ntries < k.
func RetryUpTo(k int) driven.ExceptionHandler {
	return driven.ExceptionHandlerFunc(func(_ context.Context, _ error, ntries int) bool {
		return ntries < k
	})
}

// BackoffPolicy defines how the backoff handler spaces out retries.
type BackoffPolicy struct {
	// MaxAttempts is the maximum number of attempts (including the first).
	// Set to 0 for unlimited retries.
	MaxAttempts int

	// InitialDelay is the wait after the first failure.
	InitialDelay time.Duration

	// MaxDelay caps the wait between attempts.
	MaxDelay time.Duration

	// Multiplier is the factor by which the delay grows after each failure.
	Multiplier float64

	// Jitter adds randomness to delays.
	// Value between 0 and 1 (e.g., 0.1 = 10% jitter).
	Jitter float64
}

// DefaultBackoffPolicy returns the policy used when no handler is given.
func DefaultBackoffPolicy() BackoffPolicy {
	return BackoffPolicy{
		MaxAttempts:  12,
		InitialDelay: 5 * time.Second,
		MaxDelay:     5 * time.Minute,
		Multiplier:   2.0,
		Jitter:       0.1,
	}
}

// Delay returns the wait after failure number ntries (1-indexed).
func (p BackoffPolicy) Delay(ntries int) time.Duration {
	if ntries <= 0 {
		return 0
	}

	delay := float64(p.InitialDelay) * math.Pow(p.Multiplier, float64(ntries-1))

	if p.MaxDelay > 0 && time.Duration(delay) > p.MaxDelay {
		delay = float64(p.MaxDelay)
	}

	if p.Jitter > 0 {
		delay += delay * p.Jitter * (rand.Float64()*2 - 1)
	}

	return time.Duration(delay)
}

// ShouldRetry returns true if another attempt should follow failure ntries.
func (p BackoffPolicy) ShouldRetry(ntries int) bool {
	if p.MaxAttempts == 0 {
		return true
	}
	return ntries < p.MaxAttempts
}

// BackoffHandler retries with exponential backoff.
type BackoffHandler struct {
	policy BackoffPolicy
}

// NewBackoffHandler creates a handler that follows policy.
func NewBackoffHandler(policy BackoffPolicy) *BackoffHandler {
	return &BackoffHandler{policy: policy}
}

// HandleException implements driven.ExceptionHandler.
// It waits before agreeing to a retry and returns false if ctx ends first.
func (h *BackoffHandler) HandleException(ctx context.Context, err error, ntries int) bool {
	if !h.policy.ShouldRetry(ntries) {
		logger.Warn("giving up after %d attempts: %v", ntries, err)
		return false
	}

	delay := h.policy.Delay(ntries)
	logger.Debug("attempt %d failed, retrying in %s: %v", ntries, delay, err)

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

var _ driven.ExceptionHandler = (*BackoffHandler)(nil)
