package ecfr

import (
	"context"
	"sync"
	"time"
)

// RateLimiter enforces a minimum delay between remote calls. The delay
// doubles on every throttling signal (capped at the max delay) and drops
// back to the base delay after the next successful wait.
type RateLimiter struct {
	mu           sync.Mutex
	baseDelay    time.Duration
	maxDelay     time.Duration
	currentDelay time.Duration
	lastCall     time.Time

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewRateLimiter creates a limiter starting at baseDelay.
func NewRateLimiter(baseDelay, maxDelay time.Duration) *RateLimiter {
	if maxDelay < baseDelay {
		maxDelay = baseDelay
	}
	return &RateLimiter{
		baseDelay:    baseDelay,
		maxDelay:     maxDelay,
		currentDelay: baseDelay,
		now:          time.Now,
		sleep:        sleepContext,
	}
}

// Wait blocks until currentDelay has elapsed since the previous call, then
// records the call and resets the delay to base.
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.lastCall.IsZero() {
		if remaining := r.currentDelay - r.now().Sub(r.lastCall); remaining > 0 {
			if err := r.sleep(ctx, remaining); err != nil {
				return err
			}
		}
	}

	r.lastCall = r.now()
	r.currentDelay = r.baseDelay
	return nil
}

// HandleError doubles the current delay, capped at the max delay.
func (r *RateLimiter) HandleError() {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := r.currentDelay * 2
	if next > r.maxDelay || next <= 0 {
		next = r.maxDelay
	}
	r.currentDelay = next
}

// CurrentDelay returns the delay the next Wait will enforce.
func (r *RateLimiter) CurrentDelay() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.currentDelay
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
