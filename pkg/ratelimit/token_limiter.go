package ratelimit

import (
	"context"
	"sync"
	"time"
)

// TokenLimiter limits token consumption per minute with a sliding window.
// Used to stay under model-provider token budgets.
type TokenLimiter struct {
	mu        sync.Mutex
	maxTokens int
	used      int
	windowEnd time.Time
}

// NewTokenLimiter creates a limiter allowing maxTokensPerMinute tokens.
func NewTokenLimiter(maxTokensPerMinute int) *TokenLimiter {
	return &TokenLimiter{
		maxTokens: maxTokensPerMinute,
		windowEnd: time.Now().Add(time.Minute),
	}
}

// GetRemaining returns the tokens still available in the current window.
func (t *TokenLimiter) GetRemaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rotate()
	return t.maxTokens - t.used
}

// Wait blocks until n tokens are available, then consumes them. Requests
// larger than the whole budget are allowed through alone.
func (t *TokenLimiter) Wait(ctx context.Context, n int) error {
	for {
		t.mu.Lock()
		t.rotate()
		if t.used+n <= t.maxTokens || n > t.maxTokens {
			t.used += n
			t.mu.Unlock()
			return nil
		}
		wait := time.Until(t.windowEnd)
		t.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

func (t *TokenLimiter) rotate() {
	now := time.Now()
	if now.After(t.windowEnd) {
		t.used = 0
		t.windowEnd = now.Add(time.Minute)
	}
}
