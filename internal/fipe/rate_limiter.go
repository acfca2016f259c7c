package fipe

import (
	"context"
	"time"
)

// RateLimiter paces outgoing API calls. One token is available immediately
// so the first request never waits.
type RateLimiter struct {
	ticker *time.Ticker
	tokens chan struct{}
	done   chan struct{}
}

// NewRateLimiter creates a limiter allowing requestsPerSecond calls.
func NewRateLimiter(requestsPerSecond float64) *RateLimiter {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1
	}
	interval := time.Duration(float64(time.Second) / requestsPerSecond)

	rl := &RateLimiter{
		ticker: time.NewTicker(interval),
		tokens: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	rl.tokens <- struct{}{}

	go func() {
		for {
			select {
			case <-rl.ticker.C:
				select {
				case rl.tokens <- struct{}{}:
				default:
				}
			case <-rl.done:
				return
			}
		}
	}()

	return rl
}

// Wait blocks until the rate limit allows the next request.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	select {
	case <-rl.tokens:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop stops the limiter's refill loop.
func (rl *RateLimiter) Stop() {
	rl.ticker.Stop()
	close(rl.done)
}
