package ratelimit

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter defines the interface for pacing outbound requests.
// All network-issuing operations acquire a permit before proceeding;
// a single shared limiter is the cross-worker pacing point.
type Limiter interface {
	// Wait blocks until the rate limit allows another request or the
	// context is cancelled
	Wait(ctx context.Context) error
	// Allow reports whether a request may proceed immediately
	Allow() bool
	// Reset restores the limiter to its initial state
	Reset()
}

// PerSecond implements Limiter with a token bucket refilled at a fixed
// requests-per-second rate
type PerSecond struct {
	rps     float64
	limiter *rate.Limiter
}

// NewPerSecond creates a per-second token bucket limiter. A zero or
// negative rate yields an unlimited limiter so callers can treat the
// collaborator as optional.
func NewPerSecond(rps float64) *PerSecond {
	if rps <= 0 {
		return &PerSecond{rps: 0, limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	return &PerSecond{rps: rps, limiter: rate.NewLimiter(rate.Limit(rps), 1)}
}

// Wait blocks until a token is available
func (p *PerSecond) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}

// Allow reports whether a token is available right now
func (p *PerSecond) Allow() bool {
	return p.limiter.Allow()
}

// Reset discards accumulated state by swapping in a fresh bucket
func (p *PerSecond) Reset() {
	if p.rps <= 0 {
		p.limiter = rate.NewLimiter(rate.Inf, 1)
		return
	}
	p.limiter = rate.NewLimiter(rate.Limit(p.rps), 1)
}
