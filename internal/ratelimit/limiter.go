package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Limiter holds one token bucket per provider
type Limiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex
}

// New creates an empty limiter; providers without a bucket are unlimited
func New() *Limiter {
	return &Limiter{
		limiters: make(map[string]*rate.Limiter),
	}
}

// Set configures the request rate for a provider. A non-positive rate
// removes the limit.
func (l *Limiter) Set(provider string, perSecond float64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if perSecond <= 0 {
		delete(l.limiters, provider)
		return
	}
	l.limiters[provider] = rate.NewLimiter(rate.Limit(perSecond), 1)
}

// Wait blocks until the provider's limiter permits a request.
// It returns an error if the context is canceled first.
func (l *Limiter) Wait(ctx context.Context, provider string) error {
	l.mu.RLock()
	limiter, exists := l.limiters[provider]
	l.mu.RUnlock()

	if !exists {
		return nil
	}
	return limiter.Wait(ctx)
}

// For binds the limiter to one provider
func (l *Limiter) For(provider string) *Bound {
	return &Bound{limiter: l, provider: provider}
}

// Bound is a Limiter scoped to a single provider
type Bound struct {
	limiter  *Limiter
	provider string
}

// Wait blocks until the bound provider may be called
func (b *Bound) Wait(ctx context.Context) error {
	return b.limiter.Wait(ctx, b.provider)
}
