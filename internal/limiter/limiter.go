// Package limiter provides sliding-window admission control for guarded
// operations. One Limiter is constructed per guarded operation; its window is
// shared by every caller of that operation.
package limiter

import (
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/bhupeshcoding/codecoach/models"
)

// Limiter bounds the call rate of one operation over a trailing window.
// State lives in memory only and resets on restart.
type Limiter struct {
	max    int
	window time.Duration

	mu    sync.Mutex
	calls []time.Time
	now   func() time.Time
}

// New returns a limiter admitting at most max calls per window.
func New(max int, window time.Duration) *Limiter {
	return &Limiter{
		max:    max,
		window: window,
		now:    time.Now,
	}
}

// Allow records one call attempt. Timestamps older than the window are pruned
// first; if the retained count has reached the limit the call is rejected
// with a *models.RateLimitError carrying the configured numbers.
func (l *Limiter) Allow() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)

	kept := l.calls[:0]
	for _, t := range l.calls {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	l.calls = kept

	if len(l.calls) >= l.max {
		return &models.RateLimitError{Max: l.max, Window: l.window}
	}
	l.calls = append(l.calls, now)
	return nil
}

// Remaining reports how many calls the window still admits.
func (l *Limiter) Remaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.window)
	count := 0
	for _, t := range l.calls {
		if t.After(cutoff) {
			count++
		}
	}
	if count >= l.max {
		return 0
	}
	return l.max - count
}

// PerKey maintains an independent window per caller key. The base routes use
// the unkeyed Limiter; PerKey exists for multi-tenant deployments that need
// per-IP or per-user budgets.
type PerKey struct {
	max    int
	window time.Duration

	mu       sync.Mutex
	limiters map[string]*Limiter
}

// NewPerKey returns a keyed limiter family with a shared (max, window).
func NewPerKey(max int, window time.Duration) *PerKey {
	return &PerKey{
		max:      max,
		window:   window,
		limiters: make(map[string]*Limiter),
	}
}

// Allow admits or rejects one call for key.
func (p *PerKey) Allow(key string) error {
	p.mu.Lock()
	l, ok := p.limiters[key]
	if !ok {
		l = New(p.max, p.window)
		p.limiters[key] = l
	}
	p.mu.Unlock()
	return l.Allow()
}

// Middleware adapts a Limiter to an echo route. Admitted requests carry the
// remaining window budget in X-RateLimit-Remaining; rejections surface as
// the limiter's error so the central HTTP error handler can render them.
func Middleware(l *Limiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := l.Allow(); err != nil {
				return err
			}
			c.Response().Header().Set("X-RateLimit-Remaining", strconv.Itoa(l.Remaining()))
			return next(c)
		}
	}
}
