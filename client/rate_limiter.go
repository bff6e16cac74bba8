package client

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	maxRetryDelay = 30 * time.Second
	maxDuration   = time.Duration(math.MaxInt64)
)

// RateLimiter tracks recent requests in a sliding window and delays callers
// once the window is close to full. Expired timestamps are dropped lazily on
// every read; nothing runs in the background.
type RateLimiter struct {
	mu      sync.Mutex
	cfg     RateLimitConfig
	clock   clockwork.Clock
	logger  zerolog.Logger
	window  []time.Time // oldest first
	hits    int
	lastHit time.Time

	throttleLog rate.Sometimes
}

// NewRateLimiter creates a limiter. Zero fields of cfg take their defaults.
func NewRateLimiter(cfg RateLimitConfig, clock clockwork.Clock) *RateLimiter {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &RateLimiter{
		cfg:         cfg.withDefaults(),
		clock:       clock,
		logger:      log.Logger,
		throttleLog: rate.Sometimes{First: 1, Interval: 10 * time.Second},
	}
}

// expireLocked drops timestamps that fell out of the window. Caller holds mu.
func (l *RateLimiter) expireLocked(now time.Time) {
	cutoff := now.Add(-l.cfg.Window)
	i := 0
	for i < len(l.window) && !l.window[i].After(cutoff) {
		i++
	}
	if i > 0 {
		l.window = append(l.window[:0], l.window[i:]...)
	}
}

// WaitForSlot blocks while the window is at or above the throttle threshold,
// until its oldest entry expires. It waits at most once per call.
func (l *RateLimiter) WaitForSlot(ctx context.Context) error {
	if l.cfg.Disabled {
		return nil
	}

	l.mu.Lock()
	now := l.clock.Now()
	l.expireLocked(now)
	count := len(l.window)
	if float64(count) < l.cfg.ThrottleThreshold*float64(l.cfg.MaxRequests) {
		l.mu.Unlock()
		return nil
	}
	delay := l.window[0].Add(l.cfg.Window).Sub(now)
	l.mu.Unlock()

	if delay <= 0 {
		return nil
	}
	l.throttleLog.Do(func() {
		l.logger.Warn().Int("in_window", count).Int("max_requests", l.cfg.MaxRequests).
			Dur("delay", delay).Msg("Approaching rate limit, throttling requests")
	})
	return sleepCtx(ctx, l.clock, delay)
}

// RecordRequest adds a request sent now to the window.
func (l *RateLimiter) RecordRequest() {
	if l.cfg.Disabled {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.clock.Now()
	l.expireLocked(now)
	l.window = append(l.window, now)
}

func (l *RateLimiter) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.expireLocked(l.clock.Now())
	return len(l.window)
}

// RemainingRequests returns how many requests fit in the window right now.
func (l *RateLimiter) RemainingRequests() int {
	if l.cfg.Disabled {
		return l.cfg.MaxRequests
	}
	return max(0, l.cfg.MaxRequests-l.count())
}

// CurrentRate returns the used fraction of the window.
func (l *RateLimiter) CurrentRate() float64 {
	if l.cfg.Disabled {
		return 0
	}
	return float64(l.count()) / float64(l.cfg.MaxRequests)
}

// ShouldRetry reports whether a rate-limited request on the given attempt
// (zero based) may be retried.
func (l *RateLimiter) ShouldRetry(attempt int) bool {
	return attempt < l.cfg.MaxRetries
}

// CalculateRetryDelay returns RetryAfter doubled per attempt, capped at 30s.
func (l *RateLimiter) CalculateRetryDelay(attempt int) time.Duration {
	d := l.cfg.RetryAfter
	for i := 0; i < attempt && d < maxRetryDelay; i++ {
		d *= 2
	}
	return min(d, maxRetryDelay)
}

// ParseRetryAfter converts a Retry-After header, given in seconds or as an
// HTTP date, to a delay. Missing or malformed values give the configured
// fallback; dates in the past give zero.
func (l *RateLimiter) ParseRetryAfter(header string) time.Duration {
	h := strings.TrimSpace(header)
	if h == "" {
		return l.cfg.RetryAfter
	}
	if secs, err := strconv.Atoi(h); err == nil {
		if secs < 0 {
			return l.cfg.RetryAfter
		}
		if int64(secs) > int64(maxDuration/time.Second) {
			return maxDuration
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(h); err == nil {
		return max(0, at.Sub(l.clock.Now()))
	}
	return l.cfg.RetryAfter
}

// HandleRateLimitError records a 429 response seen on the given attempt.
func (l *RateLimiter) HandleRateLimitError(attempt int) {
	l.mu.Lock()
	l.hits++
	l.lastHit = l.clock.Now()
	hits := l.hits
	l.mu.Unlock()

	l.logger.Warn().Int("attempt", attempt+1).Int("max_retries", l.cfg.MaxRetries).
		Int("total_hits", hits).Dur("backoff", l.CalculateRetryDelay(attempt)).
		Msg("Rate limit hit")
}

// RateLimitHits returns the number of 429 responses seen and when the last
// one arrived.
func (l *RateLimiter) RateLimitHits() (int, time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.hits, l.lastHit
}

// Config returns the effective configuration.
func (l *RateLimiter) Config() RateLimitConfig { return l.cfg }

// sleepCtx waits for d on clock, returning early with ctx's error.
func sleepCtx(ctx context.Context, clock clockwork.Clock, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := clock.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.Chan():
		return nil
	}
}
