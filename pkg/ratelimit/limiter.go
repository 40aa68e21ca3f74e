package ratelimit

import (
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Config describes a per-source rate limit: at most MaxRequests calls per
// Window, refilled continuously. A zero or negative field means unlimited.
type Config struct {
	MaxRequests int
	Window      time.Duration
}

// PerMinute returns a Config allowing n requests per minute.
func PerMinute(n int) Config { return Config{MaxRequests: n, Window: time.Minute} }

// PerSecond returns a Config allowing n requests per second.
func PerSecond(n int) Config { return Config{MaxRequests: n, Window: time.Second} }

// Unlimited reports whether the config disables limiting.
func (c Config) Unlimited() bool {
	return c.MaxRequests <= 0 || c.Window <= 0
}

func (c Config) limit() rate.Limit {
	if c.Unlimited() {
		return rate.Inf
	}
	return rate.Limit(float64(c.MaxRequests) / c.Window.Seconds())
}

// bucket pairs a token bucket with the config it was built from.
type bucket struct {
	lim *rate.Limiter
	cfg Config
}

// Limiter keeps one token bucket per source name.
//
// Buckets are created lazily, start full and refill continuously on every
// access; there is no background timer, so an idle bucket catches up fully
// the next time it is touched. Token counts keep fractional precision
// between calls and never leave [0, MaxRequests].
//
// Limiter is safe for concurrent use. The bucket map is guarded by a mutex
// and each rate.Limiter serializes its own refill-then-decrement.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	nowFunc func() time.Time
}

// New creates an empty Limiter that reads time from time.Now.
func New() *Limiter {
	return NewWithClock(time.Now)
}

// NewWithClock creates a Limiter that reads time from now.
// Tests use it to advance time deterministically.
func NewWithClock(now func() time.Time) *Limiter {
	if now == nil {
		now = time.Now
	}
	return &Limiter{
		buckets: make(map[string]*bucket),
		nowFunc: now,
	}
}

// bucket returns the bucket for key, creating it full on first use.
// If cfg differs from the stored config the bucket is re-shaped in place,
// keeping its current token count (clamped to the new maximum).
func (l *Limiter) bucket(key string, cfg Config, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(cfg.limit(), max(cfg.MaxRequests, 0)), cfg: cfg}
		l.buckets[key] = b
		return b.lim
	}
	if b.cfg != cfg {
		b.lim.SetLimitAt(now, cfg.limit())
		b.lim.SetBurstAt(now, max(cfg.MaxRequests, 0))
		b.cfg = cfg
	}
	return b.lim
}

// CanRequest reports whether at least one token is available for key.
// It refills but never consumes.
func (l *Limiter) CanRequest(key string, cfg Config) bool {
	if cfg.Unlimited() {
		return true
	}
	now := l.nowFunc()
	return l.bucket(key, cfg, now).TokensAt(now) >= 1
}

// Consume refills and then takes exactly one token for key.
// It returns false and leaves the bucket unchanged if fewer than one
// token is available.
func (l *Limiter) Consume(key string, cfg Config) bool {
	if cfg.Unlimited() {
		return true
	}
	now := l.nowFunc()
	return l.bucket(key, cfg, now).AllowN(now, 1)
}

// Remaining returns the whole number of tokens currently available for
// key. The bucket itself keeps fractional precision.
func (l *Limiter) Remaining(key string, cfg Config) int {
	if cfg.Unlimited() {
		return math.MaxInt
	}
	now := l.nowFunc()
	tokens := l.bucket(key, cfg, now).TokensAt(now)
	return int(math.Floor(math.Max(0, tokens)))
}

// Reset discards the bucket for key. The next access starts a full bucket.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.buckets, key)
}

// ResetAll discards every bucket.
func (l *Limiter) ResetAll() {
	l.mu.Lock()
	defer l.mu.Unlock()
	clear(l.buckets)
}
