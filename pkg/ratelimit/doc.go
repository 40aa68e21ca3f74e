// Package ratelimit provides per-source token buckets.
//
// Each data source gets one bucket keyed by its name. A bucket holds up to
// Config.MaxRequests tokens and refills continuously at
// MaxRequests/Window. Refill is lazy: it happens whenever the bucket is
// touched, never in the background.
//
// The router only reads bucket headroom ([Limiter.CanRequest]) to order
// equally-preferred providers. Adapters call [Limiter.Consume] right before
// every outbound request and fail fast with a RATE_LIMITED error when the
// bucket is empty.
//
//	lim := ratelimit.New()
//	cfg := ratelimit.PerMinute(5)
//	if !lim.Consume("alphavantage", cfg) {
//	    return errors.New(errors.ErrCodeRateLimited, "alphavantage: rate limit reached")
//	}
//
// Buckets are backed by [golang.org/x/time/rate.Limiter], whose lazy
// continuous refill matches these semantics exactly.
package ratelimit
