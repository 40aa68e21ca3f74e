// Package httputil provides retry helpers for upstream market-data clients.
//
// # Retry
//
// [Policy.Do] re-runs an operation while it fails with a [RetryableError],
// doubling the delay between attempts up to [Policy.MaxDelay]. Errors not
// wrapped as retryable end the loop immediately, so callers decide what is
// transient:
//
//   - connection failures and 5xx responses are retryable
//   - 4xx responses, including 429, are not; the router falls back to
//     another provider instead of waiting
//
// Usage:
//
//	err := httputil.DefaultPolicy.Do(ctx, func(attempt int) error {
//	    resp, err := http.Get(url)
//	    if err != nil {
//	        return &httputil.RetryableError{Err: err}
//	    }
//	    ...
//	})
//
// # Configuration
//
// [DefaultPolicy] makes 3 attempts starting at 500ms. [NoRetry] makes a
// single attempt and is used in tests.
package httputil
