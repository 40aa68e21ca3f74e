// Package provider defines the contract between the router and data sources.
//
// Every data source is a concrete type implementing [Provider]. Its static
// facts live in a [Descriptor]: name, capabilities, per-category priority
// and rate limit. Dynamic state is limited to [Provider.Enabled], which
// usually reflects whether credentials are configured.
//
// # Failures
//
// Execute reports failures as *errors.Error values whose Code names the
// failure kind:
//
//	errors.ErrCodeUnsupported   // category/action not served by this source
//	errors.ErrCodeRateLimited   // local bucket empty or upstream 429
//	errors.ErrCodeNotFound      // symbol unknown upstream
//	errors.ErrCodeUnauthorized  // bad or missing credentials
//	errors.ErrCodeNetwork       // transport failure or 5xx
//	errors.ErrCodeInvalidInput  // missing or malformed arguments
//
// The router treats every failure as non-fatal and falls back to the next
// candidate; the code only affects how the failure is logged.
package provider

import (
	"context"
	"slices"

	"github.com/matzehuels/marketlink/pkg/ratelimit"
)

// Descriptor is the fixed set of facts a provider declares about itself.
type Descriptor struct {
	Name         string           // Unique source name (e.g., "finnhub")
	RequiresKey  bool             // Whether an API key is needed
	Capabilities []Category       // Categories this source can serve
	Priority     Priorities       // Per-category preference (lower wins)
	RateLimit    ratelimit.Config // Token bucket shape for this source
}

// Supports reports whether the descriptor lists c as a capability.
func (d Descriptor) Supports(c Category) bool {
	return slices.Contains(d.Capabilities, c)
}

// Request is a single routed call.
type Request struct {
	Category Category
	Action   string
	Args     Args
}

// Result is the payload returned by a successful call.
type Result struct {
	Data   any    `json:"data"`   // Source-specific payload
	Source string `json:"source"` // Name of the provider that produced Data
	Cached bool   `json:"cached"` // True if served from the result cache
}

// Provider is a data source the router can call.
//
// Implementations must consume a token from their own bucket before
// issuing outbound I/O and must be safe for concurrent use.
type Provider interface {
	// Descriptor returns the provider's static facts.
	Descriptor() Descriptor

	// Enabled reports whether the provider can serve requests right now
	// (for example, whether its API key is configured).
	Enabled() bool

	// Execute performs the request. On success the returned Result has
	// Source set to the provider name and Cached false.
	Execute(ctx context.Context, req Request) (*Result, error)
}

// Diagnoser is implemented by providers that can explain why they are
// not enabled. The router includes the reason in "no providers" errors.
type Diagnoser interface {
	// Unavailable returns a short human-readable reason, or "" if the
	// provider has nothing specific to report.
	Unavailable() string
}
