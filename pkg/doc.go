// Package pkg provides the core libraries for marketlink market-data routing.
//
// # Overview
//
// marketlink answers market-data requests (quotes, price history,
// fundamentals, news, filings) by picking the best available upstream
// provider, falling back to the next one when a call fails. The pkg
// directory is organized into three areas:
//
//  1. Routing - [provider], [registry], [router]
//  2. Infrastructure - [ratelimit], [cache], [config], [errors], [observability], [httputil]
//  3. Integrations - [integrations] and one subpackage per upstream API
//
// # Architecture
//
// The data flow for one request:
//
//	Route(category, action, args, options)
//	         ↓
//	    [cache] lookup (skipped with NoCache)
//	         ↓
//	    [router] candidate list (capable, enabled, not disabled;
//	             by priority, then token headroom)
//	         ↓
//	    provider.Execute → [ratelimit] token → upstream HTTP
//	         ↓
//	    first success is cached and returned; otherwise
//	    ALL_PROVIDERS_FAILED with every attempt
//
// # Quick Start
//
//	import (
//	    "github.com/matzehuels/marketlink/pkg/integrations/finnhub"
//	    "github.com/matzehuels/marketlink/pkg/provider"
//	    "github.com/matzehuels/marketlink/pkg/ratelimit"
//	    "github.com/matzehuels/marketlink/pkg/router"
//	)
//
//	limiter := ratelimit.New()
//	r := router.New(router.WithLimiter(limiter))
//	r.Register(finnhub.NewProvider(os.Getenv("FINNHUB_API_KEY"), limiter))
//
//	res, err := r.Route(ctx, provider.CategoryQuote, "price",
//	    provider.Args{"symbol": "AAPL"}, router.Options{})
//
// # Main Packages
//
// [provider] - The Provider contract, categories with their cache TTLs,
// descriptors and call arguments.
//
// [registry] - Thread-safe, first-wins provider registration in insertion
// order.
//
// [router] - Candidate selection, fallback, caching and diagnostics.
//
// [ratelimit] - Per-source token buckets shared by the router (headroom
// checks) and providers (consumption before I/O).
//
// [cache] - In-memory result cache keyed by source, category and
// canonicalized arguments, with per-category TTLs and bounded size.
//
// [integrations] - Shared HTTP client plus the alphavantage, finnhub and
// edgar adapters.
//
// [config] - TOML config file and environment overrides.
//
// # Testing
//
//	go test ./...
//
// [provider]: https://pkg.go.dev/github.com/matzehuels/marketlink/pkg/provider
// [registry]: https://pkg.go.dev/github.com/matzehuels/marketlink/pkg/registry
// [router]: https://pkg.go.dev/github.com/matzehuels/marketlink/pkg/router
// [ratelimit]: https://pkg.go.dev/github.com/matzehuels/marketlink/pkg/ratelimit
// [cache]: https://pkg.go.dev/github.com/matzehuels/marketlink/pkg/cache
// [config]: https://pkg.go.dev/github.com/matzehuels/marketlink/pkg/config
// [errors]: https://pkg.go.dev/github.com/matzehuels/marketlink/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/marketlink/pkg/observability
// [httputil]: https://pkg.go.dev/github.com/matzehuels/marketlink/pkg/httputil
// [integrations]: https://pkg.go.dev/github.com/matzehuels/marketlink/pkg/integrations
package pkg
