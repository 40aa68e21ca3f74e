// Package router routes market-data requests across registered providers.
//
// A [Router] combines a [registry.Registry], a [cache.Store] and a
// [ratelimit.Limiter]. Each [Router.Route] call runs these steps:
//
//  1. Return a cached result if one exists (unless Options.NoCache).
//  2. Select candidates with [Router.ProvidersFor]: capable, enabled and
//     not disabled, ordered by priority then by rate-limit headroom.
//  3. Call candidates one at a time until one succeeds.
//  4. Cache the successful result under the provider that produced it.
//
// The router only reads bucket headroom for ordering. Tokens are consumed
// by the providers themselves, immediately before outbound I/O.
//
// # Errors
//
// Route returns structured errors from package errors:
//
//	SOURCE_NOT_AVAILABLE    forced source is unknown, incapable or disabled
//	NO_PROVIDERS_AVAILABLE  no candidate at all, with per-provider reasons
//	ALL_PROVIDERS_FAILED    every candidate failed (*errors.AllFailedError)
//
// Individual provider failures are never fatal; they are logged and the
// next candidate is tried. There is no retry inside the router.
//
// # Usage
//
//	r := router.New(router.WithLogger(logger), router.WithDisabled(cfg.Disabled...))
//	r.Register(finnhub.NewProvider(...), edgar.NewProvider(...))
//
//	res, err := r.Route(ctx, provider.CategoryQuote, "price",
//	    provider.Args{"symbol": "AAPL"}, router.Options{})
package router
