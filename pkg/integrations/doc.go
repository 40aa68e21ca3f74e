// Package integrations provides HTTP clients for upstream market-data APIs.
//
// # Overview
//
// Each data source has its own subpackage containing a [provider.Provider]
// implementation:
//
//   - [alphavantage]: Alpha Vantage quotes, daily history and fundamentals
//   - [finnhub]: Finnhub quotes, company news and profiles
//   - [edgar]: SEC EDGAR filings and company facts
//
// # Provider Pattern
//
// All adapters follow a consistent pattern:
//
//	p := finnhub.NewProvider(apiKey, limiter)
//	res, err := p.Execute(ctx, provider.Request{
//	    Category: provider.CategoryQuote,
//	    Action:   "price",
//	    Args:     provider.Args{"symbol": "AAPL"},
//	})
//
// Adapters declare a [Routes] table and delegate Execute to [Routes.Serve],
// which reports unknown categories and actions as UNSUPPORTED.
//
// # Shared Infrastructure
//
// The [Client] type provides shared HTTP functionality used by all
// adapters:
//
//   - one token consumed from the shared limiter before each request
//   - status mapping (404 NOT_FOUND, 401/403 UNAUTHORIZED, 429
//     RATE_LIMITED, 5xx NETWORK_ERROR)
//   - retry of transient failures via [httputil.Policy]
//   - HTTP observability hooks
//
// # Adding a New Source
//
//  1. Create a subpackage: pkg/integrations/<source>/
//  2. Define response structs matching the API schema
//  3. Implement Descriptor, Enabled and Execute using [NewClient]
//  4. Register it in internal/cli alongside the existing sources
//
// [alphavantage]: github.com/matzehuels/marketlink/pkg/integrations/alphavantage
// [finnhub]: github.com/matzehuels/marketlink/pkg/integrations/finnhub
// [edgar]: github.com/matzehuels/marketlink/pkg/integrations/edgar
// [provider.Provider]: github.com/matzehuels/marketlink/pkg/provider.Provider
// [httputil.Policy]: github.com/matzehuels/marketlink/pkg/httputil.Policy
package integrations
