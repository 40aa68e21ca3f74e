// Package alphavantage provides a market-data provider backed by the
// Alpha Vantage API (https://www.alphavantage.co).
//
// # Actions
//
//	quote/price            GLOBAL_QUOTE        latest price snapshot
//	historical/daily       TIME_SERIES_DAILY   daily bars, newest first (limit=N)
//	fundamentals/overview  OVERVIEW            company valuation figures
//
// All actions require a "symbol" argument.
//
// # Limits
//
// The free tier allows 5 requests per minute. Alpha Vantage reports
// throttling and unknown symbols in-band with HTTP 200; these are mapped
// to RATE_LIMITED and NOT_FOUND so the router can fall back.
//
// The API key is read from config or ALPHAVANTAGE_API_KEY.
package alphavantage
