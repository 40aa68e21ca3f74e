// Package finnhub provides a market-data provider backed by the Finnhub
// API (https://finnhub.io).
//
// # Actions
//
//	quote/price      /quote            real-time quote
//	news/company     /company-news     headlines for a symbol (from, to, limit)
//	profile/profile  /stock/profile2   company profile
//
// The news window defaults to the last 7 days and at most 20 items.
// Finnhub answers unknown symbols with an empty object or an all-zero
// quote; both are reported as NOT_FOUND.
//
// The API key is read from config or FINNHUB_API_KEY and sent in the
// X-Finnhub-Token header. The free tier allows 60 requests per minute.
package finnhub
