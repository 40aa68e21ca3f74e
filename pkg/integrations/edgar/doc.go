// Package edgar provides a market-data provider backed by SEC EDGAR
// (https://www.sec.gov/edgar).
//
// # Actions
//
//	filing/recent    latest filings (form=10-K, limit=N; default 10)
//	profile/profile  company name, CIK, tickers, SIC and state
//
// Both actions accept either "symbol" (resolved through the SEC ticker
// map, fetched once per process) or "cik".
//
// # Access
//
// EDGAR requires no key, but the SEC asks every client to send a
// User-Agent naming the application and a contact address, and to stay
// under 10 requests per second. The provider is disabled until
// user_agent is set in config.
package edgar
