package integrations

import "time"

// Quote is a normalized latest-price snapshot. Adapters fill what their
// upstream provides; missing numeric fields stay zero.
type Quote struct {
	Symbol        string    `json:"symbol"`
	Price         float64   `json:"price"`
	Open          float64   `json:"open,omitempty"`
	High          float64   `json:"high,omitempty"`
	Low           float64   `json:"low,omitempty"`
	PrevClose     float64   `json:"prev_close,omitempty"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"change_percent"`
	Volume        int64     `json:"volume,omitempty"`
	Time          time.Time `json:"time,omitzero"`
	Currency      string    `json:"currency,omitempty"`
}

// Bar is one OHLCV period of a historical series.
type Bar struct {
	Date   string  `json:"date"` // YYYY-MM-DD
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

// Series is a historical price series, newest bar first.
type Series struct {
	Symbol string `json:"symbol"`
	Bars   []Bar  `json:"bars"`
}

// Fundamentals holds company valuation and reference figures.
type Fundamentals struct {
	Symbol        string  `json:"symbol"`
	Name          string  `json:"name"`
	Exchange      string  `json:"exchange,omitempty"`
	Currency      string  `json:"currency,omitempty"`
	Sector        string  `json:"sector,omitempty"`
	Industry      string  `json:"industry,omitempty"`
	MarketCap     float64 `json:"market_cap,omitempty"`
	PERatio       float64 `json:"pe_ratio,omitempty"`
	EPS           float64 `json:"eps,omitempty"`
	DividendYield float64 `json:"dividend_yield,omitempty"`
	High52Week    float64 `json:"high_52w,omitempty"`
	Low52Week     float64 `json:"low_52w,omitempty"`
	Description   string  `json:"description,omitempty"`
}

// Profile is a company reference record.
type Profile struct {
	Symbol    string   `json:"symbol"`
	Name      string   `json:"name"`
	Exchange  string   `json:"exchange,omitempty"`
	Country   string   `json:"country,omitempty"`
	Currency  string   `json:"currency,omitempty"`
	Industry  string   `json:"industry,omitempty"`
	Website   string   `json:"website,omitempty"`
	IPO       string   `json:"ipo,omitempty"`
	MarketCap float64  `json:"market_cap,omitempty"` // In millions, as reported upstream
	CIK       string   `json:"cik,omitempty"`        // SEC Central Index Key
	Tickers   []string `json:"tickers,omitempty"`
	SIC       string   `json:"sic,omitempty"`
	State     string   `json:"state,omitempty"` // State of incorporation
}

// NewsItem is one headline.
type NewsItem struct {
	Headline string    `json:"headline"`
	Summary  string    `json:"summary,omitempty"`
	Source   string    `json:"source"`
	URL      string    `json:"url"`
	Time     time.Time `json:"time"`
	Related  string    `json:"related,omitempty"`
}

// Filing is one regulatory filing.
type Filing struct {
	Form        string `json:"form"`
	FilingDate  string `json:"filing_date"`
	ReportDate  string `json:"report_date,omitempty"`
	Accession   string `json:"accession"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url"`
}
