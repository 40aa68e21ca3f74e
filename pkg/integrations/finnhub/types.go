package finnhub

type quoteResponse struct {
	Current       float64 `json:"c"`
	Change        float64 `json:"d"`
	ChangePercent float64 `json:"dp"`
	High          float64 `json:"h"`
	Low           float64 `json:"l"`
	Open          float64 `json:"o"`
	PrevClose     float64 `json:"pc"`
	Timestamp     int64   `json:"t"`
}

type newsResponse struct {
	Category string `json:"category"`
	Datetime int64  `json:"datetime"`
	Headline string `json:"headline"`
	ID       int64  `json:"id"`
	Related  string `json:"related"`
	Source   string `json:"source"`
	Summary  string `json:"summary"`
	URL      string `json:"url"`
}

type profileResponse struct {
	Country   string  `json:"country"`
	Currency  string  `json:"currency"`
	Exchange  string  `json:"exchange"`
	IPO       string  `json:"ipo"`
	MarketCap float64 `json:"marketCapitalization"`
	Name      string  `json:"name"`
	Ticker    string  `json:"ticker"`
	WebURL    string  `json:"weburl"`
	Industry  string  `json:"finnhubIndustry"`
}
