package edgar

type tickerEntry struct {
	CIK    int64  `json:"cik_str"`
	Ticker string `json:"ticker"`
	Title  string `json:"title"`
}

type submissionsResponse struct {
	CIK                  string   `json:"cik"`
	Name                 string   `json:"name"`
	Tickers              []string `json:"tickers"`
	Exchanges            []string `json:"exchanges"`
	SIC                  string   `json:"sic"`
	SICDescription       string   `json:"sicDescription"`
	StateOfIncorporation string   `json:"stateOfIncorporation"`
	FiscalYearEnd        string   `json:"fiscalYearEnd"`
	Website              string   `json:"website"`
	Filings              struct {
		Recent recentFilings `json:"recent"`
	} `json:"filings"`
}

// recentFilings is EDGAR's column-oriented filing table: index i of each
// slice describes the same filing.
type recentFilings struct {
	AccessionNumber       []string `json:"accessionNumber"`
	FilingDate            []string `json:"filingDate"`
	ReportDate            []string `json:"reportDate"`
	Form                  []string `json:"form"`
	PrimaryDocument       []string `json:"primaryDocument"`
	PrimaryDocDescription []string `json:"primaryDocDescription"`
}
