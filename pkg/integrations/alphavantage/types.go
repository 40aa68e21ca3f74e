package alphavantage

import (
	"strings"

	"github.com/matzehuels/marketlink/pkg/errors"
)

// status carries the in-band messages Alpha Vantage returns with HTTP 200.
type status struct {
	Note         string `json:"Note"`
	Information  string `json:"Information"`
	ErrorMessage string `json:"Error Message"`
}

// err maps in-band messages to failure codes. Throttling notices arrive as
// "Note" or "Information"; unknown symbols as "Error Message".
func (s status) err(symbol string) error {
	switch {
	case s.ErrorMessage != "":
		return errors.New(errors.ErrCodeNotFound, "%s: %s: %s", Name, symbol, s.ErrorMessage)
	case s.Note != "":
		return errors.New(errors.ErrCodeRateLimited, "%s: %s", Name, s.Note)
	case s.Information != "":
		if strings.Contains(strings.ToLower(s.Information), "api key") {
			return errors.New(errors.ErrCodeUnauthorized, "%s: %s", Name, s.Information)
		}
		return errors.New(errors.ErrCodeRateLimited, "%s: %s", Name, s.Information)
	}
	return nil
}

type quoteResponse struct {
	status
	Quote globalQuote `json:"Global Quote"`
}

type globalQuote struct {
	Symbol        string `json:"01. symbol"`
	Open          string `json:"02. open"`
	High          string `json:"03. high"`
	Low           string `json:"04. low"`
	Price         string `json:"05. price"`
	Volume        string `json:"06. volume"`
	LatestDay     string `json:"07. latest trading day"`
	PrevClose     string `json:"08. previous close"`
	Change        string `json:"09. change"`
	ChangePercent string `json:"10. change percent"`
}

type dailyResponse struct {
	status
	Series map[string]dailyBar `json:"Time Series (Daily)"`
}

type dailyBar struct {
	Open   string `json:"1. open"`
	High   string `json:"2. high"`
	Low    string `json:"3. low"`
	Close  string `json:"4. close"`
	Volume string `json:"5. volume"`
}

type overviewResponse struct {
	status
	Symbol        string `json:"Symbol"`
	Name          string `json:"Name"`
	Description   string `json:"Description"`
	Exchange      string `json:"Exchange"`
	Currency      string `json:"Currency"`
	Sector        string `json:"Sector"`
	Industry      string `json:"Industry"`
	MarketCap     string `json:"MarketCapitalization"`
	PERatio       string `json:"PERatio"`
	EPS           string `json:"EPS"`
	DividendYield string `json:"DividendYield"`
	High52Week    string `json:"52WeekHigh"`
	Low52Week     string `json:"52WeekLow"`
}
