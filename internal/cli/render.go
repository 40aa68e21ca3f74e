package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/matzehuels/marketlink/pkg/integrations"
	"github.com/matzehuels/marketlink/pkg/provider"
)

// renderResult prints a routed result for humans. Known payloads get a
// dedicated layout; anything else is printed as indented JSON.
func renderResult(w io.Writer, category provider.Category, action string, res *provider.Result) error {
	fmt.Fprintln(w, StyleTitle.Render(fmt.Sprintf("%s/%s", category, action)))
	printSource(w, res.Source, res.Cached)
	fmt.Fprintln(w)

	switch data := res.Data.(type) {
	case *integrations.Quote:
		renderQuote(w, data)
	case *integrations.Series:
		renderSeries(w, data)
	case *integrations.Fundamentals:
		renderFundamentals(w, data)
	case *integrations.Profile:
		renderProfile(w, data)
	case []integrations.NewsItem:
		renderNews(w, data)
	case []integrations.Filing:
		renderFilings(w, data)
	default:
		b, err := json.MarshalIndent(res.Data, "", "  ")
		if err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
		fmt.Fprintln(w, string(b))
	}
	return nil
}

func renderQuote(w io.Writer, q *integrations.Quote) {
	printKeyValue(w, "Symbol", q.Symbol)
	printKeyValue(w, "Price", formatPrice(q.Price))
	printKeyValue(w, "Change", formatChange(q.Change, "")+" ("+formatChange(q.ChangePercent, "%")+")")
	if q.Open != 0 {
		printKeyValue(w, "Open", formatPrice(q.Open))
	}
	if q.High != 0 || q.Low != 0 {
		printKeyValue(w, "Day range", formatPrice(q.Low)+" – "+formatPrice(q.High))
	}
	if q.PrevClose != 0 {
		printKeyValue(w, "Prev close", formatPrice(q.PrevClose))
	}
	if q.Volume != 0 {
		printKeyValue(w, "Volume", formatInt(q.Volume))
	}
	if !q.Time.IsZero() {
		printKeyValue(w, "As of", q.Time.Format("2006-01-02 15:04 MST"))
	}
}

func renderSeries(w io.Writer, s *integrations.Series) {
	t := newTable("Date", "Open", "High", "Low", "Close", "Volume")
	for _, b := range s.Bars {
		t.Row(b.Date, formatPrice(b.Open), formatPrice(b.High), formatPrice(b.Low), formatPrice(b.Close), formatInt(b.Volume))
	}
	fmt.Fprintln(w, StyleValue.Render(s.Symbol))
	fmt.Fprintln(w, t.Render())
}

func renderFundamentals(w io.Writer, f *integrations.Fundamentals) {
	printKeyValue(w, "Symbol", f.Symbol)
	printKeyValue(w, "Name", f.Name)
	if f.Exchange != "" {
		printKeyValue(w, "Exchange", f.Exchange)
	}
	if f.Sector != "" {
		printKeyValue(w, "Sector", f.Sector+" / "+f.Industry)
	}
	if f.MarketCap != 0 {
		printKeyValue(w, "Market cap", formatInt(int64(f.MarketCap)))
	}
	if f.PERatio != 0 {
		printKeyValue(w, "P/E", formatPrice(f.PERatio))
	}
	if f.EPS != 0 {
		printKeyValue(w, "EPS", formatPrice(f.EPS))
	}
	if f.DividendYield != 0 {
		printKeyValue(w, "Div. yield", fmt.Sprintf("%.2f%%", f.DividendYield*100))
	}
	if f.High52Week != 0 {
		printKeyValue(w, "52w range", formatPrice(f.Low52Week)+" – "+formatPrice(f.High52Week))
	}
	if f.Description != "" {
		fmt.Fprintln(w)
		printDetail(w, "%s", truncate(f.Description, 300))
	}
}

func renderProfile(w io.Writer, p *integrations.Profile) {
	printKeyValue(w, "Name", p.Name)
	if p.Symbol != "" {
		printKeyValue(w, "Symbol", p.Symbol)
	}
	if len(p.Tickers) > 1 {
		printKeyValue(w, "Tickers", strings.Join(p.Tickers, ", "))
	}
	fields := []struct{ key, value string }{
		{"Exchange", p.Exchange},
		{"Country", p.Country},
		{"Industry", p.Industry},
		{"SIC", p.SIC},
		{"CIK", p.CIK},
		{"State", p.State},
		{"IPO", p.IPO},
		{"Currency", p.Currency},
	}
	for _, f := range fields {
		if f.value != "" {
			printKeyValue(w, f.key, f.value)
		}
	}
	if p.Website != "" {
		printKeyValue(w, "Website", StyleLink.Render(p.Website))
	}
}

func renderNews(w io.Writer, items []integrations.NewsItem) {
	if len(items) == 0 {
		printInfo(w, "No headlines")
		return
	}
	for _, n := range items {
		fmt.Fprintln(w, StyleValue.Render(n.Headline))
		printDetail(w, "%s · %s", n.Source, n.Time.Format("2006-01-02 15:04"))
		if n.URL != "" {
			fmt.Fprintln(w, "  "+StyleLink.Render(n.URL))
		}
	}
}

func renderFilings(w io.Writer, filings []integrations.Filing) {
	if len(filings) == 0 {
		printInfo(w, "No filings")
		return
	}
	t := newTable("Form", "Filed", "Period", "Accession", "Description")
	for _, f := range filings {
		t.Row(f.Form, f.FilingDate, f.ReportDate, f.Accession, truncate(f.Description, 40))
	}
	fmt.Fprintln(w, t.Render())
	for _, f := range filings {
		printDetail(w, "%s %s", f.Form, f.URL)
	}
}
