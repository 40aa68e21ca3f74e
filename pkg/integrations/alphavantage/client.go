package alphavantage

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/matzehuels/marketlink/pkg/errors"
	"github.com/matzehuels/marketlink/pkg/integrations"
	"github.com/matzehuels/marketlink/pkg/provider"
	"github.com/matzehuels/marketlink/pkg/ratelimit"
)

// Name is the source name used for routing, rate limiting and config.
const Name = "alphavantage"

const defaultBaseURL = "https://www.alphavantage.co/query"

// descriptor is the fixed routing metadata. The free tier allows five
// calls per minute.
var descriptor = provider.Descriptor{
	Name:        Name,
	RequiresKey: true,
	Capabilities: []provider.Category{
		provider.CategoryQuote,
		provider.CategoryHistorical,
		provider.CategoryFundamentals,
	},
	Priority: provider.Priorities{
		provider.CategoryQuote:        2,
		provider.CategoryHistorical:   1,
		provider.CategoryFundamentals: 1,
	},
	RateLimit: ratelimit.PerMinute(5),
}

// Provider serves quotes, daily history and company overviews from
// Alpha Vantage.
type Provider struct {
	client  *integrations.Client
	apiKey  string
	baseURL string
	routes  integrations.Routes
}

// NewProvider creates an Alpha Vantage provider. An empty apiKey yields a
// registered but disabled provider.
func NewProvider(apiKey string, limiter *ratelimit.Limiter, opts ...integrations.ClientOption) *Provider {
	p := &Provider{
		client:  integrations.NewClient(Name, limiter, descriptor.RateLimit, nil, opts...),
		apiKey:  strings.TrimSpace(apiKey),
		baseURL: defaultBaseURL,
	}
	p.routes = integrations.Routes{
		provider.CategoryQuote:        {"price": p.price},
		provider.CategoryHistorical:   {"daily": p.daily},
		provider.CategoryFundamentals: {"overview": p.overview},
	}
	return p
}

func (p *Provider) Descriptor() provider.Descriptor { return descriptor }

func (p *Provider) Enabled() bool { return p.apiKey != "" }

func (p *Provider) Unavailable() string {
	if p.apiKey == "" {
		return "missing API key (set ALPHAVANTAGE_API_KEY)"
	}
	return ""
}

func (p *Provider) Execute(ctx context.Context, req provider.Request) (*provider.Result, error) {
	if !p.Enabled() {
		return nil, errors.New(errors.ErrCodeUnauthorized, "%s: missing API key", Name)
	}
	return p.routes.Serve(ctx, Name, req)
}

func (p *Provider) price(ctx context.Context, args provider.Args) (any, error) {
	sym, err := integrations.RequireSymbol(args)
	if err != nil {
		return nil, err
	}

	var resp quoteResponse
	if err := p.query(ctx, "GLOBAL_QUOTE", sym, nil, &resp); err != nil {
		return nil, err
	}
	if err := resp.status.err(sym); err != nil {
		return nil, err
	}
	gq := resp.Quote
	if gq.Symbol == "" {
		return nil, errors.New(errors.ErrCodeNotFound, "%s: no quote for %s", Name, sym)
	}

	q := &integrations.Quote{
		Symbol:        gq.Symbol,
		Price:         parseFloat(gq.Price),
		Open:          parseFloat(gq.Open),
		High:          parseFloat(gq.High),
		Low:           parseFloat(gq.Low),
		PrevClose:     parseFloat(gq.PrevClose),
		Change:        parseFloat(gq.Change),
		ChangePercent: parseFloat(strings.TrimSuffix(gq.ChangePercent, "%")),
		Volume:        parseInt(gq.Volume),
	}
	if t, err := time.Parse(time.DateOnly, gq.LatestDay); err == nil {
		q.Time = t
	}
	return q, nil
}

func (p *Provider) daily(ctx context.Context, args provider.Args) (any, error) {
	sym, err := integrations.RequireSymbol(args)
	if err != nil {
		return nil, err
	}
	limit, err := integrations.IntArg(args, "limit", 30)
	if err != nil {
		return nil, err
	}
	outputSize := "compact"
	if limit > 100 {
		outputSize = "full"
	}

	var resp dailyResponse
	if err := p.query(ctx, "TIME_SERIES_DAILY", sym, url.Values{"outputsize": {outputSize}}, &resp); err != nil {
		return nil, err
	}
	if err := resp.status.err(sym); err != nil {
		return nil, err
	}
	if len(resp.Series) == 0 {
		return nil, errors.New(errors.ErrCodeNotFound, "%s: no history for %s", Name, sym)
	}

	dates := make([]string, 0, len(resp.Series))
	for d := range resp.Series {
		dates = append(dates, d)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	if len(dates) > limit {
		dates = dates[:limit]
	}

	series := &integrations.Series{Symbol: sym, Bars: make([]integrations.Bar, 0, len(dates))}
	for _, d := range dates {
		b := resp.Series[d]
		series.Bars = append(series.Bars, integrations.Bar{
			Date:   d,
			Open:   parseFloat(b.Open),
			High:   parseFloat(b.High),
			Low:    parseFloat(b.Low),
			Close:  parseFloat(b.Close),
			Volume: parseInt(b.Volume),
		})
	}
	return series, nil
}

func (p *Provider) overview(ctx context.Context, args provider.Args) (any, error) {
	sym, err := integrations.RequireSymbol(args)
	if err != nil {
		return nil, err
	}

	var resp overviewResponse
	if err := p.query(ctx, "OVERVIEW", sym, nil, &resp); err != nil {
		return nil, err
	}
	if err := resp.status.err(sym); err != nil {
		return nil, err
	}
	if resp.Symbol == "" {
		return nil, errors.New(errors.ErrCodeNotFound, "%s: no overview for %s", Name, sym)
	}

	return &integrations.Fundamentals{
		Symbol:        resp.Symbol,
		Name:          resp.Name,
		Exchange:      resp.Exchange,
		Currency:      resp.Currency,
		Sector:        resp.Sector,
		Industry:      resp.Industry,
		MarketCap:     parseFloat(resp.MarketCap),
		PERatio:       parseFloat(resp.PERatio),
		EPS:           parseFloat(resp.EPS),
		DividendYield: parseFloat(resp.DividendYield),
		High52Week:    parseFloat(resp.High52Week),
		Low52Week:     parseFloat(resp.Low52Week),
		Description:   resp.Description,
	}, nil
}

// query calls one Alpha Vantage function. The key travels as a query
// parameter; the client strips the query from hooks and errors.
func (p *Provider) query(ctx context.Context, function, symbol string, extra url.Values, v any) error {
	q := url.Values{}
	q.Set("function", function)
	q.Set("symbol", symbol)
	q.Set("apikey", p.apiKey)
	for k, vs := range extra {
		q[k] = vs
	}
	return p.client.Get(ctx, fmt.Sprintf("%s?%s", p.baseURL, q.Encode()), v)
}

// parseFloat reads Alpha Vantage's string-encoded numbers. "None" and
// "-" are reported as 0.
func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}

func parseInt(s string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0
	}
	return n
}
