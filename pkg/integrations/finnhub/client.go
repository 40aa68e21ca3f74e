package finnhub

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/matzehuels/marketlink/pkg/errors"
	"github.com/matzehuels/marketlink/pkg/integrations"
	"github.com/matzehuels/marketlink/pkg/provider"
	"github.com/matzehuels/marketlink/pkg/ratelimit"
)

// Name is the source name used for routing, rate limiting and config.
const Name = "finnhub"

const (
	defaultBaseURL   = "https://finnhub.io/api/v1"
	defaultNewsDays  = 7
	defaultNewsLimit = 20
)

var descriptor = provider.Descriptor{
	Name:        Name,
	RequiresKey: true,
	Capabilities: []provider.Category{
		provider.CategoryQuote,
		provider.CategoryNews,
		provider.CategoryProfile,
	},
	Priority: provider.Priorities{
		provider.CategoryQuote:   1,
		provider.CategoryNews:    1,
		provider.CategoryProfile: 1,
	},
	RateLimit: ratelimit.PerMinute(60),
}

// Provider serves quotes, company news and profiles from Finnhub.
type Provider struct {
	client  *integrations.Client
	apiKey  string
	baseURL string
	nowFunc func() time.Time
	routes  integrations.Routes
}

// NewProvider creates a Finnhub provider. An empty apiKey yields a
// registered but disabled provider.
func NewProvider(apiKey string, limiter *ratelimit.Limiter, opts ...integrations.ClientOption) *Provider {
	apiKey = strings.TrimSpace(apiKey)
	headers := map[string]string{"X-Finnhub-Token": apiKey}
	p := &Provider{
		client:  integrations.NewClient(Name, limiter, descriptor.RateLimit, headers, opts...),
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		nowFunc: time.Now,
	}
	p.routes = integrations.Routes{
		provider.CategoryQuote:   {"price": p.price},
		provider.CategoryNews:    {"company": p.companyNews},
		provider.CategoryProfile: {"profile": p.profile},
	}
	return p
}

func (p *Provider) Descriptor() provider.Descriptor { return descriptor }

func (p *Provider) Enabled() bool { return p.apiKey != "" }

func (p *Provider) Unavailable() string {
	if p.apiKey == "" {
		return "missing API key (set FINNHUB_API_KEY)"
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
	if err := p.get(ctx, "/quote", url.Values{"symbol": {sym}}, &resp); err != nil {
		return nil, err
	}
	// Unknown symbols come back as an all-zero quote.
	if resp.Current == 0 && resp.Timestamp == 0 {
		return nil, errors.New(errors.ErrCodeNotFound, "%s: no quote for %s", Name, sym)
	}

	q := &integrations.Quote{
		Symbol:        sym,
		Price:         resp.Current,
		Open:          resp.Open,
		High:          resp.High,
		Low:           resp.Low,
		PrevClose:     resp.PrevClose,
		Change:        resp.Change,
		ChangePercent: resp.ChangePercent,
	}
	if resp.Timestamp > 0 {
		q.Time = time.Unix(resp.Timestamp, 0).UTC()
	}
	return q, nil
}

func (p *Provider) companyNews(ctx context.Context, args provider.Args) (any, error) {
	sym, err := integrations.RequireSymbol(args)
	if err != nil {
		return nil, err
	}
	limit, err := integrations.IntArg(args, "limit", defaultNewsLimit)
	if err != nil {
		return nil, err
	}

	to := p.nowFunc().UTC()
	from := to.AddDate(0, 0, -defaultNewsDays)
	if s := args.String("from"); s != "" {
		if from, err = time.Parse(time.DateOnly, s); err != nil {
			return nil, errors.New(errors.ErrCodeInvalidInput, "argument \"from\" must be YYYY-MM-DD")
		}
	}
	if s := args.String("to"); s != "" {
		if to, err = time.Parse(time.DateOnly, s); err != nil {
			return nil, errors.New(errors.ErrCodeInvalidInput, "argument \"to\" must be YYYY-MM-DD")
		}
	}

	var resp []newsResponse
	q := url.Values{
		"symbol": {sym},
		"from":   {from.Format(time.DateOnly)},
		"to":     {to.Format(time.DateOnly)},
	}
	if err := p.get(ctx, "/company-news", q, &resp); err != nil {
		return nil, err
	}

	items := make([]integrations.NewsItem, 0, min(len(resp), limit))
	for _, n := range resp {
		if len(items) == limit {
			break
		}
		items = append(items, integrations.NewsItem{
			Headline: n.Headline,
			Summary:  n.Summary,
			Source:   n.Source,
			URL:      n.URL,
			Time:     time.Unix(n.Datetime, 0).UTC(),
			Related:  n.Related,
		})
	}
	return items, nil
}

func (p *Provider) profile(ctx context.Context, args provider.Args) (any, error) {
	sym, err := integrations.RequireSymbol(args)
	if err != nil {
		return nil, err
	}

	var resp profileResponse
	if err := p.get(ctx, "/stock/profile2", url.Values{"symbol": {sym}}, &resp); err != nil {
		return nil, err
	}
	if resp.Name == "" && resp.Ticker == "" {
		return nil, errors.New(errors.ErrCodeNotFound, "%s: no profile for %s", Name, sym)
	}

	return &integrations.Profile{
		Symbol:    resp.Ticker,
		Name:      resp.Name,
		Exchange:  resp.Exchange,
		Country:   resp.Country,
		Currency:  resp.Currency,
		Industry:  resp.Industry,
		Website:   resp.WebURL,
		IPO:       resp.IPO,
		MarketCap: resp.MarketCap,
	}, nil
}

// get calls a Finnhub endpoint. Authentication uses the X-Finnhub-Token
// header so the key never appears in URLs.
func (p *Provider) get(ctx context.Context, path string, q url.Values, v any) error {
	return p.client.Get(ctx, fmt.Sprintf("%s%s?%s", p.baseURL, path, q.Encode()), v)
}
