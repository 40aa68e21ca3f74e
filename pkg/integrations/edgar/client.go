package edgar

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/matzehuels/marketlink/pkg/errors"
	"github.com/matzehuels/marketlink/pkg/integrations"
	"github.com/matzehuels/marketlink/pkg/provider"
	"github.com/matzehuels/marketlink/pkg/ratelimit"
)

// Name is the source name used for routing, rate limiting and config.
const Name = "edgar"

const (
	defaultFilesURL    = "https://www.sec.gov"
	defaultDataURL     = "https://data.sec.gov"
	defaultFilingLimit = 10
)

// descriptor: SEC fair-access policy allows 10 requests per second.
var descriptor = provider.Descriptor{
	Name:        Name,
	RequiresKey: false,
	Capabilities: []provider.Category{
		provider.CategoryFiling,
		provider.CategoryProfile,
	},
	Priority: provider.Priorities{
		provider.CategoryFiling:  1,
		provider.CategoryProfile: 3,
	},
	RateLimit: ratelimit.PerSecond(10),
}

// Provider serves filings and company facts from SEC EDGAR.
//
// EDGAR needs no key but rejects requests without a descriptive
// User-Agent, so the provider is disabled until one is configured.
type Provider struct {
	client    *integrations.Client
	userAgent string
	filesURL  string
	dataURL   string
	routes    integrations.Routes

	mu      sync.Mutex
	tickers map[string]string // ticker -> zero-padded CIK, loaded once
}

// NewProvider creates an EDGAR provider identifying itself with userAgent
// (for example "marketlink you@example.com").
func NewProvider(userAgent string, limiter *ratelimit.Limiter, opts ...integrations.ClientOption) *Provider {
	userAgent = strings.TrimSpace(userAgent)
	headers := map[string]string{
		"User-Agent": userAgent,
		"Accept":     "application/json",
	}
	p := &Provider{
		client:    integrations.NewClient(Name, limiter, descriptor.RateLimit, headers, opts...),
		userAgent: userAgent,
		filesURL:  defaultFilesURL,
		dataURL:   defaultDataURL,
	}
	p.routes = integrations.Routes{
		provider.CategoryFiling:  {"recent": p.recent},
		provider.CategoryProfile: {"profile": p.profile},
	}
	return p
}

func (p *Provider) Descriptor() provider.Descriptor { return descriptor }

func (p *Provider) Enabled() bool { return p.userAgent != "" }

func (p *Provider) Unavailable() string {
	if p.userAgent == "" {
		return "user agent not configured (set user_agent in config)"
	}
	return ""
}

func (p *Provider) Execute(ctx context.Context, req provider.Request) (*provider.Result, error) {
	if !p.Enabled() {
		return nil, errors.New(errors.ErrCodeUnauthorized, "%s: user agent not configured", Name)
	}
	return p.routes.Serve(ctx, Name, req)
}

// recent lists the latest filings, optionally restricted to one form
// type ("form=10-K").
func (p *Provider) recent(ctx context.Context, args provider.Args) (any, error) {
	limit, err := integrations.IntArg(args, "limit", defaultFilingLimit)
	if err != nil {
		return nil, err
	}
	sub, cik, err := p.submissions(ctx, args)
	if err != nil {
		return nil, err
	}

	form := strings.ToUpper(strings.TrimSpace(args.String("form")))
	r := sub.Filings.Recent
	filings := make([]integrations.Filing, 0, limit)
	for i := range r.AccessionNumber {
		if len(filings) == limit {
			break
		}
		f := integrations.Filing{
			Form:        at(r.Form, i),
			FilingDate:  at(r.FilingDate, i),
			ReportDate:  at(r.ReportDate, i),
			Accession:   r.AccessionNumber[i],
			Description: at(r.PrimaryDocDescription, i),
		}
		if form != "" && !strings.EqualFold(f.Form, form) {
			continue
		}
		f.URL = p.documentURL(cik, f.Accession, at(r.PrimaryDocument, i))
		filings = append(filings, f)
	}
	return filings, nil
}

func (p *Provider) profile(ctx context.Context, args provider.Args) (any, error) {
	sub, cik, err := p.submissions(ctx, args)
	if err != nil {
		return nil, err
	}

	prof := &integrations.Profile{
		Name:    sub.Name,
		CIK:     cik,
		Tickers: sub.Tickers,
		SIC:     sub.SICDescription,
		State:   sub.StateOfIncorporation,
		Website: sub.Website,
	}
	if len(sub.Tickers) > 0 {
		prof.Symbol = sub.Tickers[0]
	}
	if len(sub.Exchanges) > 0 {
		prof.Exchange = sub.Exchanges[0]
	}
	return prof, nil
}

// submissions fetches the company submissions document for the "cik"
// argument, or for the CIK the "symbol" argument resolves to.
func (p *Provider) submissions(ctx context.Context, args provider.Args) (*submissionsResponse, string, error) {
	cik, err := p.resolveCIK(ctx, args)
	if err != nil {
		return nil, "", err
	}
	var sub submissionsResponse
	url := fmt.Sprintf("%s/submissions/CIK%s.json", p.dataURL, cik)
	if err := p.client.Get(ctx, url, &sub); err != nil {
		return nil, "", err
	}
	return &sub, cik, nil
}

func (p *Provider) resolveCIK(ctx context.Context, args provider.Args) (string, error) {
	if raw := strings.TrimSpace(args.String("cik")); raw != "" {
		return padCIK(raw)
	}
	sym, err := integrations.RequireSymbol(args)
	if err != nil {
		return "", err
	}
	tickers, err := p.loadTickers(ctx)
	if err != nil {
		return "", err
	}
	cik, ok := tickers[sym]
	if !ok {
		return "", errors.New(errors.ErrCodeNotFound, "%s: no CIK for ticker %s", Name, sym)
	}
	return cik, nil
}

// loadTickers fetches the SEC ticker map on first use. A failed load is
// not remembered, so the next call tries again.
func (p *Provider) loadTickers(ctx context.Context) (map[string]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.tickers != nil {
		return p.tickers, nil
	}

	var resp map[string]tickerEntry
	if err := p.client.Get(ctx, p.filesURL+"/files/company_tickers.json", &resp); err != nil {
		return nil, err
	}
	tickers := make(map[string]string, len(resp))
	for _, e := range resp {
		tickers[strings.ToUpper(e.Ticker)] = fmt.Sprintf("%010d", e.CIK)
	}
	p.tickers = tickers
	return tickers, nil
}

func (p *Provider) documentURL(cik, accession, doc string) string {
	n, _ := strconv.ParseInt(cik, 10, 64)
	folder := strings.ReplaceAll(accession, "-", "")
	if doc == "" {
		return fmt.Sprintf("%s/Archives/edgar/data/%d/%s/", p.filesURL, n, folder)
	}
	return fmt.Sprintf("%s/Archives/edgar/data/%d/%s/%s", p.filesURL, n, folder, doc)
}

// padCIK normalizes a CIK to the 10-digit form used in EDGAR URLs.
func padCIK(raw string) (string, error) {
	n, err := strconv.ParseInt(strings.TrimPrefix(strings.ToUpper(raw), "CIK"), 10, 64)
	if err != nil || n <= 0 || n > 9_999_999_999 {
		return "", errors.New(errors.ErrCodeInvalidInput, "argument \"cik\" must be a positive number, got %q", raw)
	}
	return fmt.Sprintf("%010d", n), nil
}

// at returns s[i] or "" when the parallel array is short.
func at(s []string, i int) string {
	if i < len(s) {
		return s[i]
	}
	return ""
}
