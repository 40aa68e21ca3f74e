package finnhub

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/matzehuels/marketlink/pkg/errors"
	"github.com/matzehuels/marketlink/pkg/httputil"
	"github.com/matzehuels/marketlink/pkg/integrations"
	"github.com/matzehuels/marketlink/pkg/provider"
	"github.com/matzehuels/marketlink/pkg/ratelimit"
)

func testProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-Finnhub-Token"); got != "secret" {
			t.Errorf("X-Finnhub-Token = %q, want secret", got)
		}
		if r.URL.Query().Get("token") != "" {
			t.Error("API key must not be sent in the query string")
		}
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	p := NewProvider("secret", ratelimit.New(),
		integrations.WithHTTPClient(server.Client()),
		integrations.WithRetry(httputil.NoRetry))
	p.baseURL = server.URL
	p.nowFunc = func() time.Time { return time.Date(2026, 1, 9, 15, 0, 0, 0, time.UTC) }
	return p
}

func execute(p *Provider, category provider.Category, action string, args provider.Args) (*provider.Result, error) {
	return p.Execute(context.Background(), provider.Request{Category: category, Action: action, Args: args})
}

func TestProvider_Price(t *testing.T) {
	p := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/quote" || r.URL.Query().Get("symbol") != "AAPL" {
			t.Errorf("unexpected request %s", r.URL)
		}
		w.Write([]byte(`{"c":187.5,"d":1.25,"dp":0.671,"h":188.1,"l":185.9,"o":186.0,"pc":186.25,"t":1767970800}`))
	})

	res, err := execute(p, provider.CategoryQuote, "price", provider.Args{"symbol": "aapl"})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	q := res.Data.(*integrations.Quote)
	if q.Symbol != "AAPL" || q.Price != 187.5 || q.PrevClose != 186.25 || q.ChangePercent != 0.671 {
		t.Errorf("quote = %+v", q)
	}
	if q.Time.Unix() != 1767970800 {
		t.Errorf("Time = %v", q.Time)
	}
	if res.Source != Name || res.Cached {
		t.Errorf("result = %+v", res)
	}
}

func TestProvider_PriceUnknownSymbol(t *testing.T) {
	p := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"c":0,"d":null,"dp":null,"h":0,"l":0,"o":0,"pc":0,"t":0}`))
	})

	_, err := execute(p, provider.CategoryQuote, "price", provider.Args{"symbol": "NOPE"})
	if !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("Execute() error = %v, want NOT_FOUND", err)
	}
}

func TestProvider_CompanyNews(t *testing.T) {
	var gotFrom, gotTo string
	p := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/company-news" {
			t.Errorf("path = %s", r.URL.Path)
		}
		gotFrom = r.URL.Query().Get("from")
		gotTo = r.URL.Query().Get("to")
		w.Write([]byte(`[
			{"category":"company","datetime":1767960000,"headline":"Apple ships","id":1,"related":"AAPL","source":"Reuters","summary":"...","url":"https://example.com/1"},
			{"category":"company","datetime":1767950000,"headline":"Apple earnings","id":2,"related":"AAPL","source":"Bloomberg","summary":"...","url":"https://example.com/2"},
			{"category":"company","datetime":1767940000,"headline":"Apple event","id":3,"related":"AAPL","source":"CNBC","summary":"...","url":"https://example.com/3"}
		]`))
	})

	res, err := execute(p, provider.CategoryNews, "company", provider.Args{"symbol": "AAPL", "limit": "2"})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if gotFrom != "2026-01-02" || gotTo != "2026-01-09" {
		t.Errorf("window = %s..%s, want 2026-01-02..2026-01-09", gotFrom, gotTo)
	}
	items := res.Data.([]integrations.NewsItem)
	if len(items) != 2 {
		t.Fatalf("len(items) = %d, want 2", len(items))
	}
	if items[0].Headline != "Apple ships" || items[0].Source != "Reuters" {
		t.Errorf("items[0] = %+v", items[0])
	}
}

func TestProvider_CompanyNewsExplicitWindow(t *testing.T) {
	var gotFrom, gotTo string
	p := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		gotFrom = r.URL.Query().Get("from")
		gotTo = r.URL.Query().Get("to")
		w.Write([]byte(`[]`))
	})

	res, err := execute(p, provider.CategoryNews, "company", provider.Args{"symbol": "AAPL", "from": "2025-06-01", "to": "2025-06-30"})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if gotFrom != "2025-06-01" || gotTo != "2025-06-30" {
		t.Errorf("window = %s..%s", gotFrom, gotTo)
	}
	if items := res.Data.([]integrations.NewsItem); len(items) != 0 {
		t.Errorf("items = %v, want empty", items)
	}

	_, err = execute(p, provider.CategoryNews, "company", provider.Args{"symbol": "AAPL", "from": "June"})
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("bad from error = %v, want INVALID_INPUT", err)
	}
}

func TestProvider_Profile(t *testing.T) {
	p := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/stock/profile2" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`{"country":"US","currency":"USD","exchange":"NASDAQ NMS - GLOBAL MARKET","ipo":"1980-12-12","marketCapitalization":2900000,"name":"Apple Inc","ticker":"AAPL","weburl":"https://www.apple.com/","finnhubIndustry":"Technology"}`))
	})

	res, err := execute(p, provider.CategoryProfile, "profile", provider.Args{"symbol": "AAPL"})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	prof := res.Data.(*integrations.Profile)
	if prof.Name != "Apple Inc" || prof.Industry != "Technology" || prof.IPO != "1980-12-12" {
		t.Errorf("profile = %+v", prof)
	}
}

func TestProvider_ProfileEmpty(t *testing.T) {
	p := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})

	_, err := execute(p, provider.CategoryProfile, "profile", provider.Args{"symbol": "NOPE"})
	if !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("Execute() error = %v, want NOT_FOUND", err)
	}
}

func TestProvider_UpstreamErrors(t *testing.T) {
	tests := []struct {
		status int
		want   errors.Code
	}{
		{http.StatusUnauthorized, errors.ErrCodeUnauthorized},
		{http.StatusTooManyRequests, errors.ErrCodeRateLimited},
		{http.StatusInternalServerError, errors.ErrCodeNetwork},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			p := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})
			_, err := execute(p, provider.CategoryQuote, "price", provider.Args{"symbol": "AAPL"})
			if got := errors.GetCode(err); got != tt.want {
				t.Errorf("code = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestProvider_UnsupportedAndInvalid(t *testing.T) {
	p := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s", r.URL)
	})

	if _, err := execute(p, provider.CategoryFiling, "recent", provider.Args{"symbol": "AAPL"}); !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("filing error = %v, want UNSUPPORTED", err)
	}
	if _, err := execute(p, provider.CategoryNews, "market", nil); !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("news/market error = %v, want UNSUPPORTED", err)
	}
	if _, err := execute(p, provider.CategoryQuote, "price", nil); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("missing symbol error = %v, want INVALID_INPUT", err)
	}
}

func TestProvider_Enabled(t *testing.T) {
	p := NewProvider("", nil)
	if p.Enabled() || p.Unavailable() == "" {
		t.Error("provider without key should be disabled with a reason")
	}
	if d := p.Descriptor(); d.Name != Name || d.RateLimit != ratelimit.PerMinute(60) {
		t.Errorf("descriptor = %+v", d)
	}
}
