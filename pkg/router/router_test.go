package router

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/marketlink/pkg/errors"
	"github.com/matzehuels/marketlink/pkg/observability"
	"github.com/matzehuels/marketlink/pkg/provider"
	"github.com/matzehuels/marketlink/pkg/ratelimit"
)

// fakeProvider is a configurable provider that counts calls.
type fakeProvider struct {
	desc     provider.Descriptor
	disabled bool
	reason   string
	err      error
	data     any
	calls    atomic.Int32
	lastArgs provider.Args
	mu       sync.Mutex
}

func (f *fakeProvider) Descriptor() provider.Descriptor { return f.desc }
func (f *fakeProvider) Enabled() bool                   { return !f.disabled }
func (f *fakeProvider) Unavailable() string             { return f.reason }

func (f *fakeProvider) Execute(_ context.Context, req provider.Request) (*provider.Result, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.lastArgs = req.Args
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	data := f.data
	if data == nil {
		data = map[string]any{"from": f.desc.Name, "symbol": req.Args.Symbol()}
	}
	return &provider.Result{Data: data, Source: f.desc.Name}, nil
}

func newFake(name string, priority int, caps ...provider.Category) *fakeProvider {
	if len(caps) == 0 {
		caps = []provider.Category{provider.CategoryQuote}
	}
	prio := provider.Priorities{}
	for _, c := range caps {
		prio[c] = priority
	}
	return &fakeProvider{desc: provider.Descriptor{
		Name:         name,
		Capabilities: caps,
		Priority:     prio,
		RateLimit:    ratelimit.PerMinute(60),
	}}
}

func newTestRouter(opts ...Option) *Router {
	opts = append([]Option{WithLogger(log.New(io.Discard))}, opts...)
	return New(opts...)
}

var aapl = provider.Args{"symbol": "AAPL"}

func sourceNames(ps []provider.Provider) string {
	names := make([]string, len(ps))
	for i, p := range ps {
		names[i] = p.Descriptor().Name
	}
	return strings.Join(names, ",")
}

func TestFallbackToNextProvider(t *testing.T) {
	a := newFake("a", 1)
	a.err = errors.New(errors.ErrCodeNetwork, "upstream unavailable")
	b := newFake("b", 2)

	r := newTestRouter()
	r.Register(a, b)

	res, err := r.Route(context.Background(), provider.CategoryQuote, "price", aapl, Options{})
	if err != nil {
		t.Fatalf("Route() error = %v", err)
	}
	if res.Source != "b" {
		t.Errorf("Source = %q, want b", res.Source)
	}
	if res.Cached {
		t.Error("fresh result should not be marked cached")
	}
	if a.calls.Load() != 1 || b.calls.Load() != 1 {
		t.Errorf("calls a=%d b=%d, want 1 each", a.calls.Load(), b.calls.Load())
	}
}

func TestFallbackOnEveryFailureKind(t *testing.T) {
	codes := []errors.Code{
		errors.ErrCodeRateLimited,
		errors.ErrCodeUnsupported,
		errors.ErrCodeNotFound,
		errors.ErrCodeUnauthorized,
		errors.ErrCodeInvalidInput,
		errors.ErrCodeTimeout,
	}
	for _, code := range codes {
		t.Run(string(code), func(t *testing.T) {
			a := newFake("a", 1)
			a.err = errors.New(code, "nope")
			r := newTestRouter()
			r.Register(a, newFake("b", 2))

			res, err := r.Route(context.Background(), provider.CategoryQuote, "price", aapl, Options{})
			if err != nil {
				t.Fatalf("Route() error = %v", err)
			}
			if res.Source != "b" {
				t.Errorf("Source = %q, want b", res.Source)
			}
		})
	}
}

func TestForcedSource(t *testing.T) {
	a := newFake("a", 1)
	b := newFake("b", 2)
	r := newTestRouter()
	r.Register(a, b)

	res, err := r.Route(context.Background(), provider.CategoryQuote, "price", aapl, Options{Source: "b"})
	if err != nil {
		t.Fatalf("Route() error = %v", err)
	}
	if res.Source != "b" {
		t.Errorf("Source = %q, want b", res.Source)
	}
	if a.calls.Load() != 0 {
		t.Errorf("a called %d times, want 0", a.calls.Load())
	}
}

func TestForcedSourceNotAvailable(t *testing.T) {
	incapable := newFake("edgar", 1, provider.CategoryFiling)
	disabled := newFake("off", 1)
	disabledByConfig := newFake("cfg", 1)
	disabled.disabled = true

	r := newTestRouter(WithDisabled("cfg"))
	r.Register(newFake("a", 1), incapable, disabled, disabledByConfig)

	for _, source := range []string{"missing", "edgar", "off", "cfg"} {
		t.Run(source, func(t *testing.T) {
			_, err := r.Route(context.Background(), provider.CategoryQuote, "price", aapl, Options{Source: source})
			if !errors.Is(err, errors.ErrCodeSourceNotAvailable) {
				t.Fatalf("Route() error = %v, want SOURCE_NOT_AVAILABLE", err)
			}
		})
	}
	if disabled.calls.Load()+disabledByConfig.calls.Load()+incapable.calls.Load() != 0 {
		t.Error("unavailable sources must not be called")
	}
}

func TestForcedSourceFailureIsAllFailed(t *testing.T) {
	a := newFake("a", 1)
	a.err = errors.New(errors.ErrCodeNotFound, "unknown symbol")
	r := newTestRouter()
	r.Register(a, newFake("b", 2))

	_, err := r.Route(context.Background(), provider.CategoryQuote, "price", aapl, Options{Source: "a"})
	var af *errors.AllFailedError
	if !stderrors.As(err, &af) {
		t.Fatalf("Route() error = %v, want *AllFailedError", err)
	}
	if got := strings.Join(af.Sources(), ","); got != "a" {
		t.Errorf("tried = %s, want a", got)
	}
}

func TestResultIsCached(t *testing.T) {
	a := newFake("a", 1)
	r := newTestRouter()
	r.Register(a)
	ctx := context.Background()

	first, err := r.Route(ctx, provider.CategoryQuote, "price", aapl, Options{})
	if err != nil {
		t.Fatalf("Route() error = %v", err)
	}
	second, err := r.Route(ctx, provider.CategoryQuote, "price", provider.Args{"symbol": "AAPL"}, Options{})
	if err != nil {
		t.Fatalf("Route() error = %v", err)
	}
	if !second.Cached {
		t.Error("second call should be served from cache")
	}
	if second.Source != "a" {
		t.Errorf("cached Source = %q, want a", second.Source)
	}
	if fmt.Sprint(first.Data) != fmt.Sprint(second.Data) {
		t.Errorf("cached data = %v, want %v", second.Data, first.Data)
	}
	if a.calls.Load() != 1 {
		t.Errorf("provider called %d times, want 1", a.calls.Load())
	}

	// A different action is a different cache key.
	if _, err := r.Route(ctx, provider.CategoryQuote, "other", aapl, Options{}); err != nil {
		t.Fatalf("Route() error = %v", err)
	}
	if a.calls.Load() != 2 {
		t.Errorf("provider called %d times, want 2", a.calls.Load())
	}
}

func TestNoCacheBypassesReadAndWrite(t *testing.T) {
	a := newFake("a", 1)
	r := newTestRouter()
	r.Register(a)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		res, err := r.Route(ctx, provider.CategoryQuote, "price", aapl, Options{NoCache: true})
		if err != nil {
			t.Fatalf("Route() error = %v", err)
		}
		if res.Cached {
			t.Error("NoCache result should not be cached")
		}
	}
	if a.calls.Load() != 2 {
		t.Errorf("provider called %d times, want 2", a.calls.Load())
	}
	if r.Cache.Len() != 0 {
		t.Errorf("cache Len() = %d, want 0", r.Cache.Len())
	}

	// A NoCache call also ignores an existing entry.
	if _, err := r.Route(ctx, provider.CategoryQuote, "price", aapl, Options{}); err != nil {
		t.Fatal(err)
	}
	res, _ := r.Route(ctx, provider.CategoryQuote, "price", aapl, Options{NoCache: true})
	if res.Cached || a.calls.Load() != 4 {
		t.Errorf("NoCache should not read cache: cached=%v calls=%d", res.Cached, a.calls.Load())
	}
}

func TestForcedSourceChecksOnlyItsCacheEntry(t *testing.T) {
	a := newFake("a", 1)
	b := newFake("b", 2)
	r := newTestRouter()
	r.Register(a, b)
	ctx := context.Background()

	// Populate a's entry.
	if _, err := r.Route(ctx, provider.CategoryQuote, "price", aapl, Options{}); err != nil {
		t.Fatal(err)
	}
	res, err := r.Route(ctx, provider.CategoryQuote, "price", aapl, Options{Source: "b"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Cached || res.Source != "b" || b.calls.Load() != 1 {
		t.Errorf("forced b should bypass a's entry: %+v calls=%d", res, b.calls.Load())
	}

	res, _ = r.Route(ctx, provider.CategoryQuote, "price", aapl, Options{Source: "b"})
	if !res.Cached || res.Source != "b" {
		t.Errorf("forced b should hit its own entry: %+v", res)
	}
}

func TestCacheScanFollowsRegistrationOrder(t *testing.T) {
	// b has better priority but a was registered first.
	a := newFake("a", 5)
	b := newFake("b", 1)
	r := newTestRouter()
	r.Register(a, b)
	ctx := context.Background()

	lookup := provider.Args{"action": "price", "symbol": "AAPL"}
	r.Cache.Set(ctx, "b", provider.CategoryQuote, lookup, "from-b")
	r.Cache.Set(ctx, "a", provider.CategoryQuote, lookup, "from-a")

	res, err := r.Route(ctx, provider.CategoryQuote, "price", aapl, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Cached || res.Source != "a" || res.Data != "from-a" {
		t.Errorf("Route() = %+v, want cached hit from a", res)
	}
}

func TestNoProvidersAvailable(t *testing.T) {
	r := newTestRouter()
	r.Register(newFake("edgar", 1, provider.CategoryFiling))

	_, err := r.Route(context.Background(), provider.CategoryQuote, "price", aapl, Options{})
	if !errors.Is(err, errors.ErrCodeNoProviders) {
		t.Fatalf("Route() error = %v, want NO_PROVIDERS_AVAILABLE", err)
	}
	if got, want := errors.UserMessage(err), "no providers available for quote"; got != want {
		t.Errorf("message = %q, want %q", got, want)
	}
}

func TestNoProvidersListsReasons(t *testing.T) {
	keyed := newFake("alphavantage", 1)
	keyed.desc.RequiresKey = true
	keyed.disabled = true

	diagnosed := newFake("edgar", 1)
	diagnosed.disabled = true
	diagnosed.reason = "user agent not set"

	plain := newFake("plain", 1)
	plain.disabled = true

	r := newTestRouter(WithDisabled("finnhub"))
	r.Register(keyed, newFake("finnhub", 1), diagnosed, plain)

	_, err := r.Route(context.Background(), provider.CategoryQuote, "price", aapl, Options{})
	if !errors.Is(err, errors.ErrCodeNoProviders) {
		t.Fatalf("Route() error = %v, want NO_PROVIDERS_AVAILABLE", err)
	}
	msg := errors.UserMessage(err)
	for _, want := range []string{
		"no providers available for quote",
		"alphavantage: missing API key",
		"finnhub: disabled in config",
		"edgar: user agent not set",
		"plain: not configured",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q missing %q", msg, want)
		}
	}
}

func TestAllProvidersFailed(t *testing.T) {
	a := newFake("a", 1)
	a.err = errors.New(errors.ErrCodeRateLimited, "a exhausted")
	b := newFake("b", 2)
	b.err = errors.New(errors.ErrCodeNetwork, "b down")

	r := newTestRouter()
	r.Register(a, b)

	_, err := r.Route(context.Background(), provider.CategoryQuote, "price", aapl, Options{})
	if !errors.Is(err, errors.ErrCodeAllProvidersFailed) {
		t.Fatalf("Route() error = %v, want ALL_PROVIDERS_FAILED", err)
	}
	want := "All providers failed for quote/price (tried: a, b): b down"
	if got := errors.UserMessage(err); got != want {
		t.Errorf("message = %q, want %q", got, want)
	}

	var af *errors.AllFailedError
	if !stderrors.As(err, &af) {
		t.Fatal("error should be *AllFailedError")
	}
	if len(af.Attempts) != 2 || !errors.Is(af.Attempts[0].Err, errors.ErrCodeRateLimited) {
		t.Errorf("attempts = %+v", af.Attempts)
	}
	if r.Cache.Len() != 0 {
		t.Error("failures must not be cached")
	}
}

func TestUntypedFailureIsWrapped(t *testing.T) {
	a := newFake("a", 1)
	a.err = stderrors.New("boom")
	r := newTestRouter()
	r.Register(a)

	_, err := r.Route(context.Background(), provider.CategoryQuote, "price", aapl, Options{})
	var af *errors.AllFailedError
	if !stderrors.As(err, &af) {
		t.Fatalf("Route() error = %v", err)
	}
	if !errors.Is(af.Last(), errors.ErrCodeProviderFailed) {
		t.Errorf("last = %v, want PROVIDER_FAILED", af.Last())
	}
}

func TestInvalidCategory(t *testing.T) {
	r := newTestRouter()
	_, err := r.Route(context.Background(), provider.Category("bonds"), "price", aapl, Options{})
	if !errors.Is(err, errors.ErrCodeInvalidCategory) {
		t.Errorf("Route() error = %v, want INVALID_CATEGORY", err)
	}
}

func TestArgsPassedWithoutAction(t *testing.T) {
	a := newFake("a", 1)
	r := newTestRouter()
	r.Register(a)

	if _, err := r.Route(context.Background(), provider.CategoryQuote, "price", aapl, Options{}); err != nil {
		t.Fatal(err)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.lastArgs["action"]; ok {
		t.Error("provider args should not include the action")
	}
	if _, ok := aapl["action"]; ok {
		t.Error("caller args must not be mutated")
	}
}

func TestProvidersForOrdering(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(r *Router)
		want    string
		options []Option
	}{
		{
			name: "priority ascending",
			setup: func(r *Router) {
				r.Register(newFake("c", 3), newFake("a", 1), newFake("b", 2))
			},
			want: "a,b,c",
		},
		{
			name: "missing priority sorts last",
			setup: func(r *Router) {
				none := newFake("none", 0)
				none.desc.Priority = nil
				r.Register(none, newFake("ranked", 50))
			},
			want: "ranked,none",
		},
		{
			name: "ties keep registration order",
			setup: func(r *Router) {
				r.Register(newFake("x", 1), newFake("y", 1), newFake("z", 1))
			},
			want: "x,y,z",
		},
		{
			name: "headroom breaks ties",
			setup: func(r *Router) {
				x := newFake("x", 1)
				x.desc.RateLimit = ratelimit.Config{MaxRequests: 1, Window: time.Hour}
				r.Register(x, newFake("y", 1))
				r.Limiter.Consume("x", x.desc.RateLimit)
			},
			want: "y,x",
		},
		{
			name: "priority beats headroom",
			setup: func(r *Router) {
				x := newFake("x", 1)
				x.desc.RateLimit = ratelimit.Config{MaxRequests: 1, Window: time.Hour}
				r.Register(x, newFake("y", 2))
				r.Limiter.Consume("x", x.desc.RateLimit)
			},
			want: "x,y",
		},
		{
			name: "disabled and not enabled are excluded",
			setup: func(r *Router) {
				off := newFake("off", 1)
				off.disabled = true
				r.Register(off, newFake("cfg", 1), newFake("on", 2))
			},
			options: []Option{WithDisabled("cfg")},
			want:    "on",
		},
		{
			name: "incapable excluded",
			setup: func(r *Router) {
				r.Register(newFake("edgar", 1, provider.CategoryFiling), newFake("q", 1))
			},
			want: "q",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter(tt.options...)
			tt.setup(r)
			if got := sourceNames(r.ProvidersFor(provider.CategoryQuote)); got != tt.want {
				t.Errorf("ProvidersFor() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestProvidersForDoesNotConsume(t *testing.T) {
	a := newFake("a", 1)
	a.desc.RateLimit = ratelimit.Config{MaxRequests: 2, Window: time.Hour}
	r := newTestRouter()
	r.Register(a)

	for i := 0; i < 5; i++ {
		r.ProvidersFor(provider.CategoryQuote)
	}
	if got := r.Limiter.Remaining("a", a.desc.RateLimit); got != 2 {
		t.Errorf("Remaining() = %d, want 2", got)
	}
}

func TestRegisterIsIdempotent(t *testing.T) {
	r := newTestRouter()
	first := newFake("a", 1)
	first.data = "first"
	second := newFake("a", 9, provider.CategoryNews)
	second.data = "second"
	r.Register(first)
	r.Register(first, second)

	ps := r.Providers()
	if len(ps) != 1 || ps[0] != first {
		t.Fatalf("Providers() = %v, want only the first registration", ps)
	}
	if len(r.ProvidersFor(provider.CategoryNews)) != 0 {
		t.Error("duplicate registration should not add capabilities")
	}

	res, err := r.Route(context.Background(), provider.CategoryQuote, "price",
		provider.Args{"symbol": "AAPL"}, Options{NoCache: true})
	if err != nil {
		t.Fatalf("Route() error = %v", err)
	}
	if res.Data != "first" {
		t.Errorf("Data = %v, want first registrant's result", res.Data)
	}
	if first.calls.Load() != 1 || second.calls.Load() != 0 {
		t.Errorf("calls: first = %d, second = %d, want 1 and 0", first.calls.Load(), second.calls.Load())
	}
}

func TestStatus(t *testing.T) {
	keyed := newFake("alphavantage", 2, provider.CategoryQuote, provider.CategoryFundamentals)
	keyed.desc.RequiresKey = true
	keyed.disabled = true
	unlimited := newFake("free", 1)
	unlimited.desc.RateLimit = ratelimit.Config{}

	r := newTestRouter(WithDisabled("finnhub"))
	r.Register(keyed, newFake("finnhub", 1), unlimited, newFake("edgar", 1, provider.CategoryFiling))

	all := r.Status("")
	if len(all) != 4 {
		t.Fatalf("len(Status()) = %d, want 4", len(all))
	}

	quote := r.Status(provider.CategoryQuote)
	if len(quote) != 3 {
		t.Fatalf("len(Status(quote)) = %d, want 3", len(quote))
	}
	byName := map[string]Status{}
	for _, s := range quote {
		byName[s.Name] = s
	}

	if s := byName["alphavantage"]; s.Available || s.Reason != "missing API key" || s.Priority != 2 {
		t.Errorf("alphavantage = %+v", s)
	}
	if s := byName["finnhub"]; s.Available || !s.Disabled || s.Reason != "disabled in config" {
		t.Errorf("finnhub = %+v", s)
	}
	if s := byName["free"]; !s.Available || s.Remaining != -1 {
		t.Errorf("free = %+v", s)
	}
	if s := byName["finnhub"]; s.Remaining != 60 {
		t.Errorf("finnhub remaining = %d, want 60", s.Remaining)
	}
}

func TestRouteHooks(t *testing.T) {
	hooks := &recordingRouteHooks{}
	observability.SetRouteHooks(hooks)
	defer observability.Reset()

	a := newFake("a", 1)
	a.err = errors.New(errors.ErrCodeNetwork, "down")
	r := newTestRouter()
	r.Register(a, newFake("b", 2))
	ctx := context.Background()

	if _, err := r.Route(ctx, provider.CategoryQuote, "price", aapl, Options{}); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Route(ctx, provider.CategoryQuote, "price", aapl, Options{}); err != nil {
		t.Fatal(err)
	}

	hooks.mu.Lock()
	defer hooks.mu.Unlock()
	if hooks.starts != 2 || hooks.attempts != 2 || hooks.failures != 1 {
		t.Errorf("hooks = %+v", hooks)
	}
	if got := strings.Join(hooks.completed, ","); got != "b:false,b:true" {
		t.Errorf("completed = %s, want b:false,b:true", got)
	}
}

func TestConcurrentRoutes(t *testing.T) {
	r := newTestRouter()
	a := newFake("a", 1)
	r.Register(a)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			args := provider.Args{"symbol": fmt.Sprintf("S%d", i%4)}
			if _, err := r.Route(context.Background(), provider.CategoryQuote, "price", args, Options{}); err != nil {
				t.Errorf("Route() error = %v", err)
			}
		}(i)
	}
	wg.Wait()

	if r.Cache.Len() != 4 {
		t.Errorf("cache Len() = %d, want 4", r.Cache.Len())
	}
}

type recordingRouteHooks struct {
	observability.NoopRouteHooks
	mu        sync.Mutex
	starts    int
	attempts  int
	failures  int
	completed []string
}

func (h *recordingRouteHooks) OnRouteStart(context.Context, string, string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.starts++
}

func (h *recordingRouteHooks) OnRouteComplete(_ context.Context, _, _, source string, cached bool, _ time.Duration, _ error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.completed = append(h.completed, fmt.Sprintf("%s:%v", source, cached))
}

func (h *recordingRouteHooks) OnProviderAttempt(context.Context, string, string, string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.attempts++
}

func (h *recordingRouteHooks) OnProviderFailure(context.Context, string, string, string, time.Duration, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.failures++
}
