package router

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/marketlink/pkg/cache"
	"github.com/matzehuels/marketlink/pkg/errors"
	"github.com/matzehuels/marketlink/pkg/observability"
	"github.com/matzehuels/marketlink/pkg/provider"
	"github.com/matzehuels/marketlink/pkg/ratelimit"
	"github.com/matzehuels/marketlink/pkg/registry"
)

// Options control a single Route call.
type Options struct {
	// Source forces a specific provider. The call fails with
	// SOURCE_NOT_AVAILABLE if that provider cannot serve the category.
	Source string

	// NoCache skips both the cache lookup and the cache write.
	NoCache bool
}

// Router dispatches requests to the best available provider.
//
// The Router owns no goroutines and keeps no per-request state, so one
// instance can serve concurrent Route calls from the CLI and the HTTP API.
type Router struct {
	Registry *registry.Registry
	Cache    *cache.Store
	Limiter  *ratelimit.Limiter
	Logger   *log.Logger

	disabled map[string]bool
}

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the logger. A nil logger is ignored.
func WithLogger(l *log.Logger) Option {
	return func(r *Router) {
		if l != nil {
			r.Logger = l
		}
	}
}

// WithCache sets the result cache.
func WithCache(c *cache.Store) Option {
	return func(r *Router) {
		if c != nil {
			r.Cache = c
		}
	}
}

// WithLimiter sets the limiter used to read provider headroom. Providers
// must consume from the same instance for ordering to be meaningful.
func WithLimiter(l *ratelimit.Limiter) Option {
	return func(r *Router) {
		if l != nil {
			r.Limiter = l
		}
	}
}

// WithDisabled excludes the named sources from routing.
func WithDisabled(names ...string) Option {
	return func(r *Router) {
		for _, n := range names {
			if n = strings.TrimSpace(n); n != "" {
				r.disabled[n] = true
			}
		}
	}
}

// New creates a Router with an empty registry. Unset dependencies get
// fresh defaults.
func New(opts ...Option) *Router {
	r := &Router{
		Registry: registry.New(),
		disabled: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.Cache == nil {
		r.Cache = cache.New()
	}
	if r.Limiter == nil {
		r.Limiter = ratelimit.New()
	}
	if r.Logger == nil {
		r.Logger = log.Default()
	}
	return r
}

// Register adds p to the registry. Duplicate names are ignored.
func (r *Router) Register(ps ...provider.Provider) {
	for _, p := range ps {
		if !r.Registry.Register(p) {
			r.Logger.Debug("provider already registered", "source", p.Descriptor().Name)
		}
	}
}

// Providers returns every registered provider in registration order.
func (r *Router) Providers() []provider.Provider {
	return r.Registry.Providers()
}

// Disabled reports whether name is excluded by configuration.
func (r *Router) Disabled(name string) bool {
	return r.disabled[name]
}

// ProvidersFor returns the providers eligible for category, best first.
//
// Eligible providers list the category, are enabled and are not disabled
// by configuration. They are ordered by ascending priority; among equal
// priorities a provider with a token available sorts before one without.
// The sort is stable, so remaining ties keep registration order.
func (r *Router) ProvidersFor(category provider.Category) []provider.Provider {
	var out []provider.Provider
	for _, p := range r.Registry.Capable(category) {
		if !p.Enabled() || r.disabled[p.Descriptor().Name] {
			continue
		}
		out = append(out, p)
	}

	type rank struct {
		priority int
		ready    bool
	}
	ranks := make(map[string]rank, len(out))
	for _, p := range out {
		d := p.Descriptor()
		ranks[d.Name] = rank{
			priority: d.Priority.For(category),
			ready:    r.Limiter.CanRequest(d.Name, d.RateLimit),
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := ranks[out[i].Descriptor().Name], ranks[out[j].Descriptor().Name]
		if a.priority != b.priority {
			return a.priority < b.priority
		}
		return a.ready && !b.ready
	})
	return out
}

// Route serves one request, trying candidates in order until one succeeds.
//
// Unless opts.NoCache is set, a cached result is returned first: for a
// forced source only that source's entry is checked, otherwise capable
// providers are scanned in registration order. A fresh result is cached
// under the provider that produced it.
//
// Failures of individual providers are logged and never returned
// directly; if every candidate fails the error is an
// *errors.AllFailedError listing each attempt.
func (r *Router) Route(ctx context.Context, category provider.Category, action string, args provider.Args, opts Options) (res *provider.Result, err error) {
	start := time.Now()
	hooks := observability.Route()
	hooks.OnRouteStart(ctx, string(category), action)
	defer func() {
		var source string
		var cached bool
		if res != nil {
			source, cached = res.Source, res.Cached
		}
		hooks.OnRouteComplete(ctx, string(category), action, source, cached, time.Since(start), err)
	}()

	if !category.Valid() {
		return nil, errors.New(errors.ErrCodeInvalidCategory, "unknown category %q", category)
	}

	// The action is part of the cache key but not of the provider's args.
	lookup := provider.Args{"action": action}
	maps.Copy(lookup, args)

	if !opts.NoCache {
		if hit := r.cached(ctx, category, lookup, opts.Source); hit != nil {
			r.Logger.Debug("cache hit", "category", category, "action", action, "source", hit.Source)
			return hit, nil
		}
	}

	candidates := r.ProvidersFor(category)
	if opts.Source != "" {
		candidates = filterByName(candidates, opts.Source)
		if len(candidates) == 0 {
			return nil, errors.New(errors.ErrCodeSourceNotAvailable,
				"source %q is not available for %s", opts.Source, category)
		}
	}
	if len(candidates) == 0 {
		return nil, r.noProviders(category)
	}

	failure := &errors.AllFailedError{Category: string(category), Action: action}
	req := provider.Request{Category: category, Action: action, Args: args}

	for _, p := range candidates {
		name := p.Descriptor().Name
		attemptStart := time.Now()
		hooks.OnProviderAttempt(ctx, name, string(category), action)
		r.Logger.Debug("trying provider", "source", name, "category", category, "action", action)

		out, execErr := p.Execute(ctx, req)
		if execErr == nil && out == nil {
			execErr = errors.New(errors.ErrCodeProviderFailed, "%s returned no result", name)
		}
		if execErr != nil {
			if errors.GetCode(execErr) == "" {
				execErr = errors.Wrap(errors.ErrCodeProviderFailed, execErr, "%s failed", name)
			}
			hooks.OnProviderFailure(ctx, name, string(category), action, time.Since(attemptStart), execErr)
			r.logFailure(name, category, action, execErr)
			failure.Attempts = append(failure.Attempts, errors.Attempt{Source: name, Err: execErr})
			continue
		}

		result := &provider.Result{Data: out.Data, Source: name}
		if !opts.NoCache {
			r.Cache.Set(ctx, name, category, lookup, result.Data)
		}
		if len(failure.Attempts) > 0 {
			r.Logger.Info("served by fallback provider", "source", name, "category", category,
				"action", action, "failed", strings.Join(failure.Sources(), ","))
		}
		return result, nil
	}

	return nil, failure
}

// cached returns a cache hit for lookup, or nil.
func (r *Router) cached(ctx context.Context, category provider.Category, lookup provider.Args, source string) *provider.Result {
	if source != "" {
		if data, ok := r.Cache.Get(ctx, source, category, lookup); ok {
			return &provider.Result{Data: data, Source: source, Cached: true}
		}
		return nil
	}
	for _, p := range r.Registry.Capable(category) {
		name := p.Descriptor().Name
		if data, ok := r.Cache.Get(ctx, name, category, lookup); ok {
			return &provider.Result{Data: data, Source: name, Cached: true}
		}
	}
	return nil
}

// noProviders builds the NO_PROVIDERS_AVAILABLE error, listing why each
// capable provider was skipped.
func (r *Router) noProviders(category provider.Category) error {
	capable := r.Registry.Capable(category)
	if len(capable) == 0 {
		return errors.New(errors.ErrCodeNoProviders, "no providers available for %s", category)
	}
	reasons := make([]string, 0, len(capable))
	for _, p := range capable {
		reasons = append(reasons, fmt.Sprintf("%s: %s", p.Descriptor().Name, r.unavailableReason(p)))
	}
	return errors.New(errors.ErrCodeNoProviders, "no providers available for %s (%s)",
		category, strings.Join(reasons, "; "))
}

// unavailableReason explains why p is not a candidate.
func (r *Router) unavailableReason(p provider.Provider) string {
	d := p.Descriptor()
	switch {
	case r.disabled[d.Name]:
		return "disabled in config"
	case p.Enabled():
		return "available"
	}
	if diag, ok := p.(provider.Diagnoser); ok {
		if reason := diag.Unavailable(); reason != "" {
			return reason
		}
	}
	if d.RequiresKey {
		return "missing API key"
	}
	return "not configured"
}

// logFailure logs a provider failure at a level matching its kind.
// Rate limiting and unsupported actions are expected during fallback.
func (r *Router) logFailure(name string, category provider.Category, action string, err error) {
	kv := []any{"source", name, "category", category, "action", action, "error", errors.UserMessage(err)}
	switch errors.GetCode(err) {
	case errors.ErrCodeRateLimited:
		r.Logger.Debug("provider rate limited, falling back", kv...)
	case errors.ErrCodeUnsupported:
		r.Logger.Debug("provider does not support action, falling back", kv...)
	default:
		r.Logger.Warn("provider failed, falling back", append(kv, "code", errors.GetCode(err))...)
	}
}

func filterByName(ps []provider.Provider, name string) []provider.Provider {
	for _, p := range ps {
		if p.Descriptor().Name == name {
			return []provider.Provider{p}
		}
	}
	return nil
}
