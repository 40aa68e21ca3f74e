// Package cache provides the in-memory result cache used by the router.
//
// Entries are keyed by provider, category and the sorted request
// arguments (see [Key]) and expire after a per-category TTL
// ([provider.Category.TTL]). Expiration is lazy: an expired entry is
// removed when it is next read, or during eviction.
//
// # Eviction
//
// The store is soft-bounded by MaxEntries. After every write that leaves
// the store over the bound, expired entries are dropped first; if it is
// still too large, the entries closest to expiry are removed until the
// bound holds. This orders by absolute expiry time, not by recency, so a
// fresh entry of a short-TTL category can be evicted before an older
// entry of a long-TTL category.
//
// Contents are process-local and volatile.
package cache

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/matzehuels/marketlink/pkg/observability"
	"github.com/matzehuels/marketlink/pkg/provider"
)

// DefaultMaxEntries is the default size bound of a Store.
const DefaultMaxEntries = 500

// entry wraps cached data with its absolute expiry time.
type entry struct {
	data      any
	expiresAt time.Time
}

// Store is a TTL-bounded, size-bounded result cache.
// All methods are safe for concurrent use.
type Store struct {
	mu         sync.Mutex
	entries    map[string]entry
	maxEntries int
	ttl        func(provider.Category) time.Duration
	nowFunc    func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithMaxEntries sets the size bound. Values below 1 are ignored.
func WithMaxEntries(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxEntries = n
		}
	}
}

// WithClock sets the time source. Tests use it to control expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.nowFunc = now
		}
	}
}

// WithTTL overrides the per-category TTL table.
func WithTTL(ttl func(provider.Category) time.Duration) Option {
	return func(s *Store) {
		if ttl != nil {
			s.ttl = ttl
		}
	}
}

// New creates an empty Store.
func New(opts ...Option) *Store {
	s := &Store{
		entries:    make(map[string]entry),
		maxEntries: DefaultMaxEntries,
		ttl:        provider.Category.TTL,
		nowFunc:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MaxEntries returns the configured size bound.
func (s *Store) MaxEntries() int { return s.maxEntries }

// Get returns the cached data for a provider call.
// An expired entry is deleted and reported as a miss.
func (s *Store) Get(ctx context.Context, source string, category provider.Category, args provider.Args) (any, bool) {
	key := Key(source, category, args)

	s.mu.Lock()
	e, ok := s.entries[key]
	if ok && !s.nowFunc().Before(e.expiresAt) {
		delete(s.entries, key)
		ok = false
	}
	s.mu.Unlock()

	if !ok {
		observability.Cache().OnCacheMiss(ctx, string(category))
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, string(category))
	return e.data, true
}

// Set stores data for a provider call, expiring after the category TTL,
// then enforces the size bound.
func (s *Store) Set(ctx context.Context, source string, category provider.Category, args provider.Args, data any) {
	key := Key(source, category, args)

	s.mu.Lock()
	now := s.nowFunc()
	s.entries[key] = entry{data: data, expiresAt: now.Add(s.ttl(category))}
	evicted := s.evictLocked(now)
	size := len(s.entries)
	s.mu.Unlock()

	observability.Cache().OnCacheSet(ctx, string(category), size)
	if evicted > 0 {
		observability.Cache().OnCacheEvict(ctx, evicted)
	}
}

// evictLocked brings the store back within maxEntries and returns the
// number of removed entries. Callers must hold s.mu.
func (s *Store) evictLocked(now time.Time) int {
	if len(s.entries) <= s.maxEntries {
		return 0
	}

	removed := 0
	for k, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, k)
			removed++
		}
	}

	surplus := len(s.entries) - s.maxEntries
	if surplus <= 0 {
		return removed
	}

	type candidate struct {
		key       string
		expiresAt time.Time
	}
	candidates := make([]candidate, 0, len(s.entries))
	for k, e := range s.entries {
		candidates = append(candidates, candidate{key: k, expiresAt: e.expiresAt})
	}
	// Key order breaks ties so eviction does not depend on map iteration.
	slices.SortFunc(candidates, func(a, b candidate) int {
		if c := a.expiresAt.Compare(b.expiresAt); c != 0 {
			return c
		}
		return cmp.Compare(a.key, b.key)
	})
	for _, c := range candidates[:surplus] {
		delete(s.entries, c.key)
	}
	return removed + surplus
}

// Clear removes every entry.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.entries)
}

// Len returns the number of stored entries, including expired entries
// that have not been read or evicted yet.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
