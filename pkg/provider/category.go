package provider

import (
	"slices"
	"strings"
	"time"

	"github.com/matzehuels/marketlink/pkg/errors"
)

// Category identifies a kind of data that one or more providers can serve.
// The set is closed; use [ParseCategory] to convert user input.
type Category string

const (
	CategoryQuote        Category = "quote"
	CategoryCrypto       Category = "crypto"
	CategoryForex        Category = "forex"
	CategoryNews         Category = "news"
	CategoryHistorical   Category = "historical"
	CategoryFiling       Category = "filing"
	CategoryEconomic     Category = "economic"
	CategoryFundamentals Category = "fundamentals"
	CategoryProfile      Category = "profile"
)

// categoryTTLs is the cache lifetime per category. Fast-moving data is
// short-lived; reference data is kept for a day.
var categoryTTLs = map[Category]time.Duration{
	CategoryQuote:        30 * time.Second,
	CategoryCrypto:       30 * time.Second,
	CategoryForex:        time.Minute,
	CategoryNews:         5 * time.Minute,
	CategoryHistorical:   time.Hour,
	CategoryFiling:       6 * time.Hour,
	CategoryEconomic:     12 * time.Hour,
	CategoryFundamentals: 24 * time.Hour,
	CategoryProfile:      24 * time.Hour,
}

// DefaultTTL applies to categories missing from the TTL table.
const DefaultTTL = 5 * time.Minute

// Categories returns every known category in a stable order.
func Categories() []Category {
	return []Category{
		CategoryQuote,
		CategoryCrypto,
		CategoryForex,
		CategoryNews,
		CategoryHistorical,
		CategoryFiling,
		CategoryEconomic,
		CategoryFundamentals,
		CategoryProfile,
	}
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	return slices.Contains(Categories(), c)
}

// TTL returns how long results of this category stay cached.
func (c Category) TTL() time.Duration {
	if ttl, ok := categoryTTLs[c]; ok {
		return ttl
	}
	return DefaultTTL
}

func (c Category) String() string { return string(c) }

// ParseCategory converts s (case-insensitive) to a Category.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		names := make([]string, 0, len(Categories()))
		for _, known := range Categories() {
			names = append(names, string(known))
		}
		return "", errors.New(errors.ErrCodeInvalidCategory,
			"unknown category %q (valid: %s)", s, strings.Join(names, ", "))
	}
	return c, nil
}

// DefaultPriority is the sentinel used when a provider declares no
// priority for a category. Lower numbers are preferred.
const DefaultPriority = 100

// Priorities maps categories to a provider's preference rank. The map is
// partial: missing categories rank at DefaultPriority.
type Priorities map[Category]int

// For returns the priority for c, or DefaultPriority if unset.
func (p Priorities) For(c Category) int {
	if v, ok := p[c]; ok {
		return v
	}
	return DefaultPriority
}
