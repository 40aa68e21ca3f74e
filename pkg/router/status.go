package router

import (
	"math"

	"github.com/matzehuels/marketlink/pkg/provider"
)

// Status is a point-in-time view of one registered provider, used by the
// CLI providers table and the HTTP API.
type Status struct {
	Name         string              `json:"name"`
	Capabilities []provider.Category `json:"capabilities"`
	RequiresKey  bool                `json:"requires_key"`
	Enabled      bool                `json:"enabled"`
	Disabled     bool                `json:"disabled"`
	Available    bool                `json:"available"`
	Reason       string              `json:"reason,omitempty"`
	Priority     int                 `json:"priority,omitempty"`
	Remaining    int                 `json:"remaining"` // -1 when unlimited
}

// Status reports every registered provider in registration order. If
// category is non-empty only capable providers are listed and Priority
// is the rank for that category.
//
// Reading the status never consumes tokens.
func (r *Router) Status(category provider.Category) []Status {
	var ps []provider.Provider
	if category == "" {
		ps = r.Registry.Providers()
	} else {
		ps = r.Registry.Capable(category)
	}

	out := make([]Status, 0, len(ps))
	for _, p := range ps {
		d := p.Descriptor()
		s := Status{
			Name:         d.Name,
			Capabilities: d.Capabilities,
			RequiresKey:  d.RequiresKey,
			Enabled:      p.Enabled(),
			Disabled:     r.disabled[d.Name],
			Remaining:    r.Limiter.Remaining(d.Name, d.RateLimit),
		}
		s.Available = s.Enabled && !s.Disabled
		if !s.Available {
			s.Reason = r.unavailableReason(p)
		}
		if category != "" {
			s.Priority = d.Priority.For(category)
		}
		if s.Remaining == math.MaxInt {
			s.Remaining = -1
		}
		out = append(out, s)
	}
	return out
}
