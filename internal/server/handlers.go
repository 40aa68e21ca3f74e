package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/marketlink/pkg/buildinfo"
	"github.com/matzehuels/marketlink/pkg/cache"
	"github.com/matzehuels/marketlink/pkg/errors"
	"github.com/matzehuels/marketlink/pkg/provider"
	"github.com/matzehuels/marketlink/pkg/router"
)

// Reserved query parameters on the routing endpoint.
const (
	paramSource  = "source"
	paramNoCache = "no_cache"
)

type healthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Uptime    string `json:"uptime"`
	Providers int    `json:"providers"`
	Available int    `json:"available"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	statuses := s.router.Status("")
	available := 0
	for _, st := range statuses {
		if st.Available {
			available++
		}
	}
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Version:   buildinfo.Version,
		Uptime:    time.Since(s.started).Round(time.Second).String(),
		Providers: len(statuses),
		Available: available,
	})
}

type providersResponse struct {
	Category  provider.Category `json:"category,omitempty"`
	Providers []router.Status   `json:"providers"`
}

func (s *Server) handleProviders(w http.ResponseWriter, r *http.Request) {
	var category provider.Category
	if raw := chi.URLParam(r, "category"); raw != "" {
		c, err := provider.ParseCategory(raw)
		if err != nil {
			s.writeRouteError(w, r, err)
			return
		}
		category = c
	}
	writeJSON(w, http.StatusOK, providersResponse{
		Category:  category,
		Providers: s.router.Status(category),
	})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	category, err := provider.ParseCategory(chi.URLParam(r, "category"))
	if err != nil {
		s.writeRouteError(w, r, err)
		return
	}
	action := chi.URLParam(r, "action")
	if err := errors.ValidateAction(action); err != nil {
		s.writeRouteError(w, r, err)
		return
	}

	opts, args, err := parseQuery(r)
	if err != nil {
		s.writeRouteError(w, r, err)
		return
	}

	res, err := s.router.Route(r.Context(), category, action, args, opts)
	if err != nil {
		s.writeRouteError(w, r, err)
		return
	}

	// The tag covers the payload only, so a cached copy of the same data
	// matches the fresh one.
	data, err := json.Marshal(res.Data)
	if err != nil {
		writeError(w, http.StatusInternalServerError, string(errors.ErrCodeInternal), "encode result")
		return
	}
	etag := `"` + cache.Hash(data)[:32] + `"`
	w.Header().Set("ETag", etag)
	if match := r.Header.Get("If-None-Match"); match != "" && match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	writeJSON(w, http.StatusOK, queryResponse{
		Data:   json.RawMessage(data),
		Source: res.Source,
		Cached: res.Cached,
	})
}

// queryResponse mirrors provider.Result with the payload already encoded.
type queryResponse struct {
	Data   json.RawMessage `json:"data"`
	Source string          `json:"source"`
	Cached bool            `json:"cached"`
}

// parseQuery splits the query string into routing options and call
// arguments. Repeated argument keys keep their first value.
func parseQuery(r *http.Request) (router.Options, provider.Args, error) {
	var opts router.Options
	q := r.URL.Query()

	if src := strings.TrimSpace(q.Get(paramSource)); src != "" {
		if err := errors.ValidateSourceName(src); err != nil {
			return opts, nil, err
		}
		opts.Source = src
	}
	if raw := q.Get(paramNoCache); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return opts, nil, errors.New(errors.ErrCodeInvalidInput, "no_cache must be a boolean, got %q", raw)
		}
		opts.NoCache = v
	}

	args := make(provider.Args, len(q))
	for k, vs := range q {
		if k == paramSource || k == paramNoCache || len(vs) == 0 {
			continue
		}
		args[k] = vs[0]
	}
	return opts, args, nil
}
