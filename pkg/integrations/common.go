package integrations

import (
	"context"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/matzehuels/marketlink/pkg/errors"
	"github.com/matzehuels/marketlink/pkg/provider"
)

// DefaultTimeout bounds every upstream request.
const DefaultTimeout = 10 * time.Second

// NewHTTPClient creates an HTTP client with the given request timeout.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// Handler serves one action of one category and returns the payload for
// [provider.Result.Data].
type Handler func(ctx context.Context, args provider.Args) (any, error)

// Actions maps action names to handlers within one category.
type Actions map[string]Handler

// Routes is an adapter's dispatch table: category, then action.
type Routes map[provider.Category]Actions

// Serve dispatches req to its handler and wraps the payload in a Result
// attributed to source. Unknown categories and actions fail with
// UNSUPPORTED so the router can fall back.
func (r Routes) Serve(ctx context.Context, source string, req provider.Request) (*provider.Result, error) {
	actions, ok := r[req.Category]
	if !ok {
		return nil, errors.New(errors.ErrCodeUnsupported, "%s does not serve %s", source, req.Category)
	}
	h, ok := actions[req.Action]
	if !ok {
		return nil, errors.New(errors.ErrCodeUnsupported, "%s does not support %s/%s (actions: %s)",
			source, req.Category, req.Action, strings.Join(actions.Names(), ", "))
	}
	data, err := h(ctx, req.Args)
	if err != nil {
		return nil, err
	}
	return &provider.Result{Data: data, Source: source}, nil
}

// Names returns the action names in sorted order.
func (a Actions) Names() []string {
	names := make([]string, 0, len(a))
	for n := range a {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// RequireSymbol returns the normalized "symbol" argument, failing with
// INVALID_INPUT if it is missing or malformed.
func RequireSymbol(args provider.Args) (string, error) {
	sym := args.Symbol()
	if sym == "" {
		return "", errors.New(errors.ErrCodeInvalidInput, "missing required argument \"symbol\"")
	}
	if err := errors.ValidateSymbol(sym); err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid argument \"symbol\"")
	}
	return sym, nil
}

// IntArg returns args[key] as a positive integer, or def if absent.
func IntArg(args provider.Args, key string, def int) (int, error) {
	s := strings.TrimSpace(args.String(key))
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, errors.New(errors.ErrCodeInvalidInput, "argument %q must be a positive integer", key)
	}
	return n, nil
}

// URLEncode percent-encodes a string for use in URL query values.
// This is a convenience wrapper around [url.QueryEscape].
func URLEncode(s string) string { return url.QueryEscape(s) }
