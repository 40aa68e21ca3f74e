package provider

import (
	"fmt"
	"maps"
	"strings"

	"github.com/matzehuels/marketlink/pkg/errors"
)

// Args holds the free-form arguments of a request (e.g., "symbol", "limit").
type Args map[string]any

// String returns the value for key rendered as a string, or "" if absent.
func (a Args) String(key string) string {
	v, ok := a[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Symbol returns the trimmed, upper-cased "symbol" argument.
func (a Args) Symbol() string {
	return strings.ToUpper(strings.TrimSpace(a.String("symbol")))
}

// Clone returns a shallow copy of a. A nil receiver yields an empty map.
func (a Args) Clone() Args {
	out := make(Args, len(a))
	maps.Copy(out, a)
	return out
}

// ParseArgs converts "key=value" pairs into Args. Values stay strings.
// A pair without "=" is rejected; later duplicates override earlier ones.
func ParseArgs(pairs []string) (Args, error) {
	args := make(Args, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, errors.New(errors.ErrCodeInvalidInput, "argument %q must have the form key=value", p)
		}
		args[k] = v
	}
	return args, nil
}
