package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/matzehuels/marketlink/pkg/provider"
)

// Key builds the canonical cache key for a provider call.
//
// The key format is: provider:category:k1=v1&k2=v2, with arguments sorted
// by name and each value JSON-encoded. Two requests whose argument maps
// hold the same pairs in a different order produce the same key.
func Key(source string, category provider.Category, args provider.Args) string {
	names := make([]string, 0, len(args))
	for k := range args {
		names = append(names, k)
	}
	slices.Sort(names)

	pairs := make([]string, len(names))
	for i, k := range names {
		pairs[i] = k + "=" + serialize(args[k])
	}
	return fmt.Sprintf("%s:%s:%s", source, category, strings.Join(pairs, "&"))
}

// serialize renders v as JSON. encoding/json sorts map keys, so nested
// maps are canonical too. Values JSON cannot encode fall back to %v.
func serialize(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

// Hash computes a SHA-256 hash of the input data.
// Returns the full 64-character hex string.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
