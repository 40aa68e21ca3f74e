// Package config loads marketlink settings from a TOML file and the
// environment.
//
// # Location
//
// The file lives at $XDG_CONFIG_HOME/marketlink/config.toml, falling back
// to ~/.config/marketlink/config.toml. A missing file is not an error;
// every setting has a default.
//
// # Format
//
//	disabled = ["edgar"]
//	user_agent = "marketlink you@example.com"
//	timeout = "10s"
//
//	[cache]
//	max_entries = 500
//
//	[server]
//	addr = ":8080"
//
//	[keys]
//	alphavantage = "..."
//	finnhub = "..."
//
// # Environment
//
// Environment variables override the file:
//
//	<SOURCE>_API_KEY         API key for a source (FINNHUB_API_KEY)
//	MARKETLINK_DISABLED      comma-separated source names
//	MARKETLINK_USER_AGENT    contact User-Agent for SEC EDGAR
//	MARKETLINK_TIMEOUT       upstream request timeout (e.g. "5s")
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/marketlink/pkg/errors"
)

const (
	appName = "marketlink"

	// DefaultTimeout bounds each upstream HTTP request.
	DefaultTimeout = 10 * time.Second

	// DefaultMaxEntries is the default result-cache size bound.
	DefaultMaxEntries = 500

	// DefaultAddr is the default listen address for the HTTP API.
	DefaultAddr = "127.0.0.1:8080"
)

// Config is the merged file and environment configuration.
type Config struct {
	Disabled  []string          `toml:"disabled"`
	UserAgent string            `toml:"user_agent"`
	Timeout   Duration          `toml:"timeout"`
	Cache     CacheConfig       `toml:"cache"`
	Server    ServerConfig      `toml:"server"`
	Keys      map[string]string `toml:"keys"`
}

// CacheConfig configures the in-memory result cache.
type CacheConfig struct {
	MaxEntries int `toml:"max_entries"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// Duration is a time.Duration written as a string ("10s") in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns a Config with every default applied.
func Default() *Config {
	return &Config{
		Timeout: Duration{DefaultTimeout},
		Cache:   CacheConfig{MaxEntries: DefaultMaxEntries},
		Server:  ServerConfig{Addr: DefaultAddr},
		Keys:    map[string]string{},
	}
}

// Path returns the config file location using the XDG convention.
func Path() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidConfig, err, "could not determine home directory")
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// Load reads the default config file if present, then applies
// environment overrides for the given source names.
func Load(sources ...string) (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path, os.LookupEnv, sources...)
}

// LoadFrom reads path (a missing file yields defaults), applies
// environment overrides from lookup and validates the result.
func LoadFrom(path string, lookup func(string) (string, bool), sources ...string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := cfg.decodeFile(path); err != nil {
				return nil, err
			}
		}
	}
	if lookup != nil {
		if err := cfg.ApplyEnv(lookup, sources...); err != nil {
			return nil, err
		}
	}
	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decodeFile(path string) error {
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return errors.New(errors.ErrCodeInvalidConfig, "%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	return nil
}

// ApplyEnv overrides settings from environment variables. lookup is
// usually os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool), sources ...string) error {
	if v, ok := lookup("MARKETLINK_DISABLED"); ok {
		c.Disabled = splitList(v)
	}
	if v, ok := lookup("MARKETLINK_USER_AGENT"); ok {
		c.UserAgent = strings.TrimSpace(v)
	}
	if v, ok := lookup("MARKETLINK_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "MARKETLINK_TIMEOUT")
		}
		c.Timeout = Duration{d}
	}
	if c.Keys == nil {
		c.Keys = map[string]string{}
	}
	for _, s := range sources {
		if v, ok := lookup(EnvKey(s)); ok && strings.TrimSpace(v) != "" {
			c.Keys[s] = strings.TrimSpace(v)
		}
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.Timeout.Duration == 0 {
		c.Timeout = Duration{DefaultTimeout}
	}
	if c.Cache.MaxEntries == 0 {
		c.Cache.MaxEntries = DefaultMaxEntries
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
}

// Validate reports the first invalid setting as an INVALID_CONFIG error.
func (c *Config) Validate() error {
	for _, name := range c.Disabled {
		if err := errors.ValidateSourceName(name); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "disabled")
		}
	}
	for name := range c.Keys {
		if err := errors.ValidateSourceName(name); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "keys")
		}
	}
	if c.Timeout.Duration < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "timeout must not be negative")
	}
	if c.Cache.MaxEntries < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "cache.max_entries must not be negative")
	}
	return nil
}

// DisabledSet returns the disabled source names as a set.
func (c *Config) DisabledSet() map[string]bool {
	set := make(map[string]bool, len(c.Disabled))
	for _, n := range c.Disabled {
		set[n] = true
	}
	return set
}

// IsDisabled reports whether name is disabled.
func (c *Config) IsDisabled(name string) bool {
	return slices.Contains(c.Disabled, name)
}

// Key returns the API key configured for source, or "".
func (c *Config) Key(source string) string {
	return c.Keys[source]
}

// Redacted returns the config as TOML with API keys masked, for display.
func (c *Config) Redacted() (string, error) {
	clone := *c
	clone.Keys = make(map[string]string, len(c.Keys))
	for k, v := range c.Keys {
		clone.Keys[k] = mask(v)
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(clone); err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "encode config")
	}
	return buf.String(), nil
}

// EnvKey returns the environment variable holding the API key for source.
func EnvKey(source string) string {
	return strings.ToUpper(strings.ReplaceAll(source, "-", "_")) + "_API_KEY"
}

func mask(s string) string {
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	return fmt.Sprintf("%s%s", strings.Repeat("*", len(s)-4), s[len(s)-4:])
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
