package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/marketlink/pkg/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestLoadFromMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.toml"), envMap(nil))
	if err != nil {
		t.Fatalf("LoadFrom() error: %v", err)
	}
	if cfg.Timeout.Duration != DefaultTimeout {
		t.Errorf("Timeout = %v, want %v", cfg.Timeout, DefaultTimeout)
	}
	if cfg.Cache.MaxEntries != DefaultMaxEntries {
		t.Errorf("MaxEntries = %d, want %d", cfg.Cache.MaxEntries, DefaultMaxEntries)
	}
	if cfg.Server.Addr != DefaultAddr {
		t.Errorf("Addr = %q, want %q", cfg.Server.Addr, DefaultAddr)
	}
	if len(cfg.Disabled) != 0 || len(cfg.Keys) != 0 {
		t.Errorf("unexpected settings: %+v", cfg)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
disabled = ["edgar"]
user_agent = "marketlink test@example.com"
timeout = "3s"

[cache]
max_entries = 42

[server]
addr = ":9000"

[keys]
finnhub = "file-key"
`)
	cfg, err := LoadFrom(path, envMap(nil), "finnhub")
	if err != nil {
		t.Fatalf("LoadFrom() error: %v", err)
	}
	if !cfg.IsDisabled("edgar") || cfg.IsDisabled("finnhub") {
		t.Errorf("Disabled = %v", cfg.Disabled)
	}
	if cfg.UserAgent != "marketlink test@example.com" {
		t.Errorf("UserAgent = %q", cfg.UserAgent)
	}
	if cfg.Timeout.Duration != 3*time.Second {
		t.Errorf("Timeout = %v", cfg.Timeout)
	}
	if cfg.Cache.MaxEntries != 42 || cfg.Server.Addr != ":9000" {
		t.Errorf("cache/server = %+v %+v", cfg.Cache, cfg.Server)
	}
	if cfg.Key("finnhub") != "file-key" {
		t.Errorf("Key(finnhub) = %q", cfg.Key("finnhub"))
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
disabled = ["edgar"]

[keys]
finnhub = "file-key"
`)
	env := envMap(map[string]string{
		"FINNHUB_API_KEY":       "env-key",
		"ALPHAVANTAGE_API_KEY":  "  av-key ",
		"MARKETLINK_DISABLED":   "finnhub, ,alphavantage",
		"MARKETLINK_USER_AGENT": "env agent",
		"MARKETLINK_TIMEOUT":    "250ms",
	})
	cfg, err := LoadFrom(path, env, "finnhub", "alphavantage", "edgar")
	if err != nil {
		t.Fatalf("LoadFrom() error: %v", err)
	}
	if cfg.Key("finnhub") != "env-key" || cfg.Key("alphavantage") != "av-key" {
		t.Errorf("Keys = %v", cfg.Keys)
	}
	if cfg.Key("edgar") != "" {
		t.Errorf("Key(edgar) = %q, want empty", cfg.Key("edgar"))
	}
	set := cfg.DisabledSet()
	if len(set) != 2 || !set["finnhub"] || !set["alphavantage"] || set["edgar"] {
		t.Errorf("DisabledSet() = %v", set)
	}
	if cfg.UserAgent != "env agent" || cfg.Timeout.Duration != 250*time.Millisecond {
		t.Errorf("UserAgent/Timeout = %q %v", cfg.UserAgent, cfg.Timeout)
	}
}

func TestEmptyEnvKeyIgnored(t *testing.T) {
	path := writeConfig(t, "[keys]\nfinnhub = \"file-key\"\n")
	cfg, err := LoadFrom(path, envMap(map[string]string{"FINNHUB_API_KEY": ""}), "finnhub")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Key("finnhub") != "file-key" {
		t.Errorf("Key(finnhub) = %q, want file-key", cfg.Key("finnhub"))
	}
}

func TestLoadFromInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		env  map[string]string
	}{
		{"syntax", "disabled = [", nil},
		{"unknown key", "colour = \"blue\"\n", nil},
		{"bad duration", "timeout = \"soon\"\n", nil},
		{"negative timeout", "timeout = \"-1s\"\n", nil},
		{"negative entries", "[cache]\nmax_entries = -1\n", nil},
		{"bad disabled name", "disabled = [\"Not Valid\"]\n", nil},
		{"bad env timeout", "", map[string]string{"MARKETLINK_TIMEOUT": "x"}},
		{"bad env disabled", "", map[string]string{"MARKETLINK_DISABLED": "a/b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.body)
			_, err := LoadFrom(path, envMap(tt.env))
			if !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Errorf("LoadFrom() error = %v, want INVALID_CONFIG", err)
			}
		})
	}
}

func TestPath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	got, err := Path()
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "marketlink", "config.toml"); got != want {
		t.Errorf("Path() = %q, want %q", got, want)
	}

	t.Setenv("XDG_CONFIG_HOME", "")
	got, err = Path()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(got, filepath.Join(".config", "marketlink", "config.toml")) {
		t.Errorf("Path() = %q", got)
	}
}

func TestRedacted(t *testing.T) {
	cfg := Default()
	cfg.Keys["finnhub"] = "abcdef123456"
	cfg.Keys["short"] = "abc"

	out, err := cfg.Redacted()
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out, "abcdef123456") {
		t.Errorf("Redacted() leaks key:\n%s", out)
	}
	for _, want := range []string{"********3456", `"***"`, `timeout = "10s"`, "max_entries = 500"} {
		if !strings.Contains(out, want) {
			t.Errorf("Redacted() missing %q:\n%s", want, out)
		}
	}
	if cfg.Keys["finnhub"] != "abcdef123456" {
		t.Error("Redacted() modified the original keys")
	}
}

func TestEnvKey(t *testing.T) {
	tests := map[string]string{
		"finnhub":      "FINNHUB_API_KEY",
		"alphavantage": "ALPHAVANTAGE_API_KEY",
		"my-source":    "MY_SOURCE_API_KEY",
	}
	for in, want := range tests {
		if got := EnvKey(in); got != want {
			t.Errorf("EnvKey(%q) = %q, want %q", in, got, want)
		}
	}
}
