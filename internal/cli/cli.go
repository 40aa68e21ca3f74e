package cli

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/marketlink/pkg/buildinfo"
	"github.com/matzehuels/marketlink/pkg/cache"
	"github.com/matzehuels/marketlink/pkg/config"
	"github.com/matzehuels/marketlink/pkg/integrations"
	"github.com/matzehuels/marketlink/pkg/integrations/alphavantage"
	"github.com/matzehuels/marketlink/pkg/integrations/edgar"
	"github.com/matzehuels/marketlink/pkg/integrations/finnhub"
	"github.com/matzehuels/marketlink/pkg/provider"
	"github.com/matzehuels/marketlink/pkg/ratelimit"
	"github.com/matzehuels/marketlink/pkg/router"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for display.
const appName = "marketlink"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// sources lists the built-in data sources in registration order.
var sources = []string{alphavantage.Name, finnhub.Name, edgar.Name}

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Err receives spinners and other transient progress output.
	Err io.Writer

	loadConfig func() (*config.Config, error)
	providers  func(cfg *config.Config, limiter *ratelimit.Limiter) []provider.Provider
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Err:    w,
		loadConfig: func() (*config.Config, error) {
			return config.Load(sources...)
		},
		providers: builtinProviders,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "marketlink routes market-data queries across upstream providers",
		Long:         `marketlink fetches quotes, price history, fundamentals, news and filings from several market-data APIs, falling back between them when one is rate limited or down.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.queryCommand())
	root.AddCommand(c.quoteCommand())
	root.AddCommand(c.providersCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Router Factory
// =============================================================================

// newRouter loads the configuration and builds a router with every
// built-in provider registered against one shared limiter.
func (c *CLI) newRouter() (*router.Router, *config.Config, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, nil, err
	}

	limiter := ratelimit.New()
	r := router.New(
		router.WithLogger(c.Logger),
		router.WithLimiter(limiter),
		router.WithCache(cache.New(cache.WithMaxEntries(cfg.Cache.MaxEntries))),
		router.WithDisabled(cfg.Disabled...),
	)
	r.Register(c.providers(cfg, limiter)...)

	c.Logger.Debug("router ready", "providers", len(r.Providers()), "disabled", cfg.Disabled)
	return r, cfg, nil
}

func builtinProviders(cfg *config.Config, limiter *ratelimit.Limiter) []provider.Provider {
	opts := []integrations.ClientOption{integrations.WithTimeout(cfg.Timeout.Duration)}
	return []provider.Provider{
		alphavantage.NewProvider(cfg.Key(alphavantage.Name), limiter, opts...),
		finnhub.NewProvider(cfg.Key(finnhub.Name), limiter, opts...),
		edgar.NewProvider(cfg.UserAgent, limiter, opts...),
	}
}

// stderr returns the writer for transient output.
func (c *CLI) stderr() io.Writer {
	if c.Err != nil {
		return c.Err
	}
	return os.Stderr
}
