package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/marketlink/internal/server"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the router over HTTP",
		Long: `Serve the router over HTTP until interrupted.

Endpoints:
  GET /healthz
  GET /v1/providers[/{category}]
  GET /v1/{category}/{action}?symbol=AAPL&source=&no_cache=

The listen address defaults to server.addr from the config file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, cfg, err := c.newRouter()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Server.Addr
			}
			return server.New(r, c.Logger).ListenAndServe(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (host:port)")

	return cmd
}
