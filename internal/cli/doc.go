// Package cli implements the marketlink command-line interface.
//
// # Commands
//
//   - query: route one category/action call (query quote price symbol=AAPL)
//   - quote: fetch latest prices for several symbols concurrently
//   - providers: list registered providers, their state and token headroom
//   - config: show the config file location and effective settings
//   - serve: run the HTTP API
//   - completion: generate shell completion scripts
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging, which
// includes every provider attempt and fallback. The logger is also
// attached to the command context.
//
// # Example
//
//	c := cli.New(os.Stderr, cli.LogInfo)
//	if err := c.RootCommand().ExecuteContext(ctx); err != nil {
//	    os.Exit(1)
//	}
package cli
