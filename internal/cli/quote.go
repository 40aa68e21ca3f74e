package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync/atomic"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/marketlink/pkg/errors"
	"github.com/matzehuels/marketlink/pkg/integrations"
	"github.com/matzehuels/marketlink/pkg/provider"
	"github.com/matzehuels/marketlink/pkg/router"
)

// maxConcurrentQuotes bounds in-flight routes for one quote command.
const maxConcurrentQuotes = 4

// quoteRow is the outcome of one symbol in a batch.
type quoteRow struct {
	Symbol string              `json:"symbol"`
	Quote  *integrations.Quote `json:"quote,omitempty"`
	Source string              `json:"source,omitempty"`
	Cached bool                `json:"cached,omitempty"`
	Error  string              `json:"error,omitempty"`
}

// quoteCommand creates the quote command.
func (c *CLI) quoteCommand() *cobra.Command {
	var (
		source  string
		noCache bool
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "quote <symbol>...",
		Short: "Fetch latest prices for one or more symbols",
		Long: `Fetch latest prices for one or more symbols.

Symbols are routed concurrently through the quote category. A failure for
one symbol is reported in its row and does not stop the others.`,
		Example: `  marketlink quote AAPL MSFT NVDA
  marketlink quote AAPL --source finnhub --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if source != "" {
				if err := errors.ValidateSourceName(source); err != nil {
					return err
				}
			}
			r, _, err := c.newRouter()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			var spinner *Spinner
			if !asJSON {
				spinner = newSpinner(ctx, c.stderr(), fmt.Sprintf("Fetching %d quotes...", len(args)))
				spinner.Start()
			}
			rows, err := fetchQuotes(ctx, r, args, router.Options{Source: source, NoCache: noCache})
			if spinner != nil {
				spinner.Stop()
			}
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(rows)
			}
			renderQuoteTable(w, rows)
			return batchError(rows)
		},
	}

	cmd.Flags().StringVarP(&source, "source", "s", "", "force a specific provider")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the result cache")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print results as JSON")

	return cmd
}

// fetchQuotes routes one quote/price call per symbol, at most
// maxConcurrentQuotes at a time. Rows keep the order of symbols.
// Per-symbol failures land in the row; only context cancellation is
// returned as an error.
func fetchQuotes(ctx context.Context, r *router.Router, symbols []string, opts router.Options) ([]quoteRow, error) {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	rows := make([]quoteRow, len(symbols))
	var failed atomic.Int32

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentQuotes)
	for i, sym := range symbols {
		sym = strings.ToUpper(strings.TrimSpace(sym))
		rows[i].Symbol = sym
		g.Go(func() error {
			res, err := r.Route(gctx, provider.CategoryQuote, "price", provider.Args{"symbol": sym}, opts)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				failed.Add(1)
				rows[i].Error = errors.UserMessage(err)
				return nil
			}
			rows[i].Source = res.Source
			rows[i].Cached = res.Cached
			if q, ok := res.Data.(*integrations.Quote); ok {
				rows[i].Quote = q
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	prog.done("Fetched quotes", "symbols", len(symbols), "failed", failed.Load())
	return rows, nil
}

func renderQuoteTable(w io.Writer, rows []quoteRow) {
	t := newTable("Symbol", "Price", "Change", "Change %", "Source")
	for _, row := range rows {
		if row.Quote == nil {
			msg := "—"
			if row.Error != "" {
				msg = StyleError.Render(iconError + " failed")
			}
			t.Row(row.Symbol, "—", "—", "—", msg)
			continue
		}
		src := row.Source
		if row.Cached {
			src += " " + styleCached.Render("(cached)")
		}
		t.Row(row.Symbol, formatPrice(row.Quote.Price), formatChange(row.Quote.Change, ""), formatChange(row.Quote.ChangePercent, "%"), src)
	}
	fmt.Fprintln(w, t.Render())

	for _, row := range rows {
		if row.Error != "" {
			printError(w, "%s: %s", row.Symbol, row.Error)
		}
	}
}

// batchError returns an error if every symbol failed.
func batchError(rows []quoteRow) error {
	for _, row := range rows {
		if row.Error == "" {
			return nil
		}
	}
	return errors.New(errors.ErrCodeAllProvidersFailed, "no quotes could be fetched")
}
