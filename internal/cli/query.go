package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/marketlink/pkg/errors"
	"github.com/matzehuels/marketlink/pkg/provider"
	"github.com/matzehuels/marketlink/pkg/router"
)

// queryOptions holds the flags of the query command.
type queryOptions struct {
	source  string
	noCache bool
	json    bool
	pick    bool
}

// queryCommand creates the query command.
func (c *CLI) queryCommand() *cobra.Command {
	var opts queryOptions

	cmd := &cobra.Command{
		Use:   "query <category> <action> [key=value...]",
		Short: "Route a single request to the best available provider",
		Long: `Route a single request to the best available provider.

Providers are tried in priority order and the first success wins. Results
are cached per category; --no-cache skips both the lookup and the write.

Categories: quote, crypto, forex, news, historical, filing, economic,
fundamentals, profile.`,
		Example: `  marketlink query quote price symbol=AAPL
  marketlink query historical daily symbol=MSFT limit=5 --json
  marketlink query filing recent symbol=AAPL form=10-K --source edgar
  marketlink query news company symbol=NVDA --pick`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.source != "" {
				if err := errors.ValidateSourceName(opts.source); err != nil {
					return err
				}
			}
			if opts.pick && opts.source != "" {
				return errors.New(errors.ErrCodeInvalidInput, "--pick and --source are mutually exclusive")
			}

			r, _, err := c.newRouter()
			if err != nil {
				return err
			}
			return c.runQuery(cmd.Context(), cmd.OutOrStdout(), r, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.source, "source", "s", "", "force a specific provider")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "bypass the result cache")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print the result as JSON")
	cmd.Flags().BoolVar(&opts.pick, "pick", false, "choose the provider interactively")

	return cmd
}

func (c *CLI) runQuery(ctx context.Context, w io.Writer, r *router.Router, args []string, opts queryOptions) error {
	logger := loggerFromContext(ctx)

	category, err := provider.ParseCategory(args[0])
	if err != nil {
		return err
	}
	action := args[1]
	if err := errors.ValidateAction(action); err != nil {
		return err
	}
	callArgs, err := provider.ParseArgs(args[2:])
	if err != nil {
		return err
	}

	if opts.pick {
		source, err := pickProvider(ctx, r, category)
		if err != nil {
			return err
		}
		if source == "" {
			return nil
		}
		opts.source = source
	}

	logger.Debug("routing", "category", category, "action", action, "args", callArgs, "source", opts.source)
	res, err := r.Route(ctx, category, action, callArgs, router.Options{
		Source:  opts.source,
		NoCache: opts.noCache,
	})
	if err != nil {
		return err
	}

	if opts.json {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	return renderResult(w, category, action, res)
}

// pickProvider runs the interactive picker over the providers capable of
// category. It returns "" if the user quit without choosing.
func pickProvider(ctx context.Context, r *router.Router, category provider.Category) (string, error) {
	statuses := r.Status(category)
	if len(statuses) == 0 {
		return "", errors.New(errors.ErrCodeNoProviders, "no providers support %s", category)
	}

	model := newProviderPicker(category, statuses)
	final, err := tea.NewProgram(model, tea.WithContext(ctx)).Run()
	if err != nil {
		return "", fmt.Errorf("provider picker: %w", err)
	}
	if m, ok := final.(providerPicker); ok && m.selected != nil {
		return m.selected.Name, nil
	}
	return "", nil
}
