package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/marketlink/pkg/provider"
	"github.com/matzehuels/marketlink/pkg/router"
)

// providersCommand creates the providers command.
func (c *CLI) providersCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "providers [category]",
		Short: "List registered providers and their state",
		Long: `List registered providers in registration order.

With a category, only providers capable of it are shown, together with
their priority for that category. Reading the list never consumes rate
limit tokens.`,
		Args: cobra.MaximumNArgs(1),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			if len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			names := make([]string, 0, len(provider.Categories()))
			for _, cat := range provider.Categories() {
				names = append(names, string(cat))
			}
			return names, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			var category provider.Category
			if len(args) == 1 {
				cat, err := provider.ParseCategory(args[0])
				if err != nil {
					return err
				}
				category = cat
			}

			r, _, err := c.newRouter()
			if err != nil {
				return err
			}
			statuses := r.Status(category)

			w := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(statuses)
			}
			renderProviders(w, category, statuses)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the list as JSON")

	return cmd
}

func renderProviders(w io.Writer, category provider.Category, statuses []router.Status) {
	if len(statuses) == 0 {
		if category != "" {
			printWarning(w, "No providers support %s", category)
		} else {
			printWarning(w, "No providers registered")
		}
		return
	}

	headers := []string{"Provider", "Capabilities", "Key", "Tokens", "State"}
	if category != "" {
		headers = []string{"Provider", "Priority", "Key", "Tokens", "State"}
	}
	t := newTable(headers...)

	ready := 0
	for _, s := range statuses {
		second := joinCategories(s.Capabilities)
		if category != "" {
			second = strconv.Itoa(s.Priority)
		}
		key := "no"
		if s.RequiresKey {
			key = "yes"
		}
		state := StyleSuccess.Render(iconSuccess + " ready")
		if s.Available {
			ready++
		} else {
			state = StyleDim.Render(iconError + " " + s.Reason)
		}
		t.Row(s.Name, second, key, formatRemaining(s.Remaining), state)
	}

	fmt.Fprintln(w, t.Render())
	printDetail(w, "%d of %d providers ready", ready, len(statuses))
}

func joinCategories(cs []provider.Category) string {
	names := make([]string, len(cs))
	for i, c := range cs {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}
