package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/donaldgifford/meli-collector/internal/meli"
)

func (a *app) searchCommand() *cobra.Command {
	var (
		limit    int
		offset   int
		maxPages int
	)

	searchCmd := &cobra.Command{
		Use:   "search [term]",
		Short: "List the item identifiers matching a search term",
		Long:  "Runs the same search the collector issues for one term and prints the identifiers.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(nil)
			if err != nil {
				return err
			}

			f := cmd.Flags()
			if !f.Changed("limit") {
				limit = cfg.Collection.Limit
			}
			if !f.Changed("offset") {
				offset = cfg.Collection.Offset
			}
			if !f.Changed("max-pages") {
				maxPages = cfg.Collection.MaxPages
			}

			client := newAPIClient(cfg, newLogger(cfg, cmd.ErrOrStderr()))
			p := meli.NewPaginator(client, meli.WithPageSize(limit), meli.WithMaxPages(maxPages))

			res, err := p.Paginate(cmd.Context(), args[0], offset)
			if err != nil {
				return fmt.Errorf("searching %q: %w", args[0], err)
			}

			if a.jsonOutput() {
				return outputJSON(cmd.OutOrStdout(), res)
			}
			return printSearchResult(cmd.OutOrStdout(), args[0], res)
		},
	}

	searchCmd.Flags().IntVar(&limit, "limit", 50, "results per page")
	searchCmd.Flags().IntVar(&offset, "offset", 0, "offset of the first result")
	searchCmd.Flags().IntVar(&maxPages, "max-pages", 1, "maximum number of pages")

	return searchCmd
}
