package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *app) itemCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "item [id]",
		Short: "Print the detail record of one item as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(nil)
			if err != nil {
				return err
			}

			client := newAPIClient(cfg, newLogger(cfg, cmd.ErrOrStderr()))
			rec, err := client.Item(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("fetching item %s: %w", args[0], err)
			}

			return outputJSON(cmd.OutOrStdout(), rec)
		},
	}
}
