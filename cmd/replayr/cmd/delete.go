package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <id>...",
	Short: "Deletes stored requests",
	Long:  `Deletes stored requests by id.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, arg := range args {
			id, err := parseID(arg)
			if err != nil {
				return err
			}

			if err := store.Delete(cmd.Context(), id); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "deleted #%d\n", id)
		}

		return nil
	},
}
