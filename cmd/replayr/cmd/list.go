package cmd

import (
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Lists the stored requests",
	Long:  `Lists the stored requests ordered by id.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reqs, err := store.List(cmd.Context())
		if err != nil {
			return err
		}

		table := tablewriter.NewWriter(cmd.OutOrStdout())
		table.SetHeader([]string{"ID", "Method", "URL", "Headers", "Body"})
		table.SetAutoWrapText(false)
		table.SetBorder(false)

		for _, req := range reqs {
			table.Append([]string{
				strconv.FormatInt(req.ID(), 10),
				req.Method().String(),
				req.URL(),
				strconv.Itoa(len(req.Headers())),
				humanize.Bytes(uint64(len(req.Body()))),
			})
		}

		table.Render()

		return nil
	},
}
