package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var includeHeaders bool

var sendCmd = &cobra.Command{
	Use:   "send <id>",
	Short: "Sends a stored request",
	Long:  `Sends a stored request and prints the response body.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		req, err := store.Get(cmd.Context(), id)
		if err != nil {
			return err
		}

		f, err := newFetcher()
		if err != nil {
			return err
		}

		res, err := f.Send(cmd.Context(), req)
		if err != nil {
			return err
		}

		logger.WithField("size", humanize.Bytes(uint64(len(res.Body)))).Infof("%s -> %d", req, res.StatusCode)

		out := cmd.OutOrStdout()
		if includeHeaders {
			fmt.Fprintf(out, "%d\n", res.StatusCode)
			for _, h := range res.Headers {
				fmt.Fprintf(out, "%s: %s\n", h.Key, h.Value)
			}
			fmt.Fprintln(out)
		}

		_, err = out.Write(res.Body)

		return err
	},
}

func init() {
	sendCmd.Flags().BoolVarP(&includeHeaders, "include", "i", false, "Print the status code and response headers")
}
