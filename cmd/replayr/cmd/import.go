package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/HRemonen/Replayr/internal/wire"
	"github.com/spf13/cobra"
)

var importID int64

var importCmd = &cobra.Command{
	Use:   "import [file...]",
	Short: "Stores raw HTTP request messages",
	Long: `Reads one HTTP/1.1 request message from each file, or from standard input
when no file or "-" is given, and stores it with the next free id.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			args = []string{"-"}
		}

		if importID != 0 && len(args) > 1 {
			return fmt.Errorf("--id can only be used with a single message")
		}

		for _, name := range args {
			if err := importFile(cmd, name); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
		}

		return nil
	},
}

func init() {
	importCmd.Flags().Int64Var(&importID, "id", 0, "Id to store the request under instead of the next free one")
}

func importFile(cmd *cobra.Command, name string) error {
	var r io.Reader = cmd.InOrStdin()
	if name != "-" {
		f, err := os.Open(name)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}

	ctx := cmd.Context()

	id := importID
	if id == 0 {
		next, err := store.NextID(ctx)
		if err != nil {
			return err
		}
		id = next
	}

	req, err := wire.Decode(r, id)
	if err != nil {
		return err
	}

	if err := store.Put(ctx, req); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "imported %s\n", req)

	return nil
}
