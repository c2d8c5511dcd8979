package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	replayr "github.com/HRemonen/Replayr"
	"github.com/HRemonen/Replayr/internal/wire"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// outputFormat is a flag value restricted to the formats writeRequest knows.
type outputFormat string

var _ pflag.Value = (*outputFormat)(nil)

func (f *outputFormat) String() string { return string(*f) }

func (f *outputFormat) Set(s string) error {
	switch s {
	case "json", "yaml", "http":
		*f = outputFormat(s)
		return nil
	default:
		return fmt.Errorf("must be one of json, yaml or http")
	}
}

func (f *outputFormat) Type() string { return "format" }

var showFormat outputFormat = "json"

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Prints a stored request",
	Long:  `Prints a stored request as JSON, YAML or a raw HTTP message.`,
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

		return writeRequest(cmd.OutOrStdout(), req, string(showFormat))
	},
	Example: `  replayr show 1
  replayr show 1 --format http | nc example.com 80`,
}

func init() {
	showCmd.Flags().VarP(&showFormat, "format", "f", "Output format: json, yaml or http")
}

func writeRequest(w io.Writer, req replayr.Request, format string) error {
	switch format {
	case "json":
		var b []byte
		var err error
		if isTerminal(w) {
			b, err = json.MarshalIndent(req, "", "  ")
		} else {
			b, err = json.Marshal(req)
		}
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(req); err != nil {
			return err
		}
		return enc.Close()
	case "http":
		return wire.Encode(w, req)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
