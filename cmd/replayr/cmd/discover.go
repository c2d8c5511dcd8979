package cmd

import (
	"fmt"

	"github.com/HRemonen/Replayr/internal/crawler"
	"github.com/spf13/cobra"
)

var discoverDepth int

var discoverCmd = &cobra.Command{
	Use:   "discover <url>",
	Short: "Stores the requests found by crawling a site",
	Long: `Fetches a page and the pages it links to, down to --depth levels, and stores
a GET request for every link and a request for every form found on the way.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := newFetcher()
		if err != nil {
			return err
		}

		c := crawler.NewCrawler(f, store)
		c.Logger = logger

		added, err := c.Crawl(cmd.Context(), args[0], discoverDepth)
		for _, req := range added {
			fmt.Fprintf(cmd.OutOrStdout(), "stored %s\n", req)
		}

		return err
	},
}

func init() {
	discoverCmd.Flags().IntVarP(&discoverDepth, "depth", "d", 1, "Number of link levels to fetch")
}
