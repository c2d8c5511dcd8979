package cmd

import (
	"fmt"
	"strconv"

	replayr "github.com/HRemonen/Replayr"
	"github.com/HRemonen/Replayr/internal/config"
	"github.com/HRemonen/Replayr/internal/storage"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	SilenceUsage:  true,
	SilenceErrors: true,
	Use:           "replayr [command]",
	Short:         "Store, inspect and replay HTTP requests",
	Long:          `A command line tool for keeping a collection of HTTP requests and sending them again.`,
	Example: `  replayr import request.http
  replayr list
  replayr show 3 --format yaml
  replayr send 3
  replayr discover https://example.com --depth 2
  replayr serve --addr 127.0.0.1:8000

  # Example configuration file:
  store:
    driver: sqlite
    dsn: replayr.db
  fetcher:
    timeout: 10s
    base_url: https://api.example.com`,
	PersistentPreRunE: setup,
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if store == nil {
			return nil
		}
		return store.Close()
	},
}

var (
	verbose    bool
	configPath string
	driver     string
	dsn        string

	cfg    config.Config
	store  storage.Store
	logger = logrus.New()
)

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(discoverCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show verbose debug information")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "replayr.yaml", "Configuration file")
	rootCmd.PersistentFlags().StringVar(&driver, "driver", "", "Store driver: memory, sqlite or postgres")
	rootCmd.PersistentFlags().StringVarP(&dsn, "store", "s", "", "Store location: SQLite file or PostgreSQL connection string")
}

func setup(cmd *cobra.Command, args []string) error {
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	logger.SetOutput(cmd.ErrOrStderr())
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	var err error
	cfg, err = config.Load(configPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", configPath, err)
	}

	if driver != "" {
		cfg.Store.Driver = driver
	}
	if dsn != "" {
		cfg.Store.DSN = dsn
	}

	logger.WithFields(logrus.Fields{
		"driver": cfg.Store.Driver,
		"dsn":    cfg.Store.DSN,
	}).Debug("opening store")

	store, err = storage.Open(cfg.Store.Driver, cfg.Store.DSN)

	return err
}

func newFetcher() (*replayr.Fetcher, error) {
	options, err := cfg.FetcherOptions()
	if err != nil {
		return nil, err
	}

	return replayr.NewFetcher(append(options, replayr.WithLogger(logger))...), nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid request id %q", s)
	}

	return id, nil
}
