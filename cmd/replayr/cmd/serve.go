package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/HRemonen/Replayr/internal/api"
	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves the stored requests over HTTP",
	Long: `Serves the stored requests over HTTP:

  GET    /requests
  POST   /requests
  GET    /requests/{id}
  DELETE /requests/{id}
  POST   /repeat/{id}`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if serveAddr != "" {
			cfg.Server.Addr = serveAddr
		}

		f, err := newFetcher()
		if err != nil {
			return err
		}

		server := &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           api.New(store, f, logger),
			ReadHeaderTimeout: 10 * time.Second,
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		go func() {
			<-ctx.Done()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				logger.WithError(err).Warn("error shutting down server")
			}
		}()

		logger.WithField("addr", server.Addr).Info("serving requests")

		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Address to listen on (default from config, 127.0.0.1:8000)")
}
