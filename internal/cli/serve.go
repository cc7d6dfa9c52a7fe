package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/eddiefleurent/schrute_bucks/internal/dashboard"
	"github.com/eddiefleurent/schrute_bucks/internal/storage"
	"github.com/spf13/cobra"
)

// shutdownTimeout bounds how long in-flight requests may linger on exit.
const shutdownTimeout = 10 * time.Second

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve saved analyses over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup(*configPath)
			if err != nil {
				return err
			}

			store, err := storage.NewStorage(cfg.Storage.Path)
			if err != nil {
				return err
			}

			srv := dashboard.NewServer(dashboard.Config{
				Port:      cfg.Dashboard.Port,
				AuthToken: cfg.Dashboard.AuthToken,
			}, store, logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			logger.Info("Shutting down dashboard server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
}
