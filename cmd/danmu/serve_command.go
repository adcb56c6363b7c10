package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"danmu/internal/api"
	"danmu/internal/logging"
	"danmu/internal/server"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bindFlag string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the resolution API over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			bind := bindFlag
			if bind == "" {
				bind = cfg.Paths.APIBind
			}
			logger := ctx.logger(true)

			runtime, err := api.OpenRuntime(cfg, logger)
			if err != nil {
				return err
			}
			defer runtime.Close()

			httpServer := &http.Server{
				Addr:              bind,
				Handler:           server.New(runtime, logger),
				ReadHeaderTimeout: 10 * time.Second,
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				logger.Info("http server listening", logging.String("bind", bind))
				errCh <- httpServer.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return fmt.Errorf("serve: %w", err)
			case <-runCtx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
			logger.Info("http server stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&bindFlag, "bind", "", "Listen address, defaults to the configured api_bind")
	return cmd
}
