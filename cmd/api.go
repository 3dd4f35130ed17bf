package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/guttosm/fiscalpulse/config"
	"github.com/guttosm/fiscalpulse/internal/app"
	"github.com/guttosm/fiscalpulse/internal/logger"
)

func newAPICmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "api",
		Short: "Start the REST API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger.L().Info().Bool("persist", config.AppConfig.Persist).Msg("starting API server")

			router, cleanup, err := app.InitializeApp()
			if err != nil {
				return err
			}

			server := startServer(router, config.AppConfig.Server.Port)
			gracefulShutdown(context.Background(), server, cleanup)
			return nil
		},
	}
	cmd.Flags().String("port", "8080", "Port for the API server")
	cmd.Flags().Int("max-upload-mb", 64, "Largest accepted archive upload")
	bindFlag(cmd.Flags().Lookup("port"), config.KeyServerPort)
	bindFlag(cmd.Flags().Lookup("max-upload-mb"), config.KeyMaxUploadMB)
	return cmd
}

// startServer initializes and starts the HTTP server in a separate goroutine.
func startServer(router http.Handler, port string) *http.Server {
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadTimeout:       time.Minute, // archive uploads
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      3 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.L().Info().Str("port", port).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L().Fatal().Err(err).Msg("server failed to start")
		}
	}()

	return server
}

// gracefulShutdown waits for SIGINT or SIGTERM, drains the server and runs
// cleanup.
func gracefulShutdown(ctx context.Context, server *http.Server, cleanup func()) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	<-quit
	logger.L().Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.L().Error().Err(err).Msg("server forced to shutdown")
	}

	cleanup()
	logger.L().Info().Msg("server exited gracefully")
}
