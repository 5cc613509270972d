package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/textbulker/textbulker"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the connector over HTTP",
	Long: `Serve the REST endpoints, the content API and the admin screens.

Activation runs first when the database has not been activated for the
current version. SIGHUP drops the cached settings so changes made with
"textbulker settings set" apply immediately.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := textbulker.New(cfg, textbulker.WithLogger(logger))
	defer a.Close()
	if err := a.Setup(ctx); err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() { errCh <- a.Start(ctx) }()

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

wait:
	for {
		select {
		case err := <-errCh:
			return err
		case <-hup:
			a.ReloadSettings()
		case <-ctx.Done():
			break wait
		}
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
		return err
	}
	return <-errCh
}
