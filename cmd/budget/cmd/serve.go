package cmd

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"budget/internal/cache"
	"budget/internal/cli"
	apphttp "budget/internal/http"
	"budget/internal/log"
)

var flagCleanupInterval time.Duration

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the budget page",
	Long: `Serve the single-page budget over HTTP on PORT (default 8081).

The server stops gracefully on SIGINT or SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().DurationVar(&flagCleanupInterval, "cleanup-interval", 10*time.Minute, "how often expired cache entries are swept")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := cli.SignalContext(cmd.Context())
	defer stop()

	app, err := openApp(ctx, os.Stdout)
	if err != nil {
		return err
	}
	defer app.Close()

	logger := app.Logger
	srv := apphttp.NewServer(apphttp.Options{
		Addr:               ":" + app.Config.Port,
		RateLimitPerMinute: app.Config.RateLimitPerMinute,
		AuthPasswordHash:   app.Config.AuthPasswordHash,
		Caches:             []cache.Cleaner{app.ChartCache},
	}, app.Controller, app.Backend.Store, logger)
	srv.StartBackground(flagCleanupInterval)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.ListenAndServe)
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server", log.FieldOperation, log.OpShutdown)
		shutdownCtx, cancel := cli.ShutdownContext()
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		logger.Error("Server stopped with error", log.FieldError, err)
		return err
	}
	logger.Info("Server stopped")
	return nil
}
