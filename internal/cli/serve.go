package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/emiliopalmerini/mhouse/internal/web"
	"github.com/emiliopalmerini/mhouse/internal/web/templates"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web app",
	Long: `Start the local web app with the predict form and the dashboard.

The reference dataset and the model are loaded before the server starts, so a
missing or incompatible file stops startup. With --lazy they are loaded on the
first page view instead and failures are shown in the browser.

Examples:
  mhouse serve              # Start on default port 8080
  mhouse serve --port 3000  # Start on port 3000
  mhouse serve --lazy       # Defer loading to the first request`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on")
	serveCmd.Flags().Bool("lazy", false, "Load dataset and model on first use")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	app, err := NewAppContext(ctx, cmd)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), app.Config.Server.ShutdownTimeout)
		defer closeCancel()
		if err := app.Close(closeCtx); err != nil {
			app.Logger.Warn("failed to flush metrics", zap.Error(err))
		}
	}()

	if !app.Config.Server.Lazy {
		if err := app.Estimator.Warm(ctx); err != nil {
			return fmt.Errorf("failed to load estimator: %w", err)
		}
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			app.Logger.Info("shutting down")
			cancel()
		case <-ctx.Done():
		}
	}()

	server := web.NewServer(app.Estimator, web.Options{
		Port: app.Config.Server.Port,
		Dashboard: templates.Dashboard{
			URL:    app.Config.Dashboard.URL,
			Width:  app.Config.Dashboard.Width,
			Height: app.Config.Dashboard.Height,
		},
		Metrics:         app.Metrics.Handler(),
		ShutdownTimeout: app.Config.Server.ShutdownTimeout,
	}, app.Logger)
	return server.Start(ctx)
}
