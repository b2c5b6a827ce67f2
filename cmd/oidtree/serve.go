package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/aretw0/oidtree"
	"github.com/aretw0/oidtree/internal/cli"
	"github.com/aretw0/oidtree/internal/logging"
	httpAdapter "github.com/aretw0/oidtree/pkg/adapters/http"
	"github.com/aretw0/oidtree/pkg/observability"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Serves the registry as a JSON API with an OpenAPI document at /openapi.yaml,
Prometheus metrics at /metrics and a server-sent event stream at /events.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("log-format")
		level, err := logging.ParseLevel(cfg.Log.Level)
		if err != nil {
			return err
		}
		if debug {
			level = slog.LevelDebug
		}
		log := logging.NewWithFormat(os.Stderr, level, logging.Format(format))

		sc := cli.NewSignalContext(context.Background())
		defer sc.Cancel()

		metrics := observability.NewMetrics()
		reg, err := openRegistry(sc, cli.Options{Metrics: metrics, Logger: log})
		if err != nil {
			return err
		}
		defer reg.Close()

		srv := &http.Server{
			Addr: cfg.Server.Addr,
			Handler: httpAdapter.NewHandler(reg,
				httpAdapter.WithLogger(log),
				httpAdapter.WithMetrics(metrics),
				httpAdapter.WithCORSOrigins(cfg.Server.CORSOrigins),
				httpAdapter.WithVersion(oidtree.Version),
			),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)
		go func() {
			log.Info("starting oidtree server", "addr", srv.Addr, "store", cfg.Store.Driver, "version", reg.Snapshot().Version)
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)

		case <-sc.Done():
			log.Info("shutdown started", "signal", sc.Signal())

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				log.Error("graceful shutdown did not complete", "err", err)
				return srv.Close()
			}
			log.Info("oidtree server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Address to listen on (default :8080)")
	serveCmd.Flags().String("log-format", string(logging.FormatJSON), "Log format: text or json")
	serveCmd.Flags().Bool("watch", false, "Reload when another process changes the store")
	_ = v.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	_ = v.BindPFlag("store.watch", serveCmd.Flags().Lookup("watch"))
}
