package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	backend "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/aretw0/bramble"
	httpAdapter "github.com/aretw0/bramble/internal/adapters/http"
	"github.com/aretw0/bramble/internal/presentation/tui"
	"github.com/aretw0/bramble/pkg/adapters/memory"
	redisAdapter "github.com/aretw0/bramble/pkg/adapters/redis"
	"github.com/aretw0/bramble/pkg/observability"
	"github.com/aretw0/bramble/pkg/ports"
	"github.com/aretw0/bramble/pkg/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the problem over a JSON API",
	Long: `Starts an HTTP server exposing simulation sessions over the problem:
create sessions, apply actions, list applicable actions. Sessions live in
memory unless --redis points at a Redis instance, which also enables
cross-replica locking.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runServe(cmd); err != nil {
			fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	serveCmd.Flags().String("redis", "", "Redis address for shared session storage (e.g. localhost:6379)")
	serveCmd.Flags().Bool("metrics", false, "Expose Prometheus metrics on /metrics")
}

func runServe(cmd *cobra.Command) error {
	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}

	port, _ := cmd.Flags().GetString("port")
	redisAddr, _ := cmd.Flags().GetString("redis")
	withMetrics, _ := cmd.Flags().GetBool("metrics")

	engineOpts := []bramble.Option{bramble.WithLogger(logger)}

	var metrics *observability.Metrics
	if withMetrics {
		metrics = observability.NewMetrics(nil)
		engineOpts = append(engineOpts, bramble.WithLifecycleHooks(metrics.Hooks()))
	}

	path, _ := cmd.Flags().GetString("problem")
	engine, err := bramble.LoadFile(path, engineOpts...)
	if err != nil {
		return err
	}

	var store ports.SnapshotStore = memory.NewStore()
	sessionOpts := []session.Option{session.WithLogger(logger)}
	if redisAddr != "" {
		client := backend.NewClient(&backend.Options{Addr: redisAddr})
		defer client.Close()
		store = redisAdapter.NewFromClient(client)
		sessionOpts = append(sessionOpts, session.WithLocker(redisAdapter.NewLocker(client)))
	}
	sessions := session.NewManager(store, sessionOpts...)

	mux := http.NewServeMux()
	mux.Handle("/", httpAdapter.NewHandler(engine, sessions, httpAdapter.WithLogger(logger)))
	if metrics != nil {
		mux.Handle("/metrics", metrics.Handler())
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: mux,
	}

	tui.PrintBanner(bramble.Version)

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr, "problem", engine.Problem().Name())
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return err

	case sig := <-shutdown:
		logger.Info("shutting down", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Warn("graceful shutdown did not complete", "err", err)
			if err := srv.Close(); err != nil {
				return fmt.Errorf("failed to stop server: %w", err)
			}
		}
		logger.Info("server stopped")
		return nil
	}
}
