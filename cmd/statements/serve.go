package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	importhandler "github.com/FACorreiaa/echo-statements/internal/domain/import/handler"
)

func serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the statement parsing HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: SERVER_HOST:SERVER_PORT)")
	return cmd
}

// newServer builds the HTTP handler chain for deps.
func newServer(deps *Dependencies) http.Handler {
	mux := http.NewServeMux()
	deps.StatementHandler.Routes(mux)
	if deps.Metrics != nil {
		mux.Handle("GET /metrics", deps.Metrics.Handler())
	}

	sc := deps.Config.Server
	var h http.Handler = mux
	h = importhandler.RateLimit(float64(sc.RateLimitPerSecond), sc.RateLimitBurst, deps.Logger, h)
	h = importhandler.CORS(sc.CORSOrigins, h)
	h = importhandler.Logging(deps.Logger, h)
	return h
}

func runServe(cmd *cobra.Command, addr string) error {
	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	deps, err := InitDependencies(cfg, log)
	if err != nil {
		return err
	}
	if addr == "" {
		addr = cfg.Server.Addr()
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           newServer(deps),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Pipeline.ParseTimeout + 30*time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", addr, "metrics", deps.Metrics != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-cmd.Context().Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return nil
}
