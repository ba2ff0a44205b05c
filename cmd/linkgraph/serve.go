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
	"github.com/will-x86/linkgraph/internal/server"
)

const shutdownTimeout = 15 * time.Second

func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the crawl API over HTTP",
		Long: `Serve starts the HTTP API:

  GET|POST /api/crawl          crawl from ?url= (or JSON body) to ?depth=
  POST     /api/cache/reset    forget every visited page
  DELETE   /api/cache          same as above
  GET      /api/crawls/{id}    graph of an earlier crawl
  GET      /health             liveness probe`,
		Args: cobra.NoArgs,
		RunE: runServeCmd,
	}

	cmd.Flags().String("addr", "", "Listen address (overrides server.addr)")

	return cmd
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd, true)
	if err != nil {
		return err
	}
	defer a.Close()

	snapshots, err := newSnapshotStorage(a.cfg)
	if err != nil {
		return fmt.Errorf("failed to open snapshot storage: %w", err)
	}

	addr := a.cfg.Server.Addr
	if flagAddr, _ := cmd.Flags().GetString("addr"); flagAddr != "" {
		addr = flagAddr
	}

	handler := server.NewServer(a.scheduler, snapshots, server.Options{
		Logger:        a.log,
		DefaultDepth:  a.cfg.Crawl.DefaultDepth,
		MaxDepthLimit: a.cfg.Crawl.MaxDepthLimit,
		DevMode:       a.cfg.Server.DevMode,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("API server listening on %s", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.log.Info("Shutting down API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	a.log.Info("API server stopped")
	return nil
}
