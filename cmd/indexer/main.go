// Command indexer runs the projection daemon: it polls every configured
// chain source, feeds canonical events into the projection engine, and
// serves the read API.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/untron/intents-indexer/pkg/api"
	"github.com/untron/intents-indexer/pkg/config"
	"github.com/untron/intents-indexer/pkg/indexer"
	"github.com/untron/intents-indexer/pkg/pgutil"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("setting up logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := pgutil.ConnectDB(&cfg.Database)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer func() { _ = db.Close() }()

	ix, err := indexer.New(ctx, db, cfg.Ingest, logger)
	if err != nil {
		return fmt.Errorf("building indexer: %w", err)
	}

	server := api.NewServer(db, logger, cfg.API)
	router := server.NewRouter(cfg.API.RequestTimeout)

	httpSrv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port),
		Handler: router,
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Info("read API listening", zap.String("address", httpSrv.Addr))
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("read API server: %w", err)
			return
		}
		errCh <- nil
	}()
	go func() {
		errCh <- ix.Run(ctx)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case runErr = <-errCh:
		if runErr != nil {
			logger.Error("indexer component failed", zap.Error(runErr))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.API.RequestTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("read API shutdown error", zap.Error(err))
	}

	if runErr != nil && runErr != context.Canceled {
		return runErr
	}
	return nil
}
