// brokerlink-server exposes the broker integration layer over HTTP:
// platform discovery, market-data providers, and historical data queries.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"brokerlink/internal/config"
	"brokerlink/internal/history"
	"brokerlink/internal/httpapi"
	"brokerlink/internal/provider"
	"brokerlink/internal/store"
	"brokerlink/internal/util"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfgPath := "config/brokerlink.yaml"
	if p := os.Getenv("BROKERLINK_CONFIG"); p != "" {
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("loading config: %w", err)
		}
		cfg = config.Default()
	}

	log := util.NewLogger(cfg.Logging.Level)
	util.SetDefault(log)

	cache := history.NewCache(cfg.Cache.TTL)
	manager := history.NewManager(provider.NewRegistry(cfg), cache)
	bars := store.NewParquetStore(cfg.Storage.DataDir)

	api := httpapi.NewServer(manager, bars, log)
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", addr, "data_dir", cfg.Storage.DataDir)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
