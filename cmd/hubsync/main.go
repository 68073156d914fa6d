package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/johnwards/hubsync/internal/config"
	"github.com/johnwards/hubsync/internal/database"
	"github.com/johnwards/hubsync/internal/hubspot"
	"github.com/johnwards/hubsync/internal/logger"
	"github.com/johnwards/hubsync/internal/sink"
	"github.com/johnwards/hubsync/internal/store"
	"github.com/johnwards/hubsync/internal/sync"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("fatal error: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	zlog, err := logger.New(cfg.Logs.Dir, runningInTTY())
	if err != nil {
		return fmt.Errorf("start logger: %w", err)
	}
	defer func() { _ = zlog.Sync() }()

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() { _ = db.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := database.Migrate(ctx, db); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		zlog.Infow("shutting down", "signal", sig.String())
		cancel()
	}()

	if cfg.Metrics.Addr != "" {
		go serveMetrics(cfg.Metrics.Addr, zlog)
	}

	orch := &sync.Orchestrator{
		Store: store.NewSQLiteDomainStore(db),
		NewAPI: func(accessToken string) sync.API {
			return hubspot.NewClient(cfg.HubSpot.BaseURL, cfg.HubSpot.ClientID, cfg.HubSpot.ClientSecret, accessToken)
		},
		NewSink: func(apiKey string) sink.Sink {
			return sink.NewHTTPSink(cfg.Sink.URL, apiKey)
		},
		Log:            zlog,
		PageSize:       cfg.Sync.PageSize,
		FlushThreshold: cfg.Sync.FlushThreshold,
	}

	return orch.Run(ctx)
}

// serveMetrics exposes the Prometheus endpoint for the duration of the run.
func serveMetrics(addr string, zlog *zap.SugaredLogger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	zlog.Infow("metrics endpoint online", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		zlog.Errorw("metrics server error", "error", err)
	}
}

// runningInTTY returns true when stdout is a character device.
func runningInTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
