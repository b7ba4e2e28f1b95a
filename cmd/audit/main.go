package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/gale-audit/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/gale-audit/internal/adapter/kafka"
	"github.com/couchcryptid/gale-audit/internal/config"
	"github.com/couchcryptid/gale-audit/internal/observability"
	"github.com/couchcryptid/gale-audit/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	thresholds, err := cfg.Thresholds()
	if err != nil {
		logger.Error("failed to load thresholds", "error", err)
		os.Exit(1)
	}
	network, err := cfg.ReferenceNetwork()
	if err != nil {
		logger.Error("failed to load reference network", "error", err)
		os.Exit(1)
	}
	logger.Info("classification engine configured",
		"gale_kmh", thresholds.GaleKmh,
		"hurricane_kmh", thresholds.HurricaneKmh,
		"min_stations", thresholds.MinStationCount,
		"network_size", len(network),
	)

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)
	classifier := pipeline.NewClassifier(network, thresholds, logger)

	p := pipeline.New(reader, classifier, writer, logger, metrics, cfg.BatchSize)

	info := httpadapter.EngineInfo{Thresholds: thresholds, Network: network}
	srv := httpadapter.NewServer(cfg.HTTPAddr, p, info, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start audit pipeline.
	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}

	logger.Info("shutdown complete")
}
