package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/joseph-ayodele/submission-intake/internal/app"
	"github.com/joseph-ayodele/submission-intake/internal/common"
	"github.com/joseph-ayodele/submission-intake/internal/export"
	"github.com/joseph-ayodele/submission-intake/internal/server"
)

func main() {
	configPath := flag.String("config", os.Getenv("INTAKE_CONFIG"), "YAML config file (env overrides apply on top)")
	flag.Parse()

	cfg, err := common.LoadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(2)
	}
	logger := app.NewLogger(cfg.Log, os.Stdout)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Submission is optional: without credentials Submit answers FailedPrecondition.
	var submitter server.Submitter
	cache, closeCache := app.NewTokenCache(ctx, cfg.Redis, logger)
	defer closeCache()
	if client, err := app.NewSubmitter(cfg, cache, logger); err != nil {
		logger.Warn("quote submission disabled", "error", err)
	} else {
		submitter = client
		logger.Info("quote submission enabled", "env", client.Environment())
	}

	svc := server.NewIntakeService(app.NewProcessor(cfg, logger), submitter, export.NewService(logger), logger)
	grpcServer, healthServer := server.NewGRPCServer(svc, logger)

	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		logger.Error("failed to listen on address", "addr", cfg.Server.GRPCAddr, "error", err)
		os.Exit(1)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	metricsServer := &http.Server{
		Addr:              cfg.Server.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("metrics listening", "addr", cfg.Server.MetricsAddr)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics serve error", "error", err)
		}
	}()

	logger.Info("intaked listening", "addr", cfg.Server.GRPCAddr, "model", cfg.LLM.Model)
	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("gRPC serve error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")
	healthServer.Shutdown()
	grpcServer.GracefulStop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = metricsServer.Shutdown(shutdownCtx)
}
