package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/guides/internal/api"
	"github.com/dgallion1/guides/internal/config"
	"github.com/dgallion1/guides/internal/fsys"
	"github.com/dgallion1/guides/internal/pipeline"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	cfg := config.Load()
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	store, closeStore := pipeline.OpenStore(cfg)
	stats := pipeline.NewRenderStats(24 * time.Hour)
	builder := pipeline.NewBuilder(cfg,
		fsys.NewOS(cfg.SourceDir), fsys.NewOS(cfg.OutputDir),
		store, stats, pipeline.NewMetrics(reg), log)

	// Initialize pipeline.
	orch := pipeline.NewOrchestrator(cfg, builder, log)
	orch.Start(ctx)

	srv := api.NewServer(orch, stats, reg, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		orch.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		closeStore()
	}()

	log.Info("starting guides server",
		"port", cfg.Port,
		"source", cfg.SourceDir,
		"output", cfg.OutputDir,
		"formats", cfg.Formats,
	)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
