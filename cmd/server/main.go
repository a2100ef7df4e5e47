package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/nexthydra/internal/api"
	"github.com/dgallion1/nexthydra/internal/config"
	"github.com/dgallion1/nexthydra/internal/fetch"
	"github.com/dgallion1/nexthydra/internal/pipeline"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	if err := run(log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fetcher, err := fetch.NewClient(fetch.Options{
		Timeout:   cfg.FetchTimeout,
		UserAgent: cfg.FetchUserAgent,
		MaxBytes:  cfg.FetchMaxBytes,
		Delay:     cfg.FetchDelay,
	})
	if err != nil {
		return err
	}
	defer fetcher.Close()

	orch := pipeline.NewOrchestrator(cfg, fetcher, log)
	orch.Start(ctx)
	defer orch.Stop()

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      api.NewServer(orch, log, cfg),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting nexthydra",
			"port", cfg.Port,
			"workers", cfg.WorkerCount,
			"parse_workers", cfg.ParseWorkers,
			"scripts_only", cfg.ScriptsOnly,
		)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	// Stop taking requests before the deferred orchestrator stop drains workers.
	return httpServer.Shutdown(shutdownCtx)
}
