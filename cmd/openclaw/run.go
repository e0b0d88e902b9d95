package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/openclaw/llmpool/internal/config"
	"github.com/openclaw/llmpool/internal/observability"
)

func newRunCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the agent loop with the HTTP health/status/metrics listener",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			return runDaemon(cmd.Context(), cfg, *configPath)
		},
	}
}

func runDaemon(parent context.Context, cfg *config.Config, configPath string) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		a.shutdown(shutdownCtx)
	}()

	// A file-backed config is watched for edits. Cooldown and provider
	// changes take effect on restart; the reload mainly catches typos
	// early and logs what would change.
	if configPath != "" {
		manager, err := config.NewManager(configPath, a.logger.Slog())
		if err != nil {
			a.logger.RedactedWarn("config watch unavailable", "error", err)
		} else {
			manager.OnChange(func(next *config.Config) {
				a.logger.Info("config file changed, provider changes apply on restart",
					"providers", len(next.Providers),
				)
			})
			if err := manager.Watch(ctx); err != nil {
				a.logger.RedactedWarn("config watch unavailable", "error", err)
			}
			defer func() { _ = manager.Close() }()
		}
	}

	srv := newHTTPServer(a)
	go func() {
		a.logger.Info("http listener started", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.RedactedError("http listener failed", "error", err)
		}
	}()

	// Periodic state persistence alongside the scheduler loop.
	go func() {
		ticker := time.NewTicker(cfg.State.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				_ = a.saveState(ctx)
			}
		}
	}()

	a.logger.Info("agent started",
		"agent", cfg.Agent.Name,
		"providers", len(cfg.Providers),
		"heartbeat", cfg.Schedule.Heartbeat,
	)
	a.sched.RunForever(ctx, cfg.Schedule.Heartbeat)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newHTTPServer(a *app) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(statusReport(a))
	})

	if a.cfg.Metrics.Enabled {
		mux.Handle(a.cfg.Metrics.Path, promhttp.Handler())
	}

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", a.cfg.Agent.Port),
		Handler:      observability.RequestIDMiddleware(mux),
		ReadTimeout:  a.cfg.Agent.ReadTimeout,
		WriteTimeout: a.cfg.Agent.WriteTimeout,
		IdleTimeout:  a.cfg.Agent.IdleTimeout,
	}
}
