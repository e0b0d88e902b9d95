package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	llmpool "github.com/openclaw/llmpool"
	"github.com/openclaw/llmpool/internal/config"
	"github.com/openclaw/llmpool/internal/metrics"
	"github.com/openclaw/llmpool/internal/observability"
	"github.com/openclaw/llmpool/internal/schedule"
	"github.com/openclaw/llmpool/internal/state"
)

// app wires the pool, state, and scheduler together for a run.
type app struct {
	cfg     *config.Config
	logger  *observability.Logger
	tracing *observability.TracerProvider
	pool    *llmpool.Pool
	tracker *state.Tracker
	store   state.Store
	sched   *schedule.Scheduler
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	logger := observability.NewLogger(observability.LoggerConfig{
		Level:      observability.ParseLevel(cfg.Logging.Level),
		Output:     os.Stderr,
		JSONFormat: cfg.Logging.Format != "text",
	}, observability.NewRedactor())

	tracing, err := observability.InitTracing(ctx, observability.TracingConfig{
		Enabled:     cfg.Tracing.Enabled,
		Endpoint:    cfg.Tracing.Endpoint,
		ServiceName: cfg.Tracing.ServiceName,
		SampleRate:  cfg.Tracing.SampleRate,
		Insecure:    cfg.Tracing.Insecure,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	pool, err := llmpool.New(
		llmpool.FromAppConfig(cfg),
		llmpool.WithLogger(logger),
		llmpool.WithTracer(tracing.Tracer()),
	)
	if err != nil {
		return nil, fmt.Errorf("build pool: %w", err)
	}

	store, err := newStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("build state store: %w", err)
	}

	tracker := state.NewTracker(cfg.Agent.Name, nil)
	if prev, err := store.Load(ctx); err == nil {
		tracker.Restore(prev)
		pool.Restore(prev.Pool)
		logger.Info("state restored",
			"backend", store.Name(),
			"cycles_completed", prev.Counters.CyclesCompleted,
		)
	} else if !errors.Is(err, state.ErrNotFound) {
		logger.RedactedWarn("could not load previous state, starting fresh", "error", err)
	}

	a := &app{
		cfg:     cfg,
		logger:  logger,
		tracing: tracing,
		pool:    pool,
		tracker: tracker,
		store:   store,
	}
	a.sched = schedule.New(tracker, logger, nil, a.buildTasks()...)
	return a, nil
}

func newStore(cfg *config.Config) (state.Store, error) {
	switch cfg.State.Backend {
	case "", "file":
		return state.NewFileStore(cfg.State.Path), nil
	case "gist":
		if cfg.State.GistID == "" || cfg.State.GistPAT == "" {
			return nil, errors.New("gist backend needs gist_id and gist_pat")
		}
		return state.NewGistStore(cfg.State.GistID, cfg.State.GistPAT), nil
	case "redis":
		return state.NewRedisStore(cfg.State.RedisURL, cfg.Agent.Name)
	default:
		return nil, fmt.Errorf("unknown state backend %q", cfg.State.Backend)
	}
}

// saveState snapshots the pool into the tracker and persists.
func (a *app) saveState(ctx context.Context) error {
	a.tracker.SetPool(a.pool.Snapshot())
	err := a.store.Save(ctx, a.tracker.Snapshot())
	metrics.RecordStateSave(a.store.Name(), err)
	if err != nil {
		a.logger.RedactedError("state save failed", "backend", a.store.Name(), "error", err)
	}
	return err
}

func (a *app) shutdown(ctx context.Context) {
	if err := a.saveState(ctx); err == nil {
		a.logger.Info("state saved", "backend", a.store.Name())
	}
	if err := a.tracing.Shutdown(ctx); err != nil {
		a.logger.RedactedWarn("tracing shutdown failed", "error", err)
	}
}
