package llmpool

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/openclaw/llmpool/internal/metrics"
	"github.com/openclaw/llmpool/internal/observability"
	"github.com/openclaw/llmpool/internal/provider"
	"github.com/openclaw/llmpool/internal/provider/gemini"
	"github.com/openclaw/llmpool/internal/provider/groq"
	"github.com/openclaw/llmpool/internal/provider/local"
	"github.com/openclaw/llmpool/internal/provider/nvidia"
	"github.com/openclaw/llmpool/internal/provider/zhipu"
	"github.com/openclaw/llmpool/internal/rotation"
	llmerrors "github.com/openclaw/llmpool/pkg/errors"
	"github.com/openclaw/llmpool/pkg/types"
)

// ErrNoProviders is returned by Execute when the pool was built with
// no enabled providers.
var ErrNoProviders = errors.New("llmpool: no providers configured")

// Pool dispatches generation calls across providers and API keys.
// Selection is strict round-robin over providers and, within each
// provider, over its keys; keys in cooldown are skipped.
type Pool struct {
	ring     *rotation.Ring
	registry *provider.Registry

	rateLimitCooldown time.Duration
	serverErrCooldown time.Duration
	exhaustionWait    time.Duration

	logger *observability.Logger
	tracer trace.Tracer
	now    func() time.Time
	sleep  func(time.Duration)
}

// New creates a Pool from options. Providers with an empty credential
// list are dropped; a pool can be constructed with zero providers, in
// which case Execute returns ErrNoProviders.
func New(opts ...Option) (*Pool, error) {
	cfg := defaultPoolConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	registry := provider.NewRegistry()
	registry.RegisterFactory(gemini.ProviderName, gemini.New)
	registry.RegisterFactory(groq.ProviderName, groq.New)
	registry.RegisterFactory(nvidia.ProviderName, nvidia.New)
	registry.RegisterFactory(zhipu.ProviderName, zhipu.New)
	registry.RegisterFactory(local.ProviderName, local.New)
	for providerType, factory := range cfg.ExtraFactories {
		registry.RegisterFactory(providerType, factory)
	}

	ring := rotation.New(cfg.Clock)
	for _, pcfg := range cfg.Providers {
		if len(pcfg.Credentials) == 0 {
			continue
		}
		inv, err := registry.CreateInvoker(pcfg)
		if err != nil {
			return nil, err
		}
		ring.AddProvider(pcfg.Name, inv.Model(), pcfg.Credentials)
	}

	return &Pool{
		ring:              ring,
		registry:          registry,
		rateLimitCooldown: cfg.RateLimitCooldown,
		serverErrCooldown: cfg.ServerErrCooldown,
		exhaustionWait:    cfg.ExhaustionWait,
		logger:            cfg.Logger,
		tracer:            cfg.Tracer,
		now:               cfg.Clock,
		sleep:             cfg.Sleep,
	}, nil
}

// Execute runs one generation request against the pool.
//
// Each attempt takes the next usable key in rotation. A rate limited
// key cools down for the rate limit window, a server error for the
// shorter server error window, and in both cases the next key is
// tried. A rejection is terminal: the cursor advance is rolled back
// and the provider error is returned as-is. When no usable key exists
// anywhere, the pool sleeps once for the exhaustion wait, clears all
// cooldowns, and makes one more pass; if that pass also exhausts the
// ring, Execute fails with ErrExhausted.
func (p *Pool) Execute(ctx context.Context, req *types.GenerateRequest) (*types.GenerateResult, error) {
	if req == nil {
		return nil, errors.New("llmpool: nil request")
	}
	req.Normalize()

	ctx, requestID := observability.GetOrCreateRequestID(ctx)
	log := p.logger.WithFields("request_id", requestID)

	// Bounds the rotation retries within one pass. Keys whose cooldown
	// expires mid-request could otherwise keep a request looping.
	budget := p.ring.Size()
	attempts := 0
	resetUsed := false

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		sel, err := p.ring.Next()
		if err != nil {
			if errors.Is(err, rotation.ErrEmpty) {
				return nil, ErrNoProviders
			}
			// Every key is cooling down.
			if done, ferr := p.handleExhaustion(log, resetUsed); done {
				return nil, ferr
			}
			resetUsed = true
			attempts = 0
			continue
		}

		result, callErr := p.attempt(ctx, log, sel, req)
		if callErr == nil {
			return result, nil
		}

		kind := llmerrors.KindOf(callErr)
		if kind == llmerrors.KindRejected {
			return nil, callErr
		}

		attempts++
		if attempts >= budget {
			if done, ferr := p.handleExhaustion(log, resetUsed); done {
				return nil, ferr
			}
			resetUsed = true
			attempts = 0
		}
	}
}

// attempt performs one call on the selected key and applies the
// outcome to the rotation state.
func (p *Pool) attempt(ctx context.Context, log *observability.Logger, sel *rotation.Selection, req *types.GenerateRequest) (*types.GenerateResult, error) {
	inv, ok := p.registry.GetInvoker(sel.Provider)
	if !ok {
		p.ring.Rollback(sel)
		return nil, llmerrors.NewRejectedError(sel.Provider, sel.Model, 0,
			fmt.Sprintf("no invoker registered for provider %s", sel.Provider))
	}

	spanCtx, span := observability.StartCallSpan(ctx, p.tracer, "llmpool.call", observability.CallSpanAttributes{
		Provider:    sel.Provider,
		Model:       sel.Model,
		KeyID:       sel.Fingerprint,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	defer span.End()

	start := p.now()
	text, err := inv.Invoke(spanCtx, sel.Credential, req)
	elapsed := p.now().Sub(start)

	if err == nil {
		p.ring.ReportSuccess(sel)
		metrics.RecordCall(sel.Provider, "success", elapsed)
		log.Info("call succeeded",
			"provider", sel.Provider,
			"model", sel.Model,
			"key", sel.Fingerprint,
			"duration", elapsed,
		)
		return &types.GenerateResult{Text: text, Provider: sel.Provider, Model: sel.Model}, nil
	}

	observability.RecordError(span, err)

	switch llmerrors.KindOf(err) {
	case llmerrors.KindRateLimited:
		p.ring.ReportFailure(sel, p.rateLimitCooldown)
		metrics.RecordCall(sel.Provider, "rate_limited", elapsed)
		metrics.RecordCooldown(sel.Provider, "rate_limited")
		log.RedactedWarn("key rate limited, cooling down",
			"provider", sel.Provider,
			"key", sel.Fingerprint,
			"cooldown", p.rateLimitCooldown,
		)
	case llmerrors.KindServerError:
		p.ring.ReportFailure(sel, p.serverErrCooldown)
		metrics.RecordCall(sel.Provider, "server_error", elapsed)
		metrics.RecordCooldown(sel.Provider, "server_error")
		log.RedactedWarn("provider error, cooling key",
			"provider", sel.Provider,
			"key", sel.Fingerprint,
			"cooldown", p.serverErrCooldown,
			"error", err,
		)
	default:
		// Rejections leave no trace in rotation state.
		p.ring.Rollback(sel)
		metrics.RecordCall(sel.Provider, "rejected", elapsed)
		log.RedactedError("call rejected",
			"provider", sel.Provider,
			"model", sel.Model,
			"error", err,
		)
	}

	return nil, err
}

// handleExhaustion runs the bounded recovery branch. The first
// exhaustion sleeps once and clears all cooldowns; the second is
// final. The sleep deliberately ignores context cancellation: the
// wait is short, bounded, and runs at most once per request.
func (p *Pool) handleExhaustion(log *observability.Logger, resetUsed bool) (done bool, err error) {
	if resetUsed {
		metrics.ExhaustedTotal.Inc()
		log.Error("pool exhausted after global reset, giving up")
		return true, llmerrors.ErrExhausted
	}

	metrics.ExhaustionWaitsTotal.Inc()
	log.Warn("every key cooling down, waiting before global reset",
		"wait", p.exhaustionWait,
	)
	p.sleep(p.exhaustionWait)
	p.ring.ResetCooldowns()
	log.Info("cooldowns cleared, retrying rotation")
	return false, nil
}

// Snapshot returns the full rotation state for persistence.
func (p *Pool) Snapshot() *rotation.Snapshot {
	return p.ring.Snapshot()
}

// Restore applies a previously persisted rotation snapshot.
// Providers are matched by name, keys by fingerprint; anything that no
// longer exists is skipped, expired cooldowns are dropped.
func (p *Pool) Restore(snap *rotation.Snapshot) {
	p.ring.Restore(snap)
}
