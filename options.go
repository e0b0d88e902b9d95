package llmpool

import (
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/openclaw/llmpool/internal/config"
	"github.com/openclaw/llmpool/internal/observability"
	"github.com/openclaw/llmpool/internal/provider"
)

// Cooldown and wait defaults applied when no option overrides them.
const (
	// DefaultRateLimitCooldown sidelines a key after a 429.
	DefaultRateLimitCooldown = 5 * time.Minute

	// DefaultServerErrCooldown sidelines a key after a 5xx or a
	// transport failure.
	DefaultServerErrCooldown = 30 * time.Second

	// DefaultExhaustionWait is the single fixed wait before the pool
	// clears all cooldowns and tries one more pass.
	DefaultExhaustionWait = 60 * time.Second
)

// PoolConfig holds all configuration for a Pool.
// Use New with Options rather than constructing it directly.
type PoolConfig struct {
	// Providers in ring order. Order is stable for the pool lifetime.
	Providers []provider.Config

	// Cooldown windows per failure kind.
	RateLimitCooldown time.Duration
	ServerErrCooldown time.Duration

	// ExhaustionWait is the global wait applied when every key of
	// every provider is cooling down.
	ExhaustionWait time.Duration

	// Logger for dispatch decisions. Defaults to a JSON logger on
	// stderr with credential redaction.
	Logger *observability.Logger

	// Tracer for per-call spans. Defaults to the global otel tracer,
	// which is a no-op unless a provider is installed.
	Tracer trace.Tracer

	// Clock and Sleep are injectable for tests.
	Clock func() time.Time
	Sleep func(time.Duration)

	// ExtraFactories registers additional provider types beyond the
	// built-ins, keyed by the config Type field.
	ExtraFactories map[string]provider.Factory
}

// Option configures the Pool.
type Option func(*PoolConfig)

func defaultPoolConfig() *PoolConfig {
	return &PoolConfig{
		RateLimitCooldown: DefaultRateLimitCooldown,
		ServerErrCooldown: DefaultServerErrCooldown,
		ExhaustionWait:    DefaultExhaustionWait,
		Logger: observability.NewLogger(observability.LoggerConfig{
			Level:      observability.ParseLevel("info"),
			Output:     os.Stderr,
			JSONFormat: true,
		}, observability.NewRedactor()),
		Tracer: otel.Tracer(observability.TracerName),
		Clock:  time.Now,
		Sleep:  time.Sleep,
	}
}

// WithProvider appends one provider to the ring.
func WithProvider(cfg provider.Config) Option {
	return func(c *PoolConfig) {
		c.Providers = append(c.Providers, cfg)
	}
}

// WithProviders appends several providers in order.
func WithProviders(cfgs ...provider.Config) Option {
	return func(c *PoolConfig) {
		c.Providers = append(c.Providers, cfgs...)
	}
}

// WithCooldowns overrides the per-kind cooldown windows.
func WithCooldowns(rateLimited, serverError time.Duration) Option {
	return func(c *PoolConfig) {
		if rateLimited > 0 {
			c.RateLimitCooldown = rateLimited
		}
		if serverError > 0 {
			c.ServerErrCooldown = serverError
		}
	}
}

// WithExhaustionWait overrides the global exhaustion wait.
func WithExhaustionWait(d time.Duration) Option {
	return func(c *PoolConfig) {
		if d > 0 {
			c.ExhaustionWait = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *observability.Logger) Option {
	return func(c *PoolConfig) {
		if l != nil {
			c.Logger = l
		}
	}
}

// WithTracer sets the tracer used for per-call spans.
func WithTracer(t trace.Tracer) Option {
	return func(c *PoolConfig) {
		if t != nil {
			c.Tracer = t
		}
	}
}

// WithClock injects the time source. Tests use this to control
// cooldown expiry deterministically.
func WithClock(now func() time.Time) Option {
	return func(c *PoolConfig) {
		if now != nil {
			c.Clock = now
		}
	}
}

// WithSleep injects the sleep function used by the exhaustion branch.
func WithSleep(sleep func(time.Duration)) Option {
	return func(c *PoolConfig) {
		if sleep != nil {
			c.Sleep = sleep
		}
	}
}

// WithProviderFactory registers a custom provider type.
func WithProviderFactory(providerType string, factory provider.Factory) Option {
	return func(c *PoolConfig) {
		if c.ExtraFactories == nil {
			c.ExtraFactories = make(map[string]provider.Factory)
		}
		c.ExtraFactories[providerType] = factory
	}
}

// FromAppConfig maps the application configuration onto pool options.
func FromAppConfig(cfg *config.Config) Option {
	return func(c *PoolConfig) {
		if cfg == nil {
			return
		}
		for _, pc := range cfg.Providers {
			c.Providers = append(c.Providers, provider.Config{
				Name:        pc.Name,
				Type:        pc.Type,
				BaseURL:     pc.BaseURL,
				Model:       pc.Model,
				Credentials: pc.Credentials,
				TimeoutSec:  int(pc.Timeout / time.Second),
				Headers:     pc.Headers,
			})
		}
		if cfg.Pool.RateLimitCooldown > 0 {
			c.RateLimitCooldown = cfg.Pool.RateLimitCooldown
		}
		if cfg.Pool.ServerErrCooldown > 0 {
			c.ServerErrCooldown = cfg.Pool.ServerErrCooldown
		}
		if cfg.Pool.ExhaustionWait > 0 {
			c.ExhaustionWait = cfg.Pool.ExhaustionWait
		}
	}
}
