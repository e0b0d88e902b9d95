// Package groq implements the Groq provider adapter.
// Groq serves open-source models (Llama, Mixtral, Gemma) through an
// OpenAI-compatible API with aggressive free-tier rate limits, which is
// why the pool typically carries several Groq keys.
package groq

import (
	"github.com/openclaw/llmpool/internal/provider"
	"github.com/openclaw/llmpool/internal/provider/openailike"
)

const (
	// ProviderName is the identifier for this provider.
	ProviderName = "groq"

	// DefaultBaseURL is the default Groq API endpoint.
	DefaultBaseURL = "https://api.groq.com/openai/v1"

	// DefaultModel is used when the configuration names no model.
	DefaultModel = "llama-3.3-70b-versatile"
)

// New creates a new Groq invoker.
func New(cfg provider.Config) (provider.Invoker, error) {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	return openailike.New(cfg, openailike.Info{
		Name:           ProviderName,
		DefaultBaseURL: DefaultBaseURL,
	})
}
