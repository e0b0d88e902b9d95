// Package local implements the adapter for a locally hosted
// OpenAI-compatible server (llama.cpp, vLLM, LM Studio). It is the
// keyless last resort in the rotation: always configured with a single
// placeholder credential so it occupies exactly one ring slot.
package local

import (
	"github.com/openclaw/llmpool/internal/provider"
	"github.com/openclaw/llmpool/internal/provider/openailike"
)

const (
	// ProviderName is the identifier for this provider.
	ProviderName = "local"

	// DefaultBaseURL is the conventional local llama.cpp endpoint.
	DefaultBaseURL = "http://127.0.0.1:8080/v1"

	// PlaceholderCredential fills the ring slot for the keyless backend.
	PlaceholderCredential = "local"
)

// New creates a new local invoker.
func New(cfg provider.Config) (provider.Invoker, error) {
	if cfg.Model == "" {
		cfg.Model = "local"
	}
	return openailike.New(cfg, openailike.Info{
		Name:           ProviderName,
		DefaultBaseURL: DefaultBaseURL,
	})
}
