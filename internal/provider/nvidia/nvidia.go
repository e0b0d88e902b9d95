// Package nvidia implements the NVIDIA NIM provider adapter.
// The integrate.api.nvidia.com endpoint is OpenAI-compatible.
package nvidia

import (
	"github.com/openclaw/llmpool/internal/provider"
	"github.com/openclaw/llmpool/internal/provider/openailike"
)

const (
	// ProviderName is the identifier for this provider.
	ProviderName = "nvidia"

	// DefaultBaseURL is the default NVIDIA NIM API endpoint.
	DefaultBaseURL = "https://integrate.api.nvidia.com/v1"

	// DefaultModel is used when the configuration names no model.
	DefaultModel = "meta/llama-3.1-70b-instruct"
)

// New creates a new NVIDIA invoker.
func New(cfg provider.Config) (provider.Invoker, error) {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	return openailike.New(cfg, openailike.Info{
		Name:           ProviderName,
		DefaultBaseURL: DefaultBaseURL,
	})
}
