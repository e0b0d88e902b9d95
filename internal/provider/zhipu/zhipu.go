// Package zhipu implements the ZhipuAI (GLM) provider adapter.
// The open.bigmodel.cn paas/v4 endpoint is OpenAI-compatible.
package zhipu

import (
	"github.com/openclaw/llmpool/internal/provider"
	"github.com/openclaw/llmpool/internal/provider/openailike"
)

const (
	// ProviderName is the identifier for this provider.
	ProviderName = "zhipu"

	// DefaultBaseURL is the default ZhipuAI API endpoint.
	DefaultBaseURL = "https://open.bigmodel.cn/api/paas/v4"

	// DefaultModel is used when the configuration names no model.
	DefaultModel = "glm-4-plus"
)

// New creates a new ZhipuAI invoker.
func New(cfg provider.Config) (provider.Invoker, error) {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	return openailike.New(cfg, openailike.Info{
		Name:           ProviderName,
		DefaultBaseURL: DefaultBaseURL,
	})
}
