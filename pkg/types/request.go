// Package types defines the unified request/response shapes shared by
// the dispatcher and the provider adapters.
package types

// GenerateRequest is the provider-agnostic payload for a single
// text-generation call. The dispatcher passes it through untouched;
// each adapter maps it onto its own wire format.
type GenerateRequest struct {
	Prompt       string  `json:"prompt"`
	SystemPrompt string  `json:"system_prompt,omitempty"`
	MaxTokens    int     `json:"max_tokens,omitempty"`
	Temperature  float64 `json:"temperature,omitempty"`
}

// DefaultMaxTokens is applied when a request leaves MaxTokens unset.
const DefaultMaxTokens = 2048

// DefaultTemperature is applied when a request leaves Temperature at zero.
const DefaultTemperature = 0.7

// Normalize fills in defaults for unset generation parameters.
func (r *GenerateRequest) Normalize() {
	if r.MaxTokens <= 0 {
		r.MaxTokens = DefaultMaxTokens
	}
	if r.Temperature == 0 {
		r.Temperature = DefaultTemperature
	}
}

// GenerateResult is the outcome of a successful dispatcher call.
type GenerateResult struct {
	Text     string `json:"text"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
}
