// Package provider defines the invocation interface each LLM backend
// implements for the dispatcher. An Invoker performs exactly one
// operation: call the backend with a caller-supplied credential and
// classify the outcome through the pkg/errors taxonomy.
package provider

import (
	"context"

	"github.com/openclaw/llmpool/pkg/types"
)

// Invoker is the single capability a backend must provide. The
// dispatcher owns credentials and rotation; the invoker is stateless
// with respect to keys and receives the credential per call.
type Invoker interface {
	// Name returns the provider identifier (e.g., "gemini", "groq").
	Name() string

	// Model returns the model this invoker targets.
	Model() string

	// Invoke performs one generation call with the given credential.
	// Failures are returned as *errors.CallError so the dispatcher can
	// act on the outcome kind without knowing provider details.
	Invoke(ctx context.Context, credential string, req *types.GenerateRequest) (string, error)
}

// Config contains provider-specific configuration. Credentials live
// here only in transit from the configuration surface to the rotation
// ring; invokers never see them at construction time.
type Config struct {
	Name        string
	Type        string
	BaseURL     string
	Model       string
	Credentials []string
	TimeoutSec  int
	Headers     map[string]string
}

// Factory creates invoker instances from configuration.
type Factory func(cfg Config) (Invoker, error)
