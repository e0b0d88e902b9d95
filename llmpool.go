// Package llmpool dispatches text-generation calls across a pool of
// LLM providers and API keys. Providers and keys rotate in a strict
// round-robin; a rate limited key sits out for five minutes, a failing
// one for thirty seconds, and when everything is cooling down the pool
// waits once, clears all cooldowns, and tries a final pass before
// giving up.
//
// Basic usage:
//
//	pool, err := llmpool.New(
//		llmpool.WithProvider(provider.Config{
//			Name: "groq", Type: "groq",
//			Credentials: []string{"gsk_...", "gsk_..."},
//		}),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//	result, err := pool.Execute(ctx, &llmpool.GenerateRequest{
//		Prompt: "say hello",
//	})
package llmpool

import (
	llmerrors "github.com/openclaw/llmpool/pkg/errors"
	"github.com/openclaw/llmpool/pkg/types"
)

// Re-exported request/response shapes so callers rarely need to
// import pkg/types directly.
type (
	// GenerateRequest is the provider-agnostic generation payload.
	GenerateRequest = types.GenerateRequest

	// GenerateResult is the outcome of a successful dispatch.
	GenerateResult = types.GenerateResult

	// CallError carries the classified outcome of a failed call.
	CallError = llmerrors.CallError
)

// ErrExhausted is returned when the final pass after a global cooldown
// reset still finds no usable key.
var ErrExhausted = llmerrors.ErrExhausted
