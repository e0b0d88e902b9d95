// Package openailike provides a base invoker for OpenAI-compatible
// providers. Most pool backends (Groq, NVIDIA, ZhipuAI, local
// llama.cpp) follow OpenAI's chat completion format with minor
// variations, so this package carries the shared request/response
// handling and error mapping.
package openailike

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/openclaw/llmpool/internal/provider"
	llmerrors "github.com/openclaw/llmpool/pkg/errors"
	"github.com/openclaw/llmpool/pkg/types"
)

// Info contains provider-specific wiring for an OpenAI-compatible API.
type Info struct {
	// Name is the provider identifier (e.g., "groq", "nvidia").
	Name string

	// DefaultBaseURL is the default API endpoint.
	DefaultBaseURL string

	// ChatEndpoint is the path for chat completions.
	// Default: "/chat/completions"
	ChatEndpoint string

	// APIKeyHeader is the header carrying the credential.
	// Default: "Authorization" with "Bearer " prefix.
	APIKeyHeader string

	// APIKeyPrefix is prepended to the credential value.
	APIKeyPrefix string

	// ExtraHeaders are additional headers to include in requests.
	ExtraHeaders map[string]string
}

// Invoker implements a generic OpenAI-compatible backend.
type Invoker struct {
	info    Info
	baseURL string
	model   string
	headers map[string]string
	client  *http.Client
}

// New creates a new OpenAI-like invoker.
func New(cfg provider.Config, info Info) (provider.Invoker, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = info.DefaultBaseURL
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	client := &http.Client{}
	if cfg.TimeoutSec > 0 {
		client.Timeout = time.Duration(cfg.TimeoutSec) * time.Second
	}

	return &Invoker{
		info:    info,
		baseURL: baseURL,
		model:   cfg.Model,
		headers: cfg.Headers,
		client:  client,
	}, nil
}

// Name returns the provider identifier.
func (p *Invoker) Name() string {
	return p.info.Name
}

// Model returns the configured model.
func (p *Invoker) Model() string {
	return p.model
}

// Invoke performs one chat completion call with the given credential.
func (p *Invoker) Invoke(ctx context.Context, credential string, req *types.GenerateRequest) (string, error) {
	chatReq := &types.ChatRequest{
		Model:       p.model,
		Messages:    types.ChatMessagesFor(req),
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}

	body, err := chatReq.MarshalBody()
	if err != nil {
		return "", llmerrors.NewRejectedError(p.info.Name, p.model, 0, "marshal request: "+err.Error())
	}

	endpoint := p.info.ChatEndpoint
	if endpoint == "" {
		endpoint = "/chat/completions"
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return "", llmerrors.NewRejectedError(p.info.Name, p.model, 0, "create request: "+err.Error())
	}

	httpReq.Header.Set("Content-Type", "application/json")

	apiKeyHeader := p.info.APIKeyHeader
	if apiKeyHeader == "" {
		apiKeyHeader = "Authorization"
	}
	apiKeyPrefix := p.info.APIKeyPrefix
	if apiKeyPrefix == "" && apiKeyHeader == "Authorization" {
		apiKeyPrefix = "Bearer "
	}
	httpReq.Header.Set(apiKeyHeader, apiKeyPrefix+credential)

	for k, v := range p.info.ExtraHeaders {
		httpReq.Header.Set(k, v)
	}
	// Configured headers win over provider defaults, e.g. when routing
	// through an authenticated proxy.
	for k, v := range p.headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", llmerrors.NewTransportError(p.info.Name, p.model, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", llmerrors.NewTransportError(p.info.Name, p.model, err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", p.mapError(resp.StatusCode, respBody)
	}

	var chatResp types.ChatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return "", llmerrors.NewServerError(p.info.Name, p.model, resp.StatusCode, "unmarshal response: "+err.Error())
	}

	text := chatResp.FirstText()
	if text == "" {
		return "", llmerrors.NewServerError(p.info.Name, p.model, resp.StatusCode, "empty completion")
	}
	return text, nil
}

// mapError converts an error response onto the unified taxonomy.
func (p *Invoker) mapError(statusCode int, body []byte) error {
	// Try to parse the OpenAI-compatible error envelope.
	var errResp struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
			Code    string `json:"code"`
		} `json:"error"`
	}

	message := "unknown error"
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		message = errResp.Error.Message
	}

	switch llmerrors.Classify(statusCode) {
	case llmerrors.KindRateLimited:
		return llmerrors.NewRateLimitError(p.info.Name, p.model, message)
	case llmerrors.KindServerError:
		return llmerrors.NewServerError(p.info.Name, p.model, statusCode, message)
	default:
		return llmerrors.NewRejectedError(p.info.Name, p.model, statusCode, message)
	}
}
