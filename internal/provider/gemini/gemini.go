// Package gemini implements the Google Gemini provider adapter.
// It maps the unified generate request onto Gemini's generateContent
// API, which does not follow the OpenAI wire format.
package gemini

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/openclaw/llmpool/internal/provider"
	llmerrors "github.com/openclaw/llmpool/pkg/errors"
	"github.com/openclaw/llmpool/pkg/types"
)

const (
	// ProviderName is the identifier for this provider.
	ProviderName = "gemini"

	// DefaultBaseURL is the default Google AI Studio API endpoint.
	DefaultBaseURL = "https://generativelanguage.googleapis.com"

	// DefaultAPIVersion is the default Gemini API version.
	DefaultAPIVersion = "v1beta"

	// DefaultModel is used when the configuration names no model.
	DefaultModel = "gemini-2.0-flash"
)

// Invoker implements the Google Gemini API adapter.
type Invoker struct {
	baseURL    string
	apiVersion string
	model      string
	headers    map[string]string
	client     *http.Client
}

// New creates a new Gemini invoker.
func New(cfg provider.Config) (provider.Invoker, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	client := &http.Client{}
	if cfg.TimeoutSec > 0 {
		client.Timeout = time.Duration(cfg.TimeoutSec) * time.Second
	}

	return &Invoker{
		baseURL:    baseURL,
		apiVersion: DefaultAPIVersion,
		model:      model,
		headers:    cfg.Headers,
		client:     client,
	}, nil
}

// Name returns the provider identifier.
func (p *Invoker) Name() string {
	return ProviderName
}

// Model returns the configured model.
func (p *Invoker) Model() string {
	return p.model
}

// geminiRequest is the generateContent API request format.
type geminiRequest struct {
	Contents          []geminiContent   `json:"contents"`
	SystemInstruction *geminiContent    `json:"systemInstruction,omitempty"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text,omitempty"`
}

type generationConfig struct {
	Temperature     *float64 `json:"temperature,omitempty"`
	MaxOutputTokens int      `json:"maxOutputTokens,omitempty"`
}

// geminiResponse is the generateContent API response format.
type geminiResponse struct {
	Candidates []candidate `json:"candidates"`
	Error      *apiError   `json:"error,omitempty"`
}

type candidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// Invoke performs one generateContent call with the given credential.
func (p *Invoker) Invoke(ctx context.Context, credential string, req *types.GenerateRequest) (string, error) {
	geminiReq := &geminiRequest{
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: req.Prompt}}},
		},
		GenerationConfig: &generationConfig{
			MaxOutputTokens: req.MaxTokens,
		},
	}
	if req.Temperature > 0 {
		temp := req.Temperature
		geminiReq.GenerationConfig.Temperature = &temp
	}
	if req.SystemPrompt != "" {
		geminiReq.SystemInstruction = &geminiContent{
			Parts: []geminiPart{{Text: req.SystemPrompt}},
		}
	}

	body, err := json.Marshal(geminiReq)
	if err != nil {
		return "", llmerrors.NewRejectedError(ProviderName, p.model, 0, "marshal request: "+err.Error())
	}

	url := fmt.Sprintf("%s/%s/models/%s:generateContent", p.baseURL, p.apiVersion, p.model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", llmerrors.NewRejectedError(ProviderName, p.model, 0, "create request: "+err.Error())
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", credential)
	for k, v := range p.headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", llmerrors.NewTransportError(ProviderName, p.model, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", llmerrors.NewTransportError(ProviderName, p.model, err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", p.mapError(resp.StatusCode, respBody)
	}

	var geminiResp geminiResponse
	if err := json.Unmarshal(respBody, &geminiResp); err != nil {
		return "", llmerrors.NewServerError(ProviderName, p.model, resp.StatusCode, "unmarshal response: "+err.Error())
	}

	if len(geminiResp.Candidates) == 0 {
		return "", llmerrors.NewServerError(ProviderName, p.model, resp.StatusCode, "no candidates in response")
	}

	var sb strings.Builder
	for _, part := range geminiResp.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	text := sb.String()
	if text == "" {
		return "", llmerrors.NewServerError(ProviderName, p.model, resp.StatusCode, "empty completion")
	}
	return text, nil
}

// mapError converts a Gemini error response onto the unified taxonomy.
// Gemini reports quota exhaustion as 429 RESOURCE_EXHAUSTED.
func (p *Invoker) mapError(statusCode int, body []byte) error {
	var errResp geminiResponse
	message := "unknown error"
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != nil {
		message = errResp.Error.Message
		if errResp.Error.Status == "RESOURCE_EXHAUSTED" {
			return llmerrors.NewRateLimitError(ProviderName, p.model, message)
		}
	}

	switch llmerrors.Classify(statusCode) {
	case llmerrors.KindRateLimited:
		return llmerrors.NewRateLimitError(ProviderName, p.model, message)
	case llmerrors.KindServerError:
		return llmerrors.NewServerError(ProviderName, p.model, statusCode, message)
	default:
		return llmerrors.NewRejectedError(ProviderName, p.model, statusCode, message)
	}
}
