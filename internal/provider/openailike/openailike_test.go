package openailike

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/openclaw/llmpool/internal/provider"
	llmerrors "github.com/openclaw/llmpool/pkg/errors"
	"github.com/openclaw/llmpool/pkg/types"
)

func newTestInvoker(t *testing.T, handler http.HandlerFunc) provider.Invoker {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	inv, err := New(provider.Config{
		Name:    "groq",
		BaseURL: server.URL,
		Model:   "llama-3.3-70b-versatile",
	}, Info{Name: "groq"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return inv
}

func TestInvoker_Invoke_Success(t *testing.T) {
	var gotAuth string
	inv := newTestInvoker(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s, want /chat/completions", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"hello there"}}]}`))
	})

	got, err := inv.Invoke(context.Background(), "sk-test-credential", &types.GenerateRequest{
		Prompt:    "say hello",
		MaxTokens: 64,
	})
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	if got != "hello there" {
		t.Errorf("Invoke() = %q, want %q", got, "hello there")
	}
	if gotAuth != "Bearer sk-test-credential" {
		t.Errorf("Authorization = %q, want bearer credential", gotAuth)
	}
}

func TestInvoker_Invoke_RateLimited(t *testing.T) {
	inv := newTestInvoker(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limit exceeded","type":"tokens"}}`))
	})

	_, err := inv.Invoke(context.Background(), "k", &types.GenerateRequest{Prompt: "x"})
	if llmerrors.KindOf(err) != llmerrors.KindRateLimited {
		t.Errorf("KindOf(err) = %s, want rate_limited (err=%v)", llmerrors.KindOf(err), err)
	}
}

func TestInvoker_Invoke_ServerError(t *testing.T) {
	inv := newTestInvoker(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := inv.Invoke(context.Background(), "k", &types.GenerateRequest{Prompt: "x"})
	if llmerrors.KindOf(err) != llmerrors.KindServerError {
		t.Errorf("KindOf(err) = %s, want server_error (err=%v)", llmerrors.KindOf(err), err)
	}
}

func TestInvoker_Invoke_Rejected(t *testing.T) {
	inv := newTestInvoker(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"model not supported"}}`))
	})

	_, err := inv.Invoke(context.Background(), "k", &types.GenerateRequest{Prompt: "x"})
	var callErr *llmerrors.CallError
	if !errors.As(err, &callErr) {
		t.Fatalf("error is %T, want *CallError", err)
	}
	if callErr.Kind != llmerrors.KindRejected {
		t.Errorf("Kind = %s, want rejected", callErr.Kind)
	}
	if callErr.Message != "model not supported" {
		t.Errorf("Message = %q, want provider message preserved", callErr.Message)
	}
}

func TestInvoker_Invoke_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close() // connection refused from here on

	inv, err := New(provider.Config{Name: "groq", BaseURL: url, Model: "m"}, Info{Name: "groq"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_, err = inv.Invoke(context.Background(), "k", &types.GenerateRequest{Prompt: "x"})
	if llmerrors.KindOf(err) != llmerrors.KindServerError {
		t.Errorf("transport failure classified %s, want server_error", llmerrors.KindOf(err))
	}
}

func TestInvoker_Invoke_ConfiguredHeaders(t *testing.T) {
	var gotOrg, gotRoute string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotOrg = r.Header.Get("X-Org")
		gotRoute = r.Header.Get("X-Route")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer server.Close()

	inv, err := New(provider.Config{
		Name:    "groq",
		BaseURL: server.URL,
		Model:   "m",
		Headers: map[string]string{"X-Org": "acme"},
	}, Info{
		Name:         "groq",
		ExtraHeaders: map[string]string{"X-Route": "direct", "X-Org": "default"},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if _, err := inv.Invoke(context.Background(), "k", &types.GenerateRequest{Prompt: "x"}); err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	if gotOrg != "acme" {
		t.Errorf("X-Org = %q, want configured value to override the provider default", gotOrg)
	}
	if gotRoute != "direct" {
		t.Errorf("X-Route = %q, want provider default kept", gotRoute)
	}
}

func TestInvoker_Invoke_CustomAPIKeyHeader(t *testing.T) {
	var gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("api-key")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer server.Close()

	inv, err := New(provider.Config{Name: "azure", BaseURL: server.URL, Model: "m"}, Info{
		Name:         "azure",
		APIKeyHeader: "api-key",
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if _, err := inv.Invoke(context.Background(), "azure-key", &types.GenerateRequest{Prompt: "x"}); err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	if gotKey != "azure-key" {
		t.Errorf("api-key header = %q, want raw credential without prefix", gotKey)
	}
}
