package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   Kind
	}{
		{"too many requests", 429, KindRateLimited},
		{"internal error", 500, KindServerError},
		{"bad gateway", 502, KindServerError},
		{"service unavailable", 503, KindServerError},
		{"bad request", 400, KindRejected},
		{"unauthorized", 401, KindRejected},
		{"not found", 404, KindRejected},
		{"payload too large", 413, KindRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.status); got != tt.want {
				t.Errorf("Classify(%d) = %s, want %s", tt.status, got, tt.want)
			}
		})
	}
}

func TestKindOf(t *testing.T) {
	t.Run("call error carries its kind", func(t *testing.T) {
		err := NewRateLimitError("groq", "llama-3.3-70b-versatile", "quota exceeded")
		if got := KindOf(err); got != KindRateLimited {
			t.Errorf("KindOf() = %s, want %s", got, KindRateLimited)
		}
	})

	t.Run("wrapped call error still classified", func(t *testing.T) {
		inner := NewServerError("nvidia", "m", 503, "overloaded")
		wrapped := fmt.Errorf("invoke: %w", inner)
		if got := KindOf(wrapped); got != KindServerError {
			t.Errorf("KindOf() = %s, want %s", got, KindServerError)
		}
	})

	t.Run("plain error is rejected", func(t *testing.T) {
		if got := KindOf(errors.New("boom")); got != KindRejected {
			t.Errorf("KindOf() = %s, want %s", got, KindRejected)
		}
	})
}

func TestIsRetryable(t *testing.T) {
	if !IsRetryable(NewRateLimitError("p", "m", "msg")) {
		t.Error("rate limit should be retryable")
	}
	if !IsRetryable(NewTransportError("p", "m", errors.New("connection refused"))) {
		t.Error("transport failure should be retryable")
	}
	if IsRetryable(NewRejectedError("p", "m", 400, "bad payload")) {
		t.Error("rejected request should not be retryable")
	}
}

func TestCallError_Error(t *testing.T) {
	err := NewRejectedError("gemini", "gemini-2.0-flash", 400, "invalid argument")
	want := "[rejected] invalid argument (provider=gemini, model=gemini-2.0-flash, code=400)"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
