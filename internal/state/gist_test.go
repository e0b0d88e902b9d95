package state

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"
)

func newTestGistStore(t *testing.T, handler http.HandlerFunc) *GistStore {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	store := NewGistStore("gist123", "ghp_testtoken")
	store.baseURL = server.URL
	store.limiter = rate.NewLimiter(rate.Inf, 1) // no throttling in tests
	return store
}

func TestGistStore_Load(t *testing.T) {
	stateJSON := `{"agent_name":"openclaw","counters":{"calls_succeeded":7}}`
	store := newTestGistStore(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/gists/gist123" {
			t.Errorf("path = %s, want /gists/gist123", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer ghp_testtoken" {
			t.Errorf("Authorization = %q, want bearer token", got)
		}
		payload := gistPayload{Files: map[string]gistFile{
			gistStateFilename: {Content: stateJSON},
		}}
		_ = json.NewEncoder(w).Encode(payload)
	})

	got, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.AgentName != "openclaw" || got.Counters.CallsSucceeded != 7 {
		t.Errorf("Load() = %+v, want restored state", got)
	}
}

func TestGistStore_LoadMissing(t *testing.T) {
	t.Run("gist not found", func(t *testing.T) {
		store := newTestGistStore(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})
		if _, err := store.Load(context.Background()); !errors.Is(err, ErrNotFound) {
			t.Errorf("Load() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("gist without state file", func(t *testing.T) {
		store := newTestGistStore(t, func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(gistPayload{Files: map[string]gistFile{}})
		})
		if _, err := store.Load(context.Background()); !errors.Is(err, ErrNotFound) {
			t.Errorf("Load() error = %v, want ErrNotFound", err)
		}
	})
}

func TestGistStore_Save(t *testing.T) {
	var gotMethod, gotBody string
	store := newTestGistStore(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
	})

	err := store.Save(context.Background(), &AgentState{AgentName: "openclaw"})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if gotMethod != http.MethodPatch {
		t.Errorf("method = %s, want PATCH", gotMethod)
	}
	if !strings.Contains(gotBody, gistStateFilename) {
		t.Errorf("body missing state filename: %s", gotBody)
	}
	if !strings.Contains(gotBody, "openclaw") {
		t.Errorf("body missing serialized state: %s", gotBody)
	}
}

func TestGistStore_SaveFailure(t *testing.T) {
	store := newTestGistStore(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	if err := store.Save(context.Background(), &AgentState{}); err == nil {
		t.Error("Save() error = nil, want error for 403")
	}
}
