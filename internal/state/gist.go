package state

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"
)

const (
	defaultGistAPIBase = "https://api.github.com"
	gistStateFilename  = "agent_state.json"
)

// GistStore persists state as a file inside a private GitHub gist.
// Saves are throttled so frequent updates cannot trip GitHub's
// secondary rate limits.
type GistStore struct {
	baseURL string
	gistID  string
	token   string
	client  *http.Client
	limiter *rate.Limiter
}

// NewGistStore creates a gist-backed store.
func NewGistStore(gistID, token string) *GistStore {
	return &GistStore{
		baseURL: defaultGistAPIBase,
		gistID:  gistID,
		token:   token,
		client:  &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(rate.Every(2*time.Second), 1),
	}
}

// Name identifies the backend.
func (s *GistStore) Name() string {
	return "gist"
}

type gistPayload struct {
	Files map[string]gistFile `json:"files"`
}

type gistFile struct {
	Content   string `json:"content"`
	Truncated bool   `json:"truncated,omitempty"`
	RawURL    string `json:"raw_url,omitempty"`
}

// Load fetches the gist and parses the state file it contains.
func (s *GistStore) Load(ctx context.Context) (*AgentState, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/gists/%s", s.baseURL, s.gistID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	s.setHeaders(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch gist: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch gist: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read gist response: %w", err)
	}

	var payload gistPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("parse gist response: %w", err)
	}

	file, ok := payload.Files[gistStateFilename]
	if !ok || strings.TrimSpace(file.Content) == "" {
		return nil, ErrNotFound
	}

	content := file.Content
	if file.Truncated && file.RawURL != "" {
		content, err = s.fetchRaw(ctx, file.RawURL)
		if err != nil {
			return nil, err
		}
	}

	var st AgentState
	if err := json.Unmarshal([]byte(content), &st); err != nil {
		return nil, fmt.Errorf("parse gist state: %w", err)
	}
	return &st, nil
}

// Save patches the gist with the serialized state.
func (s *GistStore) Save(ctx context.Context, st *AgentState) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	content, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	body, err := json.Marshal(gistPayload{
		Files: map[string]gistFile{
			gistStateFilename: {Content: string(content)},
		},
	})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/gists/%s", s.baseURL, s.gistID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	s.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("update gist: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("update gist: unexpected status %d", resp.StatusCode)
	}
	return nil
}

func (s *GistStore) fetchRaw(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}
	s.setHeaders(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch raw gist content: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch raw gist content: unexpected status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (s *GistStore) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
}
