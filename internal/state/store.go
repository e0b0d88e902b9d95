package state

import (
	"context"
	"errors"
)

// ErrNotFound reports that no persisted state exists yet.
var ErrNotFound = errors.New("state not found")

// Store persists agent state between runs.
type Store interface {
	// Name identifies the backend in logs and metrics.
	Name() string

	// Load reads the persisted state. Returns ErrNotFound when no
	// state has been saved yet.
	Load(ctx context.Context) (*AgentState, error)

	// Save writes the state, replacing any previous version.
	Save(ctx context.Context, s *AgentState) error
}
