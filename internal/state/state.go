// Package state holds the agent's persistent runtime state and the
// backends that store it between runs. The state carries run counters,
// a capped task history, per-task heartbeats, and the key pool
// snapshot, so a restarted agent resumes with its cooldowns and
// cursors intact.
package state

import (
	"sync"
	"time"

	"github.com/openclaw/llmpool/internal/rotation"
)

// maxTaskHistory caps the task history so state files stay bounded.
const maxTaskHistory = 500

// Counters holds monotonic run counters.
type Counters struct {
	CallsSucceeded  int64 `json:"calls_succeeded"`
	CallsFailed     int64 `json:"calls_failed"`
	CyclesCompleted int64 `json:"cycles_completed"`
}

// TaskRecord describes one completed task run.
type TaskRecord struct {
	ID         string    `json:"id"`
	Task       string    `json:"task"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Outcome    string    `json:"outcome"` // success, error
	Detail     string    `json:"detail,omitempty"`
}

// AgentState is the full persisted state of the agent.
type AgentState struct {
	AgentName   string               `json:"agent_name"`
	StartedAt   time.Time            `json:"started_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
	Counters    Counters             `json:"counters"`
	TaskHistory []TaskRecord         `json:"task_history"`
	Heartbeats  map[string]time.Time `json:"heartbeats"`
	Pool        *rotation.Snapshot   `json:"pool,omitempty"`
}

// Tracker is the in-memory owner of AgentState.
// All methods are safe for concurrent use.
type Tracker struct {
	mu    sync.Mutex
	state AgentState
	now   func() time.Time
}

// NewTracker creates a tracker for a fresh agent run.
// A nil now falls back to time.Now.
func NewTracker(agentName string, now func() time.Time) *Tracker {
	if now == nil {
		now = time.Now
	}
	return &Tracker{
		state: AgentState{
			AgentName:  agentName,
			StartedAt:  now(),
			UpdatedAt:  now(),
			Heartbeats: make(map[string]time.Time),
		},
		now: now,
	}
}

// RecordTask appends a completed task run, dropping the oldest entry
// once the history cap is reached, and bumps the cycle counter on
// success.
func (t *Tracker) RecordTask(rec TaskRecord) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.state.TaskHistory = append(t.state.TaskHistory, rec)
	if len(t.state.TaskHistory) > maxTaskHistory {
		t.state.TaskHistory = t.state.TaskHistory[len(t.state.TaskHistory)-maxTaskHistory:]
	}
	if rec.Outcome == "success" {
		t.state.Counters.CyclesCompleted++
	}
	t.state.UpdatedAt = t.now()
}

// Heartbeat records the last run time for a task.
func (t *Tracker) Heartbeat(task string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	t.state.Heartbeats[task] = now
	t.state.UpdatedAt = now
}

// LastHeartbeat returns the last run time for a task, or the zero time.
func (t *Tracker) LastHeartbeat(task string) time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.Heartbeats[task]
}

// AddCalls adjusts the call counters.
func (t *Tracker) AddCalls(succeeded, failed int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state.Counters.CallsSucceeded += succeeded
	t.state.Counters.CallsFailed += failed
	t.state.UpdatedAt = t.now()
}

// SetPool attaches the latest key pool snapshot.
func (t *Tracker) SetPool(snap *rotation.Snapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state.Pool = snap
	t.state.UpdatedAt = t.now()
}

// Snapshot returns a deep copy of the current state.
func (t *Tracker) Snapshot() *AgentState {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := t.state
	out.TaskHistory = append([]TaskRecord(nil), t.state.TaskHistory...)
	out.Heartbeats = make(map[string]time.Time, len(t.state.Heartbeats))
	for k, v := range t.state.Heartbeats {
		out.Heartbeats[k] = v
	}
	return &out
}

// Restore replaces counters, history, and heartbeats from a loaded
// state. The agent name and start time of the current run are kept.
func (t *Tracker) Restore(s *AgentState) {
	if s == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	t.state.Counters = s.Counters
	t.state.TaskHistory = append([]TaskRecord(nil), s.TaskHistory...)
	if len(t.state.TaskHistory) > maxTaskHistory {
		t.state.TaskHistory = t.state.TaskHistory[len(t.state.TaskHistory)-maxTaskHistory:]
	}
	t.state.Heartbeats = make(map[string]time.Time, len(s.Heartbeats))
	for k, v := range s.Heartbeats {
		t.state.Heartbeats[k] = v
	}
	t.state.Pool = s.Pool
	t.state.UpdatedAt = t.now()
}
