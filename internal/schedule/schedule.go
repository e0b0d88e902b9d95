// Package schedule runs the agent's recurring tasks on wall-clock
// cadences. A cycle checks which tasks are due against their last
// heartbeat, runs them sequentially, and records the outcome in the
// persistent state tracker. The dispatcher underneath already absorbs
// rate limits, so a failing task marks its cycle failed and the loop
// moves on.
package schedule

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/openclaw/llmpool/internal/metrics"
	"github.com/openclaw/llmpool/internal/observability"
	"github.com/openclaw/llmpool/internal/state"
)

// dueSlack lets a task fire slightly early so a cycle triggered by an
// external cron a few minutes ahead of the cadence still runs it.
const dueSlack = 30 * time.Minute

// Task is one recurring unit of work.
type Task struct {
	Name  string
	Every time.Duration
	Run   func(ctx context.Context) error
}

// Result is the outcome of one task run within a cycle.
type Result struct {
	Task string
	Err  error
}

// Scheduler owns the task list and decides what is due.
type Scheduler struct {
	tasks   []Task
	tracker *state.Tracker
	logger  *observability.Logger
	now     func() time.Time
}

// New creates a scheduler. A nil now falls back to time.Now.
func New(tracker *state.Tracker, logger *observability.Logger, now func() time.Time, tasks ...Task) *Scheduler {
	if now == nil {
		now = time.Now
	}
	return &Scheduler{
		tasks:   tasks,
		tracker: tracker,
		logger:  logger,
		now:     now,
	}
}

// Due returns the tasks whose cadence has elapsed since their last
// recorded run. A task that never ran is always due.
func (s *Scheduler) Due() []Task {
	now := s.now()
	return lo.Filter(s.tasks, func(t Task, _ int) bool {
		last := s.tracker.LastHeartbeat(t.Name)
		if last.IsZero() {
			return true
		}
		slack := dueSlack
		if t.Every < 2*dueSlack {
			slack = t.Every / 6
		}
		return now.Sub(last) >= t.Every-slack
	})
}

// RunCycle runs every due task once and returns the per-task results.
// Task failures are contained: they are logged and recorded, never
// propagated, so one broken task cannot stall the rest of the cycle.
func (s *Scheduler) RunCycle(ctx context.Context) []Result {
	cycleID := uuid.NewString()
	due := s.Due()

	log := s.logger.WithFields("cycle_id", cycleID)
	log.Info("cycle started",
		"due_tasks", lo.Map(due, func(t Task, _ int) string { return t.Name }),
	)

	results := make([]Result, 0, len(due))
	for _, task := range due {
		if err := ctx.Err(); err != nil {
			log.Warn("cycle interrupted", "remaining_task", task.Name)
			break
		}
		results = append(results, s.runTask(ctx, log, cycleID, task))
	}

	log.Info("cycle complete",
		"ran", len(results),
		"failed", lo.CountBy(results, func(r Result) bool { return r.Err != nil }),
	)
	return results
}

func (s *Scheduler) runTask(ctx context.Context, log *observability.Logger, cycleID string, task Task) Result {
	start := s.now()
	err := task.Run(ctx)
	elapsed := s.now().Sub(start)

	metrics.RecordTask(task.Name, err, elapsed)

	rec := state.TaskRecord{
		ID:         cycleID + "/" + task.Name,
		Task:       task.Name,
		StartedAt:  start,
		FinishedAt: s.now(),
		Outcome:    "success",
	}
	if err != nil {
		rec.Outcome = "error"
		rec.Detail = err.Error()
		log.RedactedError("task failed", "task", task.Name, "error", err)
	} else {
		s.tracker.Heartbeat(task.Name)
		log.Info("task complete", "task", task.Name, "duration", elapsed)
	}
	s.tracker.RecordTask(rec)

	return Result{Task: task.Name, Err: err}
}

// RunForever loops cycles at the given interval until the context is
// cancelled. A first cycle runs immediately.
func (s *Scheduler) RunForever(ctx context.Context, interval time.Duration) {
	s.RunCycle(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunCycle(ctx)
		}
	}
}
