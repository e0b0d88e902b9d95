package main

import (
	"context"
	"fmt"
	"time"

	llmpool "github.com/openclaw/llmpool"
	"github.com/openclaw/llmpool/internal/schedule"
)

const agentPersona = "You are the in-house writer for a small independent " +
	"literary agency. Write in a warm, professional voice and keep output " +
	"self-contained plain text."

// taskPrompt describes one recurring content task.
type taskPrompt struct {
	name      string
	prompt    string
	maxTokens int
}

var taskPrompts = []taskPrompt{
	{
		name: "marketing",
		prompt: "Draft a short social media post promoting one of the " +
			"agency's represented works. Pick an angle that would interest " +
			"readers of literary fiction, under 600 characters.",
		maxTokens: 512,
	},
	{
		name: "community",
		prompt: "Write a thoughtful reply to a reader discussion thread " +
			"about what makes an opening chapter work. Friendly, specific, " +
			"no self-promotion.",
		maxTokens: 768,
	},
	{
		name: "submissions",
		prompt: "Compose a concise query letter pitching a completed " +
			"literary novel to an acquiring editor: hook, one-paragraph " +
			"synopsis, comparable titles.",
		maxTokens: 1024,
	},
	{
		name: "library",
		prompt: "Summarize one classic public-domain novel in three " +
			"paragraphs for the agency's reading-recommendations page.",
		maxTokens: 1024,
	},
	{
		name: "reflection",
		prompt: "Review the agency's recent output cadence and suggest " +
			"three concrete improvements to tomorrow's content plan, as a " +
			"short bulleted list.",
		maxTokens: 512,
	},
}

// buildTasks binds each content task to the pool and the configured
// cadence. Generated text is logged; publishing adapters sit outside
// this binary.
func (a *app) buildTasks() []schedule.Task {
	sched := a.cfg.Schedule
	cadence := map[string]time.Duration{
		"marketing":   sched.Marketing,
		"community":   sched.Community,
		"submissions": sched.Submissions,
		"library":     sched.Library,
		"reflection":  sched.Reflection,
	}

	tasks := make([]schedule.Task, 0, len(taskPrompts))
	for _, tp := range taskPrompts {
		tp := tp
		tasks = append(tasks, schedule.Task{
			Name:  tp.name,
			Every: cadence[tp.name],
			Run: func(ctx context.Context) error {
				return a.runContentTask(ctx, tp)
			},
		})
	}
	return tasks
}

func (a *app) runContentTask(ctx context.Context, tp taskPrompt) error {
	result, err := a.pool.Execute(ctx, &llmpool.GenerateRequest{
		SystemPrompt: agentPersona,
		Prompt:       tp.prompt,
		MaxTokens:    tp.maxTokens,
	})
	if err != nil {
		a.tracker.AddCalls(0, 1)
		return fmt.Errorf("%s generation: %w", tp.name, err)
	}

	a.tracker.AddCalls(1, 0)
	a.logger.Info("content generated",
		"task", tp.name,
		"provider", result.Provider,
		"model", result.Model,
		"chars", len(result.Text),
	)
	return nil
}
