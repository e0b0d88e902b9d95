package main

import (
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	llmpool "github.com/openclaw/llmpool"
	"github.com/openclaw/llmpool/internal/state"
)

// report is the combined status document served over HTTP and printed
// by the status command.
type report struct {
	Agent    string          `json:"agent"`
	Counters state.Counters  `json:"counters"`
	Pool     *llmpool.Status `json:"pool"`
}

func statusReport(a *app) report {
	snap := a.tracker.Snapshot()
	return report{
		Agent:    snap.AgentName,
		Counters: snap.Counters,
		Pool:     a.pool.Status(),
	}
}

func newStatusCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the agent and key pool status as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.shutdown(ctx)

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(statusReport(a))
		},
	}
}
