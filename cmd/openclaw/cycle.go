package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCycleCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "cycle",
		Short: "Run one cycle of due tasks, save state, and exit (cron-friendly)",
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

			results := a.sched.RunCycle(ctx)
			if err := a.saveState(ctx); err != nil {
				return err
			}

			ran, failed := 0, 0
			for _, r := range results {
				ran++
				if r.Err != nil {
					failed++
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cycle complete: %d task(s) run, %d failed\n", ran, failed)

			if ran > 0 && failed == ran {
				return fmt.Errorf("every task in the cycle failed")
			}
			return nil
		},
	}
}
