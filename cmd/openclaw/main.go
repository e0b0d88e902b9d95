// Command openclaw runs the autonomous literary agent: a scheduler of
// recurring content tasks on top of the llmpool dispatcher, with
// persistent state and an HTTP surface for health, status, and
// metrics.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/openclaw/llmpool/internal/config"
)

func main() {
	root := newRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "openclaw",
		Short:         "Autonomous agent dispatching LLM calls across a provider/key pool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"path to YAML config; when empty, configuration comes from environment variables")

	root.AddCommand(
		newRunCommand(&configPath),
		newCycleCommand(&configPath),
		newStatusCommand(&configPath),
	)
	return root
}

// loadConfig builds the configuration from a file when a path is
// given, otherwise from the environment.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		cfg := config.FromEnv()
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	return config.LoadFromFile(path)
}
