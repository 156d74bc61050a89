package main

import (
	"github.com/spf13/cobra"

	"github.com/mind-engage/testforge/internal/config"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "testforge",
		Short:        "Turn authored tests into student forms and answer keys",
		SilenceUsage: true,
	}
	root.PersistentFlags().String("config", "", "Path to YAML config file (env vars override it)")

	root.AddCommand(newServeCmd())
	root.AddCommand(newTransformCmd())
	root.AddCommand(newFlattenCmd())
	root.AddCommand(newGradeCmd())
	return root
}

// loadConfig reads --config when given, else the environment alone.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	if p, _ := cmd.Flags().GetString("config"); p != "" {
		return config.Load(p)
	}
	cfg := config.FromEnv()
	return cfg, cfg.Validate()
}
