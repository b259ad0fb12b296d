package main

import (
	"github.com/spf13/cobra"

	"automation-platform/api/pkg/config"
	"automation-platform/api/pkg/logging"
)

func newRootCommand() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "automation",
		Short: "Workflow automation engine",
		Long: `Runs linear workflows of typed nodes such as email, HTTP requests, delays,
logging, database queries and content generation.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")

	load := func(cmd *cobra.Command) (*config.Config, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		if debug, _ := cmd.Flags().GetBool("debug"); debug {
			cfg.Log.Level = "debug"
		}
		logging.Setup(cfg.Log.Level, cfg.Log.Format)
		return cfg, nil
	}

	rootCmd.AddCommand(newServeCommand(load))
	rootCmd.AddCommand(newRunCommand(load))
	rootCmd.AddCommand(newNodeTypesCommand(load))
	rootCmd.AddCommand(newTokenCommand(load))

	return rootCmd
}

type configLoader func(cmd *cobra.Command) (*config.Config, error)
