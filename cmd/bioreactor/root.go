package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nerrad567/bioreactor-core/internal/infrastructure/config"
	"github.com/nerrad567/bioreactor-core/internal/infrastructure/logging"
)

// Default configuration file path, used when it exists and neither the flag
// nor BIOREACTOR_CONFIG is set.
const defaultConfigPath = "configs/config.yaml"

// newRootCommand builds the bioreactor command tree. Running it without a
// subcommand serves the API.
func newRootCommand() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "bioreactor",
		Short:         "Bioreactor monitoring REST API",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), configPath)
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"path to config.yaml (default $BIOREACTOR_CONFIG or "+defaultConfigPath+")")

	root.AddCommand(
		newServeCommand(&configPath),
		newMigrateCommand(&configPath),
		newMockDataCommand(&configPath),
		newVersionCommand(),
	)
	return root
}

// resolveConfigPath picks the configuration file: the flag, then
// BIOREACTOR_CONFIG, then defaultConfigPath if present. An empty result
// runs on built-in defaults plus environment overrides.
func resolveConfigPath(flag string) string {
	if flag != "" {
		return flag
	}
	if path := os.Getenv("BIOREACTOR_CONFIG"); path != "" {
		return path
	}
	if _, err := os.Stat(defaultConfigPath); err == nil {
		return defaultConfigPath
	}
	return ""
}

// loadConfig loads configuration and builds the configured logger.
func loadConfig(flag string) (*config.Config, *logging.Logger, error) {
	path := resolveConfigPath(flag)
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	log := logging.New(cfg.Logging, version)
	if path == "" {
		log.Info("no config file, using defaults and environment")
	} else {
		log.Info("configuration loaded", "path", path)
	}
	return cfg, log, nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "bioreactor %s (commit %s, built %s)\n", version, commit, date)
			return err
		},
	}
}
