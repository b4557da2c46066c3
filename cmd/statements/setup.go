package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/FACorreiaa/echo-statements/pkg/config"
	"github.com/FACorreiaa/echo-statements/pkg/logger"
)

// loadConfig reads the environment and applies the persistent log flags.
func loadConfig(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		cfg.Logging.Level = v
	}
	if v, _ := cmd.Flags().GetString("log-format"); v != "" {
		cfg.Logging.Format = v
	}

	log, err := logger.New(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to init logger: %w", err)
	}
	slog.SetDefault(log)
	return cfg, log, nil
}
