package cli

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/promptveil/promptveil/internal/config"
	"github.com/promptveil/promptveil/internal/logging"
)

var (
	flagConfig   string
	flagLogLevel string
)

var rootCmd = &cobra.Command{
	Use:   "promptveil",
	Short: "Consent checkpoint between you and a chat page",
	Long:  "Intercepts messages on their way into a chat web app, offers a redacted variant from a local redaction service, and reinjects whichever version you choose. Nothing leaves the page without your say.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to config YAML (default ~/.promptveil/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level override (debug/info/warn/error)")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadSetup resolves config and builds the logger for a command run.
func loadSetup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, nil, err
	}
	level := cfg.LogLevel
	if flagLogLevel != "" {
		level = flagLogLevel
	}
	return cfg, logging.New(level), nil
}
