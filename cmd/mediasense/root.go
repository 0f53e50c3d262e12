package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shivankMERNPro/MediaSense-AI/internal/config"
	"github.com/shivankMERNPro/MediaSense-AI/internal/logging"
)

var (
	flagConfig   string
	flagLogLevel string
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "mediasense",
		Short:         "AI media library with hybrid semantic search",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "config file (default $"+config.ConfigPathEnvVar+" or ./config.yaml)")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "override logging.level")

	root.AddCommand(
		newServeCmd(),
		newMCPCmd(),
		newSearchCmd(),
		newEmbedCmd(),
		newReprocessCmd(),
		newVersionCmd(),
	)
	return root
}

// loadConfig resolves configuration and initializes logging from it
func loadConfig() (*config.Config, error) {
	if flagConfig != "" {
		if err := os.Setenv(config.ConfigPathEnvVar, flagConfig); err != nil {
			return nil, err
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if flagLogLevel != "" {
		cfg.Logging.Level = flagLogLevel
	}

	// stdout is reserved for command output and the MCP protocol
	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
		Output: os.Stderr,
	})
	return cfg, nil
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
