package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/YelzhanWeb/repairdesk/internal/adapter/logger"
	"github.com/YelzhanWeb/repairdesk/internal/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "repairdesk",
	Short:         "Service order management for a device repair shop",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "Path to the optional YAML config file")

	rootCmd.AddCommand(serveCmd, subscriberCmd, migrateCmd, bootstrapAdminCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setup loads the configuration and builds the logger for one mode.
func setup(mode string) (*config.Config, logger.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("configuration error: %w", err)
	}

	lgr, err := logger.New(mode, cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, lgr, nil
}
