package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start background workers",
	Long:  `Start background maintenance workers for the console's own tables.`,
}

var sessionWorkerCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Purge expired console sessions periodically",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validatePurgeInterval(purgeInterval); err != nil {
			return err
		}
		startSessionWorker()
		return nil
	},
}

var purgeInterval time.Duration

func validatePurgeInterval(d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("--interval must be positive, got %s", d)
	}
	return nil
}

func startSessionWorker() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := initializeDependencies(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		deps.Services.Close()
		_ = deps.DB.Close()
	}()
	logger := deps.Logger

	purge := func() {
		n, err := deps.Services.Auth.PurgeExpired(ctx)
		if err != nil {
			logger.Error("session purge failed", "error", err)
			return
		}
		logger.Info("expired sessions purged", "count", n)
	}

	logger.Info("session worker is running. Press Ctrl+C to stop.", "interval", purgeInterval)
	purge()

	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Info("session worker shutdown complete")
			return
		case <-ticker.C:
			purge()
		}
	}
}

func init() {
	sessionWorkerCmd.Flags().DurationVar(&purgeInterval, "interval", time.Hour, "time between purges")

	workerCmd.AddCommand(sessionWorkerCmd)
	rootCmd.AddCommand(workerCmd)
}
