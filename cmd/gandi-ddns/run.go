package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Travis-Britz/gandi-ddns"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var runOnce bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Check the public IP every interval and update records that differ",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := readConfig(cmd.Flags(), configPath)
		if err != nil {
			return err
		}
		if err := ensureKey(cmd.Context(), &cfg); err != nil {
			return err
		}

		logger := slog.Default()
		opts, err := cfg.options(logger)
		if err != nil {
			return err
		}
		client, err := ddns.New(cfg.Domain, opts...)
		if err != nil {
			return fmt.Errorf("error creating ddns client: %w", err)
		}
		logger.Info("config is valid",
			slog.String("domain", cfg.Domain),
			slog.Any("subdomains", cfg.Subdomain),
			slog.Duration("interval", cfg.Interval),
		)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if runOnce {
			report, err := client.RunDDNS(ctx)
			report.Log(logger)
			return err
		}
		ddns.RunDaemon(ctx, client, cfg.Interval, logger)
		logger.Info("stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().BoolVar(&runOnce, "once", false, "Run a single cycle and exit")
}

// ensureKey resolves the API key, running the interactive setup first
// when the key file does not exist yet and stdin is a terminal.
func ensureKey(ctx context.Context, cfg *Config) error {
	if cfg.Key == "" && cfg.KeyFile != "" {
		_, err := os.Stat(cfg.KeyFile)
		if errors.Is(err, os.ErrNotExist) && term.IsTerminal(int(os.Stdin.Fd())) {
			slog.Info("key file does not exist", slog.String("path", cfg.KeyFile))
			if err := runSetup(ctx, *cfg); err != nil {
				return fmt.Errorf("setup: %w", err)
			}
		}
	}
	return cfg.resolveKey()
}
