package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/Travis-Britz/gandi-ddns"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Prompt for a Gandi API key, verify it and save it to the key file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := readConfig(cmd.Flags(), configPath)
		if err != nil {
			return err
		}
		return runSetup(cmd.Context(), cfg)
	},
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(ctx context.Context, cfg Config) error {
	if cfg.KeyFile == "" {
		return &ddns.ConfigError{Field: "key_file", Reason: "cannot be empty"}
	}
	slog.Info("running setup")
	fmt.Fprintf(os.Stderr, "Enter Gandi API Key: \n")
	bytekey, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return fmt.Errorf("runSetup: error reading from stdin: %w", err)
	}
	key := string(bytekey)

	ctx, cancel := context.WithTimeout(ctx, 2*cfg.Timeout+5*time.Second)
	defer cancel()
	slog.Info("verifying key", slog.String("domain", cfg.Domain))
	zone, err := ddns.LookupZone(ctx, key, cfg.Endpoint, cfg.Domain)
	if err != nil {
		return fmt.Errorf("unable to verify api key: %w", err)
	}
	slog.Info("key verified successfully", slog.String("zone", zone))

	slog.Info("creating key file", slog.String("path", cfg.KeyFile))
	if err := writeKey(cfg.KeyFile, key); err != nil {
		return err
	}
	slog.Info("key written", slog.String("path", cfg.KeyFile))
	return nil
}
