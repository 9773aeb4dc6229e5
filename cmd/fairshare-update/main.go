// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jontk/fairshare"
	"github.com/jontk/fairshare/internal/fairshare/store"
	"github.com/jontk/fairshare/pkg/config"
	"github.com/jontk/fairshare/pkg/logging"
)

var (
	// Version information (set at build time)
	Version   = "dev"
	BuildTime = ""
	Commit    = ""

	dbPath      string
	busyTimeout int
	debug       bool

	rootCmd = &cobra.Command{
		Use:     "fairshare-update",
		Short:   "Run one hierarchical fairshare update cycle",
		Long:    `Loads the bank/association hierarchy from the accounting store, computes fairshare values, and writes them back.`,
		Version: Version,
		RunE:    runUpdate,
	}
)

func init() {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildTime)

	rootCmd.Flags().StringVar(&dbPath, "db", "", "path to the accounting store (env: ACCOUNTING_DB_DATA_DIR)")
	rootCmd.Flags().IntVar(&busyTimeout, "busy-timeout", 0, "sqlite busy_timeout in seconds (env: ACCOUNTING_BUSY_TIMEOUT)")
	rootCmd.Flags().BoolVar(&debug, "debug", false, "enable debug logging")
}

func runUpdate(cmd *cobra.Command, args []string) error {
	cfg := config.NewDefault()
	cfg.Load()
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	if busyTimeout > 0 {
		cfg.BusyTimeout = time.Duration(busyTimeout) * time.Second
	}
	if debug {
		cfg.Debug = true
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger := logging.NewLogger(&logging.Config{Level: level, Format: logging.FormatText, Output: os.Stdout, Version: Version})

	st, err := store.Open(cfg.DBPath, cfg.BusyTimeout, cfg.WALMode)
	if err != nil {
		return fmt.Errorf("opening accounting store: %w", err)
	}
	defer st.Close()

	eng := fairshare.NewEngine(st, logger)
	return eng.Run(cmd.Context())
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
