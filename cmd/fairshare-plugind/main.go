// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jontk/fairshare/internal/accumulator"
	"github.com/jontk/fairshare/internal/priority"
	"github.com/jontk/fairshare/pkg/config"
	"github.com/jontk/fairshare/pkg/logging"
	"github.com/jontk/fairshare/pkg/metrics"
)

var (
	Version   = "dev"
	BuildTime = ""
	Commit    = ""

	listenAddr string
	debug      bool

	rootCmd = &cobra.Command{
		Use:     "fairshare-plugind",
		Short:   "Job-priority plugin RPC front-end",
		Long:    `Serves the update/reprioritize/clear/query RPCs and the per-job lifecycle callbacks over HTTP, fronting an in-memory priority model and compute-hours accumulator.`,
		Version: Version,
		RunE:    runDaemon,
	}
)

func init() {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildTime)

	rootCmd.Flags().StringVar(&listenAddr, "listen", ":8080", "HTTP listen address")
	rootCmd.Flags().BoolVar(&debug, "debug", false, "enable debug logging")
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg := config.NewDefault()
	cfg.Load()
	if debug {
		cfg.Debug = true
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger := logging.NewLogger(&logging.Config{Level: level, Format: logging.FormatJSON, Output: os.Stdout, Version: Version})

	model := priority.NewModel(cfg.WeightFairshare, cfg.WeightQueue, cfg.WeightBank, logger)
	accum := accumulator.New(logger)
	collector := metrics.NewInMemoryCollector()

	srv := newServer(model, accum, logger, collector)

	httpServer := &http.Server{
		Addr:         listenAddr,
		Handler:      srv.router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("plugin daemon listening", "addr", listenAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
