// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

// Package config holds runtime configuration for the fairshare engine,
// loaded from environment variables per the accounting store's documented
// surface (ACCOUNTING_DB_DATA_DIR, ACCOUNTS_DATA_DIR, ACCOUNTING_TEST_DB_DIR).
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds configuration for the loader, writer, and job-lifecycle
// engine.
type Config struct {
	// DBPath is the path to the accounting store.
	DBPath string

	// BusyTimeout is the sqlite busy_timeout pragma applied on open; the
	// spec requires at least 30s under concurrent-reader/single-writer
	// access.
	BusyTimeout time.Duration

	// WALMode enables WAL journaling when the store is opened. The
	// synchronous=NORMAL and in-memory temp store pragmas are applied
	// whether or not it is set.
	WALMode bool

	// WeightFairshare, WeightQueue, WeightBank are the Wf/Wq/Wb priority
	// weights. Wf defaults to 100000; Wq/Wb are deployment-specific.
	WeightFairshare float64
	WeightQueue     float64
	WeightBank      float64

	// Debug enables debug-level logging.
	Debug bool
}

// NewDefault creates a configuration with default values.
func NewDefault() *Config {
	return &Config{
		DBPath:          getEnvOrDefault("ACCOUNTING_DB_DATA_DIR", "./accounting.db"),
		BusyTimeout:     30 * time.Second,
		WALMode:         true,
		WeightFairshare: 100000,
		WeightQueue:     0,
		WeightBank:      0,
		Debug:           getEnvBoolOrDefault("ACCOUNTING_DEBUG", false),
	}
}

// Load overlays environment variables onto an existing configuration. Test
// code may point DBPath at ACCOUNTING_TEST_DB_DIR instead.
func (c *Config) Load() {
	if path := os.Getenv("ACCOUNTING_DB_DATA_DIR"); path != "" {
		c.DBPath = path
	}
	if path := os.Getenv("ACCOUNTS_DATA_DIR"); path != "" {
		c.DBPath = path
	}
	if path := os.Getenv("ACCOUNTING_TEST_DB_DIR"); path != "" {
		c.DBPath = path
	}

	if timeout := os.Getenv("ACCOUNTING_BUSY_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			c.BusyTimeout = d
		}
	}

	c.Debug = getEnvBoolOrDefault("ACCOUNTING_DEBUG", c.Debug)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return ErrMissingDBPath
	}
	if c.BusyTimeout <= 0 {
		return ErrInvalidBusyTimeout
	}
	if c.WeightFairshare < 0 {
		return ErrInvalidWeight
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
