// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefault(t *testing.T) {
	c := NewDefault()
	require.NotNil(t, c)

	assert.False(t, c.Debug)
	assert.True(t, c.WALMode)
	assert.Equal(t, 30*time.Second, c.BusyTimeout)
	assert.Equal(t, float64(100000), c.WeightFairshare)
	assert.NotEmpty(t, c.DBPath)
}

func TestConfigLoadFromEnv(t *testing.T) {
	t.Setenv("ACCOUNTING_DB_DATA_DIR", "/data/accounting.db")
	t.Setenv("ACCOUNTING_BUSY_TIMEOUT", "45s")
	t.Setenv("ACCOUNTING_DEBUG", "true")

	c := NewDefault()
	c.Load()

	assert.Equal(t, "/data/accounting.db", c.DBPath)
	assert.Equal(t, 45*time.Second, c.BusyTimeout)
	assert.True(t, c.Debug)
}

func TestConfigLoadPrefersTestDBDir(t *testing.T) {
	t.Setenv("ACCOUNTING_DB_DATA_DIR", "/data/accounting.db")
	t.Setenv("ACCOUNTS_DATA_DIR", "/data/accounts.db")
	t.Setenv("ACCOUNTING_TEST_DB_DIR", "/tmp/test-accounting.db")

	c := NewDefault()
	c.Load()

	assert.Equal(t, "/tmp/test-accounting.db", c.DBPath)
}

func TestConfigValidate(t *testing.T) {
	c := NewDefault()
	assert.NoError(t, c.Validate())

	c.DBPath = ""
	assert.ErrorIs(t, c.Validate(), ErrMissingDBPath)

	c = NewDefault()
	c.BusyTimeout = 0
	assert.ErrorIs(t, c.Validate(), ErrInvalidBusyTimeout)

	c = NewDefault()
	c.WeightFairshare = -1
	assert.ErrorIs(t, c.Validate(), ErrInvalidWeight)
}

func TestGetEnvBoolOrDefaultIgnoresUnparsable(t *testing.T) {
	require.NoError(t, os.Setenv("ACCOUNTING_DEBUG", "not-a-bool"))
	defer os.Unsetenv("ACCOUNTING_DEBUG")

	assert.True(t, getEnvBoolOrDefault("ACCOUNTING_DEBUG", true))
}
