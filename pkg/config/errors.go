// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package config

import "errors"

var (
	// ErrMissingDBPath is returned when the accounting store path is not set.
	ErrMissingDBPath = errors.New("accounting database path is required")

	// ErrInvalidBusyTimeout is returned when the busy timeout is invalid.
	ErrInvalidBusyTimeout = errors.New("busy timeout must be greater than 0")

	// ErrInvalidWeight is returned when a priority weight is invalid.
	ErrInvalidWeight = errors.New("priority weight must be non-negative")
)
