// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFairshareError(t *testing.T) {
	err := NewFairshareError(ErrorCodeRootMissing, "no root bank found")
	require.NotNil(t, err)
	assert.Equal(t, ErrorCodeRootMissing, err.Code)
	assert.Equal(t, CategoryConfiguration, err.Category)
	assert.False(t, err.Retryable)
	assert.Equal(t, "[ROOT_MISSING] no root bank found", err.Error())
}

func TestFairshareErrorWithDetails(t *testing.T) {
	err := NewFairshareError(ErrorCodeMalformedRecord, "bad shares column")
	err.Details = "row 14"
	assert.Equal(t, "[MALFORMED_RECORD] bad shares column: row 14", err.Error())
}

func TestFairshareErrorUnwrapAndIs(t *testing.T) {
	cause := errors.New("disk full")
	err := NewFairshareErrorWithCause(ErrorCodeStoreIO, "write failed", cause)
	assert.Equal(t, cause, err.Unwrap())
	assert.True(t, errors.Is(err, err))

	other := NewFairshareError(ErrorCodeStoreIO, "different message")
	assert.True(t, err.Is(other))

	different := NewFairshareError(ErrorCodeRootMissing, "x")
	assert.False(t, err.Is(different))
}

func TestNewPolicyRejectionError(t *testing.T) {
	err := NewPolicyRejectionError(ErrorCodeInvalidQueue, "queue not allowed", "alice", "bankA", "debug")
	assert.Equal(t, "alice", err.UserID)
	assert.Equal(t, "bankA", err.Bank)
	assert.Equal(t, "debug", err.Queue)
	assert.Equal(t, CategoryPolicy, err.Category)
}

func TestNewStoreErrorClassifiesBusy(t *testing.T) {
	busy := NewStoreError("write failed", errors.New("database is locked"))
	assert.Equal(t, ErrorCodeStoreBusy, busy.Code)
	assert.True(t, busy.Retryable)

	io := NewStoreError("write failed", errors.New("permission denied"))
	assert.Equal(t, ErrorCodeStoreIO, io.Code)
	assert.False(t, io.Retryable)
}

func TestNewInvariantViolationError(t *testing.T) {
	err := NewInvariantViolationError(ErrorCodeRankExhausted, "rank hit zero while emitting users")
	assert.Equal(t, CategoryInvariant, err.Category)
	assert.False(t, err.Retryable)
}
