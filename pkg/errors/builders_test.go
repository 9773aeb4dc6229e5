// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapErrorNil(t *testing.T) {
	assert.Nil(t, WrapError(nil))
}

func TestWrapErrorPassthrough(t *testing.T) {
	orig := NewFairshareError(ErrorCodeRootMissing, "dup root")
	wrapped := WrapError(orig)
	assert.Same(t, orig, wrapped)
}

func TestWrapErrorClassifiesBusy(t *testing.T) {
	wrapped := WrapError(errors.New("database is locked (5)"))
	assert.Equal(t, ErrorCodeStoreBusy, wrapped.Code)
	assert.True(t, wrapped.Retryable)
}

func TestWrapErrorFallsBackToStoreIO(t *testing.T) {
	wrapped := WrapError(errors.New("disk I/O error"))
	assert.Equal(t, ErrorCodeStoreIO, wrapped.Code)
	assert.False(t, wrapped.Retryable)
}

func TestIsBusyOrLocked(t *testing.T) {
	assert.True(t, isBusyOrLocked(errors.New("SQLITE_BUSY: database is locked")))
	assert.True(t, isBusyOrLocked(errors.New("resource busy")))
	assert.False(t, isBusyOrLocked(nil))
	assert.False(t, isBusyOrLocked(errors.New("not found")))
}
