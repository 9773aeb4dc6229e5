// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package errors

import (
	stderrors "errors"
	"strings"
)

// WrapError converts a generic error into a structured FairshareError.
func WrapError(err error) *FairshareError {
	if err == nil {
		return nil
	}

	var fsErr *FairshareError
	if stderrors.As(err, &fsErr) {
		return fsErr
	}

	if isBusyOrLocked(err) {
		return NewFairshareErrorWithCause(ErrorCodeStoreBusy, "store is busy", err)
	}

	return NewFairshareErrorWithCause(ErrorCodeStoreIO, err.Error(), err)
}

// isBusyOrLocked reports whether err looks like a sqlite SQLITE_BUSY or
// SQLITE_LOCKED condition. The sqlite3 driver surfaces these as plain
// strings rather than a typed sentinel, so classification is by substring,
// mirroring how network errors are classified by message elsewhere in the
// stack.
func isBusyOrLocked(err error) bool {
	if err == nil {
		return false
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "database is locked") || strings.Contains(s, "busy")
}
