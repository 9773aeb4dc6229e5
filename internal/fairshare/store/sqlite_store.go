// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/jontk/fairshare/pkg/errors"
	"github.com/jontk/fairshare/pkg/retry"
)

// SQLiteStore is a mattn/go-sqlite3-backed Store implementation over the
// bank_table/association_table schema of §6. It assumes a single writer
// per update cycle; readers tolerate a concurrent writer via the
// connection's busy timeout.
type SQLiteStore struct {
	db     *sql.DB
	policy retry.Policy
}

// Open opens (creating if necessary) the sqlite database at path, applying
// the durability pragmas named by the writer's design notes: WAL
// journaling (only when walMode is set), synchronous=NORMAL, in-memory temp
// store, and busyTimeout. If any pragma fails, Open closes the database and
// returns a store error.
func Open(path string, busyTimeout time.Duration, walMode bool) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.NewStoreError(fmt.Sprintf("opening accounting store at %q", path), err)
	}

	pragmas := []string{
		fmt.Sprintf("PRAGMA busy_timeout = %d", busyTimeout.Milliseconds()),
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
	}
	if walMode {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL")
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, errors.NewStoreError(fmt.Sprintf("applying pragma %q", p), err)
		}
	}

	return &SQLiteStore{db: db, policy: retry.NewExponentialBackoff()}, nil
}

// Load reads every bank and association row from the store.
func (s *SQLiteStore) Load(ctx context.Context) (*RecordSet, error) {
	var out RecordSet

	err := retry.Do(ctx, s.policy, func() error {
		out = RecordSet{}

		bankRows, err := s.db.QueryContext(ctx,
			`SELECT name, parent_bank, shares, active FROM bank_table`)
		if err != nil {
			return errors.NewStoreError("querying bank_table", err)
		}
		defer bankRows.Close()

		for bankRows.Next() {
			var b BankRecord
			var active int
			if err := bankRows.Scan(&b.Name, &b.Parent, &b.Shares, &active); err != nil {
				return errors.NewConfigError(errors.ErrorCodeMalformedRecord, "scanning bank_table row", err)
			}
			b.Active = active != 0
			out.Banks = append(out.Banks, b)
		}
		if err := bankRows.Err(); err != nil {
			return errors.NewStoreError("iterating bank_table", err)
		}

		assocRows, err := s.db.QueryContext(ctx,
			`SELECT username, bank, shares, job_usage, fairshare, active FROM association_table`)
		if err != nil {
			return errors.NewStoreError("querying association_table", err)
		}
		defer assocRows.Close()

		for assocRows.Next() {
			var a AssociationRecord
			var active int
			if err := assocRows.Scan(&a.Username, &a.Bank, &a.Shares, &a.Usage, &a.Fairshare, &active); err != nil {
				return errors.NewConfigError(errors.ErrorCodeMalformedRecord, "scanning association_table row", err)
			}
			a.Active = active != 0
			out.Associations = append(out.Associations, a)
		}
		return assocRows.Err()
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// WriteFairshare updates the fairshare column of each matching association
// row inside a single transaction; rows with no matching (username, bank)
// are left untouched. The transaction either commits in full or is rolled
// back — the store never partially commits a write.
func (s *SQLiteStore) WriteFairshare(ctx context.Context, updates []FairshareUpdate) error {
	return retry.Do(ctx, s.policy, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return errors.NewStoreError("beginning fairshare write transaction", err)
		}

		stmt, err := tx.PrepareContext(ctx,
			`UPDATE association_table SET fairshare = ? WHERE username = ? AND bank = ?`)
		if err != nil {
			tx.Rollback()
			return errors.NewStoreError("preparing fairshare update statement", err)
		}
		defer stmt.Close()

		for _, u := range updates {
			if _, err := stmt.ExecContext(ctx, u.Fairshare, u.Username, u.Bank); err != nil {
				tx.Rollback()
				return errors.NewStoreError(fmt.Sprintf("updating fairshare for %s/%s", u.Username, u.Bank), err)
			}
		}

		if err := tx.Commit(); err != nil {
			return errors.NewStoreError("committing fairshare write transaction", err)
		}
		return nil
	})
}

// Close closes the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
