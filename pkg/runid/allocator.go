// Package runid hands out monotonic run_id values per
// (pipeline_slug, profile) across concurrent writers, and builds the
// session_id each run is known by (§4.2).
package runid

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	_ "modernc.org/sqlite"
)

const createCountersTableSQL = `
CREATE TABLE IF NOT EXISTS run_id_counters (
	pipeline_slug TEXT NOT NULL,
	profile       TEXT NOT NULL,
	next          INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (pipeline_slug, profile)
);
`

// Allocator hands out strictly increasing run_id values backed by a
// WAL-mode SQLite counters store (§4.2).
type Allocator struct {
	db *sql.DB
}

// Open opens (creating if necessary) the counters database at path in
// WAL mode and ensures its schema exists.
func Open(path string) (*Allocator, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(1000)")
	if err != nil {
		return nil, &StorageError{Op: "open", Err: err}
	}
	// The counters table is touched by exactly one transaction at a
	// time (each tryNext below runs one transaction); a single connection avoids the
	// driver handing concurrent goroutines separate SQLite handles
	// that would otherwise contend pointlessly on the same file lock.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(createCountersTableSQL); err != nil {
		db.Close()
		return nil, &StorageError{Op: "create schema", Err: err}
	}

	return &Allocator{db: db}, nil
}

// Close releases the underlying database handle.
func (a *Allocator) Close() error {
	return a.db.Close()
}

// Next returns the next monotonic run_id for (pipelineSlug, profile).
// The first call for a given key returns 1. Retries with bounded
// exponential backoff (base 10ms, cap 1s, max 10 attempts) on
// SQLITE_BUSY/SQLITE_LOCKED (§4.2 protocol).
func (a *Allocator) Next(ctx context.Context, pipelineSlug, profile string) (uint64, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 10 * time.Millisecond
	policy.MaxInterval = 1 * time.Second
	policy.Multiplier = 2
	policy.RandomizationFactor = 0.2

	var next uint64
	attempts := 0

	operation := func() error {
		attempts++
		n, err := a.tryNext(ctx, pipelineSlug, profile)
		if err != nil {
			if isBusyOrLocked(err) {
				return err // retryable
			}
			return backoff.Permanent(&StorageError{Op: "increment counter", Err: err})
		}
		next = n
		return nil
	}

	bo := backoff.WithContext(backoff.WithMaxRetries(policy, 9), ctx)
	err := backoff.Retry(operation, bo)
	if err == nil {
		return next, nil
	}

	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		return 0, perm.Err
	}

	return 0, &ContentionError{Slug: pipelineSlug, Profile: profile, Attempts: attempts, Err: err}
}

func (a *Allocator) tryNext(ctx context.Context, pipelineSlug, profile string) (uint64, error) {
	tx, err := a.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO run_id_counters (pipeline_slug, profile, next) VALUES (?, ?, 0)`,
		pipelineSlug, profile); err != nil {
		return 0, err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE run_id_counters SET next = next + 1 WHERE pipeline_slug = ? AND profile = ?`,
		pipelineSlug, profile); err != nil {
		return 0, err
	}

	var next int64
	if err := tx.QueryRowContext(ctx,
		`SELECT next FROM run_id_counters WHERE pipeline_slug = ? AND profile = ?`,
		pipelineSlug, profile).Scan(&next); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}

	return uint64(next), nil
}

func isBusyOrLocked(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "sqlite_busy") ||
		strings.Contains(msg, "sqlite_locked") ||
		strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "busy")
}
