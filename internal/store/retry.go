package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Classifier reports whether an error belongs to a retryable failure class.
// The set of classifiers is closed and injected into the store at
// construction; nothing else in the codebase sniffs driver error codes.
type Classifier func(error) bool

// DefaultClassifiers covers the two transient classes SQLite raises under
// writer contention.
func DefaultClassifiers() []Classifier {
	return []Classifier{IsBusy, IsLocked}
}

// IsBusy matches SQLITE_BUSY: another connection holds the write lock.
func IsBusy(err error) bool {
	return sqliteCode(err) == sqlite3.SQLITE_BUSY
}

// IsLocked matches SQLITE_LOCKED: a table is locked within this connection.
func IsLocked(err error) bool {
	return sqliteCode(err) == sqlite3.SQLITE_LOCKED
}

// IsConstraint matches primary key and unique violations. Not retryable;
// used to surface duplicate-world creation as a distinct error.
func IsConstraint(err error) bool {
	code := sqliteCode(err)
	return code == sqlite3.SQLITE_CONSTRAINT ||
		code == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
		code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}

func sqliteCode(err error) int {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return -1
	}
	return sqliteErr.Code()
}

func (s *Store) retryable(err error) bool {
	for _, c := range s.classifiers {
		if c(err) {
			return true
		}
	}
	return false
}

// withRetry runs the whole operation again from scratch when it fails with a
// retryable class, up to the configured bound, with a short linear backoff.
// Non-retryable errors surface immediately.
func (s *Store) withRetry(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(attempt) * s.retryBase
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}

		err := fn()
		if err == nil {
			return nil
		}
		if !s.retryable(err) {
			return err
		}
		lastErr = err
	}
	return fmt.Errorf("retries exhausted after %d attempts: %w", s.maxRetries+1, lastErr)
}
