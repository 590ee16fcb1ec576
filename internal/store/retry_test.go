package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/pixil98/go-testutil"
)

var errContended = errors.New("contended")

func contentionStore(maxRetries int) *Store {
	return &Store{
		maxRetries: maxRetries,
		retryBase:  time.Millisecond,
		classifiers: []Classifier{func(err error) bool {
			return errors.Is(err, errContended)
		}},
	}
}

func TestWithRetry_FirstAttempt(t *testing.T) {
	s := contentionStore(2)

	calls := 0
	err := s.withRetry(context.Background(), func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "calls", calls, 1)
}

func TestWithRetry_RecoversAfterContention(t *testing.T) {
	s := contentionStore(2)

	calls := 0
	err := s.withRetry(context.Background(), func() error {
		calls++
		if calls < 3 {
			return fmt.Errorf("writing row: %w", errContended)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "calls", calls, 3)
}

func TestWithRetry_Exhausted(t *testing.T) {
	s := contentionStore(2)

	calls := 0
	err := s.withRetry(context.Background(), func() error {
		calls++
		return errContended
	})

	testutil.AssertEqual(t, "calls", calls, 3)
	testutil.AssertErrorContains(t, err, "retries exhausted")
	if !errors.Is(err, errContended) {
		t.Errorf("wrapped error lost: %v", err)
	}
}

func TestWithRetry_FatalSurfacesImmediately(t *testing.T) {
	s := contentionStore(5)
	fatal := errors.New("disk on fire")

	calls := 0
	err := s.withRetry(context.Background(), func() error {
		calls++
		return fatal
	})

	testutil.AssertEqual(t, "calls", calls, 1)
	if !errors.Is(err, fatal) {
		t.Errorf("expected fatal error, got %v", err)
	}
}

func TestWithRetry_ContextCancelled(t *testing.T) {
	s := contentionStore(5)
	s.retryBase = time.Hour

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- s.withRetry(ctx, func() error {
			return errContended
		})
	}()

	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("withRetry did not honor cancellation")
	}
}

func TestClassifiers_IgnoreForeignErrors(t *testing.T) {
	err := errors.New("not a database error")

	testutil.AssertEqual(t, "busy", IsBusy(err), false)
	testutil.AssertEqual(t, "locked", IsLocked(err), false)
	testutil.AssertEqual(t, "constraint", IsConstraint(err), false)
	testutil.AssertEqual(t, "nil busy", IsBusy(nil), false)
}
