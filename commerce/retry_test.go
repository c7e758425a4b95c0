package commerce

import (
	"context"
	"errors"
	"testing"
	"time"

	contractx "github.com/apparelbot/concierge/agent/contract"
)

func TestWithRetryStopsOnPermanentError(t *testing.T) {
	t.Parallel()

	permanent := errors.New("constraint violated")
	calls := 0
	err := withRetry(context.Background(), 3, time.Millisecond, func(ctx context.Context) error {
		calls++
		return permanent
	})
	if !errors.Is(err, permanent) {
		t.Fatalf("withRetry() error = %v, want the permanent error", err)
	}
	if calls != 1 {
		t.Fatalf("fn called %d times, want 1", calls)
	}
}

func TestWithRetryRecoversFromTransientError(t *testing.T) {
	t.Parallel()

	calls := 0
	err := withRetry(context.Background(), 3, time.Millisecond, func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("database is locked")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("withRetry() error = %v", err)
	}
	if calls != 3 {
		t.Fatalf("fn called %d times, want 3", calls)
	}
}

func TestWithRetryExhaustionWrapsTransient(t *testing.T) {
	t.Parallel()

	err := withRetry(context.Background(), 2, time.Millisecond, func(ctx context.Context) error {
		return errors.New("SQLITE_BUSY")
	})
	if !errors.Is(err, contractx.ErrTransientStorage) {
		t.Fatalf("withRetry() error = %v, want ErrTransientStorage", err)
	}
}

func TestIsTransient(t *testing.T) {
	t.Parallel()

	if isTransient(nil) {
		t.Fatal("nil is not transient")
	}
	if isTransient(context.Canceled) {
		t.Fatal("context cancellation is not transient")
	}
	if !isTransient(errors.New("database table is locked")) {
		t.Fatal("sqlite table lock should be transient")
	}
	if isTransient(errors.New("syntax error")) {
		t.Fatal("syntax error should not be transient")
	}
}
