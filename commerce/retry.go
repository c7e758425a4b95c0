package commerce

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun/driver/pgdriver"

	contractx "github.com/apparelbot/concierge/agent/contract"
)

const (
	defaultTxAttempts = 3
	defaultTxBackoff  = 50 * time.Millisecond
)

// Postgres SQLSTATE values worth retrying: serialization failure, deadlock,
// lock not available.
var transientSQLStates = map[string]bool{
	"40001": true,
	"40P01": true,
	"55P03": true,
}

// isTransient classifies storage errors that a bounded retry may clear.
// Anything else aborts immediately.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		return transientSQLStates[pgErr.Field('C')]
	}
	// modernc sqlite surfaces lock contention through the error text.
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") ||
		strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked")
}

// withRetry runs fn up to attempts times, backing off between transient
// failures. The whole transaction body re-runs each attempt.
func withRetry(ctx context.Context, attempts int, backoff time.Duration, fn func(context.Context) error) error {
	if attempts <= 0 {
		attempts = defaultTxAttempts
	}
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = fn(ctx)
		if err == nil || !isTransient(err) {
			return err
		}
		if attempt == attempts {
			break
		}
		log.Debug().Err(err).Int("attempt", attempt).Msg("transient storage contention, retrying")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff * time.Duration(attempt)):
		}
	}
	return fmt.Errorf("%w: %v", contractx.ErrTransientStorage, err)
}
