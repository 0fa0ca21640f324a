package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	maxRetries  = 3
	baseBackoff = 100 * time.Millisecond
	maxBackoff  = 3 * time.Second
)

var retryablePgErrorCodes = map[string]struct{}{
	"40001": {}, // serialization_failure
	"40P01": {}, // deadlock_detected
	"55P03": {}, // lock_not_available
}

// Retry runs fn until it succeeds, fails with a non-transient error, or has
// been attempted three times. Attempts back off exponentially.
func Retry(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	var attempt int
	for attempt = 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * baseBackoff
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			timer := time.NewTimer(backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		if ShouldRetry(err) && attempt < maxRetries-1 {
			slog.Warn("transient database error",
				slog.String("op", name),
				slog.Int("attempt", attempt+1),
				slog.String("error", err.Error()),
			)
			continue
		}
		return err
	}
	return fmt.Errorf("%s: exceeded max retries (%d)", name, attempt)
}

// ShouldRetry reports whether err is worth another attempt.
func ShouldRetry(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if _, ok := retryablePgErrorCodes[pgErr.Code]; ok {
			return true
		}
	}
	return errors.Is(err, pgx.ErrTxClosed)
}
