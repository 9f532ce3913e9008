package stream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ErrUnavailable means the media could not be opened after all retry
// attempts.
var ErrUnavailable = errors.New("stream unavailable")

// Opener opens a playable stream for a locator. Implementations resolve the
// direct media URL and spawn the decode pipeline.
type Opener func(ctx context.Context) error

// Acquirer retries stream acquisition with a linearly growing delay between
// attempts.
type Acquirer struct {
	MaxAttempts int
	BaseDelay   time.Duration

	sleep func(ctx context.Context, d time.Duration) error
}

func NewAcquirer() *Acquirer {
	return &Acquirer{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		sleep:       sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Acquire calls open up to MaxAttempts times. After attempt n it waits
// n*BaseDelay before retrying. Context cancellation stops the retry loop
// immediately.
func (a *Acquirer) Acquire(ctx context.Context, open Opener) error {
	var lastErr error
	for attempt := 1; attempt <= a.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = open(ctx)
		if lastErr == nil {
			return nil
		}
		slog.Warn("stream acquisition failed",
			"attempt", attempt,
			"max_attempts", a.MaxAttempts,
			"error", lastErr)
		if attempt < a.MaxAttempts {
			if err := a.sleep(ctx, time.Duration(attempt)*a.BaseDelay); err != nil {
				return err
			}
		}
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, lastErr)
}
