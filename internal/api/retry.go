package api

import (
	"context"
	"fmt"
	"io"
	"time"
)

// DefaultRetryDelays defines the exponential backoff delays for retry attempts
var DefaultRetryDelays = []time.Duration{
	1 * time.Second,
	2 * time.Second,
	4 * time.Second,
	8 * time.Second,
}

// WithRetry executes fn and repeats it while it fails with a retryable
// error (see IsRetryable). Uses exponential backoff: 1s, 2s, 4s, 8s delays.
// The fetcher itself never retries; callers opt in here. Retry warnings go
// to w, which may be nil.
func WithRetry(ctx context.Context, fn func() error, maxRetries int, w io.Writer) error {
	return WithRetryDelays(ctx, fn, maxRetries, DefaultRetryDelays, w)
}

// WithRetryDelays executes a function with automatic retry using custom delays.
// A Retry-After hint on the error replaces the table delay but never exceeds
// the last table entry.
// This variant is primarily for testing to allow faster tests.
func WithRetryDelays(ctx context.Context, fn func() error, maxRetries int, delays []time.Duration, w io.Writer) error {
	if len(delays) == 0 {
		delays = DefaultRetryDelays
	}
	if w == nil {
		w = io.Discard
	}
	maxDelay := delays[len(delays)-1]

	var err error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		err = fn()
		if err == nil || !IsRetryable(err) {
			return err
		}
		if attempt < maxRetries {
			delay := delays[min(attempt, len(delays)-1)]
			if hint := GetRetryAfter(err); hint > 0 {
				delay = min(hint, maxDelay)
			}
			fmt.Fprintf(w, "Warning: %s, retrying in %v...\n", UserMessage(err), delay)

			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return err
			case <-timer.C:
			}
		}
	}
	return err
}
