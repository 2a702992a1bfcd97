package utils

import (
	"context"
	"fmt"
	"log"
	"time"
)

// Retry runs fn up to attempts times, sleeping delay between tries and
// multiplying the delay by backoff after each failure. The sleep honors ctx
// cancellation. After the last failure the last error is returned.
func Retry(ctx context.Context, attempts int, delay time.Duration, backoff float64, fn func(context.Context) error) error {
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	currentDelay := delay
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := fn(ctx); err == nil {
			return nil
		} else {
			lastErr = err
		}
		if attempt < attempts {
			log.Printf("[RETRY] attempt %d/%d failed: %v", attempt, attempts, lastErr)
			select {
			case <-ctx.Done():
				return fmt.Errorf("retry canceled: %w", ctx.Err())
			case <-time.After(currentDelay):
			}
			currentDelay = time.Duration(float64(currentDelay) * backoff)
		} else {
			log.Printf("[RETRY] all %d attempts failed: %v", attempts, lastErr)
		}
	}
	return lastErr
}
