package models

import (
	"errors"
	"fmt"
	"time"
)

// ErrSessionClosed is returned when writing to a session whose transport is gone.
var ErrSessionClosed = errors.New("session closed")

// RateLimitError is returned when a guarded operation is over its window budget.
// It carries the configured numbers so handlers can format the message.
type RateLimitError struct {
	Max    int
	Window time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded: %d calls per %d seconds", e.Max, int(e.Window.Seconds()))
}

// DeliveryError wraps a failed write to a registered session.
type DeliveryError struct {
	SessionID string
	Err       error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery to session %s failed: %v", e.SessionID, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// UpstreamError wraps a failure of a downstream producer.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }
