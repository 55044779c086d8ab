package models

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrTransient marks a delivery failure worth retrying (timeout, 5xx, connection reset).
	ErrTransient = errors.New("transient failure")
	// ErrPermanent marks a delivery failure no retry can fix (bad chat, bad token, malformed text).
	ErrPermanent = errors.New("permanent failure")

	ErrEmptyUniverse = errors.New("instrument universe is empty")
	ErrRunInProgress = errors.New("a run is already in progress")
)

// RetryAfterError is returned when the transport tells us exactly how long to back off.
type RetryAfterError struct {
	After time.Duration
}

func (e *RetryAfterError) Error() string {
	return fmt.Sprintf("retry after %s", e.After)
}

// Transient wraps err as retryable.
func Transient(err error) error {
	return fmt.Errorf("%w: %w", ErrTransient, err)
}

// Permanent wraps err as not retryable.
func Permanent(err error) error {
	return fmt.Errorf("%w: %w", ErrPermanent, err)
}
