package alerts

import (
	"errors"
	"fmt"
)

// ErrRejected marks a delivery the channel refused for good. The worker keeps
// the claim so the alert is not attempted again.
var ErrRejected = errors.New("alert rejected")

// Reject wraps err with ErrRejected.
func Reject(err error) error {
	return fmt.Errorf("%w: %w", ErrRejected, err)
}

// retryable reports whether a failed send should be released for the next
// run. Senders may classify their own errors through IsRetryable; anything
// unclassified is retried.
func retryable(err error) bool {
	if errors.Is(err, ErrRejected) {
		return false
	}
	var classified interface{ IsRetryable() bool }
	if errors.As(err, &classified) {
		return classified.IsRetryable()
	}
	return true
}
