package alerts

import "context"

// Repository records which alerts have been sent.
type Repository interface {
	// Claim records key and reports whether it was new. Only the caller that
	// claims a key sends the alert.
	Claim(ctx context.Context, key Key) (bool, error)
	// Release forgets key so that a later run can send it again.
	Release(ctx context.Context, key Key) error
}
