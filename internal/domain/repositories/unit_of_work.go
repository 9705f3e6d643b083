package repositories

import (
	"context"
)

// UnitOfWork defines the interface for atomic operations
type UnitOfWork interface {
	// Do executes the given function within a transaction scope
	Do(ctx context.Context, fn func(ctx context.Context) error) error
	// WithLock asks repositories to lock rows they read through ctx until the
	// surrounding transaction ends.
	WithLock(ctx context.Context) context.Context
}
