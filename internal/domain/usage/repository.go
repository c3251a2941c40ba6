package usage

import (
	"context"
	"time"
)

// Repository defines data access for usage counters
type Repository interface {
	// Get returns the count for a user on a day, zero when no row exists
	Get(ctx context.Context, userID int64, day string) (int, error)

	// Increment adds one to the counter in a single statement and returns the new count
	Increment(ctx context.Context, userID int64, day string) (int, error)

	// PruneBefore deletes counters for days strictly before day
	PruneBefore(ctx context.Context, day string) (int64, error)

	// History returns the most recent counters of a user, newest first
	History(ctx context.Context, userID int64, limit int) ([]*Counter, error)
}

// Clock returns the current time
type Clock func() time.Time
