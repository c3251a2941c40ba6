package usage

import "context"

// Reservation holds one unit of a user's daily quota while a gated action runs.
// Exactly one of Commit or Release must be called.
type Reservation interface {
	// Plan is the plan the reservation was granted under
	Plan() string
	// Commit increments the counter and frees the unit
	Commit(ctx context.Context) (int, error)
	// Release frees the unit without counting it
	Release()
}

// Gate decides whether a user may run a billable generation
type Gate interface {
	CheckRateLimit(ctx context.Context, userID int64) (*RateLimitResult, error)
	IncrementRateLimit(ctx context.Context, userID int64) error
	Reserve(ctx context.Context, userID int64) (Reservation, error)
}
