package subscription

import (
	"context"
	"time"
)

// Repository defines data access for subscription records
type Repository interface {
	// GetByUserID returns the record of a user
	GetByUserID(ctx context.Context, userID int64) (*Record, error)

	// Apply overwrites the record in one statement. It reports false when no row
	// matched, either because the user is unknown or the event is older than the
	// newest one already applied.
	Apply(ctx context.Context, change Change) (bool, error)
}

// EventLog records processed webhook events
type EventLog interface {
	IsProcessed(ctx context.Context, eventID string) (bool, error)
	MarkProcessed(ctx context.Context, ev ProcessedEvent) error
	PruneBefore(ctx context.Context, before time.Time) (int64, error)
}
