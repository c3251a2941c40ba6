package subscription

import "context"

// Reconciler is the only writer of subscription records
type Reconciler interface {
	Dispatch(ctx context.Context, ev Event) (Outcome, error)
}

// PlanReader resolves the current plan of a user
type PlanReader interface {
	Plan(ctx context.Context, userID int64) (string, error)
}

// PlanInvalidator drops cached plan reads
type PlanInvalidator interface {
	Invalidate(userID int64)
}
