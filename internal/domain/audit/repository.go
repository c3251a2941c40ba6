package audit

import "context"

// Repository defines data access for audit logs
type Repository interface {
	Create(ctx context.Context, e *Entry) error
	List(ctx context.Context, filter Filter, limit, offset int) ([]*Entry, int64, error)
}
