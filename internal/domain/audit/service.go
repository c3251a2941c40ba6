package audit

import "context"

// Service records and lists audit entries
type Service interface {
	Record(ctx context.Context, e *Entry) error
	List(ctx context.Context, filter Filter, limit, offset int) ([]*Entry, int64, error)
}
