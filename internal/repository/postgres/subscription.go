package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	"github.com/pratik-mahalle/altseo/internal/domain/subscription"
	"github.com/pratik-mahalle/altseo/internal/pkg/errors"
)

// SubscriptionRepository implements subscription.Repository
type SubscriptionRepository struct {
	db *DB
}

// NewSubscriptionRepository creates a new subscription repository
func NewSubscriptionRepository(db *DB) subscription.Repository {
	return &SubscriptionRepository{db: db}
}

// GetByUserID retrieves the subscription record of a user
func (r *SubscriptionRepository) GetByUserID(ctx context.Context, userID int64) (*subscription.Record, error) {
	var rec subscription.Record
	var customerID sql.NullString
	var lastEventAt, updatedAt int64

	err := r.db.QueryRowContext(ctx, `
		SELECT user_id, plan_type, subscription_status, external_customer_id, last_event_at, updated_at
		FROM subscriptions WHERE user_id = ?
	`, userID).Scan(&rec.UserID, &rec.PlanType, &rec.SubscriptionStatus, &customerID, &lastEventAt, &updatedAt)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFound("Subscription")
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get subscription", err)
	}

	rec.PlanType = normalizePlan(rec.PlanType)
	if customerID.Valid {
		rec.ExternalCustomerID = &customerID.String
	}
	rec.LastEventAt = time.Unix(lastEventAt, 0)
	rec.UpdatedAt = time.Unix(updatedAt, 0)
	return &rec, nil
}

// Apply overwrites the record unless a newer event has already been applied
func (r *SubscriptionRepository) Apply(ctx context.Context, c subscription.Change) (bool, error) {
	eventAt := c.EventAt.Unix()
	start := time.Now()

	result, err := r.db.ExecContext(ctx, `
		UPDATE subscriptions
		SET plan_type = COALESCE(?, plan_type),
			subscription_status = COALESCE(?, subscription_status),
			external_customer_id = COALESCE(?, external_customer_id),
			last_event_at = ?,
			updated_at = ?
		WHERE user_id = ? AND last_event_at <= ?
	`, c.PlanType, c.Status, c.CustomerID, eventAt, start.Unix(), c.UserID, eventAt)
	observe("update", "subscriptions", start)
	if err != nil {
		return false, errors.DatabaseError("Failed to apply subscription change", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, errors.DatabaseError("Failed to get affected rows", err)
	}
	return rows > 0, nil
}

// WebhookEventRepository implements subscription.EventLog
type WebhookEventRepository struct {
	db *DB
}

// NewWebhookEventRepository creates a new webhook event log
func NewWebhookEventRepository(db *DB) subscription.EventLog {
	return &WebhookEventRepository{db: db}
}

// IsProcessed reports whether an event ID has been recorded
func (r *WebhookEventRepository) IsProcessed(ctx context.Context, eventID string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM webhook_events WHERE event_id = ?`, eventID).Scan(&n)
	if err != nil {
		return false, errors.DatabaseError("Failed to check webhook event", err)
	}
	return n > 0, nil
}

// MarkProcessed records an event ID. Recording the same ID twice is a no-op.
func (r *WebhookEventRepository) MarkProcessed(ctx context.Context, ev subscription.ProcessedEvent) error {
	if ev.ProcessedAt.IsZero() {
		ev.ProcessedAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO webhook_events (event_id, provider, kind, user_id, outcome, processed_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (event_id) DO NOTHING
	`, ev.EventID, ev.Provider, string(ev.Kind), ev.UserID, string(ev.Outcome), ev.ProcessedAt.Unix())
	if err != nil {
		return errors.DatabaseError("Failed to record webhook event", err)
	}
	return nil
}

// PruneBefore deletes events processed before the given time
func (r *WebhookEventRepository) PruneBefore(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM webhook_events WHERE processed_at < ?`, before.Unix())
	if err != nil {
		return 0, errors.DatabaseError("Failed to prune webhook events", err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}
