package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	"github.com/pratik-mahalle/altseo/internal/domain/usage"
	"github.com/pratik-mahalle/altseo/internal/pkg/errors"
)

// UsageRepository implements usage.Repository
type UsageRepository struct {
	db *DB
}

// NewUsageRepository creates a new usage counter repository
func NewUsageRepository(db *DB) usage.Repository {
	return &UsageRepository{db: db}
}

// Get returns the counter for a day, zero when the row does not exist yet
func (r *UsageRepository) Get(ctx context.Context, userID int64, day string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT count FROM usage_counters WHERE user_id = ? AND day = ?
	`, userID, day).Scan(&count)
	if stderrors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, errors.DatabaseError("Failed to read usage counter", err)
	}
	return count, nil
}

// Increment creates or advances the counter in a single statement
func (r *UsageRepository) Increment(ctx context.Context, userID int64, day string) (int, error) {
	start := time.Now()
	var count int
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO usage_counters (user_id, day, count, updated_at)
		VALUES (?, ?, 1, ?)
		ON CONFLICT (user_id, day) DO UPDATE
		SET count = usage_counters.count + 1, updated_at = excluded.updated_at
		RETURNING count
	`, userID, day, start.Unix()).Scan(&count)
	observe("upsert", "usage_counters", start)
	if err != nil {
		return 0, errors.DatabaseError("Failed to increment usage counter", err)
	}
	return count, nil
}

// PruneBefore deletes counters for days before day
func (r *UsageRepository) PruneBefore(ctx context.Context, day string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM usage_counters WHERE day < ?`, day)
	if err != nil {
		return 0, errors.DatabaseError("Failed to prune usage counters", err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}

// History returns the most recent counters of a user
func (r *UsageRepository) History(ctx context.Context, userID int64, limit int) ([]*usage.Counter, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id, day, count, updated_at
		FROM usage_counters
		WHERE user_id = ?
		ORDER BY day DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, errors.DatabaseError("Failed to list usage counters", err)
	}
	defer rows.Close()

	var counters []*usage.Counter
	for rows.Next() {
		var c usage.Counter
		var updatedAt int64
		if err := rows.Scan(&c.UserID, &c.Day, &c.Count, &updatedAt); err != nil {
			return nil, errors.DatabaseError("Failed to scan usage counter", err)
		}
		c.UpdatedAt = time.Unix(updatedAt, 0)
		counters = append(counters, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.DatabaseError("Failed to iterate usage counters", err)
	}
	return counters, nil
}
