package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/pratik-mahalle/altseo/internal/domain/audit"
	"github.com/pratik-mahalle/altseo/internal/pkg/errors"
)

// AuditRepository implements audit.Repository
type AuditRepository struct {
	db *DB
}

// NewAuditRepository creates a new audit log repository
func NewAuditRepository(db *DB) audit.Repository {
	return &AuditRepository{db: db}
}

// Create appends an entry
func (r *AuditRepository) Create(ctx context.Context, e *audit.Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	var details *string
	if len(e.Details) > 0 {
		b, err := json.Marshal(e.Details)
		if err != nil {
			return errors.Internal("Failed to encode audit details", err)
		}
		s := string(b)
		details = &s
	}

	err := r.db.QueryRowContext(ctx, `
		INSERT INTO audit_logs (actor_id, action, target_type, target_id, details, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id
	`, e.ActorID, e.Action, e.TargetType, e.TargetID, details, e.CreatedAt.Unix()).Scan(&e.ID)
	if err != nil {
		return errors.DatabaseError("Failed to write audit log", err)
	}
	return nil
}

// List returns entries newest first
func (r *AuditRepository) List(ctx context.Context, filter audit.Filter, limit, offset int) ([]*audit.Entry, int64, error) {
	where := ` WHERE 1 = 1`
	var args []interface{}
	if filter.Action != "" {
		where += ` AND action = ?`
		args = append(args, filter.Action)
	}
	if filter.ActorID != nil {
		where += ` AND actor_id = ?`
		args = append(args, *filter.ActorID)
	}
	if filter.TargetID != "" {
		where += ` AND target_id = ?`
		args = append(args, filter.TargetID)
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_logs`+where, args...).Scan(&total); err != nil {
		return nil, 0, errors.DatabaseError("Failed to count audit logs", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, actor_id, action, target_type, target_id, details, created_at
		FROM audit_logs`+where+`
		ORDER BY id DESC
		LIMIT ? OFFSET ?
	`, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, errors.DatabaseError("Failed to list audit logs", err)
	}
	defer rows.Close()

	var entries []*audit.Entry
	for rows.Next() {
		var e audit.Entry
		var actorID sql.NullInt64
		var details sql.NullString
		var createdAt int64
		if err := rows.Scan(&e.ID, &actorID, &e.Action, &e.TargetType, &e.TargetID, &details, &createdAt); err != nil {
			return nil, 0, errors.DatabaseError("Failed to scan audit log", err)
		}
		if actorID.Valid {
			id := actorID.Int64
			e.ActorID = &id
		}
		if details.Valid && details.String != "" {
			_ = json.Unmarshal([]byte(details.String), &e.Details)
		}
		e.CreatedAt = time.Unix(createdAt, 0)
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.DatabaseError("Failed to iterate audit logs", err)
	}
	return entries, total, nil
}
