package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"
	"strings"
	"time"

	"github.com/pratik-mahalle/altseo/internal/domain/subscription"
	"github.com/pratik-mahalle/altseo/internal/domain/user"
	"github.com/pratik-mahalle/altseo/internal/pkg/errors"
)

// UserRepository implements user.Repository
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *DB) user.Repository {
	return &UserRepository{db: db}
}

const userColumns = `
	u.id, u.email, u.username, u.full_name, u.password_hash, u.role,
	COALESCE(s.plan_type, ''), u.created_at, u.updated_at
`

const userFrom = `FROM users u LEFT JOIN subscriptions s ON s.user_id = u.id`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*user.User, error) {
	var u user.User
	var fullName sql.NullString
	var createdAt, updatedAt int64

	if err := row.Scan(
		&u.ID, &u.Email, &u.Username, &fullName, &u.PasswordHash, &u.Role,
		&u.PlanType, &createdAt, &updatedAt,
	); err != nil {
		return nil, err
	}

	if fullName.Valid {
		u.FullName = &fullName.String
	}
	u.PlanType = normalizePlan(u.PlanType)
	u.CreatedAt = time.Unix(createdAt, 0)
	u.UpdatedAt = time.Unix(updatedAt, 0)
	return &u, nil
}

// normalizePlan maps a missing or unknown plan to free
func normalizePlan(plan string) string {
	if strings.EqualFold(strings.TrimSpace(plan), subscription.PlanPro) {
		return subscription.PlanPro
	}
	return subscription.PlanFree
}

// Create creates a new user and its free subscription record in one transaction
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	now := time.Now()
	u.CreatedAt = now
	u.UpdatedAt = now
	if u.Role == "" {
		u.Role = user.RoleUser
	}

	err := r.db.WithTx(ctx, func(tx *Tx) error {
		err := tx.QueryRowContext(ctx, `
			INSERT INTO users (email, username, full_name, password_hash, role, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			RETURNING id
		`, u.Email, u.Username, u.FullName, u.PasswordHash, u.Role, now.Unix(), now.Unix()).Scan(&u.ID)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO subscriptions (user_id, plan_type, subscription_status, last_event_at, updated_at)
			VALUES (?, ?, '', 0, ?)
		`, u.ID, subscription.PlanFree, now.Unix())
		return err
	})
	if err != nil {
		if isUniqueViolation(err) {
			return errors.Conflict("Email already registered")
		}
		return errors.DatabaseError("Failed to create user", err)
	}

	u.PlanType = subscription.PlanFree
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*user.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` `+userFrom+` WHERE u.id = ?`, id)
	u, err := scanUser(row)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFound("User")
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get user", err)
	}
	return u, nil
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` `+userFrom+` WHERE u.email = ?`, email)
	u, err := scanUser(row)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFound("User")
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get user", err)
	}
	return u, nil
}

// UpdateProfile updates username and full name
func (r *UserRepository) UpdateProfile(ctx context.Context, u *user.User) error {
	u.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, `
		UPDATE users SET username = ?, full_name = ?, updated_at = ? WHERE id = ?
	`, u.Username, u.FullName, u.UpdatedAt.Unix(), u.ID)
	if err != nil {
		return errors.DatabaseError("Failed to update user", err)
	}
	return expectRow(result, "User")
}

// UpdateRole sets the role of a user
func (r *UserRepository) UpdateRole(ctx context.Context, id int64, role string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE users SET role = ?, updated_at = ? WHERE id = ?
	`, role, time.Now().Unix(), id)
	if err != nil {
		return errors.DatabaseError("Failed to update user role", err)
	}
	return expectRow(result, "User")
}

// Delete deletes a user
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return errors.DatabaseError("Failed to delete user", err)
	}
	return expectRow(result, "User")
}

// List retrieves all users with pagination
func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]*user.User, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&total); err != nil {
		return nil, 0, errors.DatabaseError("Failed to count users", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+userColumns+` `+userFrom+`
		ORDER BY u.id DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, 0, errors.DatabaseError("Failed to list users", err)
	}
	defer rows.Close()

	var users []*user.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, errors.DatabaseError("Failed to scan user", err)
		}
		users = append(users, u)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, errors.DatabaseError("Failed to iterate users", err)
	}

	return users, total, nil
}

func expectRow(result sql.Result, resource string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return errors.DatabaseError("Failed to get affected rows", err)
	}
	if rows == 0 {
		return errors.NotFound(resource)
	}
	return nil
}

// isUniqueViolation matches the unique constraint messages of sqlite and postgres
func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
