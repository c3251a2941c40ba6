package user

import "context"

// Repository defines the interface for user data access
type Repository interface {
	// Create creates a new user together with its default free subscription record
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id int64) (*User, error)

	// GetByEmail retrieves a user by email
	GetByEmail(ctx context.Context, email string) (*User, error)

	// UpdateProfile updates username and full name
	UpdateProfile(ctx context.Context, user *User) error

	// UpdateRole sets the role of a user
	UpdateRole(ctx context.Context, id int64, role string) error

	// Delete deletes a user
	Delete(ctx context.Context, id int64) error

	// List retrieves all users with pagination
	List(ctx context.Context, limit, offset int) ([]*User, int64, error)
}
