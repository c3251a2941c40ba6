package user

import "context"

// Service defines the interface for user business logic
type Service interface {
	// Register creates an account with a hashed password
	Register(ctx context.Context, in RegisterInput) (*User, error)

	// Authenticate checks credentials and returns the user
	Authenticate(ctx context.Context, email, password string) (*User, error)

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id int64) (*User, error)

	// GetByEmail retrieves a user by email
	GetByEmail(ctx context.Context, email string) (*User, error)

	// List retrieves users with pagination
	List(ctx context.Context, limit, offset int) ([]*User, int64, error)

	// SetRole changes a user's role on behalf of an operator
	SetRole(ctx context.Context, actorID, userID int64, role string) (*User, error)
}
