package user

import "time"

// User represents a user in the system
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username,omitempty"`
	FullName     *string   `json:"full_name,omitempty"`
	PasswordHash string    `json:"-"` // Not exposed in JSON
	Role         string    `json:"role"`
	PlanType     string    `json:"plan_type"` // read from the subscription record
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// User roles
const (
	RoleUser     = "user"
	RoleOperator = "operator"
	RoleAdmin    = "admin"
)

// ValidRole reports whether role is a known role
func ValidRole(role string) bool {
	switch role {
	case RoleUser, RoleOperator, RoleAdmin:
		return true
	}
	return false
}

// RegisterInput holds the fields accepted at sign-up
type RegisterInput struct {
	Email    string
	Password string
	Username string
	FullName *string
}
