package dto

import (
	"time"

	"github.com/pratik-mahalle/altseo/internal/domain/user"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username,omitempty"`
	FullName  *string   `json:"full_name,omitempty"`
	Role      string    `json:"role"`
	PlanType  string    `json:"plan_type"`
	CreatedAt time.Time `json:"created_at"`
}

// NewUserDTO converts a domain user
func NewUserDTO(u *user.User) *UserDTO {
	return &UserDTO{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		FullName:  u.FullName,
		Role:      u.Role,
		PlanType:  u.PlanType,
		CreatedAt: u.CreatedAt,
	}
}

// UpdateRoleRequest sets a user's role
type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=user operator admin"`
}
