package dto

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest represents a registration request
type RegisterRequest struct {
	Email    string  `json:"email" validate:"required,email,max=254"`
	Password string  `json:"password" validate:"required,min=8,max=72"`
	Username string  `json:"username,omitempty" validate:"omitempty,min=3,max=50,username"`
	FullName *string `json:"fullName,omitempty" validate:"omitempty,max=120"`
}

// AuthResponse represents an authentication response
type AuthResponse struct {
	AccessToken  string   `json:"accessToken"`
	RefreshToken string   `json:"refreshToken"`
	User         *UserDTO `json:"user"`
}

// RefreshTokenRequest represents a refresh token request. The token may
// also arrive in the refreshToken cookie.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}
