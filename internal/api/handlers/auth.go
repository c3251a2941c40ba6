package handlers

import (
	"net/http"
	"time"

	"github.com/pratik-mahalle/altseo/internal/api/dto"
	"github.com/pratik-mahalle/altseo/internal/api/middleware"
	"github.com/pratik-mahalle/altseo/internal/auth"
	"github.com/pratik-mahalle/altseo/internal/config"
	"github.com/pratik-mahalle/altseo/internal/domain/user"
	"github.com/pratik-mahalle/altseo/internal/pkg/errors"
	"github.com/pratik-mahalle/altseo/internal/pkg/logger"
	"github.com/pratik-mahalle/altseo/internal/pkg/utils"
	"github.com/pratik-mahalle/altseo/internal/pkg/validator"
)

const refreshTokenCookie = "refreshToken"

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	userService user.Service
	config      *config.Config
	logger      *logger.Logger
	validator   *validator.Validator
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(
	userService user.Service,
	cfg *config.Config,
	log *logger.Logger,
	val *validator.Validator,
) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		config:      cfg,
		logger:      log,
		validator:   val,
	}
}

// Login handles user login
// @Summary User login
// @Description Authenticate user with email and password
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Login credentials"
// @Success 200 {object} dto.AuthResponse "Successfully authenticated"
// @Failure 400 {object} utils.ErrorResponse "Invalid request"
// @Failure 401 {object} utils.ErrorResponse "Invalid credentials"
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	u, err := h.userService.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.WithFields(map[string]interface{}{
			"ip": middleware.ClientIP(r),
		}).Warn("Authentication failed")
		utils.WriteServiceError(w, err, "Failed to authenticate")
		return
	}

	h.issueTokens(w, u, http.StatusOK)
}

// Register handles user registration
// @Summary User registration
// @Description Register a new user account on the free plan
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body dto.RegisterRequest true "Registration details"
// @Success 201 {object} dto.AuthResponse "User successfully registered"
// @Failure 400 {object} utils.ErrorResponse "Invalid request or validation error"
// @Failure 409 {object} utils.ErrorResponse "Email already registered"
// @Router /auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	u, err := h.userService.Register(r.Context(), user.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Username: req.Username,
		FullName: req.FullName,
	})
	if err != nil {
		utils.WriteServiceError(w, err, "Failed to create user")
		return
	}

	h.issueTokens(w, u, http.StatusCreated)
}

// Logout handles user logout
// @Summary User logout
// @Description Clear the authentication cookies
// @Tags Auth
// @Success 200 {object} utils.SuccessResponse
// @Security BearerAuth
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.setCookie(w, middleware.AccessTokenCookie, "", -1)
	h.setCookie(w, refreshTokenCookie, "", -1)
	utils.WriteMessage(w, http.StatusOK, "Logged out successfully")
}

// Me returns the current user's information
// @Summary Get current user
// @Description Get authenticated user's information including the plan
// @Tags Auth
// @Produce json
// @Success 200 {object} dto.UserDTO "User information"
// @Failure 401 {object} utils.ErrorResponse "Unauthorized"
// @Security BearerAuth
// @Router /auth/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	u, err := h.userService.GetByID(r.Context(), userID)
	if err != nil {
		utils.WriteServiceError(w, err, "Failed to get user")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, dto.NewUserDTO(u))
}

// RefreshToken handles token refresh
// @Summary Refresh access token
// @Description Exchange a refresh token from the body or cookie for a new token pair
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body dto.RefreshTokenRequest false "Refresh token"
// @Success 200 {object} dto.AuthResponse "New tokens generated"
// @Failure 401 {object} utils.ErrorResponse "Invalid refresh token"
// @Router /auth/refresh [post]
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req dto.RefreshTokenRequest
	if r.ContentLength != 0 {
		if !decodeAndValidate(w, r, nil, &req) {
			return
		}
	}
	if req.RefreshToken == "" {
		if cookie, err := r.Cookie(refreshTokenCookie); err == nil {
			req.RefreshToken = cookie.Value
		}
	}
	if req.RefreshToken == "" {
		utils.WriteError(w, errors.Unauthorized("Missing refresh token"))
		return
	}

	claims, err := auth.ParseTyped(req.RefreshToken, h.config.Auth.JWTSecret, auth.TokenTypeRefresh)
	if err != nil {
		utils.WriteError(w, errors.Unauthorized("Invalid refresh token"))
		return
	}

	u, err := h.userService.GetByID(r.Context(), claims.UserID)
	if err != nil {
		if errors.IsNotFound(err) {
			utils.WriteError(w, errors.Unauthorized("Invalid refresh token"))
			return
		}
		utils.WriteServiceError(w, err, "Failed to get user")
		return
	}

	h.issueTokens(w, u, http.StatusOK)
}

func (h *AuthHandler) issueTokens(w http.ResponseWriter, u *user.User, status int) {
	tokens, err := auth.MintTokens(
		u.ID,
		u.Email,
		h.config.Auth.JWTSecret,
		h.config.Auth.AccessTokenExpiry,
		h.config.Auth.RefreshTokenExpiry,
	)
	if err != nil {
		h.logger.ErrorWithErr(err, "Failed to generate tokens")
		utils.WriteError(w, errors.Internal("Failed to generate tokens", err))
		return
	}

	h.setCookie(w, middleware.AccessTokenCookie, tokens.AccessToken, h.config.Auth.AccessTokenExpiry)
	h.setCookie(w, refreshTokenCookie, tokens.RefreshToken, h.config.Auth.RefreshTokenExpiry)

	utils.WriteSuccess(w, status, dto.AuthResponse{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		User:         dto.NewUserDTO(u),
	})
}

// setCookie writes an HttpOnly auth cookie. A negative ttl deletes it.
func (h *AuthHandler) setCookie(w http.ResponseWriter, name, value string, ttl time.Duration) {
	maxAge := int(ttl.Seconds())
	if ttl < 0 {
		maxAge = -1
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		HttpOnly: true,
		Secure:   h.config.Server.Environment == "production",
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
		MaxAge:   maxAge,
	})
}
