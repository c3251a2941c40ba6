package services

import (
	"context"
	"strconv"
	"strings"

	"github.com/pratik-mahalle/altseo/internal/access"
	"github.com/pratik-mahalle/altseo/internal/auth"
	"github.com/pratik-mahalle/altseo/internal/domain/audit"
	"github.com/pratik-mahalle/altseo/internal/domain/user"
	"github.com/pratik-mahalle/altseo/internal/pkg/errors"
	"github.com/pratik-mahalle/altseo/internal/pkg/logger"
)

// MinPasswordLength is the shortest accepted password
const MinPasswordLength = 8

// UserService implements user.Service
type UserService struct {
	repo       user.Repository
	audit      audit.Service
	hub        *access.Hub
	bcryptCost int
	logger     *logger.Logger
}

// NewUserService creates a new user service. auditSvc and hub may be nil.
func NewUserService(repo user.Repository, auditSvc audit.Service, hub *access.Hub, bcryptCost int, log *logger.Logger) *UserService {
	return &UserService{
		repo:       repo,
		audit:      auditSvc,
		hub:        hub,
		bcryptCost: bcryptCost,
		logger:     log,
	}
}

// Register creates an account with a hashed password
func (s *UserService) Register(ctx context.Context, in user.RegisterInput) (*user.User, error) {
	email := normalizeEmail(in.Email)
	if email == "" {
		return nil, errors.BadRequest("Email is required")
	}
	if len(in.Password) < MinPasswordLength {
		return nil, errors.BadRequest("Password must be at least 8 characters")
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, errors.Internal("Failed to hash password", err)
	}

	u := &user.User{
		Email:        email,
		Username:     strings.TrimSpace(in.Username),
		FullName:     in.FullName,
		PasswordHash: hash,
		Role:         user.RoleUser,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		if _, ok := errors.As(err); !ok {
			s.logger.ErrorWithErr(err, "Failed to create user")
		}
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"user_id": u.ID,
		"email":   u.Email,
	}).Info("User registered")

	s.record(ctx, &audit.Entry{
		ActorID:    &u.ID,
		Action:     audit.ActionUserRegistered,
		TargetType: audit.TargetUser,
		TargetID:   strconv.FormatInt(u.ID, 10),
	})
	return u, nil
}

// Authenticate checks credentials and returns the user
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*user.User, error) {
	u, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.Unauthorized("Invalid email or password")
		}
		return nil, err
	}
	if u.PasswordHash == "" || !auth.CheckPassword(u.PasswordHash, password) {
		return nil, errors.Unauthorized("Invalid email or password")
	}
	return u, nil
}

// GetByID retrieves a user by ID
func (s *UserService) GetByID(ctx context.Context, id int64) (*user.User, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByEmail retrieves a user by email
func (s *UserService) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return s.repo.GetByEmail(ctx, normalizeEmail(email))
}

// List retrieves users with pagination
func (s *UserService) List(ctx context.Context, limit, offset int) ([]*user.User, int64, error) {
	return s.repo.List(ctx, limit, offset)
}

// SetRole changes a user's role on behalf of an operator
func (s *UserService) SetRole(ctx context.Context, actorID, userID int64, role string) (*user.User, error) {
	if !user.ValidRole(role) {
		return nil, errors.BadRequest("Unknown role: " + role)
	}
	if actorID == userID {
		return nil, errors.Forbidden("You cannot change your own role")
	}

	current, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if current.Role == role {
		return current, nil
	}

	if err := s.repo.UpdateRole(ctx, userID, role); err != nil {
		s.logger.ErrorWithErr(err, "Failed to update role")
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"actor_id": actorID,
		"user_id":  userID,
		"from":     current.Role,
		"to":       role,
	}).Info("User role changed")

	s.record(ctx, &audit.Entry{
		ActorID:    &actorID,
		Action:     audit.ActionRoleChanged,
		TargetType: audit.TargetUser,
		TargetID:   strconv.FormatInt(userID, 10),
		Details:    map[string]interface{}{"from": current.Role, "to": role},
	})
	if s.hub != nil {
		s.hub.Publish(access.Change{UserID: userID, Reason: "role"})
	}

	current.Role = role
	return current, nil
}

func (s *UserService) record(ctx context.Context, e *audit.Entry) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, e)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
