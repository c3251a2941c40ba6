package services

import (
	"context"
	"testing"

	"github.com/pratik-mahalle/altseo/internal/access"
	"github.com/pratik-mahalle/altseo/internal/domain/audit"
	"github.com/pratik-mahalle/altseo/internal/domain/subscription"
	"github.com/pratik-mahalle/altseo/internal/domain/user"
	"github.com/pratik-mahalle/altseo/internal/pkg/errors"
	"github.com/pratik-mahalle/altseo/internal/pkg/logger"
	"github.com/pratik-mahalle/altseo/internal/testutil"
)

func newTestUserService() (*UserService, *testutil.MockUserRepository, *testutil.MockAuditRepository, *access.Hub) {
	repo := testutil.NewMockUserRepository()
	repo.Subscriptions = testutil.NewMockSubscriptionRepository()
	audits := testutil.NewMockAuditRepository()
	hub := access.NewHub()
	log := logger.New(logger.Config{Level: "error", Format: "json"})
	// bcrypt.MinCost keeps the tests fast
	return NewUserService(repo, NewAuditService(audits, log), hub, 4, log), repo, audits, hub
}

func TestUserService_Register(t *testing.T) {
	service, _, audits, _ := newTestUserService()
	ctx := context.Background()

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  bool
	}{
		{"successful registration", "Test@Example.com ", "correct-horse", false},
		{"duplicate email", "test@example.com", "correct-horse", true},
		{"short password", "short@example.com", "abc", true},
		{"missing email", "  ", "correct-horse", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := service.Register(ctx, user.RegisterInput{Email: tt.email, Password: tt.password})
			if (err != nil) != tt.wantErr {
				t.Fatalf("Register() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if u.Email != "test@example.com" {
				t.Errorf("Email = %q, want normalized", u.Email)
			}
			if u.Role != user.RoleUser || u.PlanType != subscription.PlanFree {
				t.Errorf("role/plan = %s/%s, want user/free", u.Role, u.PlanType)
			}
			if u.PasswordHash == "" || u.PasswordHash == tt.password {
				t.Error("password was not hashed")
			}
		})
	}

	if len(audits.Entries) != 1 || audits.Entries[0].Action != audit.ActionUserRegistered {
		t.Errorf("audit entries = %+v", audits.Entries)
	}
}

func TestUserService_Authenticate(t *testing.T) {
	service, _, _, _ := newTestUserService()
	ctx := context.Background()
	if _, err := service.Register(ctx, user.RegisterInput{Email: "a@example.com", Password: "correct-horse"}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  bool
	}{
		{"valid credentials", "a@example.com", "correct-horse", false},
		{"case-insensitive email", "A@Example.com", "correct-horse", false},
		{"wrong password", "a@example.com", "battery-staple", true},
		{"unknown email", "b@example.com", "correct-horse", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.Authenticate(ctx, tt.email, tt.password)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Authenticate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				appErr, ok := errors.As(err)
				if !ok || appErr.Code != errors.ErrCodeUnauthorized {
					t.Errorf("error = %v, want UNAUTHORIZED", err)
				}
			}
		})
	}
}

func TestUserService_SetRole(t *testing.T) {
	service, _, audits, hub := newTestUserService()
	ctx := context.Background()

	admin, _ := service.Register(ctx, user.RegisterInput{Email: "admin@example.com", Password: "correct-horse"})
	member, _ := service.Register(ctx, user.RegisterInput{Email: "member@example.com", Password: "correct-horse"})

	changes, unsubscribe := hub.Subscribe(member.ID)
	defer unsubscribe()

	u, err := service.SetRole(ctx, admin.ID, member.ID, user.RoleOperator)
	if err != nil {
		t.Fatalf("SetRole() error = %v", err)
	}
	if u.Role != user.RoleOperator {
		t.Errorf("Role = %s, want operator", u.Role)
	}
	select {
	case <-changes:
	default:
		t.Error("role change was not published")
	}

	last := audits.Entries[len(audits.Entries)-1]
	if last.Action != audit.ActionRoleChanged || *last.ActorID != admin.ID || last.Details["to"] != user.RoleOperator {
		t.Errorf("audit entry = %+v", last)
	}

	tests := []struct {
		name   string
		actor  int64
		target int64
		role   string
		code   string
	}{
		{"unknown role", admin.ID, member.ID, "owner", errors.ErrCodeBadRequest},
		{"own role", admin.ID, admin.ID, user.RoleUser, errors.ErrCodeForbidden},
		{"missing user", admin.ID, 999, user.RoleUser, errors.ErrCodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.SetRole(ctx, tt.actor, tt.target, tt.role)
			appErr, ok := errors.As(err)
			if !ok || appErr.Code != tt.code {
				t.Errorf("SetRole() error = %v, want %s", err, tt.code)
			}
		})
	}
}
