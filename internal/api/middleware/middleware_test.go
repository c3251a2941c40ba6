package middleware

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/pratik-mahalle/altseo/internal/access"
	"github.com/pratik-mahalle/altseo/internal/auth"
	"github.com/pratik-mahalle/altseo/internal/domain/user"
	"github.com/pratik-mahalle/altseo/internal/pkg/logger"
	"github.com/pratik-mahalle/altseo/internal/testutil"
)

const testSecret = "middleware-test-secret"

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestAuthMiddleware(t *testing.T) {
	tokens, err := auth.MintTokens(7, "a@example.com", testSecret, time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("MintTokens() error = %v", err)
	}

	tests := []struct {
		name       string
		setup      func(r *http.Request)
		wantStatus int
	}{
		{"no token", func(r *http.Request) {}, http.StatusUnauthorized},
		{"bearer access token", func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+tokens.AccessToken)
		}, http.StatusNoContent},
		{"cookie access token", func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: tokens.AccessToken})
		}, http.StatusNoContent},
		{"refresh token rejected", func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+tokens.RefreshToken)
		}, http.StatusUnauthorized},
		{"garbage token", func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer not-a-jwt")
		}, http.StatusUnauthorized},
		{"wrong scheme", func(r *http.Request) {
			r.Header.Set("Authorization", "Basic "+tokens.AccessToken)
		}, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotID int64
			h := AuthMiddleware(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotID, _ = GetUserID(r)
				w.WriteHeader(http.StatusNoContent)
			}))
			req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
			tt.setup(req)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusNoContent && gotID != 7 {
				t.Errorf("user id = %d, want 7", gotID)
			}
		})
	}
}

func TestSessionAndRequirePermission(t *testing.T) {
	repo := testutil.NewMockUserRepository()
	ctx := context.Background()
	member := &user.User{Email: "member@example.com"}
	operator := &user.User{Email: "op@example.com", Role: user.RoleOperator}
	_ = repo.Create(ctx, member)
	_ = repo.Create(ctx, operator)

	log := logger.New(logger.Config{Level: "error", Format: "json"})
	chain := func(p access.Permission) http.Handler {
		return Session(repo, access.NewHub(), log)(RequirePermission(p)(okHandler()))
	}

	tests := []struct {
		name       string
		userID     int64
		perm       access.Permission
		wantStatus int
	}{
		{"operator reads users", operator.ID, access.PermUsersRead, http.StatusNoContent},
		{"operator cannot write users", operator.ID, access.PermUsersWrite, http.StatusForbidden},
		{"member cannot read audit", member.ID, access.PermAuditRead, http.StatusForbidden},
		{"deleted account", 999, access.PermUsersRead, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/users", nil)
			req = req.WithContext(WithUser(req.Context(), tt.userID, ""))
			rec := httptest.NewRecorder()
			chain(tt.perm).ServeHTTP(rec, req)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestSessionClosedAfterRequest(t *testing.T) {
	repo := testutil.NewMockUserRepository()
	u := &user.User{Email: "a@example.com"}
	_ = repo.Create(context.Background(), u)
	hub := access.NewHub()
	log := logger.New(logger.Config{Level: "error", Format: "json"})

	var seen *access.Session
	h := Session(repo, hub, log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = access.FromContext(r.Context())
		if hub.Subscribers(u.ID) != 1 {
			t.Errorf("subscribers during request = %d, want 1", hub.Subscribers(u.ID))
		}
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithUser(req.Context(), u.ID, u.Email))
	h.ServeHTTP(httptest.NewRecorder(), req)

	if seen == nil || seen.State() != access.StateClosed {
		t.Errorf("session state after request = %v", seen)
	}
	if hub.Subscribers(u.ID) != 0 {
		t.Errorf("subscribers after request = %d, want 0", hub.Subscribers(u.ID))
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	h := rl.Handler(okHandler())

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "203.0.113.9:5000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	if codes[0] != http.StatusNoContent || codes[1] != http.StatusNoContent || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v, want [204 204 429]", codes)
	}

	other := httptest.NewRequest(http.MethodGet, "/", nil)
	other.RemoteAddr = "203.0.113.10:5000"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, other)
	if rec.Code != http.StatusNoContent {
		t.Errorf("other client status = %d", rec.Code)
	}

	rl.idleTTL = 0
	rl.Cleanup()
	if rl.Len() != 0 {
		t.Errorf("Len() after cleanup = %d", rl.Len())
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name   string
		remote string
		fwd    string
		want   string
	}{
		{"remote addr", "198.51.100.1:1234", "", "198.51.100.1"},
		{"forwarded", "10.0.0.1:1234", "203.0.113.5, 10.0.0.1", "203.0.113.5"},
		{"no port", "198.51.100.2", "", "198.51.100.2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			if tt.fwd != "" {
				r.Header.Set("X-Forwarded-For", tt.fwd)
			}
			if got := ClientIP(r); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRecoveryAndRequestLogging(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(logger.Config{Level: "info", Format: "json"}, &buf)

	h := RequestID()(Logger(log)(Recovery(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))))
	req := httptest.NewRequest(http.MethodGet, "/api/v1/images", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "boom") {
		t.Error("panic value leaked to the client")
	}
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Error("missing request id header")
	}
	out := buf.String()
	if !strings.Contains(out, "Panic recovered") || !strings.Contains(out, `"status":500`) {
		t.Errorf("log output = %s", out)
	}
}

func TestRequestIDPreservesClientValue(t *testing.T) {
	var got string
	h := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetRequestID(r)
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if got != "abc-123" {
		t.Errorf("request id = %q, want abc-123", got)
	}
}

func TestRequestIDReplacesUnsafeValues(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"newline", "abc\n{\"level\":\"error\"}"},
		{"spaces", "abc 123"},
		{"too long", strings.Repeat("a", maxRequestIDLength+1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			h := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = GetRequestID(r)
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set(RequestIDHeader, tt.value)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if got == tt.value {
				t.Fatal("unsafe request id was kept")
			}
			if _, err := uuid.Parse(got); err != nil {
				t.Errorf("request id = %q, want a generated uuid", got)
			}
			if rec.Header().Get(RequestIDHeader) != got {
				t.Error("response header does not echo the request id")
			}
		})
	}
}
