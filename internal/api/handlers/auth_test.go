package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pratik-mahalle/altseo/internal/api/dto"
	"github.com/pratik-mahalle/altseo/internal/api/middleware"
)

func TestAuthHandler_Register(t *testing.T) {
	tests := []struct {
		name           string
		body           map[string]interface{}
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "valid registration",
			body:           map[string]interface{}{"email": "new@example.com", "password": "password123"},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "duplicate email",
			body:           map[string]interface{}{"email": "taken@example.com", "password": "password123"},
			expectedStatus: http.StatusConflict,
			expectedCode:   "CONFLICT",
		},
		{
			name:           "invalid email",
			body:           map[string]interface{}{"email": "not-an-email", "password": "password123"},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "VALIDATION_ERROR",
		},
		{
			name:           "short password",
			body:           map[string]interface{}{"email": "short@example.com", "password": "abc"},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "VALIDATION_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t)
			app.createUser(t, "taken@example.com")
			handler := NewAuthHandler(app.userSvc, app.cfg, app.log, app.val)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", jsonBody(t, tt.body))
			rr := httptest.NewRecorder()
			handler.Register(rr, req)

			expectStatus(t, rr, tt.expectedStatus)
			var resp dto.AuthResponse
			env := decodeEnvelope(t, rr, &resp)
			if tt.expectedCode != "" {
				if env.Error.Code != tt.expectedCode {
					t.Errorf("error code = %s, want %s", env.Error.Code, tt.expectedCode)
				}
				return
			}
			if resp.AccessToken == "" || resp.RefreshToken == "" {
				t.Error("expected both tokens in the response")
			}
			if resp.User == nil || resp.User.PlanType != "free" {
				t.Errorf("user = %+v, want free plan", resp.User)
			}
			if !hasCookie(rr, middleware.AccessTokenCookie) || !hasCookie(rr, refreshTokenCookie) {
				t.Error("expected auth cookies to be set")
			}
		})
	}
}

func TestAuthHandler_Login(t *testing.T) {
	app := newTestApp(t)
	app.createUser(t, "login@example.com")
	handler := NewAuthHandler(app.userSvc, app.cfg, app.log, app.val)

	tests := []struct {
		name           string
		password       string
		expectedStatus int
	}{
		{"correct password", "password123", http.StatusOK},
		{"wrong password", "wrong-password", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", jsonBody(t, map[string]string{
				"email":    "login@example.com",
				"password": tt.password,
			}))
			rr := httptest.NewRecorder()
			handler.Login(rr, req)
			expectStatus(t, rr, tt.expectedStatus)
		})
	}
}

func TestAuthHandler_Me(t *testing.T) {
	app := newTestApp(t)
	u := app.createUser(t, "me@example.com")
	handler := NewAuthHandler(app.userSvc, app.cfg, app.log, app.val)

	rr := httptest.NewRecorder()
	handler.Me(rr, asUser(httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil), u.ID))
	expectStatus(t, rr, http.StatusOK)

	var got dto.UserDTO
	decodeEnvelope(t, rr, &got)
	if got.Email != "me@example.com" || got.Role != "user" {
		t.Errorf("Me() = %+v", got)
	}

	rr = httptest.NewRecorder()
	handler.Me(rr, httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil))
	expectStatus(t, rr, http.StatusUnauthorized)
}

func TestAuthHandler_RefreshToken(t *testing.T) {
	app := newTestApp(t)
	handler := NewAuthHandler(app.userSvc, app.cfg, app.log, app.val)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", jsonBody(t, map[string]string{
		"email":    "refresh@example.com",
		"password": "password123",
	}))
	rr := httptest.NewRecorder()
	handler.Register(rr, req)
	expectStatus(t, rr, http.StatusCreated)
	var tokens dto.AuthResponse
	decodeEnvelope(t, rr, &tokens)

	t.Run("refresh token in body", func(t *testing.T) {
		rr := httptest.NewRecorder()
		handler.RefreshToken(rr, httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh",
			jsonBody(t, map[string]string{"refreshToken": tokens.RefreshToken})))
		expectStatus(t, rr, http.StatusOK)
	})

	t.Run("refresh token in cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", nil)
		req.AddCookie(&http.Cookie{Name: refreshTokenCookie, Value: tokens.RefreshToken})
		rr := httptest.NewRecorder()
		handler.RefreshToken(rr, req)
		expectStatus(t, rr, http.StatusOK)
	})

	t.Run("access token is not a refresh token", func(t *testing.T) {
		rr := httptest.NewRecorder()
		handler.RefreshToken(rr, httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh",
			jsonBody(t, map[string]string{"refreshToken": tokens.AccessToken})))
		expectStatus(t, rr, http.StatusUnauthorized)
	})

	t.Run("missing token", func(t *testing.T) {
		rr := httptest.NewRecorder()
		handler.RefreshToken(rr, httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", nil))
		expectStatus(t, rr, http.StatusUnauthorized)
	})
}

func TestAuthHandler_Logout(t *testing.T) {
	app := newTestApp(t)
	handler := NewAuthHandler(app.userSvc, app.cfg, app.log, app.val)

	rr := httptest.NewRecorder()
	handler.Logout(rr, httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil))
	expectStatus(t, rr, http.StatusOK)

	for _, c := range rr.Result().Cookies() {
		if c.MaxAge >= 0 {
			t.Errorf("cookie %s MaxAge = %d, want deletion", c.Name, c.MaxAge)
		}
	}
}

func hasCookie(rr *httptest.ResponseRecorder, name string) bool {
	for _, c := range rr.Result().Cookies() {
		if c.Name == name && c.Value != "" {
			return true
		}
	}
	return false
}
