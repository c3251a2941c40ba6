package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	stdimage "image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pratik-mahalle/altseo/internal/access"
	"github.com/pratik-mahalle/altseo/internal/api/middleware"
	"github.com/pratik-mahalle/altseo/internal/config"
	"github.com/pratik-mahalle/altseo/internal/domain/user"
	"github.com/pratik-mahalle/altseo/internal/pkg/logger"
	"github.com/pratik-mahalle/altseo/internal/pkg/validator"
	"github.com/pratik-mahalle/altseo/internal/services"
	"github.com/pratik-mahalle/altseo/internal/testutil"
)

// testApp wires real services over the in-memory mocks
type testApp struct {
	cfg       *config.Config
	log       *logger.Logger
	val       *validator.Validator
	users     *testutil.MockUserRepository
	subs      *testutil.MockSubscriptionRepository
	events    *testutil.MockEventLog
	usage     *testutil.MockUsageRepository
	images    *testutil.MockImageRepository
	storage   *testutil.MockStorage
	describer *testutil.MockDescriber
	audits    *testutil.MockAuditRepository
	hub       *access.Hub

	userSvc    *services.UserService
	auditSvc   *services.AuditService
	plans      *services.PlanCache
	gate       *services.QuotaGate
	imageSvc   *services.ImageService
	reconciler *services.Reconciler
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Environment: "development"},
		Auth: config.AuthConfig{
			JWTSecret:          "handler-test-secret",
			AccessTokenExpiry:  15 * time.Minute,
			RefreshTokenExpiry: 24 * time.Hour,
			BCryptCost:         4,
		},
		Quota:  config.QuotaConfig{FreeDailyLimit: 2, PlanCacheTTL: time.Minute, PlanCacheSize: 10},
		Upload: config.UploadConfig{FreeMaxBytes: 1 << 20, ProMaxBytes: 4 << 20, Timeout: 5 * time.Second},
		Billing: config.BillingConfig{
			ProMonthlyPrice: 900,
			Currency:        "usd",
		},
	}
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	a := &testApp{
		cfg:       testConfig(),
		log:       logger.New(logger.Config{Level: "error", Format: "json"}),
		val:       validator.New(),
		users:     testutil.NewMockUserRepository(),
		subs:      testutil.NewMockSubscriptionRepository(),
		events:    testutil.NewMockEventLog(),
		usage:     testutil.NewMockUsageRepository(),
		images:    testutil.NewMockImageRepository(),
		storage:   testutil.NewMockStorage(),
		describer: testutil.NewMockDescriber("A red square"),
		audits:    testutil.NewMockAuditRepository(),
		hub:       access.NewHub(),
	}
	a.users.Subscriptions = a.subs

	a.auditSvc = services.NewAuditService(a.audits, a.log)
	a.userSvc = services.NewUserService(a.users, a.auditSvc, a.hub, a.cfg.Auth.BCryptCost, a.log)
	a.plans = services.NewPlanCache(a.subs, a.cfg.Quota.PlanCacheSize, a.cfg.Quota.PlanCacheTTL)
	a.gate = services.NewQuotaGate(a.usage, a.plans, a.cfg.Quota.FreeDailyLimit, nil, a.log)
	a.imageSvc = services.NewImageService(a.images, a.storage, a.describer, a.gate, a.auditSvc, a.cfg.Upload, a.log)
	a.reconciler = services.NewReconciler(a.subs, a.events, a.users, a.plans, a.hub, a.auditSvc, a.log)
	return a
}

// createUser registers a user through the service and returns it
func (a *testApp) createUser(t *testing.T, email string) *user.User {
	t.Helper()
	u, err := a.userSvc.Register(context.Background(), user.RegisterInput{Email: email, Password: "password123"})
	if err != nil {
		t.Fatalf("Register(%s) error = %v", email, err)
	}
	return u
}

func asUser(r *http.Request, userID int64) *http.Request {
	return r.WithContext(middleware.WithUser(r.Context(), userID, "user@example.com"))
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func jsonBody(t *testing.T, v interface{}) io.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	return bytes.NewReader(b)
}

// envelope is the decoded response body
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder, data interface{}) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response: %v (%s)", err, rr.Body.String())
	}
	if data != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, data); err != nil {
			t.Fatalf("decode data: %v (%s)", err, env.Data)
		}
	}
	return env
}

func expectStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Fatalf("status = %d, want %d (body %s)", rr.Code, want, rr.Body.String())
	}
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := stdimage.NewRGBA(stdimage.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}
