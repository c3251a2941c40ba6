package integration

import (
	"bytes"
	"context"
	stdimage "image"
	"image/color"
	"image/png"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pratik-mahalle/altseo/internal/access"
	"github.com/pratik-mahalle/altseo/internal/api/handlers"
	"github.com/pratik-mahalle/altseo/internal/api/middleware"
	"github.com/pratik-mahalle/altseo/internal/api/router"
	"github.com/pratik-mahalle/altseo/internal/billing"
	"github.com/pratik-mahalle/altseo/internal/config"
	"github.com/pratik-mahalle/altseo/internal/domain/user"
	"github.com/pratik-mahalle/altseo/internal/pkg/logger"
	"github.com/pratik-mahalle/altseo/internal/pkg/validator"
	"github.com/pratik-mahalle/altseo/internal/repository/postgres"
	"github.com/pratik-mahalle/altseo/internal/services"
	"github.com/pratik-mahalle/altseo/internal/testutil"
	"github.com/pratik-mahalle/altseo/pkg/client"
)

const webhookSecret = "whsec_integration"

// testServer is the full HTTP stack over an in-memory SQLite database
type testServer struct {
	*httptest.Server
	cfg      *config.Config
	users    user.Repository
	storage  *testutil.MockStorage
	describe *testutil.MockDescriber
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newLimitedTestServer(t, middleware.NewRateLimiter(1000, 1000))
}

func newLimitedTestServer(t *testing.T, limiter *middleware.RateLimiter) *testServer {
	t.Helper()

	cfg := &config.Config{
		Server: config.ServerConfig{Environment: "development", FrontendURL: "http://localhost:3000"},
		Auth: config.AuthConfig{
			JWTSecret:          "integration-secret",
			AccessTokenExpiry:  15 * time.Minute,
			RefreshTokenExpiry: 24 * time.Hour,
			BCryptCost:         4,
		},
		Quota:  config.QuotaConfig{FreeDailyLimit: 2, PlanCacheTTL: time.Minute, PlanCacheSize: 16},
		Upload: config.UploadConfig{FreeMaxBytes: 1 << 20, ProMaxBytes: 4 << 20, Timeout: 5 * time.Second},
		Billing: config.BillingConfig{
			StripeWebhookSecret: webhookSecret,
			ProMonthlyPrice:     900,
			Currency:            "usd",
		},
	}
	log := logger.New(logger.Config{Level: "error", Format: "json"})
	db := postgres.Wrap(testutil.NewTestDB(t), "sqlite")

	userRepo := postgres.NewUserRepository(db)
	subRepo := postgres.NewSubscriptionRepository(db)
	eventLog := postgres.NewWebhookEventRepository(db)
	usageRepo := postgres.NewUsageRepository(db)
	imageRepo := postgres.NewImageRepository(db)
	auditRepo := postgres.NewAuditRepository(db)

	storage := testutil.NewMockStorage()
	describer := testutil.NewMockDescriber("A red square on a white background")

	hub := access.NewHub()
	auditSvc := services.NewAuditService(auditRepo, log)
	userSvc := services.NewUserService(userRepo, auditSvc, hub, cfg.Auth.BCryptCost, log)
	plans := services.NewPlanCache(subRepo, cfg.Quota.PlanCacheSize, cfg.Quota.PlanCacheTTL)
	gate := services.NewQuotaGate(usageRepo, plans, cfg.Quota.FreeDailyLimit, nil, log)
	imageSvc := services.NewImageService(imageRepo, storage, describer, gate, auditSvc, cfg.Upload, log)
	reconciler := services.NewReconciler(subRepo, eventLog, userRepo, plans, hub, auditSvc, log)
	stripeClient := billing.NewStripeClient(cfg.Billing)

	val := validator.New()
	h := &router.Handlers{
		Health:  handlers.NewHealthHandler(db, "test", log),
		Auth:    handlers.NewAuthHandler(userSvc, cfg, log, val),
		Image:   handlers.NewImageHandler(imageSvc, cfg.Upload.ProMaxBytes, log, val),
		Usage:   handlers.NewUsageHandler(gate, usageRepo, log),
		Billing: handlers.NewBillingHandler(userSvc, subRepo, reconciler, stripeClient, cfg, log),
		Webhook: handlers.NewWebhookHandler(stripeClient, reconciler, log),
		Admin:   handlers.NewAdminHandler(userSvc, auditSvc, log, val),
		Events:  handlers.NewEventsHandler(hub, log),
	}

	srv := httptest.NewServer(router.New(cfg, log, h, router.Access{Loader: userRepo, Hub: hub}, limiter))
	t.Cleanup(srv.Close)

	return &testServer{Server: srv, cfg: cfg, users: userRepo, storage: storage, describe: describer}
}

// register signs up a user and returns a client holding its token
func (s *testServer) register(t *testing.T, email string) (*client.Client, *client.User) {
	t.Helper()
	c := client.NewClient(client.Config{BaseURL: s.URL})
	resp, err := c.Register(context.Background(), client.RegisterRequest{Email: email, Password: "password123"})
	if err != nil {
		t.Fatalf("Register(%s) error = %v", email, err)
	}
	return c, resp.User
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := stdimage.NewRGBA(stdimage.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 255, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}
