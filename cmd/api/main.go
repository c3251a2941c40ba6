// @title AltSEO API
// @version 1.0
// @description Image upload and AI ALT text generation with plan based daily quotas.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pratik-mahalle/altseo/internal/access"
	"github.com/pratik-mahalle/altseo/internal/api/handlers"
	"github.com/pratik-mahalle/altseo/internal/api/middleware"
	"github.com/pratik-mahalle/altseo/internal/api/router"
	"github.com/pratik-mahalle/altseo/internal/billing"
	"github.com/pratik-mahalle/altseo/internal/config"
	"github.com/pratik-mahalle/altseo/internal/pkg/logger"
	"github.com/pratik-mahalle/altseo/internal/pkg/validator"
	"github.com/pratik-mahalle/altseo/internal/providers"
	"github.com/pratik-mahalle/altseo/internal/repository/postgres"
	"github.com/pratik-mahalle/altseo/internal/services"
	"github.com/pratik-mahalle/altseo/internal/worker"
	"github.com/pratik-mahalle/altseo/migrations"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.Init(logger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		OutputPath: cfg.Logging.OutputPath,
		Service:    "altseo-api",
	})

	if err := run(cfg, log); err != nil {
		log.ErrorWithErr(err, "Server exited with error")
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.New(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	migrationsFS, err := migrations.GetFS(cfg.Database.Driver)
	if err != nil {
		return err
	}
	applied, err := postgres.RunMigrations(db, migrationsFS)
	if err != nil {
		return err
	}
	log.WithFields(map[string]interface{}{
		"driver":  cfg.Database.Driver,
		"applied": applied,
	}).Info("Database ready")

	storage, err := providers.NewStorage(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	if c, ok := storage.(io.Closer); ok {
		defer c.Close()
	}

	// Repositories
	userRepo := postgres.NewUserRepository(db)
	subRepo := postgres.NewSubscriptionRepository(db)
	eventLog := postgres.NewWebhookEventRepository(db)
	usageRepo := postgres.NewUsageRepository(db)
	imageRepo := postgres.NewImageRepository(db)
	auditRepo := postgres.NewAuditRepository(db)

	// Services
	hub := access.NewHub()
	auditSvc := services.NewAuditService(auditRepo, log)
	userSvc := services.NewUserService(userRepo, auditSvc, hub, cfg.Auth.BCryptCost, log)
	plans := services.NewPlanCache(subRepo, cfg.Quota.PlanCacheSize, cfg.Quota.PlanCacheTTL)
	gate := services.NewQuotaGate(usageRepo, plans, cfg.Quota.FreeDailyLimit, nil, log)
	describer := providers.NewDescriber(cfg.AI)
	imageSvc := services.NewImageService(imageRepo, storage, describer, gate, auditSvc, cfg.Upload, log)
	reconciler := services.NewReconciler(subRepo, eventLog, userRepo, plans, hub, auditSvc, log)
	stripeClient := billing.NewStripeClient(cfg.Billing)

	if !providers.DescriberConfigured(cfg.AI) {
		log.Warnf("No API key for AI provider %q, images will be stored without ALT text", cfg.AI.Provider)
	}
	if !stripeClient.CheckoutEnabled() {
		log.Warn("Stripe is not configured, checkout is disabled")
	}

	// Handlers
	val := validator.New()
	h := &router.Handlers{
		Health:  handlers.NewHealthHandler(db, version, log),
		Auth:    handlers.NewAuthHandler(userSvc, cfg, log, val),
		Image:   handlers.NewImageHandler(imageSvc, cfg.Upload.ProMaxBytes, log, val),
		Usage:   handlers.NewUsageHandler(gate, usageRepo, log),
		Billing: handlers.NewBillingHandler(userSvc, subRepo, reconciler, stripeClient, cfg, log),
		Webhook: handlers.NewWebhookHandler(stripeClient, reconciler, log),
		Admin:   handlers.NewAdminHandler(userSvc, auditSvc, log, val),
		Events:  handlers.NewEventsHandler(hub, log),
	}

	h.Health.Register("ai", func(context.Context) error {
		if !providers.DescriberConfigured(cfg.AI) {
			return fmt.Errorf("%s api key not configured", cfg.AI.Provider)
		}
		return nil
	})
	h.Health.Register("webhooks", func(context.Context) error {
		if cfg.Billing.StripeWebhookSecret == "" {
			return errors.New("stripe webhook secret not configured")
		}
		return nil
	})

	limiter := middleware.NewRateLimiter(cfg.Server.RequestsPerSec, cfg.Server.RequestBurst)
	janitorStop := make(chan struct{})
	go limiter.Janitor(time.Minute, janitorStop)
	defer close(janitorStop)

	retention := worker.NewRetentionWorker(usageRepo, eventLog, cfg.Retention, log)
	if err := retention.Start(ctx); err != nil {
		return err
	}
	defer retention.Stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.New(cfg, log, h, router.Access{Loader: userRepo, Hub: hub}, limiter),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithFields(map[string]interface{}{
			"addr":        srv.Addr,
			"environment": cfg.Server.Environment,
			"version":     version,
		}).Info("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}
