package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/pratik-mahalle/altseo/internal/access"
	"github.com/pratik-mahalle/altseo/internal/api/handlers"
	"github.com/pratik-mahalle/altseo/internal/api/middleware"
	"github.com/pratik-mahalle/altseo/internal/config"
	"github.com/pratik-mahalle/altseo/internal/pkg/logger"
	"github.com/pratik-mahalle/altseo/internal/pkg/metrics"
	"github.com/pratik-mahalle/altseo/internal/pkg/utils"
)

// Handlers groups the HTTP handlers mounted by the router
type Handlers struct {
	Health  *handlers.HealthHandler
	Auth    *handlers.AuthHandler
	Image   *handlers.ImageHandler
	Usage   *handlers.UsageHandler
	Billing *handlers.BillingHandler
	Webhook *handlers.WebhookHandler
	Admin   *handlers.AdminHandler
	Events  *handlers.EventsHandler
}

// Access supplies the per-request session
type Access struct {
	Loader access.Loader
	Hub    *access.Hub
}

// New builds the application router. The caller owns limiter and runs its janitor.
func New(cfg *config.Config, log *logger.Logger, h *Handlers, acc Access, limiter *middleware.RateLimiter) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.CleanPath)
	r.Use(middleware.RequestID())
	r.Use(metrics.Middleware)
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recovery(log))
	r.Use(middleware.CORS(cfg.Server.FrontendURL, cfg.Server.Environment))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteErrorMessage(w, http.StatusNotFound, "NOT_FOUND", "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteErrorMessage(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed")
	})

	// Probes, metrics and docs
	r.Get("/health", h.Health.Healthz)
	r.Get("/healthz", h.Health.Healthz)
	r.Get("/readyz", h.Health.Readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.SecurityHeaders)

		// Not limited per IP
		r.Post("/webhooks/stripe", h.Webhook.Stripe)

		r.Group(func(r chi.Router) {
			r.Use(limiter.Handler)

			// Public routes
			r.Post("/auth/register", h.Auth.Register)
			r.Post("/auth/login", h.Auth.Login)
			r.Post("/auth/refresh", h.Auth.RefreshToken)

			// Protected routes
			r.Group(func(r chi.Router) {
				r.Use(middleware.AuthMiddleware(cfg.Auth.JWTSecret))
				r.Use(middleware.Session(acc.Loader, acc.Hub, log))

				r.Get("/auth/me", h.Auth.Me)
				r.Post("/auth/logout", h.Auth.Logout)

				r.Route("/images", func(r chi.Router) {
					r.Get("/", h.Image.List)
					r.Post("/", h.Image.Upload)
					r.Get("/{id}", h.Image.Get)
					r.Patch("/{id}", h.Image.EditAltText)
					r.Delete("/{id}", h.Image.Delete)
					r.Post("/{id}/alt-text", h.Image.RegenerateAltText)
				})

				r.Get("/events", h.Events.Stream)

				r.Route("/usage", func(r chi.Router) {
					r.Get("/rate-limit", h.Usage.RateLimit)
					r.Get("/history", h.Usage.History)
				})

				r.Route("/billing", func(r chi.Router) {
					r.Get("/plans", h.Billing.ListPlans)
					r.Get("/subscription", h.Billing.GetSubscription)
					r.Post("/checkout", h.Billing.CreateCheckoutSession)
					r.Post("/portal", h.Billing.CreatePortalSession)
					r.Post("/upgrade", h.Billing.Upgrade)
				})

				r.Route("/admin", func(r chi.Router) {
					r.With(middleware.RequirePermission(access.PermUsersRead)).Get("/users", h.Admin.ListUsers)
					r.With(middleware.RequirePermission(access.PermUsersWrite)).Put("/users/{id}/role", h.Admin.SetRole)
					r.With(middleware.RequirePermission(access.PermAuditRead)).Get("/audit-logs", h.Admin.ListAuditLogs)
				})
			})
		})
	})

	return r
}
