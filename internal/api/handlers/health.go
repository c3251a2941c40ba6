package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/pratik-mahalle/altseo/internal/pkg/logger"
	"github.com/pratik-mahalle/altseo/internal/pkg/utils"
)

const readinessTimeout = 2 * time.Second

// Pinger is satisfied by *sql.DB
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Dependency checks an optional dependency. A failing dependency marks the
// service degraded but keeps it ready: uploads still work without AI text,
// and billing without webhooks.
type Dependency func(ctx context.Context) error

// ReadinessReport is the body of a successful readiness probe
type ReadinessReport struct {
	Status     string            `json:"status"`
	Database   string            `json:"database"`
	Components map[string]string `json:"components,omitempty"`
}

// HealthHandler serves the liveness and readiness probes
type HealthHandler struct {
	db      Pinger
	version string
	logger  *logger.Logger
	deps    map[string]Dependency
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db Pinger, version string, log *logger.Logger) *HealthHandler {
	return &HealthHandler{db: db, version: version, logger: log, deps: map[string]Dependency{}}
}

// Register adds an optional dependency to the readiness report
func (h *HealthHandler) Register(name string, d Dependency) {
	h.deps[name] = d
}

// Healthz handles liveness probe
// @Summary Liveness probe
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]string "Application is alive"
// @Router /healthz [get]
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	utils.WriteSuccess(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": h.version,
	})
}

// Readyz handles readiness probe
// @Summary Readiness probe
// @Description 503 when the database is unreachable; degraded when an optional dependency fails
// @Tags Health
// @Produce json
// @Success 200 {object} ReadinessReport
// @Failure 503 {object} utils.ErrorResponse "Database unreachable"
// @Router /readyz [get]
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		h.logger.ErrorWithErr(err, "Database ping failed")
		utils.WriteErrorMessage(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Database connection failed")
		return
	}

	report := ReadinessReport{Status: "ready", Database: "connected"}
	if len(h.deps) > 0 {
		report.Components = make(map[string]string, len(h.deps))
	}

	names := make([]string, 0, len(h.deps))
	for name := range h.deps {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := h.deps[name](ctx); err != nil {
			report.Status = "degraded"
			report.Components[name] = err.Error()
			continue
		}
		report.Components[name] = "ok"
	}

	utils.WriteSuccess(w, http.StatusOK, report)
}
