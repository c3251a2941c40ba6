package handlers

import (
	"net/http"

	"github.com/pratik-mahalle/altseo/internal/domain/usage"
	"github.com/pratik-mahalle/altseo/internal/pkg/logger"
	"github.com/pratik-mahalle/altseo/internal/pkg/utils"
)

// UsageHandler reports quota state
type UsageHandler struct {
	gate    usage.Gate
	history usage.Repository
	logger  *logger.Logger
}

// NewUsageHandler creates a new usage handler
func NewUsageHandler(gate usage.Gate, history usage.Repository, log *logger.Logger) *UsageHandler {
	return &UsageHandler{gate: gate, history: history, logger: log}
}

// RateLimit returns the caller's quota for today
// @Summary Daily quota
// @Description Remaining generations for today. On unlimited plans limit is -1, remaining is 0 and unlimited is true.
// @Tags Usage
// @Produce json
// @Success 200 {object} usage.RateLimitResult
// @Security BearerAuth
// @Router /usage/rate-limit [get]
func (h *UsageHandler) RateLimit(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	res, err := h.gate.CheckRateLimit(r.Context(), userID)
	if err != nil {
		utils.WriteServiceError(w, err, "Failed to read usage")
		return
	}
	utils.WriteSuccess(w, http.StatusOK, res)
}

// History returns the caller's recent daily counters
// @Summary Usage history
// @Tags Usage
// @Produce json
// @Success 200 {array} usage.Counter
// @Security BearerAuth
// @Router /usage/history [get]
func (h *UsageHandler) History(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	counters, err := h.history.History(r.Context(), userID, 30)
	if err != nil {
		utils.WriteServiceError(w, err, "Failed to read usage history")
		return
	}
	if counters == nil {
		counters = []*usage.Counter{}
	}
	utils.WriteSuccess(w, http.StatusOK, counters)
}
