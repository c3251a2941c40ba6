package handlers

import (
	stderrors "errors"
	"io"
	"net/http"

	"github.com/pratik-mahalle/altseo/internal/billing"
	"github.com/pratik-mahalle/altseo/internal/domain/subscription"
	"github.com/pratik-mahalle/altseo/internal/pkg/errors"
	"github.com/pratik-mahalle/altseo/internal/pkg/logger"
	"github.com/pratik-mahalle/altseo/internal/pkg/utils"
)

// maxWebhookBody matches the largest payload Stripe sends
const maxWebhookBody = 64 << 10

// WebhookParser verifies and translates a provider webhook
type WebhookParser interface {
	ParseWebhook(payload []byte, sigHeader string) (*subscription.Event, error)
}

// WebhookHandler receives payment provider webhooks
type WebhookHandler struct {
	parser     WebhookParser
	reconciler subscription.Reconciler
	logger     *logger.Logger
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(parser WebhookParser, reconciler subscription.Reconciler, log *logger.Logger) *WebhookHandler {
	return &WebhookHandler{
		parser:     parser,
		reconciler: reconciler,
		logger:     log.Component("webhook"),
	}
}

// Stripe handles Stripe webhook deliveries
// @Summary Stripe webhook
// @Description Verifies the Stripe-Signature header and applies the subscription change
// @Tags Webhooks
// @Accept json
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse "Invalid signature"
// @Failure 500 {object} utils.ErrorResponse "Persistence failure, Stripe retries"
// @Router /webhooks/stripe [post]
func (h *WebhookHandler) Stripe(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		utils.WriteError(w, errors.BadRequest("Could not read request body"))
		return
	}

	ev, err := h.parser.ParseWebhook(payload, r.Header.Get("Stripe-Signature"))
	switch {
	case stderrors.Is(err, billing.ErrInvalidSignature):
		h.logger.Warn("Rejected webhook with invalid signature")
		utils.WriteError(w, errors.BadRequest("Invalid signature"))
		return
	case stderrors.Is(err, billing.ErrNotConfigured):
		utils.WriteError(w, errors.ServiceUnavailable("Webhooks are not configured"))
		return
	case err != nil:
		// Redelivery cannot fix a payload we cannot decode.
		h.logger.ErrorWithErr(err, "Dropping malformed webhook event")
		h.acknowledge(w, subscription.OutcomeIgnored)
		return
	case ev == nil:
		h.acknowledge(w, subscription.OutcomeIgnored)
		return
	}

	outcome, err := h.reconciler.Dispatch(r.Context(), *ev)
	if err != nil {
		h.logger.WithFields(map[string]interface{}{
			"event_id": ev.ID,
			"kind":     ev.Kind,
		}).ErrorWithErr(err, "Webhook dispatch failed")
		utils.WriteError(w, errors.DatabaseError("Failed to process webhook", err))
		return
	}

	h.acknowledge(w, outcome)
}

func (h *WebhookHandler) acknowledge(w http.ResponseWriter, outcome subscription.Outcome) {
	utils.WriteSuccess(w, http.StatusOK, map[string]string{
		"received": "true",
		"outcome":  string(outcome),
	})
}
