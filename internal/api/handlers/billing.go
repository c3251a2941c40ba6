package handlers

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/pratik-mahalle/altseo/internal/api/dto"
	"github.com/pratik-mahalle/altseo/internal/billing"
	"github.com/pratik-mahalle/altseo/internal/config"
	"github.com/pratik-mahalle/altseo/internal/domain/subscription"
	"github.com/pratik-mahalle/altseo/internal/domain/usage"
	"github.com/pratik-mahalle/altseo/internal/domain/user"
	"github.com/pratik-mahalle/altseo/internal/pkg/errors"
	"github.com/pratik-mahalle/altseo/internal/pkg/logger"
	"github.com/pratik-mahalle/altseo/internal/pkg/utils"
)

// DemoProvider tags events created by the demo upgrade endpoint
const DemoProvider = "demo"

// CheckoutProvider opens hosted payment pages
type CheckoutProvider interface {
	CheckoutEnabled() bool
	CreateCheckoutSession(ctx context.Context, userID int64, email string) (*billing.CheckoutSession, error)
	CreatePortalSession(ctx context.Context, customerID string) (string, error)
}

// BillingHandler handles plan and subscription endpoints
type BillingHandler struct {
	users      user.Service
	subs       subscription.Repository
	reconciler subscription.Reconciler
	checkout   CheckoutProvider
	cfg        *config.Config
	logger     *logger.Logger
}

// NewBillingHandler creates a new BillingHandler
func NewBillingHandler(
	users user.Service,
	subs subscription.Repository,
	reconciler subscription.Reconciler,
	checkout CheckoutProvider,
	cfg *config.Config,
	log *logger.Logger,
) *BillingHandler {
	return &BillingHandler{
		users:      users,
		subs:       subs,
		reconciler: reconciler,
		checkout:   checkout,
		cfg:        cfg,
		logger:     log,
	}
}

// ListPlans returns the available plans
// @Summary List subscription plans
// @Tags Billing
// @Produce json
// @Success 200 {array} dto.PlanDTO "List of plans"
// @Security BearerAuth
// @Router /billing/plans [get]
func (h *BillingHandler) ListPlans(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	current := subscription.PlanFree
	rec, err := h.subs.GetByUserID(r.Context(), userID)
	if err != nil && !errors.IsNotFound(err) {
		utils.WriteServiceError(w, err, "Failed to load subscription")
		return
	}
	if rec.IsPro() {
		current = subscription.PlanPro
	}

	utils.WriteSuccess(w, http.StatusOK, h.plans(current))
}

func (h *BillingHandler) plans(current string) []dto.PlanDTO {
	return []dto.PlanDTO{
		{
			ID:         subscription.PlanFree,
			Name:       "Free",
			Price:      0,
			Currency:   h.cfg.Billing.Currency,
			Interval:   "month",
			DailyLimit: h.cfg.Quota.FreeDailyLimit,
			MaxUpload:  h.cfg.Upload.FreeMaxBytes,
			Features: []string{
				"AI generated ALT text",
				"Manual ALT text editing",
				"Image library",
			},
			IsCurrent: current == subscription.PlanFree,
		},
		{
			ID:         subscription.PlanPro,
			Name:       "Pro",
			Price:      float64(h.cfg.Billing.ProMonthlyPrice) / 100,
			Currency:   h.cfg.Billing.Currency,
			Interval:   "month",
			DailyLimit: usage.Unlimited,
			MaxUpload:  h.cfg.Upload.ProMaxBytes,
			Features: []string{
				"Unlimited ALT text generations",
				"Larger uploads",
				"Regeneration without limits",
				"Billing portal",
			},
			IsCurrent: current == subscription.PlanPro,
		},
	}
}

// GetSubscription returns the caller's subscription record
// @Summary Current subscription
// @Tags Billing
// @Produce json
// @Success 200 {object} dto.SubscriptionDTO
// @Security BearerAuth
// @Router /billing/subscription [get]
func (h *BillingHandler) GetSubscription(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	rec, err := h.subs.GetByUserID(r.Context(), userID)
	if err != nil {
		utils.WriteServiceError(w, err, "Failed to load subscription")
		return
	}
	utils.WriteSuccess(w, http.StatusOK, subscriptionDTO(rec))
}

func subscriptionDTO(rec *subscription.Record) dto.SubscriptionDTO {
	out := dto.SubscriptionDTO{
		PlanType:    rec.PlanType,
		Status:      rec.SubscriptionStatus,
		HasCustomer: rec.ExternalCustomerID != nil && *rec.ExternalCustomerID != "",
		UpdatedAt:   rec.UpdatedAt,
	}
	if !rec.LastEventAt.IsZero() {
		t := rec.LastEventAt
		out.LastEventAt = &t
	}
	return out
}

// CreateCheckoutSession opens a Stripe checkout for the Pro plan
// @Summary Start checkout
// @Tags Billing
// @Produce json
// @Success 200 {object} dto.CheckoutResponse
// @Failure 400 {object} utils.ErrorResponse "Already on Pro"
// @Failure 503 {object} utils.ErrorResponse "Payments not configured"
// @Security BearerAuth
// @Router /billing/checkout [post]
func (h *BillingHandler) CreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if !h.checkout.CheckoutEnabled() {
		utils.WriteError(w, errors.ServiceUnavailable("Payments are not configured"))
		return
	}

	u, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		utils.WriteServiceError(w, err, "Failed to load user")
		return
	}
	if u.PlanType == subscription.PlanPro {
		utils.WriteError(w, errors.BadRequest("Already subscribed to Pro"))
		return
	}

	sess, err := h.checkout.CreateCheckoutSession(r.Context(), userID, u.Email)
	if err != nil {
		h.logger.WithFields(map[string]interface{}{"user_id": userID}).ErrorWithErr(err, "Failed to create checkout session")
		utils.WriteError(w, errors.PaymentError(billing.ProviderName, err))
		return
	}

	utils.WriteSuccess(w, http.StatusOK, dto.CheckoutResponse{SessionID: sess.ID, URL: sess.URL})
}

// CreatePortalSession opens the Stripe billing portal
// @Summary Open billing portal
// @Tags Billing
// @Produce json
// @Success 200 {object} dto.CheckoutResponse
// @Failure 400 {object} utils.ErrorResponse "No billing account"
// @Security BearerAuth
// @Router /billing/portal [post]
func (h *BillingHandler) CreatePortalSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	rec, err := h.subs.GetByUserID(r.Context(), userID)
	if err != nil {
		utils.WriteServiceError(w, err, "Failed to load subscription")
		return
	}
	if rec.ExternalCustomerID == nil || *rec.ExternalCustomerID == "" {
		utils.WriteError(w, errors.BadRequest("No billing account for this user"))
		return
	}

	url, err := h.checkout.CreatePortalSession(r.Context(), *rec.ExternalCustomerID)
	if err != nil {
		if stderrors.Is(err, billing.ErrNotConfigured) {
			utils.WriteError(w, errors.ServiceUnavailable("Payments are not configured"))
			return
		}
		h.logger.WithFields(map[string]interface{}{"user_id": userID}).ErrorWithErr(err, "Failed to create portal session")
		utils.WriteError(w, errors.PaymentError(billing.ProviderName, err))
		return
	}

	utils.WriteSuccess(w, http.StatusOK, dto.CheckoutResponse{URL: url})
}

// Upgrade grants Pro without payment. Only available when demo upgrades are enabled.
// @Summary Demo upgrade
// @Tags Billing
// @Produce json
// @Success 200 {object} dto.UpgradeResponse
// @Failure 403 {object} utils.ErrorResponse "Demo upgrades disabled"
// @Security BearerAuth
// @Router /billing/upgrade [post]
func (h *BillingHandler) Upgrade(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if !h.cfg.Billing.DemoUpgradeEnabled {
		utils.WriteError(w, errors.Forbidden("Plan upgrades go through checkout"))
		return
	}

	outcome, err := h.reconciler.Dispatch(r.Context(), subscription.Event{
		ID:         DemoProvider + "_" + uuid.NewString(),
		Provider:   DemoProvider,
		Kind:       subscription.EventGrantAccess,
		UserID:     userID,
		Status:     subscription.StatusActive,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		utils.WriteServiceError(w, err, "Failed to upgrade plan")
		return
	}

	rec, err := h.subs.GetByUserID(r.Context(), userID)
	if err != nil {
		utils.WriteServiceError(w, err, "Failed to load subscription")
		return
	}

	h.logger.WithFields(map[string]interface{}{
		"user_id": userID,
		"outcome": outcome,
	}).Info("Demo upgrade dispatched")

	utils.WriteSuccess(w, http.StatusOK, dto.UpgradeResponse{
		PlanType: rec.PlanType,
		Status:   rec.SubscriptionStatus,
		Outcome:  string(outcome),
	})
}
