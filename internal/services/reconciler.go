package services

import (
	"context"
	"strconv"
	"time"

	"github.com/pratik-mahalle/altseo/internal/access"
	"github.com/pratik-mahalle/altseo/internal/domain/audit"
	"github.com/pratik-mahalle/altseo/internal/domain/subscription"
	"github.com/pratik-mahalle/altseo/internal/domain/user"
	"github.com/pratik-mahalle/altseo/internal/pkg/errors"
	"github.com/pratik-mahalle/altseo/internal/pkg/logger"
	"github.com/pratik-mahalle/altseo/internal/pkg/metrics"
)

// userLookup is the part of user.Repository the reconciler needs
type userLookup interface {
	GetByID(ctx context.Context, id int64) (*user.User, error)
}

// Reconciler applies payment lifecycle events to subscription records.
// It is the only writer of plan and status.
type Reconciler struct {
	subs   subscription.Repository
	events subscription.EventLog
	users  userLookup
	plans  subscription.PlanInvalidator
	hub    *access.Hub
	audit  audit.Service
	now    func() time.Time
	logger *logger.Logger
}

// NewReconciler creates a reconciler. hub and auditSvc may be nil.
func NewReconciler(
	subs subscription.Repository,
	events subscription.EventLog,
	users userLookup,
	plans subscription.PlanInvalidator,
	hub *access.Hub,
	auditSvc audit.Service,
	log *logger.Logger,
) *Reconciler {
	return &Reconciler{
		subs:   subs,
		events: events,
		users:  users,
		plans:  plans,
		hub:    hub,
		audit:  auditSvc,
		now:    time.Now,
		logger: log.Component("reconciler"),
	}
}

// Dispatch applies one event. Only persistence failures return an error;
// every other outcome is reported through the returned Outcome.
func (r *Reconciler) Dispatch(ctx context.Context, ev subscription.Event) (subscription.Outcome, error) {
	log := r.logger.WithFields(map[string]interface{}{
		"event_id": ev.ID,
		"kind":     string(ev.Kind),
		"provider": ev.Provider,
		"user_id":  ev.UserID,
	})

	if !ev.Kind.Valid() {
		log.Warn("Ignoring unknown subscription event kind")
		return r.finish(ev, subscription.OutcomeIgnored), nil
	}

	if ev.ID != "" {
		processed, err := r.events.IsProcessed(ctx, ev.ID)
		if err != nil {
			log.ErrorWithErr(err, "Failed to check webhook event log")
			return r.finish(ev, subscription.OutcomeFailed), err
		}
		if processed {
			log.Info("Skipping duplicate subscription event")
			return r.finish(ev, subscription.OutcomeDuplicate), nil
		}
	}

	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = r.now()
	}

	if ev.UserID == 0 {
		log.Error("Subscription event carries no user id")
		return r.finish(ev, subscription.OutcomeIgnored), nil
	}

	if ev.Kind == subscription.EventCheckoutCompleted {
		log.WithFields(map[string]interface{}{
			"customer_id": ev.CustomerID,
			"status":      ev.Status,
		}).Info("Checkout completed")
		r.markProcessed(ctx, ev, subscription.OutcomeLogged)
		return r.finish(ev, subscription.OutcomeLogged), nil
	}

	change := changeFor(ev)
	applied, err := r.subs.Apply(ctx, change)
	if err != nil {
		log.ErrorWithErr(err, "Failed to apply subscription event")
		return r.finish(ev, subscription.OutcomeFailed), err
	}

	if !applied {
		if _, err := r.users.GetByID(ctx, ev.UserID); err != nil {
			if errors.IsNotFound(err) {
				log.Error("Subscription event references an unknown user")
				r.markProcessed(ctx, ev, subscription.OutcomeIgnored)
				return r.finish(ev, subscription.OutcomeIgnored), nil
			}
			log.ErrorWithErr(err, "Failed to look up user for subscription event")
			return r.finish(ev, subscription.OutcomeFailed), err
		}
		log.Warn("Subscription event is older than the stored state")
		r.markProcessed(ctx, ev, subscription.OutcomeStale)
		return r.finish(ev, subscription.OutcomeStale), nil
	}

	r.plans.Invalidate(ev.UserID)
	if r.hub != nil {
		r.hub.Publish(access.Change{UserID: ev.UserID, Reason: string(ev.Kind)})
	}
	r.recordAudit(ctx, ev, change)
	r.markProcessed(ctx, ev, subscription.OutcomeApplied)

	log.WithFields(map[string]interface{}{
		"plan":   deref(change.PlanType),
		"status": deref(change.Status),
	}).Info("Subscription updated")

	return r.finish(ev, subscription.OutcomeApplied), nil
}

// changeFor maps an event onto the fields it overwrites
func changeFor(ev subscription.Event) subscription.Change {
	c := subscription.Change{UserID: ev.UserID, EventAt: ev.OccurredAt}
	if ev.CustomerID != "" {
		c.CustomerID = strPtr(ev.CustomerID)
	}

	switch ev.Kind {
	case subscription.EventGrantAccess:
		c.PlanType = strPtr(subscription.PlanPro)
		c.Status = statusOr(ev.Status, subscription.StatusActive)
	case subscription.EventRevokeAccess:
		if subscription.RevokesPlan(ev.Reason) {
			c.PlanType = strPtr(subscription.PlanFree)
		}
		c.Status = statusOr(ev.Status, "")
	case subscription.EventSubscriptionPaid:
		c.Status = statusOr(ev.Status, subscription.StatusActive)
	case subscription.EventSubscriptionCanceled:
		c.Status = strPtr(subscription.StatusCanceled)
	case subscription.EventSubscriptionExpired:
		c.PlanType = strPtr(subscription.PlanFree)
		c.Status = strPtr(subscription.StatusExpired)
	case subscription.EventSubscriptionPaused:
		c.Status = strPtr(subscription.StatusPaused)
	case subscription.EventSubscriptionUpdated:
		c.PlanType = strPtr(subscription.PlanPro)
		c.Status = statusOr(ev.Status, "")
	}
	return c
}

func statusOr(status, fallback string) *string {
	if status != "" {
		return strPtr(status)
	}
	if fallback != "" {
		return strPtr(fallback)
	}
	return nil
}

func (r *Reconciler) markProcessed(ctx context.Context, ev subscription.Event, outcome subscription.Outcome) {
	if ev.ID == "" {
		return
	}
	err := r.events.MarkProcessed(ctx, subscription.ProcessedEvent{
		EventID:     ev.ID,
		Provider:    ev.Provider,
		Kind:        ev.Kind,
		UserID:      ev.UserID,
		Outcome:     outcome,
		ProcessedAt: r.now(),
	})
	if err != nil {
		r.logger.WithFields(map[string]interface{}{"event_id": ev.ID}).
			ErrorWithErr(err, "Failed to record processed webhook event")
	}
}

func (r *Reconciler) recordAudit(ctx context.Context, ev subscription.Event, c subscription.Change) {
	if r.audit == nil {
		return
	}
	details := map[string]interface{}{
		"kind":     string(ev.Kind),
		"provider": ev.Provider,
		"event_id": ev.ID,
	}
	if c.PlanType != nil {
		details["plan_type"] = *c.PlanType
	}
	if c.Status != nil {
		details["status"] = *c.Status
	}
	if ev.Reason != "" {
		details["reason"] = ev.Reason
	}
	// Failures are logged by the audit service.
	_ = r.audit.Record(ctx, &audit.Entry{
		Action:     audit.ActionSubscriptionChanged,
		TargetType: audit.TargetSubscription,
		TargetID:   strconv.FormatInt(ev.UserID, 10),
		Details:    details,
	})
}

func (r *Reconciler) finish(ev subscription.Event, outcome subscription.Outcome) subscription.Outcome {
	metrics.RecordWebhookEvent(string(ev.Kind), string(outcome))
	return outcome
}

func strPtr(s string) *string { return &s }

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
