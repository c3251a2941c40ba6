package subscription

import (
	"strings"
	"time"
)

// Plans
const (
	PlanFree = "free"
	PlanPro  = "pro"
)

// Provider statuses written by the reconciler when the event does not carry one
const (
	StatusActive   = "active"
	StatusCanceled = "canceled"
	StatusExpired  = "expired"
	StatusPaused   = "paused"
)

// Record is the persisted subscription state of a user
type Record struct {
	UserID             int64     `json:"user_id"`
	PlanType           string    `json:"plan_type"`
	SubscriptionStatus string    `json:"subscription_status"`
	ExternalCustomerID *string   `json:"external_customer_id,omitempty"`
	LastEventAt        time.Time `json:"last_event_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// IsPro reports whether the record grants the paid plan
func (r *Record) IsPro() bool {
	return r != nil && r.PlanType == PlanPro
}

// EventKind enumerates the payment lifecycle events the reconciler understands
type EventKind string

const (
	EventGrantAccess          EventKind = "grant-access"
	EventRevokeAccess         EventKind = "revoke-access"
	EventSubscriptionPaid     EventKind = "subscription-paid"
	EventSubscriptionCanceled EventKind = "subscription-canceled"
	EventSubscriptionExpired  EventKind = "subscription-expired"
	EventSubscriptionPaused   EventKind = "subscription-paused"
	EventSubscriptionUpdated  EventKind = "subscription-updated"
	EventCheckoutCompleted    EventKind = "checkout-completed"
)

// Valid reports whether k is a known kind
func (k EventKind) Valid() bool {
	switch k {
	case EventGrantAccess, EventRevokeAccess, EventSubscriptionPaid, EventSubscriptionCanceled,
		EventSubscriptionExpired, EventSubscriptionPaused, EventSubscriptionUpdated, EventCheckoutCompleted:
		return true
	}
	return false
}

// Event is a provider-neutral subscription lifecycle event
type Event struct {
	ID         string    // provider event ID, used for duplicate detection
	Provider   string    // e.g. "stripe", "demo"
	Kind       EventKind
	UserID     int64 // 0 when the provider payload carried no user metadata
	CustomerID string
	Status     string
	Reason     string // revoke-access only
	OccurredAt time.Time
}

// RevokesPlan reports whether a revoke-access reason means the subscription has ended
func RevokesPlan(reason string) bool {
	switch strings.ToLower(strings.TrimSpace(reason)) {
	case "subscription_expired", "expired", "subscription_ended":
		return true
	}
	return false
}

// Change is a single overwrite of a subscription record. Nil fields keep their stored value.
type Change struct {
	UserID     int64
	PlanType   *string
	Status     *string
	CustomerID *string
	EventAt    time.Time
}

// Outcome describes what Dispatch did with an event
type Outcome string

const (
	OutcomeApplied   Outcome = "applied"
	OutcomeLogged    Outcome = "logged"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeStale     Outcome = "stale"
	OutcomeIgnored   Outcome = "ignored"
	OutcomeFailed    Outcome = "failed"
)

// ProcessedEvent is a row of the webhook dedupe log
type ProcessedEvent struct {
	EventID     string
	Provider    string
	Kind        EventKind
	UserID      int64
	Outcome     Outcome
	ProcessedAt time.Time
}
