// Package billing adapts Stripe to the subscription domain.
package billing

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v76"
	portalsession "github.com/stripe/stripe-go/v76/billingportal/session"
	"github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/pratik-mahalle/altseo/internal/config"
	"github.com/pratik-mahalle/altseo/internal/domain/subscription"
)

// ProviderName identifies Stripe in event logs and audit entries
const ProviderName = "stripe"

// MetadataUserID is the metadata key that carries our user ID through Stripe
const MetadataUserID = "user_id"

var (
	// ErrInvalidSignature means the Stripe-Signature header did not verify
	ErrInvalidSignature = stderrors.New("invalid webhook signature")
	// ErrMalformed means a verified event could not be decoded
	ErrMalformed = stderrors.New("malformed webhook event")
	// ErrNotConfigured means the Stripe keys are missing
	ErrNotConfigured = stderrors.New("stripe is not configured")
)

// CheckoutSession is the part of a Stripe checkout session the client needs
type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// StripeClient creates checkout sessions and verifies webhooks
type StripeClient struct {
	cfg config.BillingConfig
}

// NewStripeClient creates a client and installs the secret key
func NewStripeClient(cfg config.BillingConfig) *StripeClient {
	if cfg.StripeSecretKey != "" {
		stripe.Key = cfg.StripeSecretKey
	}
	return &StripeClient{cfg: cfg}
}

// CheckoutEnabled reports whether checkout sessions can be created
func (c *StripeClient) CheckoutEnabled() bool {
	return c.cfg.StripeSecretKey != "" && c.cfg.StripeProPriceID != ""
}

// CreateCheckoutSession starts a subscription checkout for the pro plan.
// The user ID is attached to the session and to the subscription it creates.
func (c *StripeClient) CreateCheckoutSession(ctx context.Context, userID int64, email string) (*CheckoutSession, error) {
	if !c.CheckoutEnabled() {
		return nil, ErrNotConfigured
	}

	uid := strconv.FormatInt(userID, 10)
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		SuccessURL:        stripe.String(c.cfg.SuccessURL),
		CancelURL:         stripe.String(c.cfg.CancelURL),
		ClientReferenceID: stripe.String(uid),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(c.cfg.StripeProPriceID),
				Quantity: stripe.Int64(1),
			},
		},
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{MetadataUserID: uid},
		},
	}
	if email != "" {
		params.CustomerEmail = stripe.String(email)
	}
	params.AddMetadata(MetadataUserID, uid)
	params.Context = ctx

	sess, err := session.New(params)
	if err != nil {
		return nil, err
	}
	return &CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

// CreatePortalSession opens the Stripe billing portal for a customer
func (c *StripeClient) CreatePortalSession(ctx context.Context, customerID string) (string, error) {
	if c.cfg.StripeSecretKey == "" {
		return "", ErrNotConfigured
	}
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(c.cfg.PortalReturnURL),
	}
	params.Context = ctx

	sess, err := portalsession.New(params)
	if err != nil {
		return "", err
	}
	return sess.URL, nil
}

// ParseWebhook verifies the payload signature and translates the event.
// A nil event with a nil error means the event type is not handled.
func (c *StripeClient) ParseWebhook(payload []byte, sigHeader string) (*subscription.Event, error) {
	if c.cfg.StripeWebhookSecret == "" {
		return nil, ErrNotConfigured
	}
	event, err := webhook.ConstructEventWithOptions(payload, sigHeader, c.cfg.StripeWebhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true},
	)
	if err != nil {
		if isSignatureError(err) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return Translate(event)
}

func isSignatureError(err error) bool {
	return stderrors.Is(err, webhook.ErrInvalidHeader) ||
		stderrors.Is(err, webhook.ErrNoValidSignature) ||
		stderrors.Is(err, webhook.ErrNotSigned) ||
		stderrors.Is(err, webhook.ErrTooOld)
}

// Translate maps a verified Stripe event onto a subscription event.
// Unhandled types return nil, nil.
func Translate(event stripe.Event) (*subscription.Event, error) {
	ev := &subscription.Event{
		ID:         event.ID,
		Provider:   ProviderName,
		OccurredAt: time.Unix(event.Created, 0),
	}
	if event.Created == 0 {
		ev.OccurredAt = time.Time{}
	}

	switch string(event.Type) {
	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := unmarshal(event, &sess); err != nil {
			return nil, err
		}
		ev.Kind = subscription.EventCheckoutCompleted
		ev.UserID = userIDFrom(sess.Metadata)
		if ev.UserID == 0 {
			ev.UserID = parseUserID(sess.ClientReferenceID)
		}
		ev.CustomerID = customerID(sess.Customer)
		ev.Status = string(sess.Status)

	case "customer.subscription.created":
		sub, err := subscriptionOf(event)
		if err != nil {
			return nil, err
		}
		// incomplete subscriptions are granted by the updated event that
		// follows a finished payment
		if sub.Status != stripe.SubscriptionStatusActive && sub.Status != stripe.SubscriptionStatusTrialing {
			return nil, nil
		}
		fillFromSubscription(ev, sub)
		ev.Kind = subscription.EventGrantAccess

	case "customer.subscription.resumed":
		sub, err := subscriptionOf(event)
		if err != nil {
			return nil, err
		}
		fillFromSubscription(ev, sub)
		ev.Kind = subscription.EventGrantAccess

	case "customer.subscription.updated":
		sub, err := subscriptionOf(event)
		if err != nil {
			return nil, err
		}
		fillFromSubscription(ev, sub)
		switch {
		case sub.Status == stripe.SubscriptionStatusIncompleteExpired:
			ev.Kind = subscription.EventSubscriptionExpired
		case sub.Status == stripe.SubscriptionStatusPaused:
			ev.Kind = subscription.EventSubscriptionPaused
		case sub.CancelAtPeriodEnd:
			ev.Kind = subscription.EventSubscriptionCanceled
		default:
			ev.Kind = subscription.EventSubscriptionUpdated
		}

	case "customer.subscription.paused":
		sub, err := subscriptionOf(event)
		if err != nil {
			return nil, err
		}
		fillFromSubscription(ev, sub)
		ev.Kind = subscription.EventSubscriptionPaused

	case "customer.subscription.deleted":
		sub, err := subscriptionOf(event)
		if err != nil {
			return nil, err
		}
		fillFromSubscription(ev, sub)
		ev.Kind = subscription.EventRevokeAccess
		ev.Reason = "subscription_expired"
		ev.Status = subscription.StatusExpired

	case "invoice.paid":
		inv, err := invoiceOf(event)
		if err != nil {
			return nil, err
		}
		fillFromInvoice(ev, inv)
		ev.Kind = subscription.EventSubscriptionPaid
		ev.Status = subscription.StatusActive

	case "invoice.payment_failed":
		inv, err := invoiceOf(event)
		if err != nil {
			return nil, err
		}
		fillFromInvoice(ev, inv)
		ev.Kind = subscription.EventRevokeAccess
		ev.Reason = "payment_failed"
		ev.Status = "past_due"

	default:
		return nil, nil
	}

	return ev, nil
}

func unmarshal(event stripe.Event, v interface{}) error {
	if event.Data == nil {
		return fmt.Errorf("%w: event %s has no data", ErrMalformed, event.ID)
	}
	if err := json.Unmarshal(event.Data.Raw, v); err != nil {
		return fmt.Errorf("%w: decode %s payload: %v", ErrMalformed, event.Type, err)
	}
	return nil
}

func subscriptionOf(event stripe.Event) (*stripe.Subscription, error) {
	var sub stripe.Subscription
	if err := unmarshal(event, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

func invoiceOf(event stripe.Event) (*stripe.Invoice, error) {
	var inv stripe.Invoice
	if err := unmarshal(event, &inv); err != nil {
		return nil, err
	}
	return &inv, nil
}

func fillFromSubscription(ev *subscription.Event, sub *stripe.Subscription) {
	ev.UserID = userIDFrom(sub.Metadata)
	ev.CustomerID = customerID(sub.Customer)
	ev.Status = string(sub.Status)
}

func fillFromInvoice(ev *subscription.Event, inv *stripe.Invoice) {
	if inv.SubscriptionDetails != nil {
		ev.UserID = userIDFrom(inv.SubscriptionDetails.Metadata)
	}
	if ev.UserID == 0 && inv.Subscription != nil {
		ev.UserID = userIDFrom(inv.Subscription.Metadata)
	}
	if ev.UserID == 0 {
		ev.UserID = userIDFrom(inv.Metadata)
	}
	ev.CustomerID = customerID(inv.Customer)
}

func customerID(c *stripe.Customer) string {
	if c == nil {
		return ""
	}
	return c.ID
}

func userIDFrom(metadata map[string]string) int64 {
	if metadata == nil {
		return 0
	}
	return parseUserID(metadata[MetadataUserID])
}

func parseUserID(s string) int64 {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id < 0 {
		return 0
	}
	return id
}
