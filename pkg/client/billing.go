package client

import (
	"context"
	"net/http"
)

// BillingService handles plan and subscription endpoints
type BillingService struct {
	client *Client
}

// Plans lists the plan catalogue with the caller's current plan marked
func (s *BillingService) Plans(ctx context.Context) ([]Plan, error) {
	var plans []Plan
	if err := s.client.doRequest(ctx, http.MethodGet, "/api/v1/billing/plans", nil, &plans); err != nil {
		return nil, err
	}
	return plans, nil
}

// Subscription returns the caller's subscription record
func (s *BillingService) Subscription(ctx context.Context) (*Subscription, error) {
	var sub Subscription
	if err := s.client.doRequest(ctx, http.MethodGet, "/api/v1/billing/subscription", nil, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

// Checkout opens a hosted checkout session for the pro plan
func (s *BillingService) Checkout(ctx context.Context) (*CheckoutSession, error) {
	var sess CheckoutSession
	if err := s.client.doRequest(ctx, http.MethodPost, "/api/v1/billing/checkout", nil, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// Portal opens the billing portal for an existing customer
func (s *BillingService) Portal(ctx context.Context) (*CheckoutSession, error) {
	var sess CheckoutSession
	if err := s.client.doRequest(ctx, http.MethodPost, "/api/v1/billing/portal", nil, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// Upgrade grants pro without payment when the server allows demo upgrades
func (s *BillingService) Upgrade(ctx context.Context) (*UpgradeResult, error) {
	var res UpgradeResult
	if err := s.client.doRequest(ctx, http.MethodPost, "/api/v1/billing/upgrade", nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
