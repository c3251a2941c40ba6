package client

import (
	"context"
	"net/http"
)

// Health checks the liveness of the API
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var health HealthResponse
	if err := c.doRequest(ctx, http.MethodGet, "/healthz", nil, &health); err != nil {
		return nil, err
	}
	return &health, nil
}

// Ping is a simple connectivity test
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Health(ctx)
	return err
}

// RateLimit returns the caller's quota for today
func (c *Client) RateLimit(ctx context.Context) (*RateLimit, error) {
	var rl RateLimit
	if err := c.doRequest(ctx, http.MethodGet, "/api/v1/usage/rate-limit", nil, &rl); err != nil {
		return nil, err
	}
	return &rl, nil
}

// UsageHistory returns recent daily usage, newest first
func (c *Client) UsageHistory(ctx context.Context) ([]UsageDay, error) {
	var days []UsageDay
	if err := c.doRequest(ctx, http.MethodGet, "/api/v1/usage/history", nil, &days); err != nil {
		return nil, err
	}
	return days, nil
}
