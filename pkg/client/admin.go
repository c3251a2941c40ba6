package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// AdminService handles user and audit administration
type AdminService struct {
	client *Client
}

// AuditListOptions filters the audit log
type AuditListOptions struct {
	ListOptions
	Action   string
	ActorID  int64
	TargetID string
}

// Users lists registered users
func (s *AdminService) Users(ctx context.Context, opts *ListOptions) (*Page[User], error) {
	path := "/api/v1/admin/users" + pageQuery(opts, nil)

	var page Page[User]
	if err := s.client.doRequest(ctx, http.MethodGet, path, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// SetRole changes another user's role
func (s *AdminService) SetRole(ctx context.Context, userID int64, role string) (*User, error) {
	body := map[string]string{"role": role}
	var user User
	if err := s.client.doRequest(ctx, http.MethodPut, fmt.Sprintf("/api/v1/admin/users/%d/role", userID), body, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// AuditLogs lists audit entries, newest first
func (s *AdminService) AuditLogs(ctx context.Context, opts *AuditListOptions) (*Page[AuditEntry], error) {
	var base *ListOptions
	params := url.Values{}
	if opts != nil {
		base = &opts.ListOptions
		if opts.Action != "" {
			params.Set("action", opts.Action)
		}
		if opts.ActorID > 0 {
			params.Set("actor_id", strconv.FormatInt(opts.ActorID, 10))
		}
		if opts.TargetID != "" {
			params.Set("target_id", opts.TargetID)
		}
	}

	var page Page[AuditEntry]
	if err := s.client.doRequest(ctx, http.MethodGet, "/api/v1/admin/audit-logs"+pageQuery(base, params), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func pageQuery(opts *ListOptions, params url.Values) string {
	if params == nil {
		params = url.Values{}
	}
	if opts != nil {
		if opts.Page > 0 {
			params.Set("page", strconv.Itoa(opts.Page))
		}
		if opts.PageSize > 0 {
			params.Set("page_size", strconv.Itoa(opts.PageSize))
		}
	}
	if len(params) == 0 {
		return ""
	}
	return "?" + params.Encode()
}
