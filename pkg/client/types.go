package client

import "time"

// User represents a user in the system
type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username,omitempty"`
	FullName  *string   `json:"full_name,omitempty"`
	Role      string    `json:"role"`
	PlanType  string    `json:"plan_type"`
	CreatedAt time.Time `json:"created_at"`
}

// Image is an uploaded image and its ALT text
type Image struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"user_id"`
	Filename      string    `json:"filename"`
	PublicURL     string    `json:"publicUrl"`
	ContentType   string    `json:"content_type"`
	SizeBytes     int64     `json:"size_bytes"`
	Width         int       `json:"width"`
	Height        int       `json:"height"`
	AltText       string    `json:"alt_text"`
	AltTextStatus string    `json:"alt_text_status"` // generated, failed, edited
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// RateLimit is the caller's quota for the current UTC day
type RateLimit struct {
	Remaining  int       `json:"remaining"` // 0 when unlimited
	Limit      int       `json:"limit"`     // -1 when unlimited
	CanProceed bool      `json:"canProceed"`
	Plan       string    `json:"plan"`
	Unlimited  bool      `json:"unlimited"`
	Used       int       `json:"used"`
	ResetsAt   time.Time `json:"resetsAt"`
}

// UsageDay is one day of the usage history
type UsageDay struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
}

// Plan is an entry of the plan catalogue
type Plan struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Price      float64  `json:"price"`
	Currency   string   `json:"currency"`
	Interval   string   `json:"interval"`
	DailyLimit int      `json:"dailyLimit"`
	MaxUpload  int64    `json:"maxUploadBytes"`
	Features   []string `json:"features"`
	IsCurrent  bool     `json:"isCurrent"`
}

// Subscription is the caller's subscription record
type Subscription struct {
	PlanType    string     `json:"planType"`
	Status      string     `json:"status"`
	HasCustomer bool       `json:"hasCustomer"`
	LastEventAt *time.Time `json:"lastEventAt,omitempty"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// CheckoutSession carries a hosted payment page URL
type CheckoutSession struct {
	SessionID string `json:"sessionId,omitempty"`
	URL       string `json:"url"`
}

// UpgradeResult reports a demo upgrade
type UpgradeResult struct {
	PlanType string `json:"planType"`
	Status   string `json:"status"`
	Outcome  string `json:"outcome"`
}

// AuditEntry is one audit log record
type AuditEntry struct {
	ID         int64                  `json:"id"`
	ActorID    *int64                 `json:"actor_id,omitempty"`
	Action     string                 `json:"action"`
	TargetType string                 `json:"target_type"`
	TargetID   string                 `json:"target_id"`
	Details    map[string]interface{} `json:"details,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
}

// ListOptions contains common options for list operations
type ListOptions struct {
	Page     int `json:"page,omitempty"`      // Page number (1-based)
	PageSize int `json:"page_size,omitempty"` // Items per page
}

// Page is a paginated list response
type Page[T any] struct {
	Data       []T   `json:"data"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}
