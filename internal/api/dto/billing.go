package dto

import "time"

// PlanDTO represents a subscription plan
type PlanDTO struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Price      float64  `json:"price"`
	Currency   string   `json:"currency"`
	Interval   string   `json:"interval"`
	DailyLimit int      `json:"dailyLimit"` // -1 for unlimited
	MaxUpload  int64    `json:"maxUploadBytes"`
	Features   []string `json:"features"`
	IsCurrent  bool     `json:"isCurrent"`
}

// SubscriptionDTO is the caller's subscription record
type SubscriptionDTO struct {
	PlanType    string     `json:"planType"`
	Status      string     `json:"status"`
	HasCustomer bool       `json:"hasCustomer"`
	LastEventAt *time.Time `json:"lastEventAt,omitempty"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// CheckoutResponse carries the hosted payment page URL
type CheckoutResponse struct {
	SessionID string `json:"sessionId,omitempty"`
	URL       string `json:"url"`
}

// UpgradeResponse reports the result of a demo upgrade
type UpgradeResponse struct {
	PlanType string `json:"planType"`
	Status   string `json:"status"`
	Outcome  string `json:"outcome"`
}
