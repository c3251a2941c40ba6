package audit

import "time"

// Actions
const (
	ActionRoleChanged         = "user.role_changed"
	ActionSubscriptionChanged = "subscription.changed"
	ActionUserRegistered      = "user.registered"
	ActionImageDeleted        = "image.deleted"
)

// Target types
const (
	TargetUser         = "user"
	TargetSubscription = "subscription"
	TargetImage        = "image"
)

// Entry is one audit log record. ActorID is nil for system and webhook actions.
type Entry struct {
	ID         int64                  `json:"id"`
	ActorID    *int64                 `json:"actor_id,omitempty"`
	Action     string                 `json:"action"`
	TargetType string                 `json:"target_type"`
	TargetID   string                 `json:"target_id"`
	Details    map[string]interface{} `json:"details,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
}

// Filter narrows List queries
type Filter struct {
	Action   string
	ActorID  *int64
	TargetID string
}
