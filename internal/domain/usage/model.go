package usage

import "time"

// Unlimited is the limit reported for plans without a daily ceiling
const Unlimited = -1

// DayLayout formats a UTC calendar day
const DayLayout = "2006-01-02"

// Counter is the number of billable generations a user made on one day
type Counter struct {
	UserID    int64     `json:"user_id"`
	Day       string    `json:"day"`
	Count     int       `json:"count"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RateLimitResult is the quota view of a user for the current day
type RateLimitResult struct {
	Remaining  int       `json:"remaining"`
	Limit      int       `json:"limit"`
	CanProceed bool      `json:"canProceed"`
	Plan       string    `json:"plan"`
	Unlimited  bool      `json:"unlimited"`
	Used       int       `json:"used"`
	ResetsAt   time.Time `json:"resetsAt"`
}

// LimitDetails is attached to RATE_LIMITED errors
type LimitDetails struct {
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	ResetsAt  time.Time `json:"resetsAt"`
}

// ResetTime is when the limit lifts
func (d LimitDetails) ResetTime() time.Time { return d.ResetsAt }

// DayOf returns the UTC calendar day of t
func DayOf(t time.Time) string {
	return t.UTC().Format(DayLayout)
}

// NextReset returns the start of the UTC day after t
func NextReset(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, time.UTC)
}

// Compute derives the result for a plan limit and the day's count.
// A negative limit means the plan is unlimited; Remaining is then 0 and
// Unlimited is set.
func Compute(plan string, limit, count int, resetsAt time.Time) *RateLimitResult {
	if limit < 0 {
		return &RateLimitResult{
			Remaining:  0,
			Limit:      Unlimited,
			CanProceed: true,
			Plan:       plan,
			Unlimited:  true,
			Used:       count,
			ResetsAt:   resetsAt,
		}
	}
	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}
	return &RateLimitResult{
		Remaining:  remaining,
		Limit:      limit,
		CanProceed: count < limit,
		Plan:       plan,
		Used:       count,
		ResetsAt:   resetsAt,
	}
}
