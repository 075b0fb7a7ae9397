package model

import "time"

// NearLimitPercentage is the usage percentage at or above which an identity is considered to be close to its limit.
const NearLimitPercentage = 80.0

// Usage summarizes the quota state of an identity for the current day.
//
// swagger:model
type Usage struct {
	// The client IP address
	Identity string `json:"ip_address"`

	// The UTC calendar date that the summary applies to
	Day string `json:"usage_date"`

	// The maximum number of conversions allowed today
	DailyLimit int `json:"daily_limit"`

	// The number of conversions performed today
	ConversionsUsed int `json:"conversions_used_today"`

	// The number of conversions still available today
	Remaining int `json:"remaining_conversions"`

	// True if the limit has been raised by an approved expansion request
	Expanded bool `json:"is_expanded"`

	// The date and time the expansion expires
	ExpiresAt *time.Time `json:"expansion_expires_at,omitempty"`

	// The percentage of the daily limit that has been used
	UsagePercentage float64 `json:"usage_percentage"`

	// True if at least NearLimitPercentage of the daily limit has been used
	NearLimit bool `json:"is_near_limit"`

	// True if the daily limit has been reached
	AtLimit bool `json:"is_at_limit"`
}

// UsageFromRecord summarizes a quota record.
func UsageFromRecord(r *QuotaRecord) Usage {
	var pct float64
	if r.Limit > 0 {
		pct = float64(int(float64(r.Consumed)/float64(r.Limit)*10000+0.5)) / 100
	}
	return Usage{
		Identity:        r.Identity,
		Day:             r.Day.Format(time.DateOnly),
		DailyLimit:      r.Limit,
		ConversionsUsed: r.Consumed,
		Remaining:       r.Remaining(),
		Expanded:        r.Expanded,
		ExpiresAt:       r.ExpiresAt,
		UsagePercentage: pct,
		NearLimit:       pct >= NearLimitPercentage,
		AtLimit:         r.Consumed >= r.Limit,
	}
}
