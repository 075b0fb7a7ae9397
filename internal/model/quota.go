package model

import "time"

// DayOf returns the UTC calendar date containing the given time, expressed as midnight UTC.
func DayOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DayKey formats the UTC calendar date containing the given time.
func DayKey(t time.Time) string {
	return DayOf(t).Format(time.DateOnly)
}

// QuotaRecord tracks the conversions performed by a single identity on a single UTC calendar day along with the
// limit in effect for that day.
//
// swagger:model
type QuotaRecord struct {
	// The quota record identifier
	//
	// readOnly: true
	ID *string `gorm:"type:uuid;default:uuid_generate_v1()" json:"id,omitempty"`

	// The client IP address that the record applies to
	Identity string `gorm:"column:ip_address;not null;index:daily_usages_ip_address_usage_date,unique" json:"ip_address"`

	// The UTC calendar date that the record applies to
	Day time.Time `gorm:"column:usage_date;type:date;not null;index:daily_usages_ip_address_usage_date,unique" json:"usage_date"`

	// The number of successful conversions performed on this day
	Consumed int `gorm:"column:conversions_count;not null;default:0" json:"conversions_count"`

	// The maximum number of conversions allowed on this day
	Limit int `gorm:"column:daily_limit;not null" json:"daily_limit"`

	// True if the limit has been raised by an approved expansion request
	Expanded bool `gorm:"column:is_expanded;not null;default:false" json:"is_expanded"`

	// The date and time the expansion was applied
	ExpandedAt *time.Time `gorm:"column:expanded_at" json:"expanded_at,omitempty"`

	// The date and time the expansion expires
	ExpiresAt *time.Time `gorm:"column:expansion_expires_at" json:"expansion_expires_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name to use the database.
func (r *QuotaRecord) TableName() string {
	return "daily_usages"
}

// Remaining returns the number of conversions still available on the record's day.
func (r *QuotaRecord) Remaining() int {
	if remaining := r.Limit - r.Consumed; remaining > 0 {
		return remaining
	}
	return 0
}

// ExpansionActive returns true if the record carries an expansion that hasn't expired at the given time.
func (r *QuotaRecord) ExpansionActive(now time.Time) bool {
	return r.Expanded && r.ExpiresAt != nil && !r.ExpiresAt.Before(now)
}

// ExpansionExpired returns true if the record carries an expansion whose expiration time has passed.
func (r *QuotaRecord) ExpansionExpired(now time.Time) bool {
	return r.Expanded && r.ExpiresAt != nil && r.ExpiresAt.Before(now)
}

// ApplyExpansion raises the limit on the record until the given expiration time.
func (r *QuotaRecord) ApplyExpansion(limit int, at, expiresAt time.Time) {
	r.Limit = limit
	r.Expanded = true
	r.ExpandedAt = &at
	r.ExpiresAt = &expiresAt
}

// ClearExpansion restores the default limit on the record.
func (r *QuotaRecord) ClearExpansion(defaultLimit int) {
	r.Limit = defaultLimit
	r.Expanded = false
	r.ExpandedAt = nil
	r.ExpiresAt = nil
}
