package model

import "time"

// RequestStatus is the state of an expansion request.
type RequestStatus string

// The states that an expansion request can be in. Every state other than pending is terminal.
const (
	RequestPending   RequestStatus = "pending"
	RequestApproved  RequestStatus = "approved"
	RequestRejected  RequestStatus = "rejected"
	RequestCancelled RequestStatus = "cancelled"
)

// Valid returns true if the status is one of the known request states.
func (s RequestStatus) Valid() bool {
	switch s {
	case RequestPending, RequestApproved, RequestRejected, RequestCancelled:
		return true
	default:
		return false
	}
}

// CanTransitionTo determines whether a request in this state may move to the next state.
func (s RequestStatus) CanTransitionTo(next RequestStatus) bool {
	switch s {
	case RequestPending:
		return next == RequestApproved || next == RequestRejected || next == RequestCancelled
	case RequestApproved, RequestRejected, RequestCancelled:
		return false
	default:
		return false
	}
}

// ExpansionRequest is a request to raise an identity's daily conversion limit.
//
// swagger:model
type ExpansionRequest struct {
	// The request identifier
	//
	// readOnly: true
	ID *string `gorm:"type:uuid;default:uuid_generate_v1()" json:"id,omitempty"`

	// The client IP address that submitted the request
	Identity string `gorm:"column:ip_address;not null;index" json:"-"`

	// The user agent of the client that submitted the request
	UserAgent *string `json:"-"`

	// The email address to send the response to
	ContactEmail string `gorm:"column:email;not null" json:"email"`

	// The name of the requester
	ContactName string `gorm:"column:name;not null" json:"name"`

	// The organization that the requester belongs to
	Organization *string `gorm:"column:company" json:"company,omitempty"`

	// The reason the expansion is needed
	Justification string `gorm:"not null" json:"justification"`

	// The requested daily limit
	RequestedLimit int `gorm:"not null" json:"requested_limit"`

	// The request status
	Status RequestStatus `gorm:"type:text;not null;index" json:"status"`

	// Notes recorded when the request was processed
	AdminNotes *string `json:"admin_notes,omitempty"`

	// The date and time the request was processed
	ProcessedAt *time.Time `json:"processed_at,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name to use the database.
func (r *ExpansionRequest) TableName() string {
	return "expansion_requests"
}

// RequestID returns the request identifier or an empty string if the request hasn't been saved yet.
func (r *ExpansionRequest) RequestID() string {
	if r.ID == nil {
		return ""
	}
	return *r.ID
}

// RequestPage is a single page of an expansion request listing.
//
// swagger:model
type RequestPage struct {
	// The requests on this page
	Requests []ExpansionRequest `json:"requests"`

	// The pagination details
	Pagination Pagination `json:"pagination"`

	// The current daily usage of the requester, if applicable
	CurrentUsage *Usage `json:"current_usage,omitempty"`
}

// RequestStatusReport describes the most recent expansion request submitted by an identity.
//
// swagger:model
type RequestStatusReport struct {
	// The most recent request
	Request ExpansionRequest `json:"request"`

	// The current daily usage of the requester
	CurrentUsage Usage `json:"current_usage"`
}

// ExpansionInfo describes whether and how an identity may request an expansion.
//
// swagger:model
type ExpansionInfo struct {
	// The current daily usage
	CurrentUsage Usage `json:"current_usage"`

	// True if the identity may submit a new request
	CanRequest bool `json:"can_request"`

	// True if the identity already has a pending request
	HasPendingRequest bool `json:"has_pending_request"`

	// True if the identity already has an active expansion
	IsAlreadyExpanded bool `json:"is_already_expanded"`

	// The smallest limit that may be requested
	MinRequestedLimit int `json:"min_requested_limit"`

	// The largest limit that may be requested
	MaxRequestedLimit int `json:"max_requested_limit"`

	// The minimum length of the justification
	MinJustificationLength int `json:"min_justification_length"`

	// The number of days an approved expansion stays in effect
	ExpansionDays int `json:"expansion_days"`
}
