package httpmodel

import (
	"fmt"
	"strings"

	"github.com/cyverse/pdfa/internal/expansion"
	"github.com/go-playground/validator/v10"
)

// Note: the names in the comments may deviate a bit from the actual structure names in order to avoid producing
// confusing Swagger docs.

var validate = validator.New()

// validationMessage converts the first validation failure into a message that can be shown to a client.
func validationMessage(err error) error {
	if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Errorf("invalid value for %s: failed the %s check", strings.ToLower(fe.Field()), fe.Tag())
	}
	return err
}

// NewExpansionRequest
//
// swagger:model
type NewExpansionRequest struct {

	// The email address to send the response to
	//
	// required: true
	Email string `json:"email" validate:"required,email,max=255"`

	// The name of the requester
	//
	// required: true
	Name string `json:"name" validate:"required,max=255"`

	// The organization that the requester belongs to
	Company string `json:"company" validate:"max=255"`

	// The reason the expansion is needed
	//
	// required: true
	Justification string `json:"justification" validate:"required"`

	// The requested daily limit
	//
	// required: true
	RequestedLimit int `json:"requested_limit" validate:"required,gt=0"`
}

// Validate verifies that the shape of an expansion request is correct. The limits that depend on the service
// configuration are checked when the request is submitted.
func (r NewExpansionRequest) Validate() error {
	return validationMessage(validate.Struct(r))
}

// ToSubmission converts the request body to an expansion request submission.
func (r NewExpansionRequest) ToSubmission(userAgent string) expansion.Submission {
	return expansion.Submission{
		Email:          r.Email,
		Name:           r.Name,
		Organization:   r.Company,
		Justification:  r.Justification,
		RequestedLimit: r.RequestedLimit,
		UserAgent:      userAgent,
	}
}

// AdminDecision
//
// swagger:model
type AdminDecision struct {

	// Notes to record with the decision
	Notes string `json:"admin_notes" validate:"max=1000"`
}

// Validate verifies that an administrative decision is valid.
func (d AdminDecision) Validate() error {
	return validationMessage(validate.Struct(d))
}

// UsageCheck
//
// swagger:model
type UsageCheck struct {

	// The number of files the client intends to convert
	FileCount int `json:"file_count" validate:"gte=0,lte=1000"`
}

// Validate verifies that a usage check is valid.
func (c UsageCheck) Validate() error {
	return validationMessage(validate.Struct(c))
}

// Count returns the number of files to check, treating a missing count as a single file.
func (c UsageCheck) Count() int {
	if c.FileCount < 1 {
		return 1
	}
	return c.FileCount
}

// EstimateRequest
//
// swagger:model
type EstimateRequest struct {

	// The size of the file in bytes
	//
	// required: true
	FileSize int64 `json:"file_size" validate:"required,gt=0"`
}

// Validate verifies that an estimate request is valid.
func (r EstimateRequest) Validate() error {
	return validationMessage(validate.Struct(r))
}
