package httpmodel

import (
	"strings"
	"testing"
)

func TestNewExpansionRequestValidate(t *testing.T) {
	valid := NewExpansionRequest{
		Email:          "someone@example.org",
		Name:           "Someone",
		Justification:  strings.Repeat("x", 60),
		RequestedLimit: 40,
	}

	tests := []struct {
		name    string
		modify  func(r *NewExpansionRequest)
		wantErr bool
	}{
		{name: "valid", modify: func(r *NewExpansionRequest) {}},
		{name: "missing email", modify: func(r *NewExpansionRequest) { r.Email = "" }, wantErr: true},
		{name: "bad email", modify: func(r *NewExpansionRequest) { r.Email = "nope" }, wantErr: true},
		{name: "missing name", modify: func(r *NewExpansionRequest) { r.Name = "" }, wantErr: true},
		{name: "long company", modify: func(r *NewExpansionRequest) { r.Company = strings.Repeat("c", 256) }, wantErr: true},
		{name: "missing limit", modify: func(r *NewExpansionRequest) { r.RequestedLimit = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid
			tt.modify(&r)
			err := r.Validate()
			if tt.wantErr && err == nil {
				t.Fatalf("expected a validation error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidationMessageNamesTheField(t *testing.T) {
	err := NewExpansionRequest{Name: "x", Justification: "y", RequestedLimit: 1}.Validate()
	if err == nil || !strings.Contains(err.Error(), "email") {
		t.Fatalf("expected the message to name the email field, got %v", err)
	}
}

func TestToSubmission(t *testing.T) {
	r := NewExpansionRequest{Email: "a@example.org", Name: "A", Company: "Lab", Justification: "j", RequestedLimit: 20}
	s := r.ToSubmission("curl/8.0")
	if s.Organization != "Lab" || s.UserAgent != "curl/8.0" || s.RequestedLimit != 20 {
		t.Fatalf("unexpected submission: %+v", s)
	}
}

func TestUsageCheckCount(t *testing.T) {
	if (UsageCheck{}).Count() != 1 {
		t.Fatalf("expected a missing count to mean one file")
	}
	if (UsageCheck{FileCount: 4}).Count() != 4 {
		t.Fatalf("expected the provided count")
	}
	if (UsageCheck{FileCount: -1}).Validate() == nil {
		t.Fatalf("expected negative counts to be rejected")
	}
}

func TestEstimateRequestValidate(t *testing.T) {
	if (EstimateRequest{}).Validate() == nil {
		t.Fatalf("expected a missing size to be rejected")
	}
	if err := (EstimateRequest{FileSize: 2048}).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
