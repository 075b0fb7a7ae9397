package model

import (
	"testing"
	"time"

	"github.com/pkg/errors"
)

func TestDayOf(t *testing.T) {
	loc := time.FixedZone("UTC-3", -3*60*60)
	at := time.Date(2025, 8, 27, 22, 30, 0, 0, loc)
	want := time.Date(2025, 8, 28, 0, 0, 0, 0, time.UTC)
	if got := DayOf(at); !got.Equal(want) {
		t.Fatalf("DayOf(%s) = %s, want %s", at, got, want)
	}
	if got := DayKey(at); got != "2025-08-28" {
		t.Fatalf("DayKey(%s) = %s", at, got)
	}
}

func TestJobStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to JobStatus
		want     bool
	}{
		{JobPending, JobProcessing, true},
		{JobPending, JobFailed, true},
		{JobProcessing, JobCompleted, true},
		{JobProcessing, JobFailed, true},
		{JobProcessing, JobPending, false},
		{JobCompleted, JobFailed, false},
		{JobFailed, JobCompleted, false},
		{JobCompleted, JobCompleted, false},
		{JobStatus("bogus"), JobCompleted, false},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
			t.Errorf("%s -> %s: got %t, want %t", tt.from, tt.to, got, tt.want)
		}
	}
	if JobProcessing.Terminal() || !JobFailed.Terminal() || !JobCompleted.Terminal() {
		t.Fatalf("unexpected terminal states")
	}
}

func TestRequestStatusTransitions(t *testing.T) {
	for _, next := range []RequestStatus{RequestApproved, RequestRejected, RequestCancelled} {
		if !RequestPending.CanTransitionTo(next) {
			t.Errorf("pending should be able to move to %s", next)
		}
		for _, after := range []RequestStatus{RequestPending, RequestApproved, RequestRejected, RequestCancelled} {
			if next.CanTransitionTo(after) {
				t.Errorf("%s is terminal but allowed a move to %s", next, after)
			}
		}
	}
}

func TestQuotaRecordExpansion(t *testing.T) {
	now := time.Date(2025, 8, 27, 12, 0, 0, 0, time.UTC)
	r := QuotaRecord{Limit: 10, Consumed: 4}
	if r.Remaining() != 6 {
		t.Fatalf("expected 6 remaining, got %d", r.Remaining())
	}

	r.ApplyExpansion(50, now, now.AddDate(0, 0, 30))
	if !r.ExpansionActive(now) || r.ExpansionExpired(now) {
		t.Fatalf("expansion should be active")
	}
	if r.ExpansionExpired(now.AddDate(0, 0, 31)) != true {
		t.Fatalf("expansion should have expired")
	}

	r.ClearExpansion(10)
	if r.Expanded || r.ExpiresAt != nil || r.ExpandedAt != nil || r.Limit != 10 {
		t.Fatalf("expansion not cleared: %+v", r)
	}

	r.Consumed = 12
	if r.Remaining() != 0 {
		t.Fatalf("remaining must never be negative, got %d", r.Remaining())
	}
}

func TestUsageFromRecord(t *testing.T) {
	u := UsageFromRecord(&QuotaRecord{Identity: "192.0.2.1", Limit: 10, Consumed: 8})
	if u.Remaining != 2 || u.UsagePercentage != 80 || !u.NearLimit || u.AtLimit {
		t.Fatalf("unexpected usage: %+v", u)
	}
	u = UsageFromRecord(&QuotaRecord{Limit: 3, Consumed: 1})
	if u.UsagePercentage != 33.33 {
		t.Fatalf("expected 33.33%%, got %v", u.UsagePercentage)
	}
}

func TestNewPagination(t *testing.T) {
	p := NewPagination(2, 15, 31)
	if p.LastPage != 3 || p.CurrentPage != 2 || p.PerPage != 15 || p.Total != 31 {
		t.Fatalf("unexpected pagination: %+v", p)
	}
	if NewPagination(1, 15, 0).LastPage != 1 {
		t.Fatalf("an empty listing should still have one page")
	}
	if Offset(3, 10) != 20 || Offset(0, 10) != 0 {
		t.Fatalf("unexpected offsets")
	}
}

func TestErrorMatching(t *testing.T) {
	err := errors.Wrap(&QuotaExceededError{Requested: 3, Remaining: 2, Limit: 10}, "unable to convert")
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("wrapped quota errors should match ErrQuotaExceeded")
	}
	var qe *QuotaExceededError
	if !errors.As(err, &qe) || qe.Remaining != 2 {
		t.Fatalf("expected to extract the quota error")
	}
	if !errors.Is(NewValidationError("justification", "too short"), ErrValidation) {
		t.Fatalf("validation errors should match ErrValidation")
	}
}
