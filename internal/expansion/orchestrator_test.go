package expansion_test

import (
	"context"
	"testing"

	"github.com/cyverse/pdfa/internal/model"
	"github.com/pkg/errors"
)

func TestStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.orch.Status(ctx, requester); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected a not found error, got %v", err)
	}

	req, err := f.orch.Submit(ctx, requester, validSubmission())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	report, err := f.orch.Status(ctx, requester)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Request.RequestID() != req.RequestID() || report.CurrentUsage.DailyLimit != 10 {
		t.Fatalf("unexpected status report: %+v", report)
	}
}

func TestHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, _ := f.orch.Submit(ctx, requester, validSubmission())
	if _, err := f.workflow.Reject(ctx, first.RequestID(), ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, _ := f.orch.Submit(ctx, requester, validSubmission())

	page, err := f.orch.History(ctx, requester, 1, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.Pagination.Total != 2 || page.Requests[0].RequestID() != second.RequestID() {
		t.Fatalf("unexpected history: %+v", page)
	}
	if page.CurrentUsage == nil || page.CurrentUsage.Remaining != 10 {
		t.Fatalf("expected the current usage to be included: %+v", page.CurrentUsage)
	}
}

func TestInfo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	info, err := f.orch.Info(ctx, requester)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !info.CanRequest || info.HasPendingRequest || info.IsAlreadyExpanded {
		t.Fatalf("unexpected info for a new identity: %+v", info)
	}
	if info.MinRequestedLimit != 11 || info.MaxRequestedLimit != 10000 || info.MinJustificationLength != 50 {
		t.Fatalf("unexpected request bounds: %+v", info)
	}

	req, _ := f.orch.Submit(ctx, requester, validSubmission())
	info, _ = f.orch.Info(ctx, requester)
	if info.CanRequest || !info.HasPendingRequest {
		t.Fatalf("unexpected info with a pending request: %+v", info)
	}

	if _, err = f.workflow.Approve(ctx, req.RequestID(), ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	info, _ = f.orch.Info(ctx, requester)
	if info.CanRequest || info.HasPendingRequest || !info.IsAlreadyExpanded || info.CurrentUsage.DailyLimit != 50 {
		t.Fatalf("unexpected info after approval: %+v", info)
	}
}

func TestOrchestratorCancel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.orch.Submit(ctx, requester, validSubmission()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.orch.Cancel(ctx, requester); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	info, _ := f.orch.Info(ctx, requester)
	if !info.CanRequest {
		t.Fatalf("the identity should be able to request again after cancelling")
	}
}
