package expansion

import (
	"context"

	"github.com/cyverse/pdfa/internal/model"
	"github.com/pkg/errors"
)

// Orchestrator combines expansion requests with the requester's current usage for the client-facing endpoints.
type Orchestrator struct {
	workflow *Workflow
}

// NewOrchestrator creates a new orchestrator for the given workflow.
func NewOrchestrator(workflow *Workflow) *Orchestrator {
	return &Orchestrator{workflow: workflow}
}

// Workflow returns the underlying workflow.
func (o *Orchestrator) Workflow() *Workflow {
	return o.workflow
}

// Submit submits a new expansion request.
func (o *Orchestrator) Submit(ctx context.Context, identity string, s Submission) (*model.ExpansionRequest, error) {
	return o.workflow.Submit(ctx, identity, s)
}

// Status returns the identity's most recent request along with its current usage.
func (o *Orchestrator) Status(ctx context.Context, identity string) (*model.RequestStatusReport, error) {
	req, err := o.workflow.repo.Latest(ctx, identity)
	if err != nil {
		return nil, err
	}

	usage, err := o.workflow.ledger.Info(ctx, identity)
	if err != nil {
		return nil, err
	}

	return &model.RequestStatusReport{Request: *req, CurrentUsage: *usage}, nil
}

// History returns a page of the identity's requests, newest first.
func (o *Orchestrator) History(ctx context.Context, identity string, page, perPage int) (*model.RequestPage, error) {
	reqs, total, err := o.workflow.repo.List(ctx, identity, model.Offset(page, perPage), perPage)
	if err != nil {
		return nil, errors.Wrap(err, "unable to list the expansion requests")
	}
	if reqs == nil {
		reqs = []model.ExpansionRequest{}
	}

	usage, err := o.workflow.ledger.Info(ctx, identity)
	if err != nil {
		return nil, err
	}

	return &model.RequestPage{
		Requests:     reqs,
		Pagination:   model.NewPagination(page, perPage, total),
		CurrentUsage: usage,
	}, nil
}

// Info describes whether the identity may submit a request and what it may ask for.
func (o *Orchestrator) Info(ctx context.Context, identity string) (*model.ExpansionInfo, error) {
	w := o.workflow

	record, err := w.ledger.GetOrInit(ctx, identity, w.ledger.Today())
	if err != nil {
		return nil, err
	}

	hasPending := true
	if _, err = w.repo.FindPending(ctx, identity); errors.Is(err, model.ErrNotFound) {
		hasPending = false
	} else if err != nil {
		return nil, err
	}

	expanded := record.ExpansionActive(w.ledger.Now())

	return &model.ExpansionInfo{
		CurrentUsage:           model.UsageFromRecord(record),
		CanRequest:             !hasPending && !expanded,
		HasPendingRequest:      hasPending,
		IsAlreadyExpanded:      expanded,
		MinRequestedLimit:      w.MinRequestedLimit(),
		MaxRequestedLimit:      w.MaxRequestedLimit(),
		MinJustificationLength: MinJustificationLength,
		ExpansionDays:          w.ExpansionDays(),
	}, nil
}

// Cancel cancels the identity's pending request.
func (o *Orchestrator) Cancel(ctx context.Context, identity string) (*model.ExpansionRequest, error) {
	return o.workflow.Cancel(ctx, identity)
}
