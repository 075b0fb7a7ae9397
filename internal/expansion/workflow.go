// Package expansion implements the workflow for requesting, approving and rejecting temporary increases to the
// daily conversion limit.
package expansion

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cyverse/pdfa/internal/model"
	"github.com/cyverse/pdfa/logging"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var log = logging.GetLogger().WithFields(logrus.Fields{"package": "expansion"})

var validate = validator.New()

// Limits on the length of the justification for an expansion request.
const (
	MinJustificationLength = 50
	MaxJustificationLength = 1000
)

// CancelledByRequester is the note recorded on requests cancelled by the identity that submitted them.
const CancelledByRequester = "cancelled by requester"

// Repository stores expansion requests. Implementations must refuse to create a second pending request for the same
// identity, returning model.ErrDuplicatePending.
type Repository interface {
	Create(ctx context.Context, req *model.ExpansionRequest) error
	Get(ctx context.Context, id string) (*model.ExpansionRequest, error)
	FindPending(ctx context.Context, identity string) (*model.ExpansionRequest, error)
	Latest(ctx context.Context, identity string) (*model.ExpansionRequest, error)

	// Transition locks the request and passes it to fn. Changes made by fn are persisted only if fn returns nil.
	// Quota changes made with the context passed to fn are persisted if and only if the request is.
	Transition(
		ctx context.Context,
		id string,
		fn func(ctx context.Context, req *model.ExpansionRequest) error,
	) (*model.ExpansionRequest, error)

	List(ctx context.Context, identity string, offset, limit int) ([]model.ExpansionRequest, int64, error)
	ListByStatus(ctx context.Context, status model.RequestStatus, offset, limit int) ([]model.ExpansionRequest, int64, error)
}

// Ledger is the part of the quota ledger used by the expansion workflow.
type Ledger interface {
	GetOrInit(ctx context.Context, identity string, day time.Time) (*model.QuotaRecord, error)
	ApplyExpansion(ctx context.Context, identity string, day time.Time, newLimit, durationDays int) (*model.QuotaRecord, error)
	Info(ctx context.Context, identity string) (*model.Usage, error)
	DefaultLimit() int
	Today() time.Time
	Now() time.Time
}

// Notifier tells an administrator about a new expansion request.
type Notifier interface {
	Notify(ctx context.Context, req *model.ExpansionRequest) error
}

// Submission contains the details supplied by a client requesting an expansion.
type Submission struct {
	Email          string
	Name           string
	Organization   string
	Justification  string
	RequestedLimit int
	UserAgent      string
}

// Workflow manages expansion requests.
type Workflow struct {
	repo              Repository
	ledger            Ledger
	notifier          Notifier
	maxRequestedLimit int
	expansionDays     int
}

// NewWorkflow creates a new expansion request workflow. Approved expansions raise the limit for expansionDays days
// and clients may request at most maxRequestedLimit conversions per day.
func NewWorkflow(repo Repository, ledger Ledger, notifier Notifier, maxRequestedLimit, expansionDays int) *Workflow {
	return &Workflow{
		repo:              repo,
		ledger:            ledger,
		notifier:          notifier,
		maxRequestedLimit: maxRequestedLimit,
		expansionDays:     expansionDays,
	}
}

// MinRequestedLimit returns the smallest limit that may be requested.
func (w *Workflow) MinRequestedLimit() int {
	return w.ledger.DefaultLimit() + 1
}

// MaxRequestedLimit returns the largest limit that may be requested.
func (w *Workflow) MaxRequestedLimit() int {
	return w.maxRequestedLimit
}

// ExpansionDays returns the number of days an approved expansion stays in effect.
func (w *Workflow) ExpansionDays() int {
	return w.expansionDays
}

func (w *Workflow) validate(s *Submission) error {
	if err := validate.Var(s.Email, "required,email,max=255"); err != nil {
		return model.NewValidationError("email", "a valid email address is required")
	}
	if s.Name == "" || utf8.RuneCountInString(s.Name) > 255 {
		return model.NewValidationError("name", "a name of at most 255 characters is required")
	}
	if utf8.RuneCountInString(s.Organization) > 255 {
		return model.NewValidationError("company", "must be at most 255 characters")
	}

	length := utf8.RuneCountInString(s.Justification)
	if length < MinJustificationLength || length > MaxJustificationLength {
		return model.NewValidationError(
			"justification", "must be between %d and %d characters", MinJustificationLength, MaxJustificationLength,
		)
	}

	if s.RequestedLimit < w.MinRequestedLimit() || s.RequestedLimit > w.maxRequestedLimit {
		return model.NewValidationError(
			"requested_limit", "must be between %d and %d", w.MinRequestedLimit(), w.maxRequestedLimit,
		)
	}

	return nil
}

// Submit creates a new pending expansion request and notifies the administrator. Notification failures are logged
// but don't cause the submission to fail.
func (w *Workflow) Submit(ctx context.Context, identity string, s Submission) (*model.ExpansionRequest, error) {
	log := log.WithFields(logrus.Fields{"context": "submit expansion request", "identity": identity})
	wrapMsg := "unable to submit the expansion request"

	s.Email = strings.TrimSpace(s.Email)
	s.Name = strings.TrimSpace(s.Name)
	s.Organization = strings.TrimSpace(s.Organization)
	s.Justification = strings.TrimSpace(s.Justification)
	if err := w.validate(&s); err != nil {
		return nil, err
	}

	// Only one pending request is allowed at a time.
	_, err := w.repo.FindPending(ctx, identity)
	if err == nil {
		return nil, model.ErrDuplicatePending
	}
	if !errors.Is(err, model.ErrNotFound) {
		return nil, errors.Wrap(err, wrapMsg)
	}

	// Identities that already have an active expansion have to wait for it to expire.
	record, err := w.ledger.GetOrInit(ctx, identity, w.ledger.Today())
	if err != nil {
		return nil, errors.Wrap(err, wrapMsg)
	}
	if record.ExpansionActive(w.ledger.Now()) {
		return nil, model.ErrAlreadyExpanded
	}

	req := &model.ExpansionRequest{
		Identity:       identity,
		ContactEmail:   s.Email,
		ContactName:    s.Name,
		Justification:  s.Justification,
		RequestedLimit: s.RequestedLimit,
		Status:         model.RequestPending,
	}
	if s.Organization != "" {
		req.Organization = &s.Organization
	}
	if s.UserAgent != "" {
		req.UserAgent = &s.UserAgent
	}

	// The repository enforces the single pending request rule for concurrent submissions.
	if err = w.repo.Create(ctx, req); err != nil {
		if errors.Is(err, model.ErrDuplicatePending) {
			return nil, model.ErrDuplicatePending
		}
		return nil, errors.Wrap(err, wrapMsg)
	}

	log.Infof("expansion request %s submitted for a limit of %d", req.RequestID(), req.RequestedLimit)

	if w.notifier != nil {
		if err = w.notifier.Notify(ctx, req); err != nil {
			log.Errorf("unable to notify the administrator of request %s: %s", req.RequestID(), err)
		}
	}

	return req, nil
}

// close moves a pending request to a terminal state.
func (w *Workflow) close(
	ctx context.Context,
	id string,
	status model.RequestStatus,
	notes string,
	apply func(ctx context.Context, req *model.ExpansionRequest) error,
) (*model.ExpansionRequest, error) {
	return w.repo.Transition(ctx, id, func(ctx context.Context, req *model.ExpansionRequest) error {
		if !req.Status.CanTransitionTo(status) {
			return errors.Wrapf(model.ErrInvalidState, "expansion request %s is already %s", id, req.Status)
		}
		if apply != nil {
			if err := apply(ctx, req); err != nil {
				return err
			}
		}
		processedAt := w.ledger.Now()
		req.Status = status
		req.ProcessedAt = &processedAt
		if notes != "" {
			req.AdminNotes = &notes
		} else {
			req.AdminNotes = nil
		}
		return nil
	})
}

// Cancel cancels the identity's pending request.
func (w *Workflow) Cancel(ctx context.Context, identity string) (*model.ExpansionRequest, error) {
	log := log.WithFields(logrus.Fields{"context": "cancel expansion request", "identity": identity})

	pending, err := w.repo.FindPending(ctx, identity)
	if err != nil {
		return nil, err
	}

	req, err := w.close(ctx, pending.RequestID(), model.RequestCancelled, CancelledByRequester, nil)
	if err != nil {
		return nil, err
	}

	log.Infof("expansion request %s cancelled", req.RequestID())

	return req, nil
}

// Approve approves a pending request and raises the requester's daily limit. The request stays locked while the
// limit is raised, so a request can only ever be applied once.
func (w *Workflow) Approve(ctx context.Context, id, notes string) (*model.ExpansionRequest, error) {
	log := log.WithFields(logrus.Fields{"context": "approve expansion request", "request": id})

	req, err := w.close(ctx, id, model.RequestApproved, notes, func(ctx context.Context, req *model.ExpansionRequest) error {
		_, err := w.ledger.ApplyExpansion(ctx, req.Identity, w.ledger.Today(), req.RequestedLimit, w.expansionDays)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Infof("expansion request approved for %s with a limit of %d", req.Identity, req.RequestedLimit)

	return req, nil
}

// Reject rejects a pending request. The requester's quota isn't changed.
func (w *Workflow) Reject(ctx context.Context, id, notes string) (*model.ExpansionRequest, error) {
	log := log.WithFields(logrus.Fields{"context": "reject expansion request", "request": id})

	req, err := w.close(ctx, id, model.RequestRejected, notes, nil)
	if err != nil {
		return nil, err
	}

	log.Infof("expansion request rejected for %s", req.Identity)

	return req, nil
}

// ListPending lists the pending requests, oldest first.
func (w *Workflow) ListPending(ctx context.Context, page, perPage int) (*model.RequestPage, error) {
	return w.ListByStatus(ctx, model.RequestPending, page, perPage)
}

// ListByStatus lists the requests in the given state, oldest first.
func (w *Workflow) ListByStatus(ctx context.Context, status model.RequestStatus, page, perPage int) (*model.RequestPage, error) {
	if !status.Valid() {
		return nil, model.NewValidationError("status", "unknown request status: %s", status)
	}

	reqs, total, err := w.repo.ListByStatus(ctx, status, model.Offset(page, perPage), perPage)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to list the %s expansion requests", status)
	}
	if reqs == nil {
		reqs = []model.ExpansionRequest{}
	}
	return &model.RequestPage{Requests: reqs, Pagination: model.NewPagination(page, perPage, total)}, nil
}
