package db

import (
	"context"
	"fmt"

	"github.com/cyverse/pdfa/internal/model"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RequestRepository stores expansion requests in PostgreSQL. The partial unique index named by PendingRequestIndex
// guarantees that an address never has more than one pending request.
type RequestRepository struct {
	db *gorm.DB
}

// NewRequestRepository creates a new expansion request repository.
func NewRequestRepository(db *gorm.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

// Create implements expansion.Repository.
func (r *RequestRepository) Create(ctx context.Context, req *model.ExpansionRequest) error {
	wrapMsg := "unable to save the expansion request"
	return translate(r.db.WithContext(ctx).Create(req).Error, wrapMsg)
}

// Get implements expansion.Repository.
func (r *RequestRepository) Get(ctx context.Context, id string) (*model.ExpansionRequest, error) {
	wrapMsg := fmt.Sprintf("unable to look up expansion request %s", id)

	var req model.ExpansionRequest
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&req).Error; err != nil {
		return nil, translate(err, wrapMsg)
	}

	return &req, nil
}

// FindPending implements expansion.Repository.
func (r *RequestRepository) FindPending(ctx context.Context, identity string) (*model.ExpansionRequest, error) {
	wrapMsg := "unable to look up the pending expansion request"

	var req model.ExpansionRequest
	err := r.db.WithContext(ctx).
		Where("ip_address = ? AND status = ?", identity, model.RequestPending).
		First(&req).
		Error
	if err != nil {
		return nil, translate(err, wrapMsg)
	}

	return &req, nil
}

// Latest implements expansion.Repository.
func (r *RequestRepository) Latest(ctx context.Context, identity string) (*model.ExpansionRequest, error) {
	wrapMsg := "unable to look up the latest expansion request"

	var req model.ExpansionRequest
	err := r.db.WithContext(ctx).
		Where("ip_address = ?", identity).
		Order("created_at desc").
		First(&req).
		Error
	if err != nil {
		return nil, translate(err, wrapMsg)
	}

	return &req, nil
}

// Transition implements expansion.Repository. The context passed to fn carries the transaction, so an expansion
// applied with it is committed or rolled back together with the request.
func (r *RequestRepository) Transition(
	ctx context.Context,
	id string,
	fn func(ctx context.Context, req *model.ExpansionRequest) error,
) (*model.ExpansionRequest, error) {
	wrapMsg := fmt.Sprintf("unable to update expansion request %s", id)
	var result model.ExpansionRequest

	err := conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		var req model.ExpansionRequest
		err := tx.WithContext(ctx).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).
			First(&req).
			Error
		if err != nil {
			return err
		}

		if err = fn(withTx(ctx, tx), &req); err != nil {
			return err
		}

		if err = tx.WithContext(ctx).Save(&req).Error; err != nil {
			return err
		}

		result = req
		return nil
	})
	if err != nil {
		if isDomainError(err) {
			return nil, err
		}
		return nil, translate(err, wrapMsg)
	}

	return &result, nil
}

func (r *RequestRepository) list(ctx context.Context, query *gorm.DB, order string, offset, limit int) ([]model.ExpansionRequest, int64, error) {
	wrapMsg := "unable to list the expansion requests"

	var total int64
	if err := query.Session(&gorm.Session{}).Model(&model.ExpansionRequest{}).Count(&total).Error; err != nil {
		return nil, 0, translate(err, wrapMsg)
	}

	var reqs []model.ExpansionRequest
	err := query.Session(&gorm.Session{}).
		Order(order).
		Offset(offset).
		Limit(limit).
		Find(&reqs).
		Error
	if err != nil {
		return nil, 0, translate(err, wrapMsg)
	}

	return reqs, total, nil
}

// List implements expansion.Repository.
func (r *RequestRepository) List(ctx context.Context, identity string, offset, limit int) ([]model.ExpansionRequest, int64, error) {
	query := r.db.WithContext(ctx).Where("ip_address = ?", identity)
	return r.list(ctx, query, "created_at desc", offset, limit)
}

// ListByStatus implements expansion.Repository.
func (r *RequestRepository) ListByStatus(
	ctx context.Context,
	status model.RequestStatus,
	offset, limit int,
) ([]model.ExpansionRequest, int64, error) {
	query := r.db.WithContext(ctx).Where("status = ?", status)
	return r.list(ctx, query, "created_at asc", offset, limit)
}

// isDomainError returns true for errors produced by the service itself rather than the database. They're passed
// through unchanged.
func isDomainError(err error) bool {
	var qe *model.QuotaExceededError
	return errors.Is(err, model.ErrInvalidState) ||
		errors.Is(err, model.ErrNotFound) ||
		errors.Is(err, model.ErrValidation) ||
		errors.Is(err, model.ErrAlreadyExpanded) ||
		errors.Is(err, model.ErrDuplicatePending) ||
		errors.As(err, &qe)
}
