package memdb

import (
	"context"
	"sync"
	"time"

	"github.com/cyverse/pdfa/internal/model"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// RequestStore is an in-memory expansion.Repository.
type RequestStore struct {
	mu       sync.Mutex
	requests map[string]*model.ExpansionRequest
	order    []string
	locks    keyedLocks[string]
}

// NewRequestStore creates an empty request store.
func NewRequestStore() *RequestStore {
	return &RequestStore{requests: make(map[string]*model.ExpansionRequest)}
}

// findPending returns the identity's pending request. The caller must hold the lock.
func (s *RequestStore) findPending(identity string) *model.ExpansionRequest {
	for _, req := range s.requests {
		if req.Identity == identity && req.Status == model.RequestPending {
			return req
		}
	}
	return nil
}

// Create implements expansion.Repository.
func (s *RequestStore) Create(ctx context.Context, req *model.ExpansionRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if req.Status == model.RequestPending && s.findPending(req.Identity) != nil {
		return model.ErrDuplicatePending
	}

	id := uuid.NewString()
	now := time.Now()
	req.ID = &id
	req.CreatedAt = now
	req.UpdatedAt = now

	stored := *req
	s.requests[id] = &stored
	s.order = append(s.order, id)
	return nil
}

// Get implements expansion.Repository.
func (s *RequestStore) Get(ctx context.Context, id string) (*model.ExpansionRequest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.requests[id]
	if !ok {
		return nil, errors.Wrapf(model.ErrNotFound, "expansion request %s", id)
	}
	copied := *req
	return &copied, nil
}

// FindPending implements expansion.Repository.
func (s *RequestStore) FindPending(ctx context.Context, identity string) (*model.ExpansionRequest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	req := s.findPending(identity)
	if req == nil {
		return nil, errors.Wrap(model.ErrNotFound, "no pending expansion request")
	}
	copied := *req
	return &copied, nil
}

// Latest implements expansion.Repository.
func (s *RequestStore) Latest(ctx context.Context, identity string) (*model.ExpansionRequest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := len(s.order) - 1; i >= 0; i-- {
		if req := s.requests[s.order[i]]; req.Identity == identity {
			copied := *req
			return &copied, nil
		}
	}
	return nil, errors.Wrap(model.ErrNotFound, "no expansion requests")
}

// Transition implements expansion.Repository. Only the req itself is locked while fn runs. Quota changes made with
// the context passed to fn are saved together with the req and discarded if fn fails.
func (s *RequestStore) Transition(
	ctx context.Context,
	id string,
	fn func(ctx context.Context, req *model.ExpansionRequest) error,
) (*model.ExpansionRequest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	release := s.locks.lock(id)
	defer release()

	working, ok := s.snapshot(id)
	if !ok {
		return nil, errors.Wrapf(model.ErrNotFound, "expansion request %s", id)
	}

	ctx, finish := begin(ctx)
	if err := fn(ctx, &working); err != nil {
		finish(false)
		return nil, err
	}
	working.UpdatedAt = time.Now()

	s.mu.Lock()
	if _, ok = s.requests[id]; ok {
		stored := working
		s.requests[id] = &stored
	}
	s.mu.Unlock()

	if !ok {
		finish(false)
		return nil, errors.Wrapf(model.ErrNotFound, "expansion request %s", id)
	}
	finish(true)

	return &working, nil
}

// snapshot returns a copy of the stored request.
func (s *RequestStore) snapshot(id string) (model.ExpansionRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.requests[id]
	if !ok {
		return model.ExpansionRequest{}, false
	}
	return *v, true
}

// List implements expansion.Repository.
func (s *RequestStore) List(
	ctx context.Context,
	identity string,
	offset, limit int,
) ([]model.ExpansionRequest, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var matches []model.ExpansionRequest
	for i := len(s.order) - 1; i >= 0; i-- {
		if req := s.requests[s.order[i]]; req.Identity == identity {
			matches = append(matches, *req)
		}
	}
	return paginate(matches, offset, limit), int64(len(matches)), nil
}

// ListByStatus implements expansion.Repository. Requests are listed oldest first.
func (s *RequestStore) ListByStatus(
	ctx context.Context,
	status model.RequestStatus,
	offset, limit int,
) ([]model.ExpansionRequest, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var matches []model.ExpansionRequest
	for _, id := range s.order {
		if req := s.requests[id]; req.Status == status {
			matches = append(matches, *req)
		}
	}
	return paginate(matches, offset, limit), int64(len(matches)), nil
}
