package memdb

import (
	"context"
	"sync"
	"time"

	"github.com/cyverse/pdfa/internal/model"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// JobStore is an in-memory jobs.Repository.
type JobStore struct {
	mu    sync.Mutex
	jobs  map[string]*model.ConversionJob
	order []string
	locks keyedLocks[string]
}

// NewJobStore creates an empty job store.
func NewJobStore() *JobStore {
	return &JobStore{jobs: make(map[string]*model.ConversionJob)}
}

// Create implements jobs.Repository.
func (s *JobStore) Create(ctx context.Context, job *model.ConversionJob) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	now := time.Now()
	job.ID = &id
	job.CreatedAt = now
	job.UpdatedAt = now

	stored := *job
	s.jobs[id] = &stored
	s.order = append(s.order, id)
	return nil
}

// Get implements jobs.Repository.
func (s *JobStore) Get(ctx context.Context, id string) (*model.ConversionJob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, errors.Wrapf(model.ErrNotFound, "conversion job %s", id)
	}
	copied := *job
	return &copied, nil
}

// Transition implements jobs.Repository. Only the job itself is locked while fn runs. Quota changes made with
// the context passed to fn are saved together with the job and discarded if fn fails.
func (s *JobStore) Transition(
	ctx context.Context,
	id string,
	fn func(ctx context.Context, job *model.ConversionJob) error,
) (*model.ConversionJob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	release := s.locks.lock(id)
	defer release()

	working, ok := s.snapshot(id)
	if !ok {
		return nil, errors.Wrapf(model.ErrNotFound, "conversion job %s", id)
	}

	ctx, finish := begin(ctx)
	if err := fn(ctx, &working); err != nil {
		finish(false)
		return nil, err
	}
	working.UpdatedAt = time.Now()

	s.mu.Lock()
	if _, ok = s.jobs[id]; ok {
		stored := working
		s.jobs[id] = &stored
	}
	s.mu.Unlock()

	if !ok {
		finish(false)
		return nil, errors.Wrapf(model.ErrNotFound, "conversion job %s", id)
	}
	finish(true)

	return &working, nil
}

// snapshot returns a copy of the stored job.
func (s *JobStore) snapshot(id string) (model.ConversionJob, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.jobs[id]
	if !ok {
		return model.ConversionJob{}, false
	}
	return *v, true
}

// List implements jobs.Repository.
func (s *JobStore) List(ctx context.Context, identity string, offset, limit int) ([]model.ConversionJob, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var matches []model.ConversionJob
	for i := len(s.order) - 1; i >= 0; i-- {
		job := s.jobs[s.order[i]]
		if job != nil && job.Identity == identity {
			matches = append(matches, *job)
		}
	}
	return paginate(matches, offset, limit), int64(len(matches)), nil
}

// CountCompleted implements jobs.Repository.
func (s *JobStore) CountCompleted(ctx context.Context, identity string, since time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	for _, job := range s.jobs {
		if job.Identity == identity && job.Status == model.JobCompleted && !job.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

// DeleteBefore implements jobs.Repository.
func (s *JobStore) DeleteBefore(ctx context.Context, cutoff time.Time) ([]model.ConversionJob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var removed []model.ConversionJob
	kept := s.order[:0]
	for _, id := range s.order {
		job := s.jobs[id]
		if job.CreatedAt.Before(cutoff) {
			removed = append(removed, *job)
			delete(s.jobs, id)
			continue
		}
		kept = append(kept, id)
	}
	s.order = kept
	return removed, nil
}

// Backdate changes the creation time of a job. It's used to simulate old jobs.
func (s *JobStore) Backdate(id string, createdAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobs[id]; ok {
		job.CreatedAt = createdAt
	}
}

func paginate[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}
