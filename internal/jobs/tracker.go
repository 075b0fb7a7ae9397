// Package jobs tracks the lifecycle of individual file conversions.
package jobs

import (
	"context"
	"time"

	"github.com/cyverse/pdfa/internal/model"
	"github.com/cyverse/pdfa/logging"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var log = logging.GetLogger().WithFields(logrus.Fields{"package": "jobs"})

// Repository stores conversion jobs.
type Repository interface {
	// Create saves a new job, assigning its identifier.
	Create(ctx context.Context, job *model.ConversionJob) error

	// Get returns the job with the given identifier or model.ErrNotFound.
	Get(ctx context.Context, id string) (*model.ConversionJob, error)

	// Transition locks the job and passes it to fn. Changes made by fn are persisted only if fn returns nil. Quota
	// changes made with the context passed to fn are persisted if and only if the job is.
	Transition(
		ctx context.Context,
		id string,
		fn func(ctx context.Context, job *model.ConversionJob) error,
	) (*model.ConversionJob, error)

	// List returns a page of the identity's jobs, newest first, along with the total number of jobs.
	List(ctx context.Context, identity string, offset, limit int) ([]model.ConversionJob, int64, error)

	// CountCompleted counts the identity's completed jobs created at or after since. A zero since counts them all.
	CountCompleted(ctx context.Context, identity string, since time.Time) (int64, error)

	// DeleteBefore removes the jobs created before the cutoff and returns them.
	DeleteBefore(ctx context.Context, cutoff time.Time) ([]model.ConversionJob, error)
}

// Consumer records conversions against an identity's daily quota.
type Consumer interface {
	Consume(ctx context.Context, identity string, day time.Time, count int) (*model.QuotaRecord, error)
	Today() time.Time
}

// Output describes the file produced by a successful conversion.
type Output struct {
	Name string
	Size int64
	Key  string
}

// Tracker manages conversion jobs. A job consumes one unit of quota when and only when it completes.
type Tracker struct {
	repo  Repository
	quota Consumer
}

// NewTracker creates a job tracker.
func NewTracker(repo Repository, quota Consumer) *Tracker {
	return &Tracker{repo: repo, quota: quota}
}

// Create records a newly accepted upload. Uploads are processed as soon as they're accepted, so new jobs start out
// in the processing state.
func (t *Tracker) Create(
	ctx context.Context,
	identity, originalName string,
	originalSize int64,
	userAgent string,
) (*model.ConversionJob, error) {
	wrapMsg := "unable to record the conversion job"

	job := &model.ConversionJob{
		Identity:     identity,
		OriginalName: originalName,
		OriginalSize: originalSize,
		Status:       model.JobProcessing,
	}
	if userAgent != "" {
		job.UserAgent = &userAgent
	}

	if err := t.repo.Create(ctx, job); err != nil {
		return nil, errors.Wrap(err, wrapMsg)
	}
	return job, nil
}

// RecordOriginal stores the location and page count of the uploaded file on a job that's still running.
func (t *Tracker) RecordOriginal(ctx context.Context, id, key string, pageCount int) (*model.ConversionJob, error) {
	return t.repo.Transition(ctx, id, func(_ context.Context, job *model.ConversionJob) error {
		if job.Status.Terminal() {
			return errors.Wrapf(model.ErrInvalidState, "job %s is already %s", id, job.Status)
		}
		job.OriginalKey = &key
		if pageCount > 0 {
			job.PageCount = &pageCount
		}
		return nil
	})
}

// Complete marks a job as completed and consumes one conversion from the owner's quota. Both are saved together
// while the job is locked, so a job consumes exactly once even if a completion has to be retried. The completion is
// refused if the owner has no conversions left.
func (t *Tracker) Complete(ctx context.Context, id string, out Output, elapsed time.Duration) (*model.ConversionJob, error) {
	log := log.WithFields(logrus.Fields{"context": "complete job", "job": id})

	job, err := t.repo.Transition(ctx, id, func(ctx context.Context, job *model.ConversionJob) error {
		if !job.Status.CanTransitionTo(model.JobCompleted) {
			return errors.Wrapf(model.ErrInvalidState, "job %s is already %s", id, job.Status)
		}

		// Consume the quota before changing anything on the job.
		if _, err := t.quota.Consume(ctx, job.Identity, t.quota.Today(), 1); err != nil {
			return err
		}

		durationMs := elapsed.Milliseconds()
		job.Status = model.JobCompleted
		job.ConvertedName = &out.Name
		job.ConvertedSize = &out.Size
		if out.Key != "" {
			job.ConvertedKey = &out.Key
		}
		job.ProcessingDurationMs = &durationMs
		job.Error = nil
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Debugf("conversion completed in %d ms", elapsed.Milliseconds())

	return job, nil
}

// Fail marks a job as failed. Failed jobs never consume quota.
func (t *Tracker) Fail(ctx context.Context, id, message string, elapsed time.Duration) (*model.ConversionJob, error) {
	log := log.WithFields(logrus.Fields{"context": "fail job", "job": id})

	job, err := t.repo.Transition(ctx, id, func(_ context.Context, job *model.ConversionJob) error {
		if !job.Status.CanTransitionTo(model.JobFailed) {
			return errors.Wrapf(model.ErrInvalidState, "job %s is already %s", id, job.Status)
		}
		durationMs := elapsed.Milliseconds()
		job.Status = model.JobFailed
		job.Error = &message
		job.ProcessingDurationMs = &durationMs
		job.ConvertedName = nil
		job.ConvertedSize = nil
		job.ConvertedKey = nil
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Infof("conversion failed: %s", message)

	return job, nil
}

// Get returns a job owned by the identity. Jobs owned by other identities are reported as missing.
func (t *Tracker) Get(ctx context.Context, id, identity string) (*model.ConversionJob, error) {
	job, err := t.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.Identity != identity {
		return nil, errors.Wrapf(model.ErrNotFound, "conversion job %s", id)
	}
	return job, nil
}

// List returns a page of the identity's jobs, newest first.
func (t *Tracker) List(ctx context.Context, identity string, page, perPage int) (*model.JobPage, error) {
	wrapMsg := "unable to list the conversion jobs"

	jobs, total, err := t.repo.List(ctx, identity, model.Offset(page, perPage), perPage)
	if err != nil {
		return nil, errors.Wrap(err, wrapMsg)
	}
	if jobs == nil {
		jobs = []model.ConversionJob{}
	}

	return &model.JobPage{Jobs: jobs, Pagination: model.NewPagination(page, perPage, total)}, nil
}

// Stats returns the number of completed conversions for the identity, both overall and for the current day.
func (t *Tracker) Stats(ctx context.Context, identity string) (total, today int64, err error) {
	wrapMsg := "unable to count the completed conversions"

	if total, err = t.repo.CountCompleted(ctx, identity, time.Time{}); err != nil {
		return 0, 0, errors.Wrap(err, wrapMsg)
	}
	if today, err = t.repo.CountCompleted(ctx, identity, t.quota.Today()); err != nil {
		return 0, 0, errors.Wrap(err, wrapMsg)
	}
	return total, today, nil
}

// Purge removes the jobs created before the cutoff and returns them so that their files can be removed as well.
func (t *Tracker) Purge(ctx context.Context, cutoff time.Time) ([]model.ConversionJob, error) {
	jobs, err := t.repo.DeleteBefore(ctx, cutoff)
	if err != nil {
		return nil, errors.Wrap(err, "unable to remove old conversion jobs")
	}
	return jobs, nil
}
