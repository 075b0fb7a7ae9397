package db

import (
	"context"
	"fmt"
	"time"

	"github.com/cyverse/pdfa/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// JobRepository stores conversion jobs in PostgreSQL.
type JobRepository struct {
	db *gorm.DB
}

// NewJobRepository creates a new job repository.
func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

// Create implements jobs.Repository.
func (r *JobRepository) Create(ctx context.Context, job *model.ConversionJob) error {
	wrapMsg := fmt.Sprintf("unable to record the conversion of %s", job.OriginalName)
	return translate(r.db.WithContext(ctx).Create(job).Error, wrapMsg)
}

// Get implements jobs.Repository.
func (r *JobRepository) Get(ctx context.Context, id string) (*model.ConversionJob, error) {
	wrapMsg := fmt.Sprintf("unable to look up conversion job %s", id)

	var job model.ConversionJob
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&job).Error
	if err != nil {
		return nil, translate(err, wrapMsg)
	}

	return &job, nil
}

// Transition implements jobs.Repository. The context passed to fn carries the transaction, so quota changes made
// with it are committed or rolled back together with the job.
func (r *JobRepository) Transition(
	ctx context.Context,
	id string,
	fn func(ctx context.Context, job *model.ConversionJob) error,
) (*model.ConversionJob, error) {
	wrapMsg := fmt.Sprintf("unable to update conversion job %s", id)
	var result model.ConversionJob

	err := conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		var job model.ConversionJob
		err := tx.WithContext(ctx).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).
			First(&job).
			Error
		if err != nil {
			return err
		}

		if err = fn(withTx(ctx, tx), &job); err != nil {
			return err
		}

		if err = tx.WithContext(ctx).Save(&job).Error; err != nil {
			return err
		}

		result = job
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

// List implements jobs.Repository.
func (r *JobRepository) List(ctx context.Context, identity string, offset, limit int) ([]model.ConversionJob, int64, error) {
	wrapMsg := "unable to list the conversion jobs"

	var total int64
	err := r.db.WithContext(ctx).
		Model(&model.ConversionJob{}).
		Where("ip_address = ?", identity).
		Count(&total).
		Error
	if err != nil {
		return nil, 0, translate(err, wrapMsg)
	}

	var jobs []model.ConversionJob
	err = r.db.WithContext(ctx).
		Where("ip_address = ?", identity).
		Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&jobs).
		Error
	if err != nil {
		return nil, 0, translate(err, wrapMsg)
	}

	return jobs, total, nil
}

// CountCompleted implements jobs.Repository.
func (r *JobRepository) CountCompleted(ctx context.Context, identity string, since time.Time) (int64, error) {
	wrapMsg := "unable to count the completed conversion jobs"

	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.ConversionJob{}).
		Where("ip_address = ? AND status = ? AND created_at >= ?", identity, model.JobCompleted, since).
		Count(&count).
		Error
	if err != nil {
		return 0, translate(err, wrapMsg)
	}

	return count, nil
}

// DeleteBefore implements jobs.Repository.
func (r *JobRepository) DeleteBefore(ctx context.Context, cutoff time.Time) ([]model.ConversionJob, error) {
	wrapMsg := "unable to remove old conversion jobs"

	var jobs []model.ConversionJob
	err := r.db.WithContext(ctx).
		Clauses(clause.Returning{}).
		Where("created_at < ?", cutoff).
		Delete(&jobs).
		Error
	if err != nil {
		return nil, translate(err, wrapMsg)
	}

	return jobs, nil
}
