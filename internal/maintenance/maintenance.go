// Package maintenance periodically clears expired quota expansions and removes old conversions.
package maintenance

import (
	"context"
	"time"

	"github.com/cyverse/pdfa/logging"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var log = logging.GetLogger().WithFields(logrus.Fields{"package": "maintenance"})

// ExpirySweeper clears expired quota expansions.
type ExpirySweeper interface {
	SweepExpired(ctx context.Context, now time.Time) (int64, error)
}

// Cleaner removes conversions older than a number of days.
type Cleaner interface {
	Cleanup(ctx context.Context, retentionDays int) (int, error)
}

// Report summarizes a maintenance run.
//
// swagger:model
type Report struct {
	// The time used to decide whether expansions had expired
	AsOf time.Time `json:"as_of"`

	// The number of expansions that were cleared
	ExpiredExpansions int64 `json:"expired_expansions"`

	// The number of conversion jobs that were removed
	RemovedJobs int `json:"removed_jobs"`
}

// Runner performs maintenance tasks.
type Runner struct {
	sweeper       ExpirySweeper
	cleaner       Cleaner
	retentionDays int
}

// NewRunner creates a new maintenance runner. The cleaner may be nil, in which case old conversions are kept.
func NewRunner(sweeper ExpirySweeper, cleaner Cleaner, retentionDays int) *Runner {
	return &Runner{sweeper: sweeper, cleaner: cleaner, retentionDays: retentionDays}
}

// Sweep clears the expansions that expired before asOf.
func (r *Runner) Sweep(ctx context.Context, asOf time.Time) (*Report, error) {
	count, err := r.sweeper.SweepExpired(ctx, asOf)
	if err != nil {
		return nil, err
	}
	return &Report{AsOf: asOf, ExpiredExpansions: count}, nil
}

// RunOnce clears expired expansions and removes old conversions.
func (r *Runner) RunOnce(ctx context.Context, now time.Time) (*Report, error) {
	report, err := r.Sweep(ctx, now)
	if err != nil {
		return nil, err
	}

	if r.cleaner != nil && r.retentionDays > 0 {
		if report.RemovedJobs, err = r.cleaner.Cleanup(ctx, r.retentionDays); err != nil {
			return report, errors.Wrap(err, "unable to remove old conversions")
		}
	}

	return report, nil
}

// Start runs the maintenance tasks every interval until the context is cancelled. The first run happens right away.
func (r *Runner) Start(ctx context.Context, every time.Duration) {
	log := log.WithFields(logrus.Fields{"context": "maintenance loop"})

	if every <= 0 {
		log.Warn("maintenance interval isn't positive; periodic maintenance is disabled")
		return
	}

	run := func() {
		report, err := r.RunOnce(ctx, time.Now())
		if err != nil {
			log.Errorf("maintenance failed: %s", err)
			return
		}
		log.Debugf("cleared %d expansions and removed %d jobs", report.ExpiredExpansions, report.RemovedJobs)
	}

	t := time.NewTicker(every)
	go func() {
		defer t.Stop()
		run()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				run()
			}
		}
	}()
}
