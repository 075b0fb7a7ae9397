// Package quota maintains the per-address daily conversion counters and limits.
package quota

import (
	"context"
	"time"

	"github.com/cyverse/pdfa/internal/model"
	"github.com/cyverse/pdfa/logging"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var log = logging.GetLogger().WithFields(logrus.Fields{"package": "quota"})

// Seed builds the initial state of a quota record that doesn't exist yet. The previous argument is the most recent
// record for the same identity from an earlier day, or nil if there is none.
type Seed func(previous *model.QuotaRecord) model.QuotaRecord

// Repository is the storage used by the ledger. Implementations must serialize calls to Update for the same identity
// and day.
type Repository interface {
	// Update locks the record for the identity and day, creating it from the seed if it doesn't exist, and passes it
	// to fn. Changes made by fn, including the creation of the record, are persisted only if fn returns nil.
	Update(
		ctx context.Context,
		identity string,
		day time.Time,
		seed Seed,
		fn func(r *model.QuotaRecord) error,
	) (*model.QuotaRecord, error)

	// ClearExpired removes every expansion that expired before the given time, restoring the default limit. It
	// returns the number of records that were changed.
	ClearExpired(ctx context.Context, now time.Time, defaultLimit int) (int64, error)

	// DeleteBefore removes the records for days before the given day. An identity's newest record is kept if it
	// carries an expansion that is still active at now.
	DeleteBefore(ctx context.Context, day, now time.Time) (int64, error)
}

// Option customizes a Ledger.
type Option func(*Ledger)

// WithClock replaces the function used to determine the current time.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// Ledger is the single source of truth for conversion capacity.
type Ledger struct {
	repo         Repository
	defaultLimit int
	now          func() time.Time
}

// New creates a ledger that grants defaultLimit conversions per identity per day.
func New(repo Repository, defaultLimit int, opts ...Option) *Ledger {
	l := &Ledger{
		repo:         repo,
		defaultLimit: defaultLimit,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// DefaultLimit returns the daily limit of an identity without an expansion.
func (l *Ledger) DefaultLimit() int {
	return l.defaultLimit
}

// Now returns the current time according to the ledger's clock.
func (l *Ledger) Now() time.Time {
	return l.now()
}

// Today returns the current UTC calendar day.
func (l *Ledger) Today() time.Time {
	return model.DayOf(l.now())
}

// seed carries an expansion forward from the identity's most recent earlier day if it's still in effect there.
func (l *Ledger) seed(identity string, day time.Time) Seed {
	return func(previous *model.QuotaRecord) model.QuotaRecord {
		r := model.QuotaRecord{
			Identity: identity,
			Day:      model.DayOf(day),
			Limit:    l.defaultLimit,
		}
		if previous != nil && previous.ExpansionActive(l.now()) {
			r.ApplyExpansion(previous.Limit, *previous.ExpandedAt, *previous.ExpiresAt)
		}
		return r
	}
}

// expire clears an expansion that has lapsed. Every ledger operation passes the record through here before making
// any decisions based on it.
func (l *Ledger) expire(r *model.QuotaRecord) {
	if r.ExpansionExpired(l.now()) {
		log.WithFields(logrus.Fields{"context": "lazy expiry", "identity": r.Identity}).
			Debugf("expansion expired at %s", r.ExpiresAt.Format(time.RFC3339))
		r.ClearExpansion(l.defaultLimit)
	}
}

func (l *Ledger) update(
	ctx context.Context,
	identity string,
	day time.Time,
	fn func(r *model.QuotaRecord) error,
) (*model.QuotaRecord, error) {
	return l.repo.Update(ctx, identity, model.DayOf(day), l.seed(identity, day), func(r *model.QuotaRecord) error {
		l.expire(r)
		if fn == nil {
			return nil
		}
		return fn(r)
	})
}

// GetOrInit returns the record for the identity and day, creating it if necessary.
func (l *Ledger) GetOrInit(ctx context.Context, identity string, day time.Time) (*model.QuotaRecord, error) {
	wrapMsg := "unable to look up the daily usage record"
	r, err := l.update(ctx, identity, day, nil)
	if err != nil {
		return nil, errors.Wrap(err, wrapMsg)
	}
	return r, nil
}

// Remaining returns the number of conversions still available to the identity on the given day.
func (l *Ledger) Remaining(ctx context.Context, identity string, day time.Time) (int, error) {
	r, err := l.GetOrInit(ctx, identity, day)
	if err != nil {
		return 0, err
	}
	return r.Remaining(), nil
}

// Consume atomically checks that count conversions are available and records them. A *model.QuotaExceededError is
// returned and nothing is recorded if there isn't enough capacity left.
func (l *Ledger) Consume(ctx context.Context, identity string, day time.Time, count int) (*model.QuotaRecord, error) {
	if count <= 0 {
		return nil, model.NewValidationError("count", "must be positive")
	}
	return l.update(ctx, identity, day, func(r *model.QuotaRecord) error {
		if r.Remaining() < count {
			return &model.QuotaExceededError{
				Requested: count,
				Remaining: r.Remaining(),
				Limit:     r.Limit,
				Consumed:  r.Consumed,
			}
		}
		r.Consumed += count
		return nil
	})
}

// TryConsume records count conversions if they're available. It returns false without recording anything if they
// aren't.
func (l *Ledger) TryConsume(ctx context.Context, identity string, day time.Time, count int) (bool, error) {
	_, err := l.Consume(ctx, identity, day, count)
	if errors.Is(err, model.ErrQuotaExceeded) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "unable to record the conversions")
	}
	return true, nil
}

// ApplyExpansion raises the identity's limit to newLimit for durationDays days starting now.
func (l *Ledger) ApplyExpansion(
	ctx context.Context,
	identity string,
	day time.Time,
	newLimit, durationDays int,
) (*model.QuotaRecord, error) {
	if newLimit <= 0 {
		return nil, model.NewValidationError("limit", "must be positive")
	}
	if durationDays <= 0 {
		return nil, model.NewValidationError("duration", "must be positive")
	}

	r, err := l.update(ctx, identity, day, func(r *model.QuotaRecord) error {
		now := l.now()
		r.ApplyExpansion(newLimit, now, now.AddDate(0, 0, durationDays))
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "unable to apply the expansion")
	}

	log.WithFields(logrus.Fields{"context": "apply expansion", "identity": identity}).
		Infof("daily limit raised to %d until %s", newLimit, r.ExpiresAt.Format(time.RFC3339))

	return r, nil
}

// ClearExpansion restores the default limit for the identity on the given day.
func (l *Ledger) ClearExpansion(ctx context.Context, identity string, day time.Time) (*model.QuotaRecord, error) {
	r, err := l.update(ctx, identity, day, func(r *model.QuotaRecord) error {
		r.ClearExpansion(l.defaultLimit)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "unable to clear the expansion")
	}
	return r, nil
}

// Reset sets the number of conversions recorded for the identity on the given day back to zero.
func (l *Ledger) Reset(ctx context.Context, identity string, day time.Time) (*model.QuotaRecord, error) {
	r, err := l.update(ctx, identity, day, func(r *model.QuotaRecord) error {
		r.Consumed = 0
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "unable to reset the daily usage")
	}
	return r, nil
}

// SweepExpired clears every expansion that expired before now. Calling it more than once has no further effect.
func (l *Ledger) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	count, err := l.repo.ClearExpired(ctx, now, l.defaultLimit)
	if err != nil {
		return 0, errors.Wrap(err, "unable to clear expired expansions")
	}
	if count > 0 {
		log.WithFields(logrus.Fields{"context": "sweep"}).Infof("cleared %d expired expansions", count)
	}
	return count, nil
}

// PurgeBefore removes the records for days before the given day. Expansions that are still in effect survive the
// purge.
func (l *Ledger) PurgeBefore(ctx context.Context, day time.Time) (int64, error) {
	count, err := l.repo.DeleteBefore(ctx, model.DayOf(day), l.now())
	if err != nil {
		return 0, errors.Wrap(err, "unable to remove old daily usage records")
	}
	return count, nil
}

// Info summarizes the identity's usage for the current day.
func (l *Ledger) Info(ctx context.Context, identity string) (*model.Usage, error) {
	r, err := l.GetOrInit(ctx, identity, l.Today())
	if err != nil {
		return nil, err
	}
	usage := model.UsageFromRecord(r)
	return &usage, nil
}
