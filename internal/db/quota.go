package db

import (
	"context"
	"fmt"
	"time"

	"github.com/cyverse/pdfa/internal/model"
	"github.com/cyverse/pdfa/internal/quota"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// QuotaRepository stores daily usage records in PostgreSQL.
type QuotaRepository struct {
	db *gorm.DB
}

// NewQuotaRepository creates a new quota repository.
func NewQuotaRepository(db *gorm.DB) *QuotaRepository {
	return &QuotaRepository{db: db}
}

// lockQuotaRecord looks up the record for an address and day, locking it until the end of the transaction.
func lockQuotaRecord(ctx context.Context, tx *gorm.DB, identity string, day time.Time) (*model.QuotaRecord, error) {
	var record model.QuotaRecord
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("ip_address = ? AND usage_date = ?", identity, model.DayKey(day)).
		First(&record).
		Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// latestRecord returns the most recent record for an address before the given day.
func latestRecord(ctx context.Context, tx *gorm.DB, identity string, day time.Time) (*model.QuotaRecord, error) {
	var records []model.QuotaRecord
	err := tx.WithContext(ctx).
		Where("ip_address = ? AND usage_date < ?", identity, model.DayKey(day)).
		Order("usage_date desc").
		Limit(1).
		Find(&records).
		Error
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}

// Update implements quota.Repository. Missing records are inserted with ON CONFLICT DO NOTHING so that concurrent
// callers converge on the same row, which is then locked with SELECT ... FOR UPDATE. When ctx carries a job or
// request transaction the update runs in a savepoint of it.
func (r *QuotaRepository) Update(
	ctx context.Context,
	identity string,
	day time.Time,
	seed quota.Seed,
	fn func(record *model.QuotaRecord) error,
) (*model.QuotaRecord, error) {
	wrapMsg := fmt.Sprintf("unable to update the daily usage of %s on %s", identity, model.DayKey(day))
	var result model.QuotaRecord

	err := conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		record, err := lockQuotaRecord(ctx, tx, identity, day)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			previous, err := latestRecord(ctx, tx, identity, day)
			if err != nil {
				return err
			}

			initial := seed(previous)
			initial.ID = nil
			err = tx.WithContext(ctx).
				Clauses(clause.OnConflict{
					Columns:   []clause.Column{{Name: "ip_address"}, {Name: "usage_date"}},
					DoNothing: true,
				}).
				Create(&initial).
				Error
			if err != nil {
				return err
			}

			record, err = lockQuotaRecord(ctx, tx, identity, day)
			if err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		if err = fn(record); err != nil {
			return err
		}

		if err = tx.WithContext(ctx).Save(record).Error; err != nil {
			return err
		}

		result = *record
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

// ClearExpired implements quota.Repository with a single UPDATE statement.
func (r *QuotaRepository) ClearExpired(ctx context.Context, now time.Time, defaultLimit int) (int64, error) {
	wrapMsg := "unable to clear expired expansions"

	result := r.db.WithContext(ctx).
		Model(&model.QuotaRecord{}).
		Where("is_expanded AND expansion_expires_at < ?", now).
		Updates(map[string]interface{}{
			"is_expanded":          false,
			"daily_limit":          defaultLimit,
			"expanded_at":          nil,
			"expansion_expires_at": nil,
			"updated_at":           time.Now(),
		})
	if result.Error != nil {
		return 0, translate(result.Error, wrapMsg)
	}

	return result.RowsAffected, nil
}

// DeleteBefore implements quota.Repository. An address's newest record is kept while it carries an active
// expansion, since new days are seeded from it.
func (r *QuotaRepository) DeleteBefore(ctx context.Context, day, now time.Time) (int64, error) {
	wrapMsg := "unable to remove old daily usage records"

	result := r.db.WithContext(ctx).
		Where("usage_date < ?", model.DayKey(day)).
		Where(
			`NOT (is_expanded AND expansion_expires_at IS NOT NULL AND expansion_expires_at >= ? AND NOT EXISTS (
				SELECT 1 FROM daily_usages newer
				WHERE newer.ip_address = daily_usages.ip_address AND newer.usage_date > daily_usages.usage_date
			))`,
			now,
		).
		Delete(&model.QuotaRecord{})
	if result.Error != nil {
		return 0, translate(result.Error, wrapMsg)
	}

	return result.RowsAffected, nil
}
