// Package memdb provides in-process implementations of the repositories used by the quota ledger, the job tracker
// and the expansion workflow. The test suites run the engine against them; the service itself always uses the
// PostgreSQL repositories in internal/db.
//
// Records are locked individually, so transitions of different jobs or requests and updates of different quota
// records proceed in parallel. Nothing is durable and the per-key locks are never reclaimed.
package memdb

import (
	"context"
	"sync"
	"time"

	"github.com/cyverse/pdfa/internal/model"
	"github.com/cyverse/pdfa/internal/quota"
	"github.com/google/uuid"
)

type quotaKey struct {
	identity string
	day      string
}

// QuotaStore is an in-memory quota.Repository.
type QuotaStore struct {
	mu      sync.Mutex
	records map[quotaKey]*model.QuotaRecord
	locks   keyedLocks[quotaKey]
}

// NewQuotaStore creates an empty quota store.
func NewQuotaStore() *QuotaStore {
	return &QuotaStore{records: make(map[quotaKey]*model.QuotaRecord)}
}

func keyOf(identity string, day time.Time) quotaKey {
	return quotaKey{identity: identity, day: model.DayKey(day)}
}

// latestBefore returns the most recent record for the identity before the given day. The caller must hold mu.
func (s *QuotaStore) latestBefore(identity string, day time.Time) *model.QuotaRecord {
	var latest *model.QuotaRecord
	for _, r := range s.records {
		if r.Identity != identity || !r.Day.Before(day) {
			continue
		}
		if latest == nil || r.Day.After(latest.Day) {
			latest = r
		}
	}
	if latest == nil {
		return nil
	}
	copied := *latest
	return &copied
}

// load returns a copy of the stored record, or a new record built from the seed.
func (s *QuotaStore) load(key quotaKey, identity string, day time.Time, seed quota.Seed) model.QuotaRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.records[key]; ok {
		return *existing
	}

	r := seed(s.latestBefore(identity, model.DayOf(day)))
	id := uuid.NewString()
	now := time.Now()
	r.ID = &id
	r.CreatedAt = now
	r.UpdatedAt = now
	return r
}

func (s *QuotaStore) store(key quotaKey, r model.QuotaRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[key] = &r
}

// Update implements quota.Repository. When the context carries a job or request transition, the record stays locked
// and the change is saved only if the transition is.
func (s *QuotaStore) Update(
	ctx context.Context,
	identity string,
	day time.Time,
	seed quota.Seed,
	fn func(r *model.QuotaRecord) error,
) (*model.QuotaRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := keyOf(identity, day)
	u := unitFrom(ctx)

	working, staged := u.lookup(key)
	if !staged {
		if !u.holds(key) {
			release := s.locks.lock(key)
			if u == nil {
				defer release()
			} else {
				u.hold(key, release)
			}
		}
		working = s.load(key, identity, day, seed)
	}

	if err := fn(&working); err != nil {
		return nil, err
	}
	working.UpdatedAt = time.Now()

	if u == nil {
		s.store(key, working)
	} else {
		u.stage(key, working, s.store)
	}

	result := working
	return &result, nil
}

// ClearExpired implements quota.Repository.
func (s *QuotaStore) ClearExpired(ctx context.Context, now time.Time, defaultLimit int) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	for _, r := range s.records {
		if r.ExpansionExpired(now) {
			r.ClearExpansion(defaultLimit)
			r.UpdatedAt = time.Now()
			count++
		}
	}
	return count, nil
}

// DeleteBefore implements quota.Repository. An identity's newest record is kept while it carries an active
// expansion, since new days are seeded from it.
func (s *QuotaStore) DeleteBefore(ctx context.Context, day, now time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	newest := make(map[string]time.Time)
	for _, r := range s.records {
		if latest, ok := newest[r.Identity]; !ok || r.Day.After(latest) {
			newest[r.Identity] = r.Day
		}
	}

	var count int64
	for k, r := range s.records {
		if !r.Day.Before(day) {
			continue
		}
		if r.Day.Equal(newest[r.Identity]) && r.ExpansionActive(now) {
			continue
		}
		delete(s.records, k)
		count++
	}
	return count, nil
}

// Len returns the number of records in the store.
func (s *QuotaStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
