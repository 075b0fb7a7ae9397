package memdb

import (
	"context"
	"sync"

	"github.com/cyverse/pdfa/internal/model"
)

// keyedLocks hands out one mutex per key. Mutexes are never removed, so the number of keys is bounded only by the
// lifetime of the store.
type keyedLocks[K comparable] struct {
	mu    sync.Mutex
	locks map[K]*sync.Mutex
}

// lock blocks until the key is available and returns the function that releases it.
func (k *keyedLocks[K]) lock(key K) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[K]*sync.Mutex)
	}
	l, ok := k.locks[key]
	if !ok {
		l = &sync.Mutex{}
		k.locks[key] = l
	}
	k.mu.Unlock()

	l.Lock()
	return l.Unlock
}

type unitKey struct{}

// unit collects the quota changes made while a job or request is being transitioned. Quota records touched by the
// unit stay locked until it finishes, and their changes are published only if the transition is saved.
type unit struct {
	held     map[quotaKey]bool
	staged   map[quotaKey]model.QuotaRecord
	publish  func(quotaKey, model.QuotaRecord)
	releases []func()
}

// begin starts a unit of work unless the context already carries one. The returned function ends the unit, either
// publishing or discarding its changes.
func begin(ctx context.Context) (context.Context, func(commit bool)) {
	if unitFrom(ctx) != nil {
		return ctx, func(bool) {}
	}
	u := &unit{
		held:   make(map[quotaKey]bool),
		staged: make(map[quotaKey]model.QuotaRecord),
	}
	return context.WithValue(ctx, unitKey{}, u), u.finish
}

func unitFrom(ctx context.Context) *unit {
	u, _ := ctx.Value(unitKey{}).(*unit)
	return u
}

func (u *unit) holds(key quotaKey) bool {
	return u != nil && u.held[key]
}

func (u *unit) hold(key quotaKey, release func()) {
	u.held[key] = true
	u.releases = append(u.releases, release)
}

func (u *unit) lookup(key quotaKey) (model.QuotaRecord, bool) {
	if u == nil {
		return model.QuotaRecord{}, false
	}
	r, ok := u.staged[key]
	return r, ok
}

func (u *unit) stage(key quotaKey, r model.QuotaRecord, publish func(quotaKey, model.QuotaRecord)) {
	u.staged[key] = r
	u.publish = publish
}

func (u *unit) finish(commit bool) {
	if commit {
		for key, r := range u.staged {
			u.publish(key, r)
		}
	}
	for i := len(u.releases) - 1; i >= 0; i-- {
		u.releases[i]()
	}
}
