package maintenance

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
)

type fakeSweeper struct {
	calls int64
	count int64
	err   error
}

func (f *fakeSweeper) SweepExpired(context.Context, time.Time) (int64, error) {
	atomic.AddInt64(&f.calls, 1)
	return f.count, f.err
}

type fakeCleaner struct {
	days    int
	removed int
	err     error
}

func (f *fakeCleaner) Cleanup(_ context.Context, days int) (int, error) {
	f.days = days
	return f.removed, f.err
}

func TestRunOnce(t *testing.T) {
	sweeper := &fakeSweeper{count: 3}
	cleaner := &fakeCleaner{removed: 5}
	now := time.Date(2025, 8, 27, 0, 0, 0, 0, time.UTC)

	report, err := NewRunner(sweeper, cleaner, 7).RunOnce(context.Background(), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.ExpiredExpansions != 3 || report.RemovedJobs != 5 || !report.AsOf.Equal(now) {
		t.Fatalf("unexpected report: %+v", report)
	}
	if cleaner.days != 7 {
		t.Fatalf("expected a seven day retention period, got %d", cleaner.days)
	}
}

func TestRunOnceStopsOnSweepFailure(t *testing.T) {
	sweeper := &fakeSweeper{err: errors.New("database unavailable")}
	cleaner := &fakeCleaner{}
	if _, err := NewRunner(sweeper, cleaner, 7).RunOnce(context.Background(), time.Now()); err == nil {
		t.Fatalf("expected the sweep failure to be returned")
	}
	if cleaner.days != 0 {
		t.Fatalf("cleanup must not run after a failed sweep")
	}
}

func TestStart(t *testing.T) {
	sweeper := &fakeSweeper{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	NewRunner(sweeper, nil, 0).Start(ctx, 10*time.Millisecond)

	deadline := time.Now().Add(2 * time.Second)
	for atomic.LoadInt64(&sweeper.calls) < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("the maintenance loop did not run")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
