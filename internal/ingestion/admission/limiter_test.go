package admission

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.t = f.t.Add(d)
	f.mu.Unlock()
}

func TestLocalLimiterDenies101stWithinMinute(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	l := NewLocalLimiterWithClock(clock.Now)
	ctx := context.Background()

	for i := 0; i < 100; i++ {
		if !l.Allow(ctx, "user-1", 100, time.Minute) {
			t.Fatalf("request %d denied", i+1)
		}
		clock.Advance(500 * time.Millisecond)
	}
	if l.Allow(ctx, "user-1", 100, time.Minute) {
		t.Fatalf("101st request within one minute was allowed")
	}
	if !l.Allow(ctx, "user-2", 100, time.Minute) {
		t.Fatalf("other identity should not be affected")
	}
}

func TestLocalLimiterWindowSlides(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	l := NewLocalLimiterWithClock(clock.Now)
	ctx := context.Background()

	if !l.Allow(ctx, "a", 2, time.Minute) {
		t.Fatalf("first denied")
	}
	clock.Advance(30 * time.Second)
	if !l.Allow(ctx, "a", 2, time.Minute) {
		t.Fatalf("second denied")
	}
	if l.Allow(ctx, "a", 2, time.Minute) {
		t.Fatalf("third should be denied")
	}
	clock.Advance(30 * time.Second)
	if l.Allow(ctx, "a", 2, time.Minute) {
		t.Fatalf("a hit exactly one window old still counts")
	}
	clock.Advance(time.Millisecond)
	if !l.Allow(ctx, "a", 2, time.Minute) {
		t.Fatalf("expected a slot after the oldest hit expired")
	}
}

func TestLocalLimiterKeepsHitsAtWindowBoundary(t *testing.T) {
	t0 := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := &fakeClock{t: t0}
	l := NewLocalLimiterWithClock(clock.Now)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if !l.Allow(ctx, "b", 2, time.Minute) {
			t.Fatalf("hit %d denied", i+1)
		}
	}
	clock.Advance(time.Minute)
	if l.Allow(ctx, "b", 2, time.Minute) {
		t.Fatalf("hits at exactly now-window must not be discarded")
	}
	if n := l.Sweep(clock.Now()); n != 0 {
		t.Fatalf("Sweep evicted a window with boundary hits: %d", n)
	}
}

func TestLocalLimiterEmptyIdentityUsesUnknownBucket(t *testing.T) {
	l := NewLocalLimiter()
	ctx := context.Background()
	if !l.Allow(ctx, "", 1, time.Minute) {
		t.Fatalf("first anonymous request denied")
	}
	if l.Allow(ctx, "  ", 1, time.Minute) {
		t.Fatalf("anonymous callers must share one bucket")
	}
	if l.Allow(ctx, UnknownIdentity, 1, time.Minute) {
		t.Fatalf("unknown bucket should be exhausted")
	}
}

func TestLocalLimiterSweep(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	l := NewLocalLimiterWithClock(clock.Now)
	ctx := context.Background()
	for i := 0; i < 10; i++ {
		l.Allow(ctx, fmt.Sprintf("id-%d", i), 5, time.Minute)
	}
	if l.Len() != 10 {
		t.Fatalf("Len=%d want 10", l.Len())
	}
	if n := l.Sweep(clock.Now().Add(30 * time.Second)); n != 0 {
		t.Fatalf("Sweep removed %d live windows", n)
	}
	if n := l.Sweep(clock.Now().Add(2 * time.Minute)); n != 10 {
		t.Fatalf("Sweep removed %d, want 10", n)
	}
	if l.Len() != 0 {
		t.Fatalf("Len after sweep=%d", l.Len())
	}
}

func TestLocalLimiterConcurrentSameIdentity(t *testing.T) {
	l := NewLocalLimiter()
	ctx := context.Background()
	var allowed atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 500; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Allow(ctx, "shared", 100, time.Hour) {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()
	if got := allowed.Load(); got != 100 {
		t.Fatalf("allowed=%d want exactly 100", got)
	}
}

func TestLocalLimiterConcurrentSweep(t *testing.T) {
	l := NewLocalLimiter()
	ctx := context.Background()
	var allowed atomic.Int64
	var wg sync.WaitGroup
	stop := make(chan struct{})
	go func() {
		for {
			select {
			case <-stop:
				return
			default:
				l.Sweep(time.Now().Add(-time.Hour))
			}
		}
	}()
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Allow(ctx, "swept", 50, time.Hour) {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()
	close(stop)
	if got := allowed.Load(); got != 50 {
		t.Fatalf("allowed=%d want exactly 50", got)
	}
}
