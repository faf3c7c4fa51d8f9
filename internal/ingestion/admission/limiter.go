// Package admission gates the ingestion entry point with a per-identity
// sliding-window request counter.
package admission

import (
	"context"
	"hash/fnv"
	"strings"
	"sync"
	"time"
)

// UnknownIdentity is the bucket for callers whose identity cannot be determined.
const UnknownIdentity = "unknown"

const shardCount = 64

type Limiter interface {
	// Allow records a hit and returns true when identity has made fewer than
	// limit accepted calls within the trailing window.
	Allow(ctx context.Context, identity string, limit int, window time.Duration) bool
}

func normalizeIdentity(identity string) string {
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return UnknownIdentity
	}
	return identity
}

// slidingWindow is the accepted-hit queue of one identity, oldest first.
type slidingWindow struct {
	mu     sync.Mutex
	hits   []time.Time
	span   time.Duration
	closed bool
}

// prune drops hits older than now-span; a hit exactly span old still
// counts. Caller holds mu.
func (w *slidingWindow) prune(now time.Time) {
	cutoff := now.Add(-w.span)
	i := 0
	for i < len(w.hits) && w.hits[i].Before(cutoff) {
		i++
	}
	if i == 0 {
		return
	}
	n := copy(w.hits, w.hits[i:])
	clear(w.hits[n:])
	w.hits = w.hits[:n]
}

type shard struct {
	mu      sync.Mutex
	windows map[string]*slidingWindow
}

// LocalLimiter keeps state in process memory. Identities hash onto fixed
// shards; each identity's queue has its own lock so unrelated callers never
// contend beyond the brief shard map lookup.
type LocalLimiter struct {
	shards [shardCount]shard
	now    func() time.Time
}

func NewLocalLimiter() *LocalLimiter {
	return NewLocalLimiterWithClock(time.Now)
}

func NewLocalLimiterWithClock(now func() time.Time) *LocalLimiter {
	if now == nil {
		now = time.Now
	}
	l := &LocalLimiter{now: now}
	for i := range l.shards {
		l.shards[i].windows = make(map[string]*slidingWindow)
	}
	return l
}

func (l *LocalLimiter) shardFor(identity string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(identity))
	return &l.shards[h.Sum32()%shardCount]
}

func (l *LocalLimiter) Allow(_ context.Context, identity string, limit int, window time.Duration) bool {
	identity = normalizeIdentity(identity)
	s := l.shardFor(identity)
	for {
		s.mu.Lock()
		w, ok := s.windows[identity]
		if !ok {
			w = &slidingWindow{}
			s.windows[identity] = w
		}
		s.mu.Unlock()

		w.mu.Lock()
		if w.closed {
			// Evicted by Sweep between lookup and lock; look up again.
			w.mu.Unlock()
			continue
		}
		now := l.now()
		w.span = window
		w.prune(now)
		allowed := len(w.hits) < limit
		if allowed {
			w.hits = append(w.hits, now)
		}
		w.mu.Unlock()
		return allowed
	}
}

// Sweep evicts identities with no hits inside their window and returns how
// many were removed.
func (l *LocalLimiter) Sweep(now time.Time) int {
	removed := 0
	for i := range l.shards {
		s := &l.shards[i]
		s.mu.Lock()
		for id, w := range s.windows {
			w.mu.Lock()
			w.prune(now)
			if len(w.hits) == 0 {
				w.closed = true
				delete(s.windows, id)
				removed++
			}
			w.mu.Unlock()
		}
		s.mu.Unlock()
	}
	return removed
}

// Len returns the number of tracked identities.
func (l *LocalLimiter) Len() int {
	n := 0
	for i := range l.shards {
		s := &l.shards[i]
		s.mu.Lock()
		n += len(s.windows)
		s.mu.Unlock()
	}
	return n
}

// RunSweeper calls Sweep every interval until ctx is done.
func (l *LocalLimiter) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			l.Sweep(l.now())
		}
	}
}
