package admission

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

func TestRedisLimiterFallsBackWhenUnreachable(t *testing.T) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = rdb.Close() })

	fallback := NewLocalLimiter()
	l := NewRedisLimiter(rdb, fallback, nil)
	ctx := context.Background()

	if !l.Allow(ctx, "u", 1, time.Minute) {
		t.Fatalf("first request should be allowed by fallback")
	}
	if l.Allow(ctx, "u", 1, time.Minute) {
		t.Fatalf("second request should be denied by fallback")
	}
	if fallback.Len() != 1 {
		t.Fatalf("fallback should track the identity, Len=%d", fallback.Len())
	}
}

// memScripter evaluates the sliding-window script against an in-memory
// sorted set, honoring the exclusive prune bound.
type memScripter struct {
	mu    sync.Mutex
	sets  map[string]map[string]int64
	calls int
}

func (m *memScripter) run(keys []string, args ...interface{}) *goredis.Cmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	cmd := goredis.NewCmd(context.Background())
	cutoff, _ := strconv.ParseInt(fmt.Sprint(args[0]), 10, 64)
	limit, _ := strconv.Atoi(fmt.Sprint(args[1]))
	now, _ := strconv.ParseInt(fmt.Sprint(args[2]), 10, 64)
	set := m.sets[keys[0]]
	if set == nil {
		set = map[string]int64{}
		m.sets[keys[0]] = set
	}
	for member, score := range set {
		if score < cutoff {
			delete(set, member)
		}
	}
	if len(set) >= limit {
		cmd.SetVal(int64(0))
		return cmd
	}
	set[fmt.Sprint(args[3])] = now
	cmd.SetVal(int64(1))
	return cmd
}

func (m *memScripter) Eval(_ context.Context, _ string, keys []string, args ...interface{}) *goredis.Cmd {
	return m.run(keys, args...)
}

func (m *memScripter) EvalSha(_ context.Context, _ string, keys []string, args ...interface{}) *goredis.Cmd {
	return m.run(keys, args...)
}

func (m *memScripter) EvalRO(_ context.Context, _ string, keys []string, args ...interface{}) *goredis.Cmd {
	return m.run(keys, args...)
}

func (m *memScripter) EvalShaRO(_ context.Context, _ string, keys []string, args ...interface{}) *goredis.Cmd {
	return m.run(keys, args...)
}

func (m *memScripter) ScriptExists(ctx context.Context, hashes ...string) *goredis.BoolSliceCmd {
	cmd := goredis.NewBoolSliceCmd(ctx)
	cmd.SetVal(make([]bool, len(hashes)))
	return cmd
}

func (m *memScripter) ScriptLoad(ctx context.Context, _ string) *goredis.StringCmd {
	cmd := goredis.NewStringCmd(ctx)
	cmd.SetVal("sha")
	return cmd
}

func TestRedisLimiterWindowBoundary(t *testing.T) {
	t0 := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := &fakeClock{t: t0}
	mem := &memScripter{sets: map[string]map[string]int64{}}
	l := NewRedisLimiter(mem, NewLocalLimiter(), nil)
	l.now = clock.Now
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if !l.Allow(ctx, "u", 2, time.Minute) {
			t.Fatalf("hit %d denied", i+1)
		}
	}
	clock.Advance(time.Minute)
	if l.Allow(ctx, "u", 2, time.Minute) {
		t.Fatalf("hits exactly one window old must still count")
	}
	clock.Advance(time.Microsecond)
	if !l.Allow(ctx, "u", 2, time.Minute) {
		t.Fatalf("expected a slot once the oldest hits aged out")
	}
	if mem.calls != 4 {
		t.Fatalf("each decision should be one script call, got %d", mem.calls)
	}
}

func TestSlidingWindowScriptPrunesExclusively(t *testing.T) {
	for _, want := range []string{"'-inf', '(' .. ARGV[1]", "ZCARD", "ZADD", "PEXPIRE"} {
		if !strings.Contains(slidingWindowSource, want) {
			t.Fatalf("script missing %q", want)
		}
	}
}
