package stores

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/sicko7947/wldstore/store"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.UnixMilli(1700000000000)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newBackend() *store.MemoryBackend {
	return store.NewMemoryBackend(store.DefaultMemoryQuota)
}

func newBackendWithQuota(quota int64) *store.MemoryBackend {
	return store.NewMemoryBackend(quota)
}

// fakeImage returns a compressible data URI of exactly n characters
func fakeImage(n int) string {
	prefix := "data:image/png;base64,"
	body := strings.Repeat("iVBORw0KGgoAAAANSUhEUgAA", n/24+1)
	return (prefix + body)[:n]
}

// unreadableBackend fails the next failGets calls to Get
type unreadableBackend struct {
	*store.MemoryBackend
	failGets int
}

func (b *unreadableBackend) Get(ctx context.Context, key string) (string, bool, error) {
	if b.failGets > 0 {
		b.failGets--
		return "", false, errors.New("connection reset by peer")
	}
	return b.MemoryBackend.Get(ctx, key)
}
