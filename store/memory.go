package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/sicko7947/wldstore"
	"github.com/sicko7947/wldstore/codec"
)

// DefaultMemoryQuota mirrors the 5 MiB per-origin limit of browser local storage
const DefaultMemoryQuota = 5 * 1024 * 1024

// MemoryBackend implements wldstore.Backend in process memory.
// Usage is counted at two bytes per UTF-16 code unit of key and value, and a
// write that would exceed the quota fails with wldstore.ErrQuotaExceeded.
type MemoryBackend struct {
	data  *xsync.MapOf[string, string]
	used  atomic.Int64
	quota int64
}

var _ wldstore.Backend = (*MemoryBackend)(nil)

// NewMemoryBackend creates a backend with the given quota in bytes.
// A quota <= 0 disables the limit.
func NewMemoryBackend(quota int64) *MemoryBackend {
	return &MemoryBackend{
		data:  xsync.NewMapOf[string, string](),
		quota: quota,
	}
}

func entrySize(key, value string) int64 {
	return int64(codec.EstimateSize(key) + codec.EstimateSize(value))
}

func (m *MemoryBackend) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	value, ok := m.data.Load(key)
	return value, ok, nil
}

func (m *MemoryBackend) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var quotaErr error
	m.data.Compute(key, func(old string, loaded bool) (string, bool) {
		delta := entrySize(key, value)
		if loaded {
			delta -= entrySize(key, old)
		}
		for {
			used := m.used.Load()
			if m.quota > 0 && delta > 0 && used+delta > m.quota {
				quotaErr = fmt.Errorf("writing %s needs %d bytes, %d of %d used: %w",
					key, delta, used, m.quota, wldstore.ErrQuotaExceeded)
				// keep the old value; deleting an unloaded key is a no-op
				return old, !loaded
			}
			if m.used.CompareAndSwap(used, used+delta) {
				return value, false
			}
		}
	})
	return quotaErr
}

func (m *MemoryBackend) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.data.Compute(key, func(old string, loaded bool) (string, bool) {
		if loaded {
			m.used.Add(-entrySize(key, old))
		}
		return old, true
	})
	return nil
}

func (m *MemoryBackend) Keys(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	keys := []string{}
	m.data.Range(func(key string, _ string) bool {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return true
	})
	sort.Strings(keys)
	return keys, nil
}

// Used returns the bytes currently counted against the quota
func (m *MemoryBackend) Used() int64 {
	return m.used.Load()
}

// Quota returns the configured quota in bytes
func (m *MemoryBackend) Quota() int64 {
	return m.quota
}

// Len returns the number of keys
func (m *MemoryBackend) Len() int {
	return m.data.Size()
}
