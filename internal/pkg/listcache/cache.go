// Package listcache caches rendered list views by request path.
//
// Each path carries a generation number. Entries are stored under the
// generation that was current when their data was read, and Invalidate
// bumps the generation, so every entry cached for the path becomes
// unreachable in one step. Stale generations are never overwritten.
package listcache

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Memory is an in-process cache used when Redis is not configured.
type Memory struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	gens    map[string]int64
	entries map[string]memEntry
}

type memEntry struct {
	gen     int64
	data    []byte
	expires time.Time
}

// NewMemory creates an in-memory cache whose entries live for ttl.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		ttl:     ttl,
		now:     time.Now,
		gens:    make(map[string]int64),
		entries: make(map[string]memEntry),
	}
}

func (m *Memory) Get(_ context.Context, path, variant string) ([]byte, int64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	gen := m.gens[path]
	e, ok := m.entries[path+"\x00"+variant]
	if !ok || e.gen != gen || m.now().After(e.expires) {
		return nil, gen, false, nil
	}
	return e.data, gen, true, nil
}

func (m *Memory) Set(_ context.Context, path, variant string, gen int64, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.gens[path] {
		return nil
	}
	m.entries[path+"\x00"+variant] = memEntry{gen: gen, data: data, expires: m.now().Add(m.ttl)}
	return nil
}

func (m *Memory) Invalidate(_ context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gens[path]++
	prefix := path + "\x00"
	for k := range m.entries {
		if strings.HasPrefix(k, prefix) {
			delete(m.entries, k)
		}
	}
	return nil
}
