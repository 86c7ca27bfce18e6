// Package lock serializes optimization runs per planning date, so two
// commits for the same date can never interleave their delete-then-insert.
package lock

import (
	"context"
	"sync"
	"time"
)

// Locker acquires an exclusive lock for a key, blocking until it is free or
// the context ends. The returned function releases the lock.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}

// Memory is the in-process locker used when no Redis is configured; it
// serializes runs within a single instance.
type Memory struct {
	mu   sync.Mutex
	sems map[string]chan struct{}
}

func NewMemory() *Memory {
	return &Memory{sems: map[string]chan struct{}{}}
}

func (m *Memory) sem(key string) chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sems[key] == nil {
		m.sems[key] = make(chan struct{}, 1)
	}
	return m.sems[key]
}

func (m *Memory) Acquire(ctx context.Context, key string, _ time.Duration) (func(), error) {
	sem := m.sem(key)
	select {
	case sem <- struct{}{}:
		return func() { <-sem }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
