// Package lock provides the cluster-wide try-lock used to serialize
// per-event poll attempts across scheduler instances. Locks are held
// only for lease bookkeeping, never across provider fetches, so every
// backend optimizes for cheap non-blocking acquisition.
package lock

import (
	"context"
	"sync"
)

// TryLocker acquires a named lock without blocking. ok reports whether
// the lock was taken; when it was, release must be called to free it.
// A false ok with nil error means another holder has the lock, which
// callers treat as "skip this cycle".
type TryLocker interface {
	TryAcquire(ctx context.Context, name string) (release func(), ok bool, err error)
}

// Memory is a process-local TryLocker for single-instance deployments
// and tests.
type Memory struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewMemory creates an empty in-process locker.
func NewMemory() *Memory {
	return &Memory{held: make(map[string]struct{})}
}

// TryAcquire implements TryLocker.
func (m *Memory) TryAcquire(_ context.Context, name string) (func(), bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, taken := m.held[name]; taken {
		return nil, false, nil
	}
	m.held[name] = struct{}{}
	release := func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.held, name)
	}
	return release, true, nil
}
