package limiter

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process limiter with the same policy semantics as PG.
type Memory struct {
	mu      sync.Mutex
	policy  Policy
	now     func() time.Time
	entries map[string]*attempts
}

type attempts struct {
	fails        int
	updatedAt    time.Time
	blockedUntil time.Time
}

// NewMemory constructs an in-memory limiter.
func NewMemory(policy Policy) *Memory {
	return &Memory{policy: policy, now: time.Now, entries: map[string]*attempts{}}
}

func key(login string, ipHash []byte) string { return login + "\x00" + string(ipHash) }

// Allow reports whether the pair is currently unblocked.
func (m *Memory) Allow(_ context.Context, login string, ipHash []byte) (bool, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.entries[key(login, ipHash)]
	if !ok {
		return true, 0, nil
	}
	if wait := a.blockedUntil.Sub(m.now()); wait > 0 {
		return false, wait, nil
	}
	return true, 0, nil
}

// Success forgets the pair's failures.
func (m *Memory) Success(_ context.Context, login string, ipHash []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key(login, ipHash))
	return nil
}

// Failure counts a failure within the window and blocks at the threshold.
func (m *Memory) Failure(_ context.Context, login string, ipHash []byte) (bool, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	k := key(login, ipHash)
	a, ok := m.entries[k]
	if !ok || now.Sub(a.updatedAt) > m.policy.Window {
		a = &attempts{}
		m.entries[k] = a
	}
	a.fails++
	a.updatedAt = now
	if a.fails < m.policy.MaxFails {
		return false, 0, nil
	}
	a.blockedUntil = now.Add(m.policy.BlockFor)
	return true, m.policy.BlockFor, nil
}
