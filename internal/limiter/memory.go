package limiter

import (
	"context"
	"sync"
	"time"
)

var _ Limiter = (*Memory)(nil)

type attempt struct {
	fails        int
	updatedAt    time.Time
	blockedUntil time.Time
}

// Memory is an in-process limiter with the same policy semantics as PG.
type Memory struct {
	mu     sync.Mutex
	policy Policy
	now    func() time.Time
	seen   map[string]*attempt
}

// NewMemory constructs an in-process limiter.
func NewMemory(p Policy) *Memory {
	return &Memory{policy: p, now: time.Now, seen: make(map[string]*attempt)}
}

func key(login string, ipHash []byte) string { return login + "\x00" + string(ipHash) }

// Allow reports whether sign-in is currently allowed.
func (m *Memory) Allow(_ context.Context, login string, ipHash []byte) (bool, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.seen[key(login, ipHash)]
	if !ok {
		return true, 0, nil
	}
	if wait := a.blockedUntil.Sub(m.now()); wait > 0 {
		return false, wait, nil
	}
	return true, 0, nil
}

// Success forgets previous failures.
func (m *Memory) Success(_ context.Context, login string, ipHash []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.seen, key(login, ipHash))
	return nil
}

// Failure counts a failed attempt and blocks once MaxFails is reached inside Window.
func (m *Memory) Failure(_ context.Context, login string, ipHash []byte) (bool, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	k := key(login, ipHash)
	a, ok := m.seen[k]
	switch {
	case !ok:
		a = &attempt{fails: 1}
		m.seen[k] = a
	case now.Sub(a.updatedAt) > m.policy.Window:
		a.fails = 1
	default:
		a.fails++
	}
	a.updatedAt = now
	if a.fails < m.policy.MaxFails {
		return false, 0, nil
	}
	a.blockedUntil = now.Add(m.policy.BlockFor)
	return true, m.policy.BlockFor, nil
}
