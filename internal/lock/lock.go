// Package lock provides the mutual exclusion used to keep scheduler runs from
// overlapping, either in-process or across instances through Redis.
package lock

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrLocked is returned by Acquire when another owner holds the key.
var ErrLocked = errors.New("lock is held by another owner")

// Release gives up a previously acquired lock.
type Release func(ctx context.Context) error

// Locker acquires a named, expiring lock.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (Release, error)
}

// LocalLocker is an in-process Locker for single-instance deployments and tests.
type LocalLocker struct {
	mu   sync.Mutex
	held map[string]localEntry
	seq  uint64
	now  func() time.Time
}

type localEntry struct {
	token     uint64
	expiresAt time.Time
}

// NewLocalLocker creates an empty LocalLocker.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: make(map[string]localEntry), now: time.Now}
}

// Acquire takes key unless it is held and not yet expired. A ttl <= 0 never expires.
func (l *LocalLocker) Acquire(_ context.Context, key string, ttl time.Duration) (Release, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if entry, ok := l.held[key]; ok {
		if entry.expiresAt.IsZero() || now.Before(entry.expiresAt) {
			return nil, ErrLocked
		}
	}
	l.seq++
	entry := localEntry{token: l.seq}
	if ttl > 0 {
		entry.expiresAt = now.Add(ttl)
	}
	l.held[key] = entry

	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		// Only the owner that set the entry may clear it; an expired lock may
		// already belong to someone else.
		if current, ok := l.held[key]; ok && current.token == entry.token {
			delete(l.held, key)
		}
		return nil
	}, nil
}
