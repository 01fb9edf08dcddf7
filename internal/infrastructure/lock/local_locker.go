package lock

import (
	"context"
	"sync"
	"time"
)

// LocalLocker serializes runs inside one process. Used when no redis is
// configured.
type LocalLocker struct {
	mu      sync.Mutex
	holders map[string]time.Time
	now     func() time.Time
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{
		holders: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (l *LocalLocker) TryLock(_ context.Context, key string, ttl time.Duration) (func(ctx context.Context) error, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if expiresAt, held := l.holders[key]; held && now.Before(expiresAt) {
		return nil, false, nil
	}
	expiresAt := now.Add(ttl)
	l.holders[key] = expiresAt

	unlock := func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		if current, ok := l.holders[key]; ok && current.Equal(expiresAt) {
			delete(l.holders, key)
		}
		return nil
	}
	return unlock, true, nil
}
