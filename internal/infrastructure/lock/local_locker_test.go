package lock

import (
	"testing"
	"time"
)

func TestLocalLocker_TryLock(t *testing.T) {
	locker := NewLocalLocker()
	now := time.Date(2026, 2, 6, 18, 0, 0, 0, time.UTC)
	locker.now = func() time.Time { return now }

	unlock, ok, err := locker.TryLock(t.Context(), "k", time.Minute)
	if err != nil || !ok {
		t.Fatalf("expected first lock to succeed, ok=%v err=%v", ok, err)
	}
	if _, ok, _ := locker.TryLock(t.Context(), "k", time.Minute); ok {
		t.Fatalf("expected second lock to be refused while held")
	}
	if _, ok, _ := locker.TryLock(t.Context(), "other", time.Minute); !ok {
		t.Fatalf("expected independent key to lock")
	}

	if err := unlock(t.Context()); err != nil {
		t.Fatalf("unlock: %v", err)
	}
	if _, ok, _ := locker.TryLock(t.Context(), "k", time.Minute); !ok {
		t.Fatalf("expected lock after release")
	}
}

func TestLocalLocker_ExpiredLockIsReacquired(t *testing.T) {
	locker := NewLocalLocker()
	now := time.Date(2026, 2, 6, 18, 0, 0, 0, time.UTC)
	locker.now = func() time.Time { return now }

	staleUnlock, ok, _ := locker.TryLock(t.Context(), "k", time.Minute)
	if !ok {
		t.Fatalf("expected lock")
	}

	now = now.Add(2 * time.Minute)
	if _, ok, _ := locker.TryLock(t.Context(), "k", time.Minute); !ok {
		t.Fatalf("expected expired lock to be reacquired")
	}

	// The stale holder must not release the new owner's lock.
	_ = staleUnlock(t.Context())
	if _, ok, _ := locker.TryLock(t.Context(), "k", time.Minute); ok {
		t.Fatalf("expected lock to remain held by new owner")
	}
}
