package cache

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestLoad_DeduplicatesConcurrentLoads(t *testing.T) {
	t.Parallel()

	store := NewStore(time.Minute)
	var calls atomic.Int32

	loader := func(context.Context) ([]string, error) {
		calls.Add(1)
		time.Sleep(20 * time.Millisecond)
		return []string{"arg-fwd-01"}, nil
	}

	const workers = 32
	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(workers)
	errCh := make(chan error, workers)

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			<-start
			v, err := Load(t.Context(), store, "player:list", loader)
			if err != nil {
				errCh <- err
				return
			}
			if len(v) != 1 || v[0] != "arg-fwd-01" {
				errCh <- errors.New("unexpected loaded value")
			}
		}()
	}

	close(start)
	wg.Wait()
	close(errCh)
	for err := range errCh {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := calls.Load(); got != 1 {
		t.Fatalf("loader called %d times, want 1", got)
	}
}

func TestLoad_ExpiresAfterTTL(t *testing.T) {
	store := NewStore(time.Minute)
	now := time.Date(2026, 6, 11, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	var calls atomic.Int32
	loader := func(context.Context) (int, error) {
		return int(calls.Add(1)), nil
	}

	first, err := Load(t.Context(), store, "k", loader)
	if err != nil {
		t.Fatalf("first load: %v", err)
	}
	second, err := Load(t.Context(), store, "k", loader)
	if err != nil {
		t.Fatalf("second load: %v", err)
	}
	if first != 1 || second != 1 {
		t.Fatalf("expected cached value, got first=%d second=%d", first, second)
	}

	now = now.Add(time.Minute)
	third, err := Load(t.Context(), store, "k", loader)
	if err != nil {
		t.Fatalf("third load: %v", err)
	}
	if third != 2 {
		t.Fatalf("expected reload after ttl, got %d", third)
	}
}

func TestLoad_DoesNotCacheErrors(t *testing.T) {
	store := NewStore(time.Minute)
	boom := errors.New("db down")

	if _, err := Load(t.Context(), store, "k", func(context.Context) (string, error) {
		return "", boom
	}); !errors.Is(err, boom) {
		t.Fatalf("expected loader error, got %v", err)
	}

	got, err := Load(t.Context(), store, "k", func(context.Context) (string, error) {
		return "ok", nil
	})
	if err != nil || got != "ok" {
		t.Fatalf("expected retry to load, got %q err=%v", got, err)
	}
}

func TestLoad_RejectsMismatchedType(t *testing.T) {
	store := NewStore(time.Minute)
	store.Set(t.Context(), "k", 42)

	if _, err := Load(t.Context(), store, "k", func(context.Context) (string, error) {
		return "unused", nil
	}); err == nil {
		t.Fatalf("expected type mismatch error")
	}
}

func TestStore_SetSweepsExpiredEntries(t *testing.T) {
	store := NewStore(time.Second)
	now := time.Date(2026, 6, 11, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	for i := 0; i < sweepEvery-1; i++ {
		store.Set(t.Context(), "old:"+strconv.Itoa(i), i)
	}
	now = now.Add(2 * time.Second)
	store.Set(t.Context(), "fresh", true)

	if got := store.Len(); got != 1 {
		t.Fatalf("expected only the fresh entry after sweep, got %d", got)
	}
}
