package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/riskibarqy/bilardeando/internal/platform/resilience"
)

// sweepEvery bounds how many writes may pass between expired-entry sweeps.
const sweepEvery = 256

type entry struct {
	value     any
	expiresAt time.Time
}

// Store is a process-local TTL cache with per-key load deduplication. It
// backs the catalog read decorators and the auth principal cache.
type Store struct {
	ttl time.Duration
	now func() time.Time

	mu     sync.RWMutex
	items  map[string]entry
	writes int

	flight resilience.SingleFlight[any]
}

func NewStore(ttl time.Duration) *Store {
	return &Store{
		ttl:   ttl,
		now:   time.Now,
		items: make(map[string]entry),
	}
}

func (s *Store) Get(_ context.Context, key string) (any, bool) {
	if key == "" {
		return nil, false
	}

	s.mu.RLock()
	e, ok := s.items[key]
	s.mu.RUnlock()
	if !ok || s.expired(e) {
		return nil, false
	}
	return e.value, true
}

func (s *Store) Set(_ context.Context, key string, value any) {
	if key == "" {
		return
	}

	var expiresAt time.Time
	if s.ttl > 0 {
		expiresAt = s.now().Add(s.ttl)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[key] = entry{value: value, expiresAt: expiresAt}
	s.writes++
	if s.writes >= sweepEvery {
		s.writes = 0
		for k, e := range s.items {
			if s.expired(e) {
				delete(s.items, k)
			}
		}
	}
}

// Len counts entries including expired ones not yet swept.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// GetOrLoad returns the cached value or runs loader once across concurrent
// callers. Loader errors are never cached.
func (s *Store) GetOrLoad(ctx context.Context, key string, loader func(context.Context) (any, error)) (any, error) {
	if loader == nil {
		return nil, fmt.Errorf("loader is required")
	}
	if key == "" {
		return loader(ctx)
	}
	if value, ok := s.Get(ctx, key); ok {
		return value, nil
	}

	value, _, err := s.flight.Do(key, func() (any, error) {
		if cached, ok := s.Get(ctx, key); ok {
			return cached, nil
		}
		loaded, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		s.Set(ctx, key, loaded)
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Load is the typed form of GetOrLoad.
func Load[T any](ctx context.Context, s *Store, key string, loader func(context.Context) (T, error)) (T, error) {
	value, err := s.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		return loader(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}

	out, ok := value.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("cache key %q holds %T", key, value)
	}
	return out, nil
}

func (s *Store) expired(e entry) bool {
	return s.ttl > 0 && !e.expiresAt.After(s.now())
}
