package resilience

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestSingleFlight_Do(t *testing.T) {
	var g SingleFlight[string]
	var calls, shared atomic.Int32

	const workers = 20
	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(workers)

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			<-start
			val, wasShared, err := g.Do("payment:123", func() (string, error) {
				calls.Add(1)
				time.Sleep(20 * time.Millisecond)
				return "approved", nil
			})
			if err != nil || val != "approved" {
				t.Errorf("unexpected result: val=%q err=%v", val, err)
			}
			if wasShared {
				shared.Add(1)
			}
		}()
	}

	close(start)
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Fatalf("expected function to run once, got %d", got)
	}
	if got := shared.Load(); got != workers-1 {
		t.Fatalf("expected %d shared results, got %d", workers-1, got)
	}
}

func TestSingleFlight_PanicReleasesWaiters(t *testing.T) {
	var g SingleFlight[int]
	entered := make(chan struct{})
	release := make(chan struct{})

	go func() {
		defer func() { _ = recover() }()
		_, _, _ = g.Do("k", func() (int, error) {
			close(entered)
			<-release
			panic("boom")
		})
	}()

	<-entered
	done := make(chan error, 1)
	go func() {
		_, _, err := g.Do("k", func() (int, error) { return 1, nil })
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	close(release)

	select {
	case err := <-done:
		if err != nil && !errors.Is(err, errFlightPanicked) {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("waiter was not released after panic")
	}
}
