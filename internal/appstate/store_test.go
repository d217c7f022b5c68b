package appstate

import (
	"errors"
	"sync"
	"testing"
	"time"

	"pkt.systems/optimus/schema"
)

func TestWithExclusiveAccessIncrements(t *testing.T) {
	store := New()
	if err := store.WithExclusiveAccess(func(state *schema.AppState) error {
		state.IncrementWindowCount()
		return nil
	}); err != nil {
		t.Fatalf("exclusive access: %v", err)
	}
	if got := store.Snapshot().WindowCount; got != 1 {
		t.Fatalf("expected count 1, got %d", got)
	}
}

func TestWithExclusiveAccessReturnsError(t *testing.T) {
	store := New()
	boom := errors.New("boom")
	err := store.WithExclusiveAccess(func(state *schema.AppState) error {
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if got := store.Snapshot().WindowCount; got != 0 {
		t.Fatalf("expected count 0, got %d", got)
	}
}

func TestConcurrentIncrementsAreSerialized(t *testing.T) {
	store := New()
	const workers = 64
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_ = store.WithExclusiveAccess(func(state *schema.AppState) error {
				before := state.WindowCount
				time.Sleep(time.Microsecond)
				if state.IncrementWindowCount() != before+1 {
					t.Errorf("interleaved increment")
				}
				return nil
			})
		}()
	}
	wg.Wait()
	if got := store.Snapshot().WindowCount; got != workers {
		t.Fatalf("expected count %d, got %d", workers, got)
	}
}

func TestSecondCallerBlocksUntilRelease(t *testing.T) {
	store := New()
	entered := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = store.WithExclusiveAccess(func(state *schema.AppState) error {
			close(entered)
			<-release
			state.IncrementWindowCount()
			return nil
		})
	}()
	<-entered

	done := make(chan uint64)
	go func() {
		var seen uint64
		_ = store.WithExclusiveAccess(func(state *schema.AppState) error {
			seen = state.IncrementWindowCount()
			return nil
		})
		done <- seen
	}()

	select {
	case <-done:
		t.Fatalf("second caller did not block")
	case <-time.After(50 * time.Millisecond):
	}
	close(release)
	select {
	case seen := <-done:
		if seen != 2 {
			t.Fatalf("expected second caller to observe 2, got %d", seen)
		}
	case <-time.After(time.Second):
		t.Fatalf("second caller never acquired access")
	}
}
