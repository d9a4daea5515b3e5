package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

func TestStore_GetOrLoad_UsesSingleFlight(t *testing.T) {
	t.Parallel()

	store := NewStore(time.Minute)
	var calls atomic.Int32

	loader := func(context.Context) (any, error) {
		calls.Add(1)
		time.Sleep(20 * time.Millisecond)
		return "value", nil
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
			v, err := store.GetOrLoad(t.Context(), "state:abc", loader)
			if err != nil {
				errCh <- err
				return
			}
			if got, _ := v.(string); got != "value" {
				errCh <- errUnexpectedValue
			}
		}()
	}

	close(start)
	wg.Wait()
	close(errCh)
	for err := range errCh {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if got := calls.Load(); got != 1 {
		t.Fatalf("loader called %d times, want 1", got)
	}
}

func TestStore_GetOrLoad_UsesCachedValueAfterFirstLoad(t *testing.T) {
	t.Parallel()

	store := NewStore(time.Minute)
	var calls atomic.Int32

	loader := func(context.Context) (any, error) {
		calls.Add(1)
		return "cached", nil
	}

	if _, err := store.GetOrLoad(context.Background(), "k", loader); err != nil {
		t.Fatalf("first GetOrLoad error: %v", err)
	}
	if _, err := store.GetOrLoad(context.Background(), "k", loader); err != nil {
		t.Fatalf("second GetOrLoad error: %v", err)
	}

	if got := calls.Load(); got != 1 {
		t.Fatalf("loader called %d times, want 1", got)
	}
}

func TestStore_GetExpiresAfterTTL(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	store := NewStoreWithClock(5*time.Second, clock)
	ctx := t.Context()

	store.Set(ctx, "state:v1", 1)
	if _, ok := store.Get(ctx, "state:v1"); !ok {
		t.Fatalf("expected fresh entry")
	}

	clock.Advance(5 * time.Second)
	if _, ok := store.Get(ctx, "state:v1"); ok {
		t.Fatalf("expected entry to expire at ttl")
	}
	if got := store.Len(); got != 0 {
		t.Fatalf("expired entry not evicted, len=%d", got)
	}
}

func TestStore_DeletePrefixKeepsCurrentKey(t *testing.T) {
	t.Parallel()

	store := NewStore(0)
	ctx := t.Context()
	store.Set(ctx, "state:v1", 1)
	store.Set(ctx, "state:v2", 2)
	store.Set(ctx, "other", 3)

	if removed := store.DeletePrefix(ctx, "state:", "state:v2"); removed != 1 {
		t.Fatalf("removed %d entries, want 1", removed)
	}
	if _, ok := store.Get(ctx, "state:v2"); !ok {
		t.Fatalf("kept key was deleted")
	}
	if _, ok := store.Get(ctx, "other"); !ok {
		t.Fatalf("unrelated key was deleted")
	}
}

var errUnexpectedValue = errors.New("unexpected loaded value")
