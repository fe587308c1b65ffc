package translate

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
)

type fakeTranslator struct {
	calls   atomic.Int64
	onCall  func(n int64, ctx context.Context) error // nil: return immediately
	results map[int64]string
}

func (f *fakeTranslator) TranslateBatch(ctx context.Context, ids []int64, lang string) (map[int64]string, error) {
	n := f.calls.Add(1)
	if f.onCall != nil {
		if err := f.onCall(n, ctx); err != nil {
			return nil, err
		}
	}
	out := make(map[int64]string, len(ids))
	for _, id := range ids {
		if text, ok := f.results[id]; ok {
			out[id] = text
		}
	}
	return out, nil
}

func TestCacheHitIssuesOneBatchCall(t *testing.T) {
	tr := &fakeTranslator{results: map[int64]string{1: "नमस्ते", 2: "धन्यवाद"}}
	c := New(tr, 8)
	c.SetCurrentRoom(5)

	ids := []int64{1, 2}
	first, err := c.GetOrFetch(context.Background(), 5, "hi", ids)
	if err != nil {
		t.Fatalf("first fetch failed: %v", err)
	}
	second, err := c.GetOrFetch(context.Background(), 5, "hi", ids)
	if err != nil {
		t.Fatalf("second fetch failed: %v", err)
	}

	if got := tr.calls.Load(); got != 1 {
		t.Fatalf("expected exactly 1 batch call, got %d", got)
	}
	if first[1] != second[1] || second[1] != "नमस्ते" {
		t.Errorf("cache returned different data: %v vs %v", first, second)
	}
}

func TestFetchSuccessStoresForLookup(t *testing.T) {
	tr := &fakeTranslator{results: map[int64]string{1: "hola"}}
	c := New(tr, 8)
	c.SetCurrentRoom(5)

	texts, err := c.GetOrFetch(context.Background(), 5, "es", []int64{1})
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if texts[1] != "hola" {
		t.Errorf("texts = %v", texts)
	}
	if text, ok := c.Lookup(5, "es", 1); !ok || text != "hola" {
		t.Errorf("lookup after fetch = %q ok=%v", text, ok)
	}
}

func TestChangedIDSetRefetches(t *testing.T) {
	tr := &fakeTranslator{results: map[int64]string{1: "eins", 2: "zwei"}}
	c := New(tr, 8)
	c.SetCurrentRoom(5)

	if _, err := c.GetOrFetch(context.Background(), 5, "de", []int64{1, 2}); err != nil {
		t.Fatalf("first fetch failed: %v", err)
	}
	// A smaller id set must not be served from the larger entry.
	if _, err := c.GetOrFetch(context.Background(), 5, "de", []int64{1}); err != nil {
		t.Fatalf("second fetch failed: %v", err)
	}
	if got := tr.calls.Load(); got != 2 {
		t.Fatalf("expected a refetch for the changed id set, got %d calls", got)
	}
}

func TestLookupFallsBackOnMiss(t *testing.T) {
	c := New(&fakeTranslator{}, 8)

	if _, ok := c.Lookup(5, "hi", 1); ok {
		t.Fatal("lookup hit on empty cache")
	}
}

func TestStaleRoomResultDiscarded(t *testing.T) {
	tr := &fakeTranslator{results: map[int64]string{1: "hola"}}
	c := New(tr, 8)
	c.SetCurrentRoom(9) // user already moved on

	_, err := c.GetOrFetch(context.Background(), 5, "es", []int64{1})
	if !errors.Is(err, ErrStale) {
		t.Fatalf("expected ErrStale, got %v", err)
	}
	if _, ok := c.Lookup(5, "es", 1); ok {
		t.Fatal("stale result was cached")
	}
}

func TestNewFetchSupersedesInflight(t *testing.T) {
	inflight := make(chan struct{})
	tr := &fakeTranslator{results: map[int64]string{1: "bonjour"}}
	// The first call parks until the superseding fetch cancels it; the
	// second returns immediately.
	tr.onCall = func(n int64, ctx context.Context) error {
		if n == 1 {
			close(inflight)
			<-ctx.Done()
			return ctx.Err()
		}
		return nil
	}
	c := New(tr, 8)
	c.SetCurrentRoom(5)

	firstDone := make(chan error, 1)
	go func() {
		_, err := c.GetOrFetch(context.Background(), 5, "fr", []int64{1})
		firstDone <- err
	}()

	<-inflight
	if _, err := c.GetOrFetch(context.Background(), 5, "fr", []int64{1}); err != nil {
		t.Fatalf("superseding fetch failed: %v", err)
	}

	if err := <-firstDone; !errors.Is(err, ErrStale) {
		t.Fatalf("superseded fetch returned %v, want ErrStale", err)
	}
}

func TestLRUEviction(t *testing.T) {
	tr := &fakeTranslator{results: map[int64]string{1: "x"}}
	c := New(tr, 2)

	for roomID := int64(1); roomID <= 3; roomID++ {
		c.SetCurrentRoom(roomID)
		if _, err := c.GetOrFetch(context.Background(), roomID, "de", []int64{1}); err != nil {
			t.Fatalf("fetch for room %d failed: %v", roomID, err)
		}
	}

	if c.Len() != 2 {
		t.Fatalf("cache holds %d entries, want 2", c.Len())
	}
	if _, ok := c.Lookup(1, "de", 1); ok {
		t.Fatal("oldest entry not evicted")
	}
	if _, ok := c.Lookup(3, "de", 1); !ok {
		t.Fatal("newest entry missing")
	}
}
