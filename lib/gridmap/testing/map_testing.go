package testing

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"github.com/ValentinKolb/dGrid/lib/gridmap"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// MapFactory creates a new, empty map for a test. Every call must return a map
// that does not share entries with maps returned earlier.
type MapFactory func(t *testing.T) gridmap.IMap

// RunIMapTests runs a comprehensive test suite for an IMap implementation.
func RunIMapTests(t *testing.T, name string, factory MapFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Put&Get", func(t *testing.T) {
			testPutGet(t, factory(t))
		})

		t.Run("PutIfAbsent", func(t *testing.T) {
			testPutIfAbsent(t, factory(t))
		})

		t.Run("Remove", func(t *testing.T) {
			testRemove(t, factory(t))
		})

		t.Run("ContainsKey", func(t *testing.T) {
			testContainsKey(t, factory(t))
		})

		t.Run("EntryListener", func(t *testing.T) {
			testEntryListener(t, factory(t))
		})

		t.Run("RemoveEntryListener", func(t *testing.T) {
			testRemoveEntryListener(t, factory(t))
		})

		t.Run("ConcurrentPutIfAbsent", func(t *testing.T) {
			testConcurrentPutIfAbsent(t, factory(t))
		})

		t.Run("CanceledContext", func(t *testing.T) {
			testCanceledContext(t, factory(t))
		})

		t.Run("EdgeCases", func(t *testing.T) {
			testEdgeCases(t, factory(t))
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

func testContext(t testing.TB) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// nextEvent waits for the next event, listeners of remote maps are called asynchronously
func nextEvent(t *testing.T, events <-chan gridmap.EntryEvent) gridmap.EntryEvent {
	t.Helper()
	select {
	case e := <-events:
		return e
	case <-time.After(5 * time.Second):
		t.Fatalf("Expected an entry event")
		return gridmap.EntryEvent{}
	}
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testPutGet(t *testing.T, m gridmap.IMap) {
	ctx := testContext(t)

	old, replaced, err := m.Put(ctx, "key", []byte("value1"))
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if replaced || old != nil {
		t.Errorf("Expected first Put to replace nothing, got %q", old)
	}

	value, loaded, err := m.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !loaded || !bytes.Equal(value, []byte("value1")) {
		t.Errorf("Expected value1, got %q (loaded=%t)", value, loaded)
	}

	old, replaced, err = m.Put(ctx, "key", []byte("value2"))
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if !replaced || !bytes.Equal(old, []byte("value1")) {
		t.Errorf("Expected Put to replace value1, got %q (replaced=%t)", old, replaced)
	}

	value, _, _ = m.Get(ctx, "key")
	if !bytes.Equal(value, []byte("value2")) {
		t.Errorf("Expected value2, got %q", value)
	}

	_, loaded, err = m.Get(ctx, "nonexistent-key")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if loaded {
		t.Errorf("Expected nonexistent key to return loaded=false")
	}
}

func testPutIfAbsent(t *testing.T, m gridmap.IMap) {
	ctx := testContext(t)

	actual, stored, err := m.PutIfAbsent(ctx, "key", []byte("first"))
	if err != nil {
		t.Fatalf("PutIfAbsent failed: %v", err)
	}
	if !stored || !bytes.Equal(actual, []byte("first")) {
		t.Errorf("Expected first PutIfAbsent to store, got %q (stored=%t)", actual, stored)
	}

	actual, stored, err = m.PutIfAbsent(ctx, "key", []byte("second"))
	if err != nil {
		t.Fatalf("PutIfAbsent failed: %v", err)
	}
	if stored {
		t.Errorf("Expected second PutIfAbsent not to store")
	}
	if !bytes.Equal(actual, []byte("first")) {
		t.Errorf("Expected existing value first, got %q", actual)
	}
}

func testRemove(t *testing.T, m gridmap.IMap) {
	ctx := testContext(t)

	if _, _, err := m.Put(ctx, "key", []byte("value")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	old, removed, err := m.Remove(ctx, "key")
	if err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if !removed || !bytes.Equal(old, []byte("value")) {
		t.Errorf("Expected Remove to return value, got %q (removed=%t)", old, removed)
	}

	_, removed, err = m.Remove(ctx, "key")
	if err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if removed {
		t.Errorf("Expected second Remove to remove nothing")
	}

	if _, loaded, _ := m.Get(ctx, "key"); loaded {
		t.Errorf("Expected key to be gone after Remove")
	}
}

func testContainsKey(t *testing.T, m gridmap.IMap) {
	ctx := testContext(t)

	if ok, _ := m.ContainsKey(ctx, "key"); ok {
		t.Errorf("Expected empty map not to contain key")
	}
	_, _, _ = m.Put(ctx, "key", []byte{})
	if ok, err := m.ContainsKey(ctx, "key"); err != nil || !ok {
		t.Errorf("Expected map to contain key with empty value (err=%v)", err)
	}
}

func testEntryListener(t *testing.T, m gridmap.IMap) {
	ctx := testContext(t)

	events := make(chan gridmap.EntryEvent, 16)
	id, err := m.AddEntryListener(ctx, func(e gridmap.EntryEvent) { events <- e })
	if err != nil {
		t.Fatalf("AddEntryListener failed: %v", err)
	}
	defer m.RemoveEntryListener(ctx, id)

	_, _, _ = m.Put(ctx, "key", []byte("v1"))
	_, _, _ = m.Put(ctx, "key", []byte("v2"))
	_, _, _ = m.PutIfAbsent(ctx, "key", []byte("ignored"))
	_, _, _ = m.Remove(ctx, "key")

	expected := []gridmap.EntryEvent{
		{Type: gridmap.EntryAdded, Map: m.Name(), Key: "key", Value: []byte("v1")},
		{Type: gridmap.EntryUpdated, Map: m.Name(), Key: "key", Value: []byte("v2"), OldValue: []byte("v1")},
		{Type: gridmap.EntryRemoved, Map: m.Name(), Key: "key", OldValue: []byte("v2")},
	}
	for _, want := range expected {
		got := nextEvent(t, events)
		if got.Type != want.Type || got.Map != want.Map || got.Key != want.Key ||
			!bytes.Equal(got.Value, want.Value) || !bytes.Equal(got.OldValue, want.OldValue) {
			t.Errorf("Expected event %+v, got %+v", want, got)
		}
	}
}

func testRemoveEntryListener(t *testing.T, m gridmap.IMap) {
	ctx := testContext(t)

	var calls atomic.Int32
	id, err := m.AddEntryListener(ctx, func(gridmap.EntryEvent) { calls.Add(1) })
	if err != nil {
		t.Fatalf("AddEntryListener failed: %v", err)
	}

	removed, err := m.RemoveEntryListener(ctx, id)
	if err != nil || !removed {
		t.Fatalf("Expected RemoveEntryListener to succeed, got removed=%t err=%v", removed, err)
	}
	removed, err = m.RemoveEntryListener(ctx, id)
	if err != nil || removed {
		t.Errorf("Expected second RemoveEntryListener to report false, got removed=%t err=%v", removed, err)
	}

	// a second listener proves that events are still published
	events := make(chan gridmap.EntryEvent, 1)
	other, err := m.AddEntryListener(ctx, func(e gridmap.EntryEvent) { events <- e })
	if err != nil {
		t.Fatalf("AddEntryListener failed: %v", err)
	}
	defer m.RemoveEntryListener(ctx, other)

	_, _, _ = m.Put(ctx, "key", []byte("value"))
	nextEvent(t, events)

	if n := calls.Load(); n != 0 {
		t.Errorf("Removed listener was called %d times", n)
	}
}

func testConcurrentPutIfAbsent(t *testing.T, m gridmap.IMap) {
	ctx := testContext(t)

	const workers = 16
	var wg sync.WaitGroup
	var winners atomic.Int32
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, stored, err := m.PutIfAbsent(ctx, "contended", []byte(fmt.Sprintf("worker-%d", i)))
			if err != nil {
				t.Errorf("PutIfAbsent failed: %v", err)
			}
			if stored {
				winners.Add(1)
			}
		}(i)
	}
	wg.Wait()

	if n := winners.Load(); n != 1 {
		t.Errorf("Expected exactly one PutIfAbsent to store, got %d", n)
	}
}

func testCanceledContext(t *testing.T, m gridmap.IMap) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := m.Put(ctx, "key", []byte("value"))
	if err == nil {
		t.Errorf("Expected Put with canceled context to fail")
	}
	if !errors.Is(err, context.Canceled) {
		t.Logf("Put failed with %v", err)
	}
}

func testEdgeCases(t *testing.T, m gridmap.IMap) {
	ctx := testContext(t)

	// empty key
	if _, _, err := m.Put(ctx, "", []byte("empty-key")); err != nil {
		t.Fatalf("Put with empty key failed: %v", err)
	}
	if v, ok, _ := m.Get(ctx, ""); !ok || !bytes.Equal(v, []byte("empty-key")) {
		t.Errorf("Expected value for empty key, got %q (loaded=%t)", v, ok)
	}

	// large value
	large := bytes.Repeat([]byte("x"), 1<<20)
	if _, _, err := m.Put(ctx, "large", large); err != nil {
		t.Fatalf("Put with large value failed: %v", err)
	}
	if v, _, _ := m.Get(ctx, "large"); !bytes.Equal(v, large) {
		t.Errorf("Large value was not returned unchanged (len %d)", len(v))
	}

	// unicode key
	key := "schlüssel-键-🔑"
	_, _, _ = m.Put(ctx, key, []byte("unicode"))
	if ok, _ := m.ContainsKey(ctx, key); !ok {
		t.Errorf("Expected unicode key to exist")
	}
}
