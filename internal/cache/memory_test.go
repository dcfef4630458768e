package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mtx sync.Mutex
	t   time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.t = c.t.Add(d)
}

func newTestMemory[V any](ttl time.Duration) (*Memory[V], *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	m := NewMemory[V](ttl)
	m.now = clock.Now
	return m, clock
}

func TestGetBeforeSetMisses(t *testing.T) {
	m, _ := newTestMemory[string](time.Minute)

	if v, ok := m.Get("key1"); ok {
		t.Fatalf("expected miss, got %q", v)
	}
}

func TestSetThenGet(t *testing.T) {
	m, _ := newTestMemory[string](time.Minute)

	m.Set("key1", "value1")

	v, ok := m.Get("key1")
	if !ok || v != "value1" {
		t.Fatalf("expected value1, got %q (hit=%v)", v, ok)
	}
}

func TestSetReplacesValueAndResetsAge(t *testing.T) {
	m, clock := newTestMemory[string](10 * time.Second)

	m.Set("key1", "value1")
	clock.Advance(8 * time.Second)
	m.Set("key1", "value2")
	clock.Advance(8 * time.Second)

	// 16s after the first write but only 8s after the replacement
	v, ok := m.Get("key1")
	if !ok || v != "value2" {
		t.Fatalf("expected value2, got %q (hit=%v)", v, ok)
	}
	if m.Len() != 1 {
		t.Fatalf("expected a single entry, got %d", m.Len())
	}
}

func TestExpirationBoundary(t *testing.T) {
	ttl := 10 * time.Second
	eps := time.Millisecond

	m, clock := newTestMemory[string](ttl)
	m.Set("key1", "value1")

	clock.Advance(ttl - eps)
	if _, ok := m.Get("key1"); !ok {
		t.Fatal("expected hit just before ttl")
	}

	clock.Advance(eps)
	if _, ok := m.Get("key1"); !ok {
		t.Fatal("expected hit at exactly ttl")
	}

	clock.Advance(eps)
	if _, ok := m.Get("key1"); ok {
		t.Fatal("expected miss just after ttl")
	}
}

func TestExpiredEntryIsEvictedOnGet(t *testing.T) {
	m, clock := newTestMemory[string](time.Second)

	m.Set("key1", "value1")
	m.Set("key2", "value2")
	clock.Advance(2 * time.Second)

	// expired entries stay until they are accessed
	if m.Len() != 2 {
		t.Fatalf("expected 2 stored entries, got %d", m.Len())
	}

	m.Get("key1")
	if m.Len() != 1 {
		t.Fatalf("expected expired key1 to be removed, got %d entries", m.Len())
	}
}

func TestKeysAreIndependent(t *testing.T) {
	m, _ := newTestMemory[string](time.Minute)

	m.Set("key1", "value1")

	if _, ok := m.Get("key2"); ok {
		t.Fatal("expected miss for key2")
	}

	m.Set("key2", "value2")
	if v, _ := m.Get("key1"); v != "value1" {
		t.Fatalf("expected key1 untouched, got %q", v)
	}
}

func TestClear(t *testing.T) {
	m, _ := newTestMemory[string](time.Minute)

	keys := []string{"a", "b", "c"}
	for _, k := range keys {
		m.Set(k, k)
	}

	m.Clear()

	for _, k := range keys {
		if _, ok := m.Get(k); ok {
			t.Fatalf("expected miss for %q after clear", k)
		}
	}
	if m.Len() != 0 {
		t.Fatalf("expected empty cache, got %d entries", m.Len())
	}
}

func TestSearchResultsExpireAfterAnHour(t *testing.T) {
	type result struct {
		ID   string
		Name string
	}

	m, clock := newTestMemory[[]result](3600 * time.Second)
	m.Set("yelp-pizza-newyork", []result{{ID: "1", Name: "Joe's Pizza"}})

	clock.Advance(10 * time.Second)
	v, ok := m.Get("yelp-pizza-newyork")
	if !ok || len(v) != 1 || v[0].Name != "Joe's Pizza" {
		t.Fatalf("expected the cached result at t=10s, got %v (hit=%v)", v, ok)
	}

	clock.Advance(3591 * time.Second)
	if _, ok := m.Get("yelp-pizza-newyork"); ok {
		t.Fatal("expected miss at t=3601s")
	}
}

func TestStats(t *testing.T) {
	m, _ := newTestMemory[int](time.Minute)

	m.Set("one", 1)
	m.Get("one")
	m.Get("one")
	m.Get("two")

	stats := m.Stats()
	if stats.Entries != 1 || stats.Hits != 2 || stats.Misses != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestConcurrentAccess(t *testing.T) {
	m := NewMemory[int](time.Minute)

	wg := sync.WaitGroup{}
	for i := range 20 {
		wg.Go(func() {
			key := fmt.Sprintf("key%d", i%5)
			for j := range 100 {
				m.Set(key, j)
				if _, ok := m.Get(key); !ok {
					t.Errorf("expected hit for %s", key)
				}
			}
		})
	}
	wg.Wait()

	if m.Len() != 5 {
		t.Fatalf("expected 5 entries, got %d", m.Len())
	}
}
