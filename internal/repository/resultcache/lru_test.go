package resultcache

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.t = f.t.Add(d)
	f.mu.Unlock()
}

func newTestLRU(t *testing.T, capacity int, clock *fakeClock) *LRU[string] {
	t.Helper()
	c, err := NewLRU[string](capacity, clock.Now)
	if err != nil {
		t.Fatalf("NewLRU() error = %v", err)
	}
	return c
}

func TestLRU_GetSet(t *testing.T) {
	c := newTestLRU(t, 4, newFakeClock())
	c.Set("a", "1", time.Minute)

	got, ok := c.Get("a")
	if !ok || got != "1" {
		t.Fatalf("Get(a) = %q, %v", got, ok)
	}
	if _, ok := c.Get("missing"); ok {
		t.Error("Get(missing) should miss")
	}
	if n := c.AccessCount("a"); n != 1 {
		t.Errorf("AccessCount(a) = %d, want 1", n)
	}
}

func TestLRU_StaleEntryIsRemoved(t *testing.T) {
	clock := newFakeClock()
	c := newTestLRU(t, 4, clock)
	c.Set("a", "1", time.Minute)

	clock.Advance(time.Minute)
	if _, ok := c.Get("a"); !ok {
		t.Fatal("entry at exactly ttl age should still be served")
	}

	clock.Advance(time.Second)
	if _, ok := c.Get("a"); ok {
		t.Fatal("stale entry served")
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d, stale entry not removed", c.Len())
	}
	st := c.Stats()
	if st.Expired != 1 || st.Evictions != 0 {
		t.Errorf("Stats() = %+v", st)
	}
}

func TestLRU_EvictsLeastRecentlyUsed(t *testing.T) {
	c := newTestLRU(t, 2, newFakeClock())
	c.Set("a", "1", time.Hour)
	c.Set("b", "2", time.Hour)

	// touching a makes b the eviction candidate
	c.Get("a")
	c.Set("c", "3", time.Hour)

	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("a should survive")
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("c should be present")
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}
	if ev := c.Stats().Evictions; ev != 1 {
		t.Errorf("Evictions = %d, want 1", ev)
	}
}

func TestLRU_OverwriteResetsAge(t *testing.T) {
	clock := newFakeClock()
	c := newTestLRU(t, 2, clock)
	c.Set("a", "old", time.Minute)
	clock.Advance(50 * time.Second)
	c.Set("a", "new", time.Minute)
	clock.Advance(50 * time.Second)

	got, ok := c.Get("a")
	if !ok || got != "new" {
		t.Errorf("Get(a) = %q, %v", got, ok)
	}
}

func TestLRU_ZeroCapacityAlwaysMisses(t *testing.T) {
	c := newTestLRU(t, 0, newFakeClock())
	c.Set("a", "1", time.Minute)
	if _, ok := c.Get("a"); ok {
		t.Error("zero capacity cache returned a hit")
	}

	var nilCache *LRU[string]
	nilCache.Set("a", "1", time.Minute)
	if _, ok := nilCache.Get("a"); ok {
		t.Error("nil cache returned a hit")
	}
}

func TestLRU_NonPositiveTTLNotStored(t *testing.T) {
	c := newTestLRU(t, 2, newFakeClock())
	c.Set("a", "1", 0)
	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0", c.Len())
	}
}

func TestLRU_ConcurrentAccess(t *testing.T) {
	c := newTestLRU(t, 16, newFakeClock())
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := fmt.Sprintf("k%d", (i+j)%32)
				c.Set(key, key, time.Minute)
				c.Get(key)
			}
		}(i)
	}
	wg.Wait()
	if c.Len() > 16 {
		t.Errorf("Len() = %d exceeds capacity", c.Len())
	}
}
