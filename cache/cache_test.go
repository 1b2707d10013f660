package cache

import (
	"fmt"
	"sync"
	"testing"
)

func TestGetSet(t *testing.T) {
	c := New[string, int](10)

	if _, ok := c.Get("missing"); ok {
		t.Error("Get on empty cache should miss")
	}

	c.Set("a", 1)
	v, ok := c.Get("a")
	if !ok || v != 1 {
		t.Errorf("Get(a) = %d, %v; want 1, true", v, ok)
	}

	c.Set("a", 2)
	if v, _ := c.Get("a"); v != 2 {
		t.Errorf("Get(a) after update = %d, want 2", v)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

func TestLRUEviction(t *testing.T) {
	c := New[int, string](3)
	c.Set(1, "one")
	c.Set(2, "two")
	c.Set(3, "three")

	// Touch 1 so 2 becomes the oldest.
	c.Get(1)
	c.Set(4, "four")

	if _, ok := c.Get(2); ok {
		t.Error("2 should have been evicted as least recently used")
	}
	for _, k := range []int{1, 3, 4} {
		if _, ok := c.Get(k); !ok {
			t.Errorf("%d should still be cached", k)
		}
	}
	if got := c.Stats().Evicts; got != 1 {
		t.Errorf("Evicts = %d, want 1", got)
	}
}

func TestGetOrSet(t *testing.T) {
	c := New[string, int](10)

	calls := 0
	for i := 0; i < 3; i++ {
		v := c.GetOrSet("key", func() int {
			calls++
			return 42
		})
		if v != 42 {
			t.Errorf("GetOrSet = %d, want 42", v)
		}
	}
	if calls != 1 {
		t.Errorf("compute ran %d times, want 1", calls)
	}
}

func TestDelete(t *testing.T) {
	c := New[string, int](10)
	c.Set("a", 1)
	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Error("deleted key should miss")
	}
	c.Delete("never-there")
}

func TestClear(t *testing.T) {
	c := New[string, int](10)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Clear()

	if c.Len() != 0 {
		t.Errorf("Len() after Clear = %d, want 0", c.Len())
	}
	if _, ok := c.Get("a"); ok {
		t.Error("cleared key should miss")
	}
}

func TestStats(t *testing.T) {
	c := New[string, int](10)
	c.Set("a", 1)
	c.Get("a")
	c.Get("a")
	c.Get("nope")

	stats := c.Stats()
	if stats.Hits != 2 {
		t.Errorf("Hits = %d, want 2", stats.Hits)
	}
	if stats.Misses != 1 {
		t.Errorf("Misses = %d, want 1", stats.Misses)
	}
	if stats.Sets != 1 {
		t.Errorf("Sets = %d, want 1", stats.Sets)
	}
	if stats.HitRate < 0.66 || stats.HitRate > 0.67 {
		t.Errorf("HitRate = %f, want ~0.667", stats.HitRate)
	}
}

func TestDefaultCapacity(t *testing.T) {
	c := New[int, int](0)
	for i := 0; i < DefaultCapacity+10; i++ {
		c.Set(i, i)
	}
	if c.Len() != DefaultCapacity {
		t.Errorf("Len() = %d, want %d", c.Len(), DefaultCapacity)
	}
}

func TestConcurrentAccess(t *testing.T) {
	c := New[string, int](128)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("key-%d", i%32)
				c.Set(key, g)
				c.Get(key)
				c.GetOrSet(key, func() int { return g })
			}
		}(g)
	}
	wg.Wait()

	if c.Len() != 32 {
		t.Errorf("Len() = %d, want 32", c.Len())
	}
}
