package lru

import (
	"errors"
	"strconv"
	"sync"
	"testing"
)

func TestGetSet(t *testing.T) {
	c := New[string, int](10, nil)
	c.Set("key1", 42)

	val, ok := c.Get("key1")
	if !ok || val != 42 {
		t.Errorf("Get(key1) = %d, %v; want 42, true", val, ok)
	}
	if _, ok := c.Get("missing"); ok {
		t.Error("Get(missing) found an entry")
	}
	s := c.Stats()
	if s.Hits != 1 || s.Misses != 1 {
		t.Errorf("Stats() = %+v, want 1 hit and 1 miss", s)
	}
}

func TestEvictsLeastRecentlyUsed(t *testing.T) {
	var evicted []string
	c := New[string, int](2, func(k string, _ int) { evicted = append(evicted, k) })
	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a")
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	if len(evicted) != 1 || evicted[0] != "b" {
		t.Errorf("evicted = %v, want [b]", evicted)
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}
}

func TestGetOrCreate(t *testing.T) {
	c := New[string, int](4, nil)
	calls := 0
	create := func() (int, error) {
		calls++
		return 100, nil
	}
	for range 3 {
		v, err := c.GetOrCreate("k", create)
		if err != nil || v != 100 {
			t.Fatalf("GetOrCreate() = %d, %v", v, err)
		}
	}
	if calls != 1 {
		t.Errorf("create called %d times, want 1", calls)
	}

	errBoom := errors.New("boom")
	if _, err := c.GetOrCreate("bad", func() (int, error) { return 0, errBoom }); !errors.Is(err, errBoom) {
		t.Errorf("GetOrCreate() error = %v, want boom", err)
	}
	if _, ok := c.Get("bad"); ok {
		t.Error("failed create must not be stored")
	}
}

func TestDeleteClearForget(t *testing.T) {
	n := 0
	c := New[int, int](8, func(int, int) { n++ })
	for i := range 4 {
		c.Set(i, i)
	}
	if !c.Delete(1) || c.Delete(1) {
		t.Error("Delete should report presence once")
	}
	c.Clear()
	if n != 4 || c.Len() != 0 {
		t.Errorf("after Clear: callbacks = %d, Len() = %d; want 4, 0", n, c.Len())
	}

	c.Set(9, 9)
	c.Forget()
	if n != 4 || c.Len() != 0 {
		t.Errorf("Forget ran callbacks: %d", n)
	}
}

func TestConcurrentAccess(t *testing.T) {
	c := New[string, int](64, nil)
	var wg sync.WaitGroup
	for g := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 200 {
				k := strconv.Itoa((g * i) % 100)
				c.Set(k, i)
				c.Get(k)
			}
		}()
	}
	wg.Wait()
	if c.Len() > 64 {
		t.Errorf("Len() = %d exceeds capacity", c.Len())
	}
}
