package cache

import (
	"testing"
	"time"
)

func TestCachePutGet(t *testing.T) {
	c := New[string](4, time.Minute)
	c.Put("item:1:name", "Groceries")

	got, ok := c.Get("item:1:name")
	if !ok || got != "Groceries" {
		t.Fatalf("Get = %q, %v", got, ok)
	}
	if _, ok := c.Get("item:2:name"); ok {
		t.Fatal("unexpected hit for missing key")
	}
}

func TestCacheTTLExpiry(t *testing.T) {
	c := New[int](4, 10*time.Millisecond)
	c.Put("k", 1)

	time.Sleep(20 * time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Fatal("expired entry still served")
	}
	if c.Len() != 0 {
		t.Fatalf("Len = %d after expired Get", c.Len())
	}
}

func TestCacheCapacityEviction(t *testing.T) {
	c := New[int](2, time.Minute)
	c.Put("a", 1)
	c.Put("b", 2)
	c.Get("a") // a now most recently used
	c.Put("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Fatal("least recently used entry survived eviction")
	}
	if _, ok := c.Get("a"); !ok {
		t.Fatal("recently used entry evicted")
	}
}

func TestCacheEvictPrefix(t *testing.T) {
	c := New[int](8, time.Minute)
	c.Put("item:1:participants", 1)
	c.Put("item:1:budget", 2)
	c.Put("item:2:participants", 3)

	if n := c.EvictPrefix("item:1:"); n != 2 {
		t.Fatalf("EvictPrefix dropped %d, want 2", n)
	}
	if _, ok := c.Get("item:2:participants"); !ok {
		t.Fatal("unrelated key evicted")
	}
}

func TestCachePurgeExpired(t *testing.T) {
	c := New[int](8, 10*time.Millisecond)
	c.Put("a", 1)
	c.Put("b", 2)

	time.Sleep(20 * time.Millisecond)
	if n := c.PurgeExpired(); n != 2 {
		t.Fatalf("PurgeExpired = %d, want 2", n)
	}
	if c.Len() != 0 {
		t.Fatalf("Len = %d after purge", c.Len())
	}
}
