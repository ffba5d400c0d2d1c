package cache

import (
	"testing"
	"time"
)

func TestTTLCacheRoundTrip(t *testing.T) {
	c := NewTTLCache[string, int]()
	c.Set("a", 1, 0)
	if got, ok := c.Get("a"); !ok || got != 1 {
		t.Fatalf("expected hit with 1, got %d ok=%v", got, ok)
	}
	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Fatalf("deleted key must miss")
	}
}

func TestTTLCacheExpires(t *testing.T) {
	c := NewTTLCache[string, int]()
	c.Set("a", 1, time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	if _, ok := c.Get("a"); ok {
		t.Fatalf("expired key must miss")
	}
}

func TestTTLCacheNilReceiver(t *testing.T) {
	var c *TTLCache[string, int]
	c.Set("a", 1, 0)
	if _, ok := c.Get("a"); ok {
		t.Fatalf("nil cache must always miss")
	}
	c.Delete("a")
}
