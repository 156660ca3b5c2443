package cache

import (
	"testing"
	"time"
)

func TestCacheSetGet(t *testing.T) {
	c := New(time.Minute)

	c.Set("skills", []string{"yoga"})

	got, ok := c.Get("skills")

	if !ok {
		t.Fatal("expected hit")
	}

	if v := got.([]string); len(v) != 1 || v[0] != "yoga" {
		t.Fatalf("got %v", v)
	}
}

func TestCacheExpiry(t *testing.T) {
	c := New(10 * time.Millisecond)

	c.Set("k", 1)

	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get("k"); ok {
		t.Fatal("expected expired entry to miss")
	}
}

func TestCacheDelete(t *testing.T) {
	c := New(time.Minute)

	c.Set("k", 1)
	c.Delete("k")

	if _, ok := c.Get("k"); ok {
		t.Fatal("expected miss after delete")
	}
}
