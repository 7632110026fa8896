package pricer

import (
	"context"
	"reflect"
	"testing"
	"time"
)

func TestCacheKey(t *testing.T) {
	key := CacheKey("Base", []string{"0xaaa", "0xbbb"})
	if key != "base|0xaaa,0xbbb" {
		t.Fatalf("unexpected cache key: %s", key)
	}
}

func TestMemoryCacheWindow(t *testing.T) {
	now := time.Unix(1700000000, 0)
	cache := NewMemoryCache(30 * time.Second)
	cache.now = func() time.Time { return now }

	ctx := context.Background()
	prices := map[string]float64{"0xaaa": 1.5}
	cache.Set(ctx, "k", prices)

	got, ok := cache.Get(ctx, "k")
	if !ok || !reflect.DeepEqual(got, prices) {
		t.Fatalf("expected fresh hit, got %v (%v)", got, ok)
	}

	now = now.Add(29 * time.Second)
	if _, ok := cache.Get(ctx, "k"); !ok {
		t.Fatalf("expected hit inside window")
	}

	now = now.Add(2 * time.Second)
	if _, ok := cache.Get(ctx, "k"); ok {
		t.Fatalf("expected miss outside window")
	}
}

func TestMemoryCacheMissUnknownKey(t *testing.T) {
	cache := NewMemoryCache(time.Minute)
	if _, ok := cache.Get(context.Background(), "missing"); ok {
		t.Fatalf("expected miss for unknown key")
	}
}

func TestMemoryCacheCopiesValues(t *testing.T) {
	cache := NewMemoryCache(time.Minute)
	ctx := context.Background()

	prices := map[string]float64{"0xaaa": 1}
	cache.Set(ctx, "k", prices)
	prices["0xaaa"] = 99

	got, ok := cache.Get(ctx, "k")
	if !ok || got["0xaaa"] != 1 {
		t.Fatalf("cached value aliased caller map: %v", got)
	}

	got["0xaaa"] = 123
	again, _ := cache.Get(ctx, "k")
	if again["0xaaa"] != 1 {
		t.Fatalf("cache returned aliased map: %v", again)
	}
}
