package inmemory

import (
	"testing"
	"time"

	groupsdomain "susu-app-go/internal/domain/groups"
)

func TestGroupCacheExpires(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	cache := NewGroupCache()
	cache.now = func() time.Time { return now }

	cache.Set("g1", &groupsdomain.SavingsGroup{ID: "g1", Name: "Market women"}, time.Minute)

	got, ok := cache.Get("g1")
	if !ok || got.Name != "Market women" {
		t.Fatalf("expected cached group, got %+v %v", got, ok)
	}

	got.Name = "changed"
	again, _ := cache.Get("g1")
	if again.Name != "Market women" {
		t.Fatal("cache must return copies")
	}

	now = now.Add(2 * time.Minute)
	if _, ok := cache.Get("g1"); ok {
		t.Fatal("expected entry to expire")
	}
}

func TestGroupCacheDeleteAndZeroTTL(t *testing.T) {
	cache := NewGroupCache()
	cache.Set("g1", &groupsdomain.SavingsGroup{ID: "g1"}, time.Minute)
	cache.Delete("g1")
	if _, ok := cache.Get("g1"); ok {
		t.Fatal("expected entry to be deleted")
	}

	cache.Set("g2", &groupsdomain.SavingsGroup{ID: "g2"}, time.Minute)
	cache.Set("g2", &groupsdomain.SavingsGroup{ID: "g2"}, 0)
	if _, ok := cache.Get("g2"); ok {
		t.Fatal("expected zero ttl to evict")
	}
}
