package news

import (
	"context"
	"errors"
	"testing"
	"time"

	"stock-sentinel/internal/types"
)

type countingProvider struct {
	calls int
	items []types.NewsItem
	err   error
}

func (p *countingProvider) Search(ctx context.Context, query string, recencyDays int) ([]types.NewsItem, error) {
	p.calls++
	return p.items, p.err
}

func TestNewsCache(t *testing.T) {
	cache := newNewsCache(1*time.Second, time.Hour)
	defer cache.close()

	key := cacheKey("RELIANCE.NS stock news reason for price move", 2)
	items := []types.NewsItem{{Title: "Reliance Q2 profit rises", Source: "Reuters"}}

	// Test set and get
	cache.set(key, items)

	retrieved, found := cache.get(key)
	if !found {
		t.Fatal("Expected to find cached news")
	}

	if len(retrieved) != 1 || retrieved[0].Title != "Reliance Q2 profit rises" {
		t.Errorf("Unexpected cached items: %+v", retrieved)
	}

	// Mutating the returned slice must not touch the cache
	retrieved[0].Title = "changed"
	again, _ := cache.get(key)
	if again[0].Title != "Reliance Q2 profit rises" {
		t.Error("Expected cache to hold its own copy")
	}

	// Test expiration
	time.Sleep(1100 * time.Millisecond)
	_, found = cache.get(key)
	if found {
		t.Error("Expected cache entry to be expired")
	}
}

func TestServiceCachesSuccessfulSearches(t *testing.T) {
	provider := &countingProvider{items: []types.NewsItem{{Title: "TCS wins deal"}}}
	svc := NewService(provider, time.Hour)
	defer svc.Close()

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		items, err := svc.Search(ctx, "TCS.NS stock news reason for price move", 2)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if len(items) != 1 {
			t.Fatalf("Expected 1 item, got %d", len(items))
		}
	}

	if provider.calls != 1 {
		t.Errorf("Expected 1 provider call, got %d", provider.calls)
	}

	// A different window is a different key
	if _, err := svc.Search(ctx, "TCS.NS stock news reason for price move", 7); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if provider.calls != 2 {
		t.Errorf("Expected 2 provider calls, got %d", provider.calls)
	}
}

func TestServiceDoesNotCacheFailures(t *testing.T) {
	provider := &countingProvider{err: errors.New("quota")}
	svc := NewService(provider, time.Hour)
	defer svc.Close()

	for i := 0; i < 2; i++ {
		if _, err := svc.Search(context.Background(), "q", 2); err == nil {
			t.Fatal("Expected error")
		}
	}
	if provider.calls != 2 {
		t.Errorf("Expected 2 provider calls, got %d", provider.calls)
	}

	provider.err = nil
	provider.items = []types.NewsItem{}
	svc.Search(context.Background(), "q", 2)
	if len(svc.CachedQueries()) != 0 {
		t.Error("Expected empty result not to be cached")
	}
}

func TestCacheCleanup(t *testing.T) {
	cache := newNewsCache(100*time.Millisecond, time.Hour)
	defer cache.close()

	cache.set("a|2", []types.NewsItem{{Title: "a"}})
	cache.set("b|2", []types.NewsItem{{Title: "b"}})

	if len(cache.data) != 2 {
		t.Errorf("Expected 2 entries, got %d", len(cache.data))
	}

	time.Sleep(150 * time.Millisecond)
	cache.cleanup()

	if len(cache.data) != 0 {
		t.Errorf("Expected 0 entries after cleanup, got %d", len(cache.data))
	}
}

func TestCachedQueries(t *testing.T) {
	svc := NewService(&countingProvider{}, time.Hour)
	defer svc.Close()

	svc.cache.set("INFY|2", []types.NewsItem{{Title: "x"}})
	svc.cache.set("HDFCBANK|2", []types.NewsItem{{Title: "y"}})

	keys := svc.CachedQueries()
	if len(keys) != 2 || keys[0] != "HDFCBANK|2" || keys[1] != "INFY|2" {
		t.Errorf("Unexpected keys: %v", keys)
	}
}

func TestClearCacheAndRefresh(t *testing.T) {
	provider := &countingProvider{items: []types.NewsItem{{Title: "fresh"}}}
	svc := NewService(provider, time.Hour)
	defer svc.Close()

	svc.cache.set(cacheKey("q", 2), []types.NewsItem{{Title: "stale"}})
	svc.ClearCache()
	if len(svc.CachedQueries()) != 0 {
		t.Error("Expected cache to be empty after clear")
	}

	items, err := svc.Refresh(context.Background(), "q", 2)
	if err != nil || items[0].Title != "fresh" {
		t.Fatalf("Unexpected refresh result: %v %v", items, err)
	}
	cached, ok := svc.cache.get(cacheKey("q", 2))
	if !ok || cached[0].Title != "fresh" {
		t.Error("Expected refresh to populate the cache")
	}
}
