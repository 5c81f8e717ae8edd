package codes

import (
	"context"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/aliyevk/codedesk-backend/pkg/db/models"
)

type fakeSearchCache struct {
	data map[string]string
	ttls map[string]time.Duration
}

func newFakeSearchCache() *fakeSearchCache {
	return &fakeSearchCache{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeSearchCache) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
	}
	f.ttls[key] = ttl
	return nil
}

func (f *fakeSearchCache) Get(_ context.Context, key string) (string, error) {
	v, ok := f.data[key]
	if !ok {
		return "", goredis.Nil
	}
	return v, nil
}

func (f *fakeSearchCache) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.data, key)
	}
	return nil
}

func (f *fakeSearchCache) SearchIndexKey() string {
	return "codedesk:search:index"
}

func TestSearchIndex_RebuildAndLookup(t *testing.T) {
	cache := newFakeSearchCache()
	index := newSearchIndexWithCache(cache, 15*time.Minute)
	ctx := context.Background()

	records := []models.CodeRecord{
		{UserID: 7, Handle: "seller", Code: "ABCDE-1", BatchID: 100},
		{UserID: 7, Handle: "seller", Code: "ABCDE-2", BatchID: 100},
		{UserID: 9, Handle: "other", Code: "ABCDE-1", BatchID: 200},
	}
	if err := index.Rebuild(ctx, records); err != nil {
		t.Fatalf("rebuild failed: %v", err)
	}
	if cache.ttls[cache.SearchIndexKey()] != 15*time.Minute {
		t.Fatalf("unexpected ttl %v", cache.ttls[cache.SearchIndexKey()])
	}

	hits, warm, err := index.Lookup(ctx, "ABCDE-1")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if !warm {
		t.Fatal("expected a warm index")
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}

	hits, warm, err = index.Lookup(ctx, "MISSING")
	if err != nil || !warm {
		t.Fatalf("missing code on a warm index: warm=%v err=%v", warm, err)
	}
	if len(hits) != 0 {
		t.Fatalf("expected no hits, got %d", len(hits))
	}
}

func TestSearchIndex_ColdAndInvalidate(t *testing.T) {
	cache := newFakeSearchCache()
	index := newSearchIndexWithCache(cache, time.Minute)
	ctx := context.Background()

	_, warm, err := index.Lookup(ctx, "ABCDE-1")
	if err != nil {
		t.Fatalf("cold lookup failed: %v", err)
	}
	if warm {
		t.Fatal("empty cache must read as cold")
	}

	if err := index.Rebuild(ctx, []models.CodeRecord{{UserID: 7, Code: "ABCDE-1"}}); err != nil {
		t.Fatalf("rebuild failed: %v", err)
	}
	if err := index.Invalidate(ctx); err != nil {
		t.Fatalf("invalidate failed: %v", err)
	}
	if _, warm, _ := index.Lookup(ctx, "ABCDE-1"); warm {
		t.Fatal("index must be cold after invalidation")
	}
}

func TestSearchIndex_CorruptPayloadDropped(t *testing.T) {
	cache := newFakeSearchCache()
	index := newSearchIndexWithCache(cache, time.Minute)
	ctx := context.Background()

	cache.data[cache.SearchIndexKey()] = "{not json"

	_, warm, err := index.Lookup(ctx, "ABCDE-1")
	if err != nil {
		t.Fatalf("corrupt lookup errored: %v", err)
	}
	if warm {
		t.Fatal("corrupt payload must read as cold")
	}
	if _, ok := cache.data[cache.SearchIndexKey()]; ok {
		t.Fatal("corrupt payload must be deleted")
	}
}
