package sessions

import (
	"context"
	"strconv"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

type fakeCache struct {
	data map[string]string
	ttls map[string]time.Duration
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	f.data[key] = value.(string)
	f.ttls[key] = ttl
	return nil
}

func (f *fakeCache) Get(ctx context.Context, key string) (string, error) {
	v, ok := f.data[key]
	if !ok {
		return "", goredis.Nil
	}
	return v, nil
}

func (f *fakeCache) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.data, key)
	}
	return nil
}

func (f *fakeCache) SessionKey(userID int64) string {
	return "codedesk:session:" + strconv.FormatInt(userID, 10)
}

func TestStore_RoundTrip(t *testing.T) {
	cache := newFakeCache()
	store := newStoreWithCache(cache, 30*time.Minute)
	ctx := context.Background()

	session := &Session{
		Action:   ActionAwaitingCodes,
		CodeType: "1000 Roblox",
		BatchID:  1700000000000,
	}
	if err := store.Put(ctx, 42, session); err != nil {
		t.Fatalf("Put error: %v", err)
	}
	if ttl := cache.ttls[cache.SessionKey(42)]; ttl != 30*time.Minute {
		t.Fatalf("expected 30m ttl, got %v", ttl)
	}

	got, err := store.Get(ctx, 42)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got == nil {
		t.Fatal("expected session")
	}
	if got.Action != ActionAwaitingCodes || got.CodeType != "1000 Roblox" || got.BatchID != 1700000000000 {
		t.Fatalf("unexpected session %+v", got)
	}
}

func TestStore_MissReturnsNil(t *testing.T) {
	store := newStoreWithCache(newFakeCache(), time.Minute)

	got, err := store.Get(context.Background(), 42)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil session, got %+v", got)
	}
}

func TestStore_ClearAndNilPut(t *testing.T) {
	cache := newFakeCache()
	store := newStoreWithCache(cache, time.Minute)
	ctx := context.Background()

	if err := store.Put(ctx, 42, &Session{Action: ActionAwaitingPrice}); err != nil {
		t.Fatalf("Put error: %v", err)
	}
	if err := store.Put(ctx, 42, nil); err != nil {
		t.Fatalf("nil Put should clear: %v", err)
	}
	if got, _ := store.Get(ctx, 42); got != nil {
		t.Fatalf("expected cleared session, got %+v", got)
	}
}

func TestStore_CorruptSessionDropped(t *testing.T) {
	cache := newFakeCache()
	store := newStoreWithCache(cache, time.Minute)
	ctx := context.Background()

	cache.data[cache.SessionKey(42)] = "{not json"

	got, err := store.Get(ctx, 42)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for corrupt session, got %+v", got)
	}
	if _, ok := cache.data[cache.SessionKey(42)]; ok {
		t.Fatal("corrupt session should be deleted")
	}
}

func TestSession_SkipDeduplicates(t *testing.T) {
	session := &Session{}
	session.Skip(100)
	session.Skip(200)
	session.Skip(100)
	if len(session.SkippedBatchIDs) != 2 {
		t.Fatalf("expected 2 skipped ids, got %v", session.SkippedBatchIDs)
	}
}
