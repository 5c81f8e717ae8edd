package codes

import (
	"context"
	"encoding/json"
	"time"

	"github.com/aliyevk/codedesk-backend/pkg/db/models"
	apperrors "github.com/aliyevk/codedesk-backend/pkg/errors"
	"github.com/aliyevk/codedesk-backend/pkg/redis"
)

type searchCache interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	SearchIndexKey() string
}

// SearchIndex caches the full code index in one Redis blob so admin
// searches skip the row store. The index is rebuilt on demand and
// invalidated by every new submission; a cold or expired index falls
// back to the database.
type SearchIndex struct {
	cache searchCache
	ttl   time.Duration
}

// NewSearchIndex wires the index over the shared cache client.
func NewSearchIndex(client *redis.Client, ttl time.Duration) (*SearchIndex, error) {
	if client == nil {
		return nil, apperrors.New(apperrors.CodeInternal, "redis client required")
	}
	if ttl <= 0 {
		return nil, apperrors.New(apperrors.CodeInternal, "index ttl must be positive")
	}
	return &SearchIndex{cache: client, ttl: ttl}, nil
}

func newSearchIndexWithCache(c searchCache, ttl time.Duration) *SearchIndex {
	return &SearchIndex{cache: c, ttl: ttl}
}

// Rebuild replaces the cached index with the given records.
func (i *SearchIndex) Rebuild(ctx context.Context, records []models.CodeRecord) error {
	byCode := make(map[string][]models.CodeRecord, len(records))
	for _, record := range records {
		byCode[record.Code] = append(byCode[record.Code], record)
	}
	payload, err := json.Marshal(byCode)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, err, "encoding search index")
	}
	if err := i.cache.Set(ctx, i.cache.SearchIndexKey(), payload, i.ttl); err != nil {
		return apperrors.Wrap(apperrors.CodeStorage, err, "storing search index")
	}
	return nil
}

// Lookup returns the indexed records for a code. The second return is
// false when the index is cold and the caller should hit the database.
func (i *SearchIndex) Lookup(ctx context.Context, code string) ([]models.CodeRecord, bool, error) {
	raw, err := i.cache.Get(ctx, i.cache.SearchIndexKey())
	if err != nil {
		if redis.IsNil(err) {
			return nil, false, nil
		}
		return nil, false, apperrors.Wrap(apperrors.CodeStorage, err, "reading search index")
	}
	var byCode map[string][]models.CodeRecord
	if err := json.Unmarshal([]byte(raw), &byCode); err != nil {
		// A corrupt index is dropped rather than served.
		_ = i.cache.Del(ctx, i.cache.SearchIndexKey())
		return nil, false, nil
	}
	return byCode[code], true, nil
}

// Invalidate drops the cached index so the next rebuild starts fresh.
func (i *SearchIndex) Invalidate(ctx context.Context) error {
	if err := i.cache.Del(ctx, i.cache.SearchIndexKey()); err != nil {
		return apperrors.Wrap(apperrors.CodeStorage, err, "dropping search index")
	}
	return nil
}
