package sessions

import (
	"context"
	"encoding/json"
	"time"

	apperrors "github.com/aliyevk/codedesk-backend/pkg/errors"
	"github.com/aliyevk/codedesk-backend/pkg/redis"
)

// Conversation actions the bot waits on.
const (
	ActionAwaitingCodes         = "awaiting_codes"
	ActionAwaitingPrice         = "awaiting_price"
	ActionAwaitingPayoutAddress = "awaiting_payout_address"
	ActionAwaitingBroadcast     = "awaiting_broadcast"
)

// Session is one user's in-flight conversation state. It lives in the cache
// with a TTL; an expired session simply restarts the flow.
type Session struct {
	Action          string  `json:"action,omitempty"`
	CodeType        string  `json:"code_type,omitempty"`
	BatchID         int64   `json:"batch_id,omitempty"`
	TargetUserID    int64   `json:"target_user_id,omitempty"`
	TargetHandle    string  `json:"target_handle,omitempty"`
	PayoutMethod    string  `json:"payout_method,omitempty"`
	QueueUserID     int64   `json:"queue_user_id,omitempty"`
	SkippedBatchIDs []int64 `json:"skipped_batch_ids,omitempty"`
}

// Skip records a batch the admin chose to pass over in the pricing queue.
func (s *Session) Skip(batchID int64) {
	for _, id := range s.SkippedBatchIDs {
		if id == batchID {
			return
		}
	}
	s.SkippedBatchIDs = append(s.SkippedBatchIDs, batchID)
}

type cache interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	SessionKey(userID int64) string
}

// Store keeps per-user sessions in the shared cache.
type Store struct {
	cache cache
	ttl   time.Duration
}

// NewStore wires a session store with the provided cache client and TTL.
func NewStore(client *redis.Client, ttl time.Duration) (*Store, error) {
	if client == nil {
		return nil, apperrors.New(apperrors.CodeInternal, "redis client required")
	}
	return &Store{cache: client, ttl: ttl}, nil
}

func newStoreWithCache(c cache, ttl time.Duration) *Store {
	return &Store{cache: c, ttl: ttl}
}

// Get loads the user's session. A missing or expired session returns nil,
// which callers treat as "no flow in progress".
func (s *Store) Get(ctx context.Context, userID int64) (*Session, error) {
	raw, err := s.cache.Get(ctx, s.cache.SessionKey(userID))
	if err != nil {
		if redis.IsNil(err) {
			return nil, nil
		}
		return nil, apperrors.Wrap(apperrors.CodeStorage, err, "loading session")
	}
	var session Session
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		// A corrupt session is unrecoverable; drop it and restart the flow.
		_ = s.Clear(ctx, userID)
		return nil, nil
	}
	return &session, nil
}

// Put stores the session, refreshing the TTL.
func (s *Store) Put(ctx context.Context, userID int64, session *Session) error {
	if session == nil {
		return s.Clear(ctx, userID)
	}
	raw, err := json.Marshal(session)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, err, "encoding session")
	}
	if err := s.cache.Set(ctx, s.cache.SessionKey(userID), string(raw), s.ttl); err != nil {
		return apperrors.Wrap(apperrors.CodeStorage, err, "storing session")
	}
	return nil
}

// Clear drops the session outright.
func (s *Store) Clear(ctx context.Context, userID int64) error {
	if err := s.cache.Del(ctx, s.cache.SessionKey(userID)); err != nil {
		return apperrors.Wrap(apperrors.CodeStorage, err, "clearing session")
	}
	return nil
}
