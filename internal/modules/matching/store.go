// README: Dispatch marker store backed by Redis.
package matching

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"pronto/internal/types"
)

const (
	dispatchKeyPrefix = "dispatch:request:%s:dispatched_at"
	notifiedKeyPrefix = "dispatch:request:%s:notified"
)

type DispatchStore struct {
	redis *redis.Client
}

func NewDispatchStore(redis *redis.Client) *DispatchStore {
	return &DispatchStore{redis: redis}
}

// RecordDispatch records the dispatch timestamp and the set of notified pros
// for a request.
func (s *DispatchStore) RecordDispatch(ctx context.Context, requestID types.ID, proIDs []types.ID) error {
	pipe := s.redis.Pipeline()
	pipe.Set(ctx, dispatchedAtKey(requestID), time.Now().UTC().Format(time.RFC3339), dispatchKeyTTL)
	if len(proIDs) > 0 {
		members := make([]interface{}, len(proIDs))
		for i, p := range proIDs {
			members[i] = string(p)
		}
		pipe.SAdd(ctx, notifiedKey(requestID), members...)
		pipe.Expire(ctx, notifiedKey(requestID), dispatchKeyTTL)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// GetDispatchedAt returns when the request was first dispatched, and whether
// it has been dispatched at all.
func (s *DispatchStore) GetDispatchedAt(ctx context.Context, requestID types.ID) (time.Time, bool, error) {
	val, err := s.redis.Get(ctx, dispatchedAtKey(requestID)).Result()
	if err == redis.Nil {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return time.Time{}, false, err
	}
	return t, true, nil
}

// WasNotified reports whether a pro was part of the notified set for a request.
func (s *DispatchStore) WasNotified(ctx context.Context, requestID, proID types.ID) (bool, error) {
	return s.redis.SIsMember(ctx, notifiedKey(requestID), string(proID)).Result()
}

func dispatchedAtKey(requestID types.ID) string {
	return fmt.Sprintf(dispatchKeyPrefix, string(requestID))
}

func notifiedKey(requestID types.ID) string {
	return fmt.Sprintf(notifiedKeyPrefix, string(requestID))
}
