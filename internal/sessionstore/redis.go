package sessionstore

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps records as JSON values under "session:<id>" with a TTL
// refreshed on every Set.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

var _ Store = (*RedisStore)(nil)

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

func (r *RedisStore) Get(ctx context.Context, sessionID string) (Record, bool, error) {
	v, err := r.client.Get(ctx, sessionKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, err
	}
	rec, err := UnmarshalRecord(v)
	if err != nil {
		return Record{}, false, err
	}
	return rec, true, nil
}

func (r *RedisStore) Set(ctx context.Context, rec Record) error {
	b, err := MarshalRecord(rec)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, sessionKey(rec.SessionID), b, r.ttl).Err()
}

func (r *RedisStore) Delete(ctx context.Context, sessionID string) error {
	return r.client.Del(ctx, sessionKey(sessionID)).Err()
}

func sessionKey(sessionID string) string {
	return "session:" + sessionID
}
