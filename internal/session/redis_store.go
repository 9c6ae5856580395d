package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "pieza:session:"

// RedisStore keeps snapshots as JSON strings with the session TTL.
type RedisStore struct {
	rdb redis.Cmdable
}

// NewRedisStore connects to addr. Connection errors surface on first use.
func NewRedisStore(addr string) *RedisStore {
	return NewRedisStoreWithClient(redis.NewClient(&redis.Options{Addr: addr}))
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(rdb redis.Cmdable) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func redisKey(id string) string {
	return redisKeyPrefix + id
}

// Ping checks the connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *RedisStore) Load(ctx context.Context, id string) (*Snapshot, error) {
	val, err := s.rdb.Get(ctx, redisKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := json.Unmarshal(val, &snap); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return &snap, nil
}

func (s *RedisStore) Save(ctx context.Context, id string, snap Snapshot, ttl time.Duration) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, redisKey(id), data, ttl).Err()
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, redisKey(id)).Err()
}

// Close releases the client when it owns one.
func (s *RedisStore) Close() error {
	if c, ok := s.rdb.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
