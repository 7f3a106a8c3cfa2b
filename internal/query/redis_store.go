package query

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisNamespace = "abricot:query:"
	anonymousScope = "anon"
)

// RedisStore shares the cache between processes (several terminal client
// invocations, or a gateway restart). Invalidated entries are deleted; entries
// expire gcTime after their last write.
//
// Keys live under a namespace derived from the identity scope returns at call
// time, so processes signed in as different users never see each other's
// entries. Clear only drops the current identity's namespace.
type RedisStore struct {
	rdb    *redis.Client
	gcTime time.Duration
	scope  func() string
}

// NewRedisStore builds the store. scope returns the signed-in identity (a user
// id), or "" when nobody is; a nil scope means everything is anonymous.
func NewRedisStore(rdb *redis.Client, gcTime time.Duration, scope func() string) *RedisStore {
	return &RedisStore{rdb: rdb, gcTime: gcTime, scope: scope}
}

func (s *RedisStore) namespace() string {
	id := ""
	if s.scope != nil {
		id = s.scope()
	}
	if id == "" {
		return redisNamespace + anonymousScope + ":"
	}
	sum := sha256.Sum256([]byte(id))
	return redisNamespace + hex.EncodeToString(sum[:8]) + ":"
}

func (s *RedisStore) redisKey(key Key) string {
	return s.namespace() + key.String()
}

func (s *RedisStore) Get(ctx context.Context, key Key) (Entry, bool, error) {
	b, err := s.rdb.Get(ctx, s.redisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("redis get: %w", err)
	}
	var e Entry
	if err := json.Unmarshal(b, &e); err != nil {
		// A corrupt entry is a miss; the next Set overwrites it.
		return Entry{}, false, nil
	}
	return e, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key Key, e Entry) error {
	b, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode entry: %w", err)
	}
	if err := s.rdb.Set(ctx, s.redisKey(key), b, s.gcTime).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Invalidate deletes the exact key and every key below it. Segments are
// query-escaped, so they never contain glob metacharacters.
func (s *RedisStore) Invalidate(ctx context.Context, prefix Key) (int, error) {
	exact := s.redisKey(prefix)
	n, err := s.rdb.Del(ctx, exact).Result()
	if err != nil {
		return 0, fmt.Errorf("redis del: %w", err)
	}
	deleted, err := s.deleteMatching(ctx, exact+":*")
	return int(n) + deleted, err
}

func (s *RedisStore) Clear(ctx context.Context) error {
	_, err := s.deleteMatching(ctx, s.namespace()+"*")
	return err
}

func (s *RedisStore) deleteMatching(ctx context.Context, pattern string) (int, error) {
	deleted := 0
	iter := s.rdb.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		n, err := s.rdb.Del(ctx, iter.Val()).Result()
		if err != nil {
			return deleted, fmt.Errorf("redis del: %w", err)
		}
		deleted += int(n)
	}
	if err := iter.Err(); err != nil {
		return deleted, fmt.Errorf("redis scan: %w", err)
	}
	return deleted, nil
}
