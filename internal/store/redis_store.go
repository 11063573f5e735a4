package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const (
	followersCountKeyPrefix = "social:followers:"
	hotKeyScoresKey         = "social:hotkey:scores"
)

// RedisFollowStore implements FollowStore backed by Redis.
type RedisFollowStore struct {
	client *redis.Client
	prefix string
}

// NewRedisFollowStore creates a new Redis-backed follow store. Keys are
// namespaced with prefix.
func NewRedisFollowStore(client *redis.Client, prefix string) *RedisFollowStore {
	return &RedisFollowStore{client: client, prefix: prefix}
}

func (s *RedisFollowStore) followersCountKey(userID uint) string {
	return s.prefix + ":" + followersCountKeyPrefix + strconv.FormatUint(uint64(userID), 10)
}

func (s *RedisFollowStore) hotKeyScoresKey() string {
	return s.prefix + ":" + hotKeyScoresKey
}

// GetFollowersCount returns the cached followers count for a user.
// Returns (count, true, nil) on hit, (0, false, nil) on miss, (0, false, err) on error.
func (s *RedisFollowStore) GetFollowersCount(ctx context.Context, userID uint) (int64, bool, error) {
	val, err := s.client.Get(ctx, s.followersCountKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("redis get followers count: %w", err)
	}

	count, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("parse followers count: %w", err)
	}
	return count, true, nil
}

// SetFollowersCount sets the followers count for a user in Redis.
func (s *RedisFollowStore) SetFollowersCount(ctx context.Context, userID uint, count int64) error {
	err := s.client.Set(ctx, s.followersCountKey(userID), count, 0).Err()
	if err != nil {
		return fmt.Errorf("redis set followers count: %w", err)
	}
	return nil
}

// condIncrScript atomically increments the key only if it exists.
// Returns the new value, or 0 if the key did not exist.
var condIncrScript = redis.NewScript(`
local key = KEYS[1]
if redis.call("EXISTS", key) == 1 then
  return redis.call("INCR", key)
end
return 0
`)

// condDecrScript atomically decrements the key only if it exists and stays >= 0.
var condDecrScript = redis.NewScript(`
local key = KEYS[1]
if redis.call("EXISTS", key) == 1 then
  local val = tonumber(redis.call("GET", key))
  if val and val > 0 then
    return redis.call("DECR", key)
  end
end
return 0
`)

// CondIncrFollowersCount increments the followers count only if the key exists,
// so a cold key is never initialised from a delta alone.
func (s *RedisFollowStore) CondIncrFollowersCount(ctx context.Context, userID uint) error {
	err := condIncrScript.Run(ctx, s.client, []string{s.followersCountKey(userID)}).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("redis cond incr followers count: %w", err)
	}
	return nil
}

// CondDecrFollowersCount decrements the followers count only if the key exists.
func (s *RedisFollowStore) CondDecrFollowersCount(ctx context.Context, userID uint) error {
	err := condDecrScript.Run(ctx, s.client, []string{s.followersCountKey(userID)}).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("redis cond decr followers count: %w", err)
	}
	return nil
}

// RecordAccess increments the access score for a user in the hot key sorted set.
func (s *RedisFollowStore) RecordAccess(ctx context.Context, userID uint) error {
	member := strconv.FormatUint(uint64(userID), 10)
	if err := s.client.ZIncrBy(ctx, s.hotKeyScoresKey(), 1, member).Err(); err != nil {
		return fmt.Errorf("redis record access: %w", err)
	}
	return nil
}

// GetTopHotKeys returns the top-n most accessed user IDs.
func (s *RedisFollowStore) GetTopHotKeys(ctx context.Context, n int64) ([]uint, error) {
	members, err := s.client.ZRevRange(ctx, s.hotKeyScoresKey(), 0, n-1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis get top hot keys: %w", err)
	}

	ids := make([]uint, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseUint(m, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, uint(id))
	}
	return ids, nil
}

// ResetHotKeyScores deletes the hot key scores sorted set.
func (s *RedisFollowStore) ResetHotKeyScores(ctx context.Context) error {
	if err := s.client.Del(ctx, s.hotKeyScoresKey()).Err(); err != nil {
		return fmt.Errorf("redis reset hot key scores: %w", err)
	}
	return nil
}

// Ensure interface is satisfied at compile time.
var _ FollowStore = (*RedisFollowStore)(nil)
