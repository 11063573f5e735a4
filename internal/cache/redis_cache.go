package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/weiawesome/yaycha/internal/config"
	"github.com/weiawesome/yaycha/internal/domain"
)

// NewRedisClient connects to redis and verifies the connection.
func NewRedisClient(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

type RedisUserCache struct {
	client redis.Cmdable
	prefix string
}

func NewRedisUserCache(client redis.Cmdable, prefix string) *RedisUserCache {
	return &RedisUserCache{
		client: client,
		prefix: prefix,
	}
}

func (c *RedisUserCache) key(userID uint) string {
	return fmt.Sprintf("%s:user:%d", c.prefix, userID)
}

func (c *RedisUserCache) Get(ctx context.Context, userID uint) (*domain.User, error) {
	data, err := c.client.Get(ctx, c.key(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}

	var user domain.User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache data: %w", err)
	}
	return &user, nil
}

func (c *RedisUserCache) Set(ctx context.Context, user *domain.User, ttl time.Duration) error {
	// Only the row itself is cached, never preloaded associations.
	row := *user
	row.Posts, row.Comments, row.Followers, row.Following = nil, nil, nil, nil

	data, err := json.Marshal(&row)
	if err != nil {
		return fmt.Errorf("failed to marshal cache data: %w", err)
	}

	if err := c.client.Set(ctx, c.key(user.ID), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set in redis: %w", err)
	}
	return nil
}

func (c *RedisUserCache) Delete(ctx context.Context, userIDs ...uint) error {
	if len(userIDs) == 0 {
		return nil
	}

	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = c.key(id)
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete from redis: %w", err)
	}
	return nil
}

type RedisSearchCache struct {
	client redis.Cmdable
	prefix string
}

// NewRedisSearchCache creates a new Redis-based search cache.
func NewRedisSearchCache(client redis.Cmdable, prefix string) *RedisSearchCache {
	return &RedisSearchCache{
		client: client,
		prefix: prefix,
	}
}

// BuildKey creates a cache key from search parameters.
func (c *RedisSearchCache) BuildKey(backend, query string, limit int) string {
	return fmt.Sprintf("%s:search:%s:%s:%d", c.prefix, backend, strings.ToLower(strings.TrimSpace(query)), limit)
}

func (c *RedisSearchCache) Get(ctx context.Context, key string) ([]domain.User, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}

	var users []domain.User
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache data: %w", err)
	}
	return users, nil
}

func (c *RedisSearchCache) Set(ctx context.Context, key string, users []domain.User, ttl time.Duration) error {
	data, err := json.Marshal(users)
	if err != nil {
		return fmt.Errorf("failed to marshal cache data: %w", err)
	}

	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set in redis: %w", err)
	}
	return nil
}

var (
	_ UserCache   = (*RedisUserCache)(nil)
	_ SearchCache = (*RedisSearchCache)(nil)
)
