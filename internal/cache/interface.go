package cache

import (
	"context"
	"errors"
	"time"

	"github.com/weiawesome/yaycha/internal/domain"
)

var ErrCacheMiss = errors.New("cache miss")

// UserCache caches public user rows by id.
type UserCache interface {
	Get(ctx context.Context, userID uint) (*domain.User, error)
	Set(ctx context.Context, user *domain.User, ttl time.Duration) error
	Delete(ctx context.Context, userIDs ...uint) error
}

// SearchCache caches user search results by query.
type SearchCache interface {
	BuildKey(backend, query string, limit int) string
	Get(ctx context.Context, key string) ([]domain.User, error)
	Set(ctx context.Context, key string, users []domain.User, ttl time.Duration) error
}
