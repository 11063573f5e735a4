package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/weiawesome/yaycha/internal/domain"
)

// NopUserCache always misses. Used when redis is disabled.
type NopUserCache struct{}

func (NopUserCache) Get(context.Context, uint) (*domain.User, error)        { return nil, ErrCacheMiss }
func (NopUserCache) Set(context.Context, *domain.User, time.Duration) error { return nil }
func (NopUserCache) Delete(context.Context, ...uint) error                  { return nil }

// NopSearchCache always misses.
type NopSearchCache struct{}

func (NopSearchCache) BuildKey(backend, query string, limit int) string {
	return fmt.Sprintf("%s:%s:%d", backend, query, limit)
}

func (NopSearchCache) Get(context.Context, string) ([]domain.User, error)              { return nil, ErrCacheMiss }
func (NopSearchCache) Set(context.Context, string, []domain.User, time.Duration) error { return nil }

var (
	_ UserCache   = NopUserCache{}
	_ SearchCache = NopSearchCache{}
)
