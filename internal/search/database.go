package search

import (
	"context"

	"github.com/weiawesome/yaycha/internal/domain"
)

// DatabaseBackend searches with a LIKE query on the user table. Nothing
// needs indexing.
type DatabaseBackend struct {
	users UserSearcher
}

func NewDatabaseBackend(users UserSearcher) *DatabaseBackend {
	return &DatabaseBackend{users: users}
}

func (b *DatabaseBackend) Name() string { return BackendDatabase }

func (b *DatabaseBackend) SearchUsers(ctx context.Context, query string, limit int) ([]domain.User, error) {
	return b.users.Search(ctx, query, limit)
}

func (b *DatabaseBackend) IndexUser(context.Context, *domain.User) error { return nil }

var _ Backend = (*DatabaseBackend)(nil)
