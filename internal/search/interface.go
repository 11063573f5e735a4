package search

import (
	"context"

	"github.com/weiawesome/yaycha/internal/domain"
)

const (
	BackendDatabase      = "database"
	BackendElasticsearch = "elasticsearch"
)

// Backend finds users by name or username and keeps its index current.
type Backend interface {
	Name() string
	SearchUsers(ctx context.Context, query string, limit int) ([]domain.User, error)
	IndexUser(ctx context.Context, user *domain.User) error
}

// UserSearcher runs a case-insensitive match directly against the user table.
type UserSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]domain.User, error)
}

// UserLoader hydrates users by id, preserving the order of ids.
type UserLoader interface {
	ListByIDs(ctx context.Context, ids []uint) ([]domain.User, error)
}
