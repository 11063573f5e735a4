package search

import (
	"context"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"

	"github.com/weiawesome/yaycha/internal/config"
)

// Users is what the backends read from the user table.
type Users interface {
	UserSearcher
	UserLoader
}

// New builds the configured user search backend. The elasticsearch index is
// created on first start.
func New(ctx context.Context, cfg config.SearchConfig, users Users) (Backend, error) {
	switch cfg.Backend {
	case "", BackendDatabase:
		return NewDatabaseBackend(users), nil
	case BackendElasticsearch:
		client, err := elasticsearch.NewClient(elasticsearch.Config{
			Addresses: cfg.Elasticsearch.Addresses,
		})
		if err != nil {
			return nil, fmt.Errorf("elasticsearch client: %w", err)
		}
		backend := NewESBackend(client, cfg.Elasticsearch.IndexUsers, users)
		if err := backend.EnsureIndex(ctx); err != nil {
			return nil, err
		}
		return backend, nil
	default:
		return nil, fmt.Errorf("unsupported search backend: %s", cfg.Backend)
	}
}
