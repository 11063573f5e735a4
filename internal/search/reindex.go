package search

import (
	"context"
	"fmt"

	"github.com/weiawesome/yaycha/internal/domain"
	"github.com/weiawesome/yaycha/pkg/log"
)

const defaultReindexBatch = 200

// UserPager walks the user table in id order.
type UserPager interface {
	ListAfter(ctx context.Context, afterID uint, limit int) ([]domain.User, error)
}

// Reindex feeds every user to backend, batch rows at a time. It is how an
// index is backfilled after switching backends or seeding. The database
// backend has no index and is skipped.
func Reindex(ctx context.Context, backend Backend, users UserPager, batch int) (int, error) {
	if backend.Name() == BackendDatabase {
		return 0, nil
	}
	if batch <= 0 {
		batch = defaultReindexBatch
	}

	l := log.Ctx(ctx)
	indexed := 0
	var after uint
	for {
		page, err := users.ListAfter(ctx, after, batch)
		if err != nil {
			return indexed, fmt.Errorf("list users after %d: %w", after, err)
		}
		for i := range page {
			if err := backend.IndexUser(ctx, &page[i]); err != nil {
				return indexed, fmt.Errorf("index user %d: %w", page[i].ID, err)
			}
			indexed++
		}
		if len(page) < batch {
			break
		}
		after = page[len(page)-1].ID
		l.Debug().Int("indexed", indexed).Msg("reindex progress")
	}

	l.Info().Str("backend", backend.Name()).Int("indexed", indexed).Msg("reindex finished")
	return indexed, nil
}
