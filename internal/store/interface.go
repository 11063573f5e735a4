package store

import "context"

// FollowStore caches followers counts and tracks which users are read most.
type FollowStore interface {
	GetFollowersCount(ctx context.Context, userID uint) (int64, bool, error)
	SetFollowersCount(ctx context.Context, userID uint, count int64) error
	CondIncrFollowersCount(ctx context.Context, userID uint) error
	CondDecrFollowersCount(ctx context.Context, userID uint) error
	RecordAccess(ctx context.Context, userID uint) error
	GetTopHotKeys(ctx context.Context, n int64) ([]uint, error)
	ResetHotKeyScores(ctx context.Context) error
}
