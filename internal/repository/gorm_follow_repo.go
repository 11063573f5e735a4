package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/weiawesome/yaycha/internal/domain"
)

// GormFollowRepository implements FollowRepository using GORM.
type GormFollowRepository struct {
	db *gorm.DB
}

// NewGormFollowRepository creates a new GORM-backed follow repository.
func NewGormFollowRepository(db *gorm.DB) *GormFollowRepository {
	return &GormFollowRepository{db: db}
}

// Follow creates a follow relationship between two users.
// A soft-deleted row for the same pair is restored instead of inserting a
// second one, so the pair keeps a single history row.
func (r *GormFollowRepository) Follow(ctx context.Context, followerID, followingID uint) (*domain.Follow, error) {
	var follow domain.Follow
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Unscoped().
			Model(&domain.Follow{}).
			Where("follower_id = ? AND following_id = ? AND deleted_at IS NOT NULL", followerID, followingID).
			Update("deleted_at", nil)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected > 0 {
			// Restored; CDC sees an update event.
			return tx.Where("follower_id = ? AND following_id = ?", followerID, followingID).
				First(&follow).Error
		}

		follow = domain.Follow{
			FollowerID:  followerID,
			FollowingID: followingID,
		}
		if err := tx.Create(&follow).Error; err != nil {
			if isUniqueViolation(err) {
				return ErrAlreadyFollowing
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &follow, nil
}

// Unfollow soft-deletes the active follow relationship.
func (r *GormFollowRepository) Unfollow(ctx context.Context, followerID, followingID uint) error {
	result := r.db.WithContext(ctx).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Delete(&domain.Follow{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrFollowNotFound
	}
	return nil
}

// IsFollowing checks if followerID follows followingID.
func (r *GormFollowRepository) IsFollowing(ctx context.Context, followerID, followingID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Follow{}).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetFollowersCount returns the total number of followers for a given user.
func (r *GormFollowRepository) GetFollowersCount(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Follow{}).
		Where("following_id = ?", userID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormFollowRepository) GetFollowingCount(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Follow{}).
		Where("follower_id = ?", userID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// ListFollowers returns the users following userID, newest edge first.
func (r *GormFollowRepository) ListFollowers(ctx context.Context, userID uint, limit int) ([]domain.User, error) {
	var edges []domain.Follow
	err := r.db.WithContext(ctx).
		Preload("Follower").
		Where("following_id = ?", userID).
		Order("id DESC").
		Limit(limit).
		Find(&edges).Error
	if err != nil {
		return nil, err
	}

	users := make([]domain.User, 0, len(edges))
	for _, e := range edges {
		if e.Follower != nil {
			users = append(users, *e.Follower)
		}
	}
	return users, nil
}

// ListFollowing returns the users userID follows, newest edge first.
func (r *GormFollowRepository) ListFollowing(ctx context.Context, userID uint, limit int) ([]domain.User, error) {
	var edges []domain.Follow
	err := r.db.WithContext(ctx).
		Preload("Following").
		Where("follower_id = ?", userID).
		Order("id DESC").
		Limit(limit).
		Find(&edges).Error
	if err != nil {
		return nil, err
	}

	users := make([]domain.User, 0, len(edges))
	for _, e := range edges {
		if e.Following != nil {
			users = append(users, *e.Following)
		}
	}
	return users, nil
}

// Ensure interface is satisfied at compile time.
var _ FollowRepository = (*GormFollowRepository)(nil)
