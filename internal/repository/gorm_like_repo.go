package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/weiawesome/yaycha/internal/domain"
)

// GormLikeRepository implements LikeRepository using GORM.
type GormLikeRepository struct {
	db *gorm.DB
}

// NewGormLikeRepository creates a new GORM-backed like repository.
func NewGormLikeRepository(db *gorm.DB) *GormLikeRepository {
	return &GormLikeRepository{db: db}
}

func (r *GormLikeRepository) LikePost(ctx context.Context, like *domain.PostLike) error {
	if err := r.db.WithContext(ctx).Create(like).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyLiked
		}
		return err
	}
	return nil
}

func (r *GormLikeRepository) UnlikePost(ctx context.Context, userID, postID uint) error {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Delete(&domain.PostLike{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrLikeNotFound
	}
	return nil
}

// ListPostLikes returns the likes on a post with each liker's follow edges.
func (r *GormLikeRepository) ListPostLikes(ctx context.Context, postID uint) ([]domain.PostLike, error) {
	var likes []domain.PostLike
	err := r.withLikers(r.db.WithContext(ctx)).
		Where("post_id = ?", postID).
		Order("id ASC").
		Find(&likes).Error
	if err != nil {
		return nil, err
	}
	return likes, nil
}

func (r *GormLikeRepository) LikeComment(ctx context.Context, like *domain.CommentLike) error {
	if err := r.db.WithContext(ctx).Create(like).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyLiked
		}
		return err
	}
	return nil
}

func (r *GormLikeRepository) UnlikeComment(ctx context.Context, userID, commentID uint) error {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND comment_id = ?", userID, commentID).
		Delete(&domain.CommentLike{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrLikeNotFound
	}
	return nil
}

func (r *GormLikeRepository) ListCommentLikes(ctx context.Context, commentID uint) ([]domain.CommentLike, error) {
	var likes []domain.CommentLike
	err := r.withLikers(r.db.WithContext(ctx)).
		Where("comment_id = ?", commentID).
		Order("id ASC").
		Find(&likes).Error
	if err != nil {
		return nil, err
	}
	return likes, nil
}

func (r *GormLikeRepository) withLikers(db *gorm.DB) *gorm.DB {
	return db.
		Preload("User").
		Preload("User.Followers").
		Preload("User.Following")
}

var _ LikeRepository = (*GormLikeRepository)(nil)
