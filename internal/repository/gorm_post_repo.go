package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/weiawesome/yaycha/internal/domain"
)

// GormPostRepository implements PostRepository using GORM.
type GormPostRepository struct {
	db *gorm.DB
}

// NewGormPostRepository creates a new GORM-backed post repository.
func NewGormPostRepository(db *gorm.DB) *GormPostRepository {
	return &GormPostRepository{db: db}
}

func (r *GormPostRepository) Create(ctx context.Context, post *domain.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *GormPostRepository) GetByID(ctx context.Context, id uint) (*domain.Post, error) {
	var post domain.Post
	if err := r.db.WithContext(ctx).First(&post, id).Error; err != nil {
		if isNotFound(err) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return &post, nil
}

func (r *GormPostRepository) GetDetail(ctx context.Context, id uint) (*domain.Post, error) {
	db := r.db.WithContext(ctx)

	var post domain.Post
	err := db.
		Preload("User").
		Preload("Likes").
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		}).
		Preload("Comments.User").
		Preload("Comments.Likes").
		First(&post, id).Error
	if err != nil {
		if isNotFound(err) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}

	post.Count = &domain.PostCount{
		Comments: int64(len(post.Comments)),
		Likes:    int64(len(post.Likes)),
	}
	return &post, nil
}

func (r *GormPostRepository) ListLatest(ctx context.Context, limit int) ([]domain.Post, error) {
	db := r.db.WithContext(ctx)

	var posts []domain.Post
	err := db.
		Preload("User").
		Preload("Likes").
		Order("id DESC").
		Limit(limit).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return posts, attachPostCounts(db, posts)
}

// ListByFollowing returns the latest posts written by users followerID follows.
func (r *GormPostRepository) ListByFollowing(ctx context.Context, followerID uint, limit int) ([]domain.Post, error) {
	db := r.db.WithContext(ctx)

	following := db.Model(&domain.Follow{}).
		Select("following_id").
		Where("follower_id = ? AND deleted_at IS NULL", followerID)

	var posts []domain.Post
	err := db.
		Preload("User").
		Preload("Likes").
		Where("user_id IN (?)", following).
		Order("id DESC").
		Limit(limit).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return posts, attachPostCounts(db, posts)
}

func (r *GormPostRepository) CountByUser(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Post{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

func (r *GormPostRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		commentIDs := tx.Model(&domain.Comment{}).Select("id").Where("post_id = ?", id)
		if err := tx.Where("comment_id IN (?)", commentIDs).Delete(&domain.CommentLike{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&domain.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&domain.PostLike{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&domain.Notification{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&domain.Post{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrPostNotFound
		}
		return nil
	})
}

type postCommentCount struct {
	PostID uint
	Count  int64
}

// attachPostCounts fills Count on each post with one grouped comment query.
func attachPostCounts(db *gorm.DB, posts []domain.Post) error {
	if len(posts) == 0 {
		return nil
	}

	ids := make([]uint, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}

	var rows []postCommentCount
	err := db.Model(&domain.Comment{}).
		Select("post_id, COUNT(*) AS count").
		Where("post_id IN ?", ids).
		Group("post_id").
		Scan(&rows).Error
	if err != nil {
		return err
	}

	counts := make(map[uint]int64, len(rows))
	for _, row := range rows {
		counts[row.PostID] = row.Count
	}
	for i := range posts {
		posts[i].Count = &domain.PostCount{
			Comments: counts[posts[i].ID],
			Likes:    int64(len(posts[i].Likes)),
		}
	}
	return nil
}

var _ PostRepository = (*GormPostRepository)(nil)
