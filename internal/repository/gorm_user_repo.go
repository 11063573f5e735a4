package repository

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/weiawesome/yaycha/internal/domain"
)

// GormUserRepository implements UserRepository using GORM.
type GormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a new GORM-backed user repository.
func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) Create(ctx context.Context, user *domain.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrUsernameExists
		}
		return err
	}
	return nil
}

func (r *GormUserRepository) GetByID(ctx context.Context, id uint) (*domain.User, error) {
	var user domain.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if isNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *GormUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	var user domain.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if isNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *GormUserRepository) GetProfile(ctx context.Context, id uint, postLimit int) (*domain.User, error) {
	db := r.db.WithContext(ctx)

	var user domain.User
	err := db.
		Preload("Posts", func(db *gorm.DB) *gorm.DB {
			return db.Order("id DESC").Limit(postLimit)
		}).
		Preload("Posts.User").
		Preload("Posts.Likes").
		Preload("Followers").
		Preload("Following").
		First(&user, id).Error
	if err != nil {
		if isNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if err := attachPostCounts(db, user.Posts); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormUserRepository) ListLatest(ctx context.Context, limit int) ([]domain.User, error) {
	var users []domain.User
	err := r.db.WithContext(ctx).
		Preload("Posts").
		Preload("Comments").
		Order("id DESC").
		Limit(limit).
		Find(&users).Error
	return users, err
}

// ListByIDs returns the users in the order of ids, skipping unknown ones.
func (r *GormUserRepository) ListByIDs(ctx context.Context, ids []uint) ([]domain.User, error) {
	if len(ids) == 0 {
		return []domain.User{}, nil
	}

	var users []domain.User
	if err := r.db.WithContext(ctx).Preload("Followers").Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}

	byID := make(map[uint]domain.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	ordered := make([]domain.User, 0, len(users))
	for _, id := range ids {
		if u, ok := byID[id]; ok {
			ordered = append(ordered, u)
		}
	}
	return ordered, nil
}

// ListAfter returns up to limit users with id greater than afterID, in id
// order.
func (r *GormUserRepository) ListAfter(ctx context.Context, afterID uint, limit int) ([]domain.User, error) {
	var users []domain.User
	err := r.db.WithContext(ctx).
		Where("id > ?", afterID).
		Order("id ASC").
		Limit(limit).
		Find(&users).Error
	return users, err
}

// likeEscaper escapes LIKE wildcards with '!', which needs no quoting in any
// supported dialect.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// containsPattern builds a lower-cased LIKE pattern matching query literally.
func containsPattern(query string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(query)) + "%"
}

// Search matches name or username case-insensitively. The query is matched
// literally.
func (r *GormUserRepository) Search(ctx context.Context, query string, limit int) ([]domain.User, error) {
	pattern := containsPattern(query)

	var users []domain.User
	err := r.db.WithContext(ctx).
		Preload("Followers").
		Where("LOWER(name) LIKE ? ESCAPE '!' OR LOWER(username) LIKE ? ESCAPE '!'", pattern, pattern).
		Order("id DESC").
		Limit(limit).
		Find(&users).Error
	return users, err
}

func (r *GormUserRepository) UpdateImage(ctx context.Context, id uint, kind domain.ImageKind, key string) error {
	var column string
	switch kind {
	case domain.ImageAvatar:
		column = "profile_picture"
	case domain.ImageCover:
		column = "cover_photo"
	default:
		return fmt.Errorf("unknown image kind: %s", kind)
	}

	result := r.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).Update(column, key)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *GormUserRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

var _ UserRepository = (*GormUserRepository)(nil)
