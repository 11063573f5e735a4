package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/weiawesome/yaycha/internal/domain"
)

// GormNotificationRepository implements NotificationRepository using GORM.
type GormNotificationRepository struct {
	db *gorm.DB
}

// NewGormNotificationRepository creates a new GORM-backed notification repository.
func NewGormNotificationRepository(db *gorm.DB) *GormNotificationRepository {
	return &GormNotificationRepository{db: db}
}

func (r *GormNotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

// ListForRecipient returns the newest notifications for a user with the actor loaded.
func (r *GormNotificationRepository) ListForRecipient(ctx context.Context, recipientID uint, limit int) ([]domain.Notification, error) {
	var notis []domain.Notification
	err := r.db.WithContext(ctx).
		Preload("Actor").
		Where("recipient_id = ?", recipientID).
		Order("id DESC").
		Limit(limit).
		Find(&notis).Error
	if err != nil {
		return nil, err
	}
	return notis, nil
}

func (r *GormNotificationRepository) MarkAllRead(ctx context.Context, recipientID uint) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&domain.Notification{}).
		Where(map[string]interface{}{"recipient_id": recipientID, "read": false}).
		Update("read", true)
	return result.RowsAffected, result.Error
}

// MarkRead flags one notification as read. Notifications owned by someone
// else are reported as missing.
func (r *GormNotificationRepository) MarkRead(ctx context.Context, recipientID, id uint) (*domain.Notification, error) {
	var n domain.Notification
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND recipient_id = ?", id, recipientID).First(&n).Error; err != nil {
			if isNotFound(err) {
				return ErrNotificationNotFound
			}
			return err
		}
		if n.Read {
			return nil
		}
		n.Read = true
		return tx.Model(&n).Update("read", true).Error
	})
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// PurgeReadBefore deletes read notifications created before cutoff.
func (r *GormNotificationRepository) PurgeReadBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where(map[string]interface{}{"read": true}).
		Where("created < ?", cutoff).
		Delete(&domain.Notification{})
	return result.RowsAffected, result.Error
}

var _ NotificationRepository = (*GormNotificationRepository)(nil)
