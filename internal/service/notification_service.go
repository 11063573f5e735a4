package service

import (
	"context"
	"errors"
	"time"

	"github.com/weiawesome/yaycha/internal/domain"
	"github.com/weiawesome/yaycha/internal/repository"
	"github.com/weiawesome/yaycha/pkg/log"
	"github.com/weiawesome/yaycha/pkg/pubsub"
)

const defaultNotificationListLimit = 40

// UserGetter loads a single user.
type UserGetter interface {
	GetByID(ctx context.Context, id uint) (*domain.User, error)
}

// NotificationServiceConfig configures listing and retention.
type NotificationServiceConfig struct {
	ListLimit int
	Retention time.Duration
}

type notificationServiceImpl struct {
	repo      repository.NotificationRepository
	users     UserGetter
	publisher pubsub.Publisher
	cfg       NotificationServiceConfig
	now       func() time.Time
}

// NewNotificationService creates a notification service that persists rows
// and publishes them on the recipient's channel.
func NewNotificationService(repo repository.NotificationRepository, users UserGetter, publisher pubsub.Publisher, cfg NotificationServiceConfig) NotificationService {
	if cfg.ListLimit <= 0 {
		cfg.ListLimit = defaultNotificationListLimit
	}
	return &notificationServiceImpl{
		repo:      repo,
		users:     users,
		publisher: publisher,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Notify persists n and publishes it live. Users are never notified of
// their own actions. A failed publish is logged; the row is already stored.
func (s *notificationServiceImpl) Notify(ctx context.Context, n *domain.Notification) error {
	if n.RecipientID == 0 || n.RecipientID == n.ActorID {
		return nil
	}

	l := log.Ctx(ctx)

	if err := s.repo.Create(ctx, n); err != nil {
		l.Error().Err(err).Uint(log.FieldTargetUserID, n.RecipientID).Msg("failed to create notification")
		return err
	}

	if n.Actor == nil {
		actor, err := s.users.GetByID(ctx, n.ActorID)
		if err != nil {
			l.Warn().Err(err).Uint(log.FieldUserID, n.ActorID).Msg("failed to load notification actor")
		} else {
			n.Actor = actor
		}
	}

	event, err := pubsub.NewEvent(pubsub.EventNotificationCreated, n)
	if err != nil {
		l.Error().Err(err).Msg("failed to build notification event")
		return nil
	}

	channel := pubsub.UserChannel(pubsub.StreamNotifications, n.RecipientID)
	if err := s.publisher.Publish(ctx, channel, event); err != nil {
		l.Warn().Err(err).
			Uint(log.FieldNotificationID, n.ID).
			Str("channel", channel).
			Msg("failed to publish notification")
	}
	return nil
}

func (s *notificationServiceImpl) List(ctx context.Context, userID uint) ([]domain.Notification, error) {
	return s.repo.ListForRecipient(ctx, userID, s.cfg.ListLimit)
}

func (s *notificationServiceImpl) MarkAllRead(ctx context.Context, userID uint) error {
	n, err := s.repo.MarkAllRead(ctx, userID)
	if err != nil {
		return err
	}

	l := log.Ctx(ctx)
	l.Debug().Uint(log.FieldUserID, userID).Int64("count", n).Msg("notifications marked read")
	return nil
}

func (s *notificationServiceImpl) MarkRead(ctx context.Context, userID, notificationID uint) (*domain.Notification, error) {
	n, err := s.repo.MarkRead(ctx, userID, notificationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotificationNotFound) {
			return nil, ErrNotificationNotFound
		}
		return nil, err
	}
	return n, nil
}

func (s *notificationServiceImpl) PurgeRead(ctx context.Context) (int64, error) {
	if s.cfg.Retention <= 0 {
		return 0, nil
	}
	return s.repo.PurgeReadBefore(ctx, s.now().Add(-s.cfg.Retention))
}

// notify sends n through notifier without failing the caller's request.
func notify(ctx context.Context, notifier Notifier, n *domain.Notification) {
	if err := notifier.Notify(ctx, n); err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Str("type", n.Type).Msg("notification not delivered")
	}
}

var _ NotificationService = (*notificationServiceImpl)(nil)
