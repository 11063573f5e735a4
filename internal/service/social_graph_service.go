package service

import (
	"context"
	"errors"

	"github.com/weiawesome/yaycha/internal/audit"
	"github.com/weiawesome/yaycha/internal/consumer"
	"github.com/weiawesome/yaycha/internal/domain"
	"github.com/weiawesome/yaycha/internal/repository"
	"github.com/weiawesome/yaycha/internal/store"
	"github.com/weiawesome/yaycha/pkg/log"
	"github.com/weiawesome/yaycha/pkg/metrics"
)

const followListLimit = 20

// UserChecker reports whether a user exists.
type UserChecker interface {
	Exists(ctx context.Context, id uint) (bool, error)
}

// socialGraphService implements SocialGraphService.
type socialGraphService struct {
	repo     repository.FollowRepository
	users    UserChecker
	store    store.FollowStore
	notifier Notifier
	// cdcEnabled hands counter maintenance to the CDC consumer.
	cdcEnabled bool
}

// NewSocialGraphService creates a new SocialGraphService instance.
func NewSocialGraphService(repo repository.FollowRepository, users UserChecker, store store.FollowStore, notifier Notifier, cdcEnabled bool) SocialGraphService {
	return &socialGraphService{
		repo:       repo,
		users:      users,
		store:      store,
		notifier:   notifier,
		cdcEnabled: cdcEnabled,
	}
}

// Follow creates a follow relationship from followerID to followingID.
func (s *socialGraphService) Follow(ctx context.Context, followerID, followingID uint) (*domain.Follow, error) {
	l := log.Ctx(ctx)

	if followerID == followingID {
		return nil, ErrSelfFollow
	}

	if err := s.ensureUser(ctx, followingID); err != nil {
		return nil, err
	}

	follow, err := s.repo.Follow(ctx, followerID, followingID)
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyFollowing) {
			return nil, ErrAlreadyFollowing
		}
		l.Error().Err(err).
			Uint("follower_id", followerID).
			Uint("following_id", followingID).
			Msg("failed to follow user")
		return nil, err
	}

	if !s.cdcEnabled {
		if err := s.store.CondIncrFollowersCount(ctx, followingID); err != nil {
			l.Warn().Err(err).Uint(log.FieldTargetUserID, followingID).Msg("failed to incr followers count")
		}
	}

	notify(ctx, s.notifier, &domain.Notification{
		Type:        domain.NotificationFollow,
		Content:     "followed you",
		RecipientID: followingID,
		ActorID:     followerID,
	})

	metrics.RecordEvent(metrics.EventFollowed)
	audit.LogTarget(ctx, audit.ActionFollow, followerID, followingID, "user followed")

	return follow, nil
}

// Unfollow removes the follow relationship from followerID to followingID.
func (s *socialGraphService) Unfollow(ctx context.Context, followerID, followingID uint) error {
	l := log.Ctx(ctx)

	if err := s.repo.Unfollow(ctx, followerID, followingID); err != nil {
		if errors.Is(err, repository.ErrFollowNotFound) {
			return ErrNotFollowing
		}
		l.Error().Err(err).
			Uint("follower_id", followerID).
			Uint("following_id", followingID).
			Msg("failed to unfollow user")
		return err
	}

	if !s.cdcEnabled {
		if err := s.store.CondDecrFollowersCount(ctx, followingID); err != nil {
			l.Warn().Err(err).Uint(log.FieldTargetUserID, followingID).Msg("failed to decr followers count")
		}
	}

	metrics.RecordEvent(metrics.EventUnfollowed)
	audit.LogTarget(ctx, audit.ActionUnfollow, followerID, followingID, "user unfollowed")

	return nil
}

// GetFollowersCount returns the number of followers for userID.
// It checks Redis first; on miss it queries the DB, populates Redis, and records a hot key access.
func (s *socialGraphService) GetFollowersCount(ctx context.Context, userID uint) (int64, error) {
	l := log.Ctx(ctx)

	// Always record access for hot key tracking (best-effort)
	if err := s.store.RecordAccess(ctx, userID); err != nil {
		l.Warn().Err(err).Uint(log.FieldUserID, userID).Msg("failed to record hot key access")
	}

	count, found, err := s.store.GetFollowersCount(ctx, userID)
	if err != nil {
		l.Warn().Err(err).Uint(log.FieldUserID, userID).Msg("redis get followers count failed, falling back to db")
	}
	if found {
		return count, nil
	}

	count, err = s.repo.GetFollowersCount(ctx, userID)
	if err != nil {
		l.Error().Err(err).Uint(log.FieldUserID, userID).Msg("failed to get followers count from db")
		return 0, err
	}

	if err := s.store.SetFollowersCount(ctx, userID, count); err != nil {
		l.Warn().Err(err).Uint(log.FieldUserID, userID).Msg("failed to set followers count in redis")
	}

	return count, nil
}

func (s *socialGraphService) GetFollowingCount(ctx context.Context, userID uint) (int64, error) {
	return s.repo.GetFollowingCount(ctx, userID)
}

func (s *socialGraphService) IsFollowing(ctx context.Context, followerID, followingID uint) (bool, error) {
	return s.repo.IsFollowing(ctx, followerID, followingID)
}

func (s *socialGraphService) ListFollowers(ctx context.Context, userID uint) ([]domain.User, error) {
	if err := s.ensureUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.repo.ListFollowers(ctx, userID, followListLimit)
}

func (s *socialGraphService) ListFollowing(ctx context.Context, userID uint) ([]domain.User, error) {
	if err := s.ensureUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.repo.ListFollowing(ctx, userID, followListLimit)
}

func (s *socialGraphService) ensureUser(ctx context.Context, userID uint) error {
	ok, err := s.users.Exists(ctx, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUserNotFound
	}
	return nil
}

// HandleCDCEvent processes a Debezium CDC event on the follows table and
// adjusts the cached followers count of the followed user.
func (s *socialGraphService) HandleCDCEvent(ctx context.Context, event *consumer.DebeziumMessage) error {
	l := log.Ctx(ctx)
	op := event.Payload.Op

	switch op {
	case consumer.OpSnapshot:
		return nil

	case consumer.OpCreate:
		if event.Payload.After == nil {
			l.Warn().Msg("CDC create event missing 'after' field")
			return nil
		}
		if err := s.store.CondIncrFollowersCount(ctx, event.Payload.After.FollowingID); err != nil {
			l.Error().Err(err).Uint("following_id", event.Payload.After.FollowingID).Msg("failed to cond incr followers count")
			return err
		}

	case consumer.OpUpdate:
		// Unfollow sets deleted_at, a re-follow clears it again.
		if event.Payload.After == nil {
			l.Warn().Msg("CDC update event missing 'after' field")
			return nil
		}
		after := event.Payload.After
		wasDeleted := event.Payload.Before != nil && event.Payload.Before.DeletedAt != nil
		isDeleted := after.DeletedAt != nil

		switch {
		case isDeleted && (event.Payload.Before == nil || !wasDeleted):
			if err := s.store.CondDecrFollowersCount(ctx, after.FollowingID); err != nil {
				l.Error().Err(err).Uint("following_id", after.FollowingID).Msg("failed to cond decr followers count (soft delete)")
				return err
			}
		case !isDeleted && (event.Payload.Before == nil || wasDeleted):
			if err := s.store.CondIncrFollowersCount(ctx, after.FollowingID); err != nil {
				l.Error().Err(err).Uint("following_id", after.FollowingID).Msg("failed to cond incr followers count (soft restore)")
				return err
			}
		}

	case consumer.OpDelete:
		// Hard delete; the before-row is complete because of REPLICA IDENTITY FULL.
		before := event.Payload.Before
		if before == nil {
			l.Warn().Msg("CDC hard-delete event missing 'before' field")
			return nil
		}
		if before.DeletedAt != nil {
			// Already counted out when it was soft-deleted.
			return nil
		}
		if err := s.store.CondDecrFollowersCount(ctx, before.FollowingID); err != nil {
			l.Error().Err(err).Uint("following_id", before.FollowingID).Msg("failed to cond decr followers count (hard delete)")
			return err
		}

	default:
		l.Warn().Str("op", op).Msg("unknown CDC operation, skipping")
	}

	return nil
}

// Ensure interface is satisfied at compile time.
var _ SocialGraphService = (*socialGraphService)(nil)
