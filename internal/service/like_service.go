package service

import (
	"context"
	"errors"

	"github.com/weiawesome/yaycha/internal/domain"
	"github.com/weiawesome/yaycha/internal/repository"
	"github.com/weiawesome/yaycha/pkg/log"
	"github.com/weiawesome/yaycha/pkg/metrics"
)

type likeServiceImpl struct {
	likes    repository.LikeRepository
	posts    repository.PostRepository
	comments repository.CommentRepository
	notifier Notifier
}

// NewLikeService creates a new like service.
func NewLikeService(likes repository.LikeRepository, posts repository.PostRepository, comments repository.CommentRepository, notifier Notifier) LikeService {
	return &likeServiceImpl{
		likes:    likes,
		posts:    posts,
		comments: comments,
		notifier: notifier,
	}
}

func (s *likeServiceImpl) LikePost(ctx context.Context, userID, postID uint) (*domain.PostLike, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		if errors.Is(err, repository.ErrPostNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}

	like := &domain.PostLike{UserID: userID, PostID: postID}
	if err := s.likes.LikePost(ctx, like); err != nil {
		if errors.Is(err, repository.ErrAlreadyLiked) {
			return nil, ErrAlreadyLiked
		}
		l := log.Ctx(ctx)
		l.Error().Err(err).Uint(log.FieldPostID, postID).Msg("failed to like post")
		return nil, err
	}

	notify(ctx, s.notifier, &domain.Notification{
		Type:        domain.NotificationLike,
		Content:     "liked your post",
		RecipientID: post.UserID,
		ActorID:     userID,
		PostID:      &postID,
	})

	metrics.RecordEvent(metrics.EventPostLiked)
	return like, nil
}

func (s *likeServiceImpl) UnlikePost(ctx context.Context, userID, postID uint) error {
	if err := s.likes.UnlikePost(ctx, userID, postID); err != nil {
		if errors.Is(err, repository.ErrLikeNotFound) {
			return ErrLikeNotFound
		}
		return err
	}

	metrics.RecordEvent(metrics.EventPostUnliked)
	return nil
}

func (s *likeServiceImpl) PostLikes(ctx context.Context, postID uint) ([]domain.PostLike, error) {
	return s.likes.ListPostLikes(ctx, postID)
}

func (s *likeServiceImpl) LikeComment(ctx context.Context, userID, commentID uint) (*domain.CommentLike, error) {
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, repository.ErrCommentNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, err
	}

	like := &domain.CommentLike{UserID: userID, CommentID: commentID}
	if err := s.likes.LikeComment(ctx, like); err != nil {
		if errors.Is(err, repository.ErrAlreadyLiked) {
			return nil, ErrAlreadyLiked
		}
		l := log.Ctx(ctx)
		l.Error().Err(err).Uint(log.FieldCommentID, commentID).Msg("failed to like comment")
		return nil, err
	}

	postID := comment.PostID
	notify(ctx, s.notifier, &domain.Notification{
		Type:        domain.NotificationLike,
		Content:     "liked your comment",
		RecipientID: comment.UserID,
		ActorID:     userID,
		PostID:      &postID,
	})

	metrics.RecordEvent(metrics.EventCommentLiked)
	return like, nil
}

func (s *likeServiceImpl) UnlikeComment(ctx context.Context, userID, commentID uint) error {
	if err := s.likes.UnlikeComment(ctx, userID, commentID); err != nil {
		if errors.Is(err, repository.ErrLikeNotFound) {
			return ErrLikeNotFound
		}
		return err
	}

	metrics.RecordEvent(metrics.EventCommentUnliked)
	return nil
}

func (s *likeServiceImpl) CommentLikes(ctx context.Context, commentID uint) ([]domain.CommentLike, error) {
	return s.likes.ListCommentLikes(ctx, commentID)
}

var _ LikeService = (*likeServiceImpl)(nil)
