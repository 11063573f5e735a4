package service

import (
	"context"
	"errors"
	"strings"

	"github.com/weiawesome/yaycha/internal/audit"
	"github.com/weiawesome/yaycha/internal/domain"
	"github.com/weiawesome/yaycha/internal/repository"
	"github.com/weiawesome/yaycha/pkg/log"
	"github.com/weiawesome/yaycha/pkg/metrics"
)

const postListLimit = 20

type contentServiceImpl struct {
	users    UserGetter
	posts    repository.PostRepository
	comments repository.CommentRepository
	notifier Notifier
}

// NewContentService creates a new content service.
func NewContentService(users UserGetter, posts repository.PostRepository, comments repository.CommentRepository, notifier Notifier) ContentService {
	return &contentServiceImpl{
		users:    users,
		posts:    posts,
		comments: comments,
		notifier: notifier,
	}
}

func (s *contentServiceImpl) ListPosts(ctx context.Context) ([]domain.Post, error) {
	return s.posts.ListLatest(ctx, postListLimit)
}

func (s *contentServiceImpl) FollowingFeed(ctx context.Context, userID uint) ([]domain.Post, error) {
	return s.posts.ListByFollowing(ctx, userID, postListLimit)
}

func (s *contentServiceImpl) GetPost(ctx context.Context, postID uint) (*domain.Post, error) {
	post, err := s.posts.GetDetail(ctx, postID)
	if err != nil {
		if errors.Is(err, repository.ErrPostNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return post, nil
}

func (s *contentServiceImpl) CreatePost(ctx context.Context, userID uint, req *domain.CreatePostRequest) (*domain.Post, error) {
	l := log.Ctx(ctx)

	post := &domain.Post{
		Content: strings.TrimSpace(req.Content),
		UserID:  userID,
	}
	if err := s.posts.Create(ctx, post); err != nil {
		l.Error().Err(err).Uint(log.FieldUserID, userID).Msg("failed to create post")
		return nil, err
	}

	s.attachAuthor(ctx, userID, func(u *domain.User) { post.User = u })

	metrics.RecordEvent(metrics.EventPostCreated)
	return post, nil
}

// DeletePost removes a post the caller owns together with its comments,
// likes and notifications.
func (s *contentServiceImpl) DeletePost(ctx context.Context, userID, postID uint) error {
	l := log.Ctx(ctx)

	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		if errors.Is(err, repository.ErrPostNotFound) {
			return ErrPostNotFound
		}
		return err
	}
	if post.UserID != userID {
		return ErrForbidden
	}

	if err := s.posts.Delete(ctx, postID); err != nil {
		if errors.Is(err, repository.ErrPostNotFound) {
			return ErrPostNotFound
		}
		l.Error().Err(err).Uint(log.FieldPostID, postID).Msg("failed to delete post")
		return err
	}

	metrics.RecordEvent(metrics.EventPostDeleted)
	audit.LogTarget(ctx, audit.ActionDeletePost, userID, postID, "post deleted")
	return nil
}

func (s *contentServiceImpl) CreateComment(ctx context.Context, userID uint, req *domain.CreateCommentRequest) (*domain.Comment, error) {
	l := log.Ctx(ctx)

	post, err := s.posts.GetByID(ctx, uint(req.PostID))
	if err != nil {
		if errors.Is(err, repository.ErrPostNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}

	comment := &domain.Comment{
		Content: strings.TrimSpace(req.Content),
		UserID:  userID,
		PostID:  post.ID,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		l.Error().Err(err).Uint(log.FieldPostID, post.ID).Msg("failed to create comment")
		return nil, err
	}

	s.attachAuthor(ctx, userID, func(u *domain.User) { comment.User = u })

	postID := post.ID
	notify(ctx, s.notifier, &domain.Notification{
		Type:        domain.NotificationComment,
		Content:     "commented on your post",
		RecipientID: post.UserID,
		ActorID:     userID,
		PostID:      &postID,
		Actor:       comment.User,
	})

	metrics.RecordEvent(metrics.EventCommentCreated)
	return comment, nil
}

func (s *contentServiceImpl) DeleteComment(ctx context.Context, userID, commentID uint) error {
	l := log.Ctx(ctx)

	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, repository.ErrCommentNotFound) {
			return ErrCommentNotFound
		}
		return err
	}
	if comment.UserID != userID {
		return ErrForbidden
	}

	if err := s.comments.Delete(ctx, commentID); err != nil {
		if errors.Is(err, repository.ErrCommentNotFound) {
			return ErrCommentNotFound
		}
		l.Error().Err(err).Uint(log.FieldCommentID, commentID).Msg("failed to delete comment")
		return err
	}

	metrics.RecordEvent(metrics.EventCommentDeleted)
	audit.LogTarget(ctx, audit.ActionDeleteComment, userID, commentID, "comment deleted")
	return nil
}

// attachAuthor loads the author for a freshly created row. The row is
// already committed, so a failed lookup only leaves the author out.
func (s *contentServiceImpl) attachAuthor(ctx context.Context, userID uint, set func(*domain.User)) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Uint(log.FieldUserID, userID).Msg("failed to load author")
		return
	}
	set(user)
}

var _ ContentService = (*contentServiceImpl)(nil)
