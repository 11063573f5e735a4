package repository

import (
	"context"
	"errors"
	"time"

	"github.com/weiawesome/yaycha/internal/domain"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrUsernameExists       = errors.New("username already exists")
	ErrPostNotFound         = errors.New("post not found")
	ErrCommentNotFound      = errors.New("comment not found")
	ErrLikeNotFound         = errors.New("like not found")
	ErrAlreadyLiked         = errors.New("already liked")
	ErrFollowNotFound       = errors.New("follow relationship not found")
	ErrAlreadyFollowing     = errors.New("already following")
	ErrNotificationNotFound = errors.New("notification not found")
)

// UserRepository persists users.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uint) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	// GetProfile loads the user with posts (user, likes), comments and both
	// sets of follow edges.
	GetProfile(ctx context.Context, id uint, postLimit int) (*domain.User, error)
	ListLatest(ctx context.Context, limit int) ([]domain.User, error)
	ListByIDs(ctx context.Context, ids []uint) ([]domain.User, error)
	Search(ctx context.Context, query string, limit int) ([]domain.User, error)
	UpdateImage(ctx context.Context, id uint, kind domain.ImageKind, key string) error
	Exists(ctx context.Context, id uint) (bool, error)
}

// PostRepository persists posts.
type PostRepository interface {
	Create(ctx context.Context, post *domain.Post) error
	GetByID(ctx context.Context, id uint) (*domain.Post, error)
	GetDetail(ctx context.Context, id uint) (*domain.Post, error)
	ListLatest(ctx context.Context, limit int) ([]domain.Post, error)
	ListByFollowing(ctx context.Context, followerID uint, limit int) ([]domain.Post, error)
	CountByUser(ctx context.Context, userID uint) (int64, error)
	// Delete removes the post with its comments, likes and notifications.
	Delete(ctx context.Context, id uint) error
}

// CommentRepository persists comments.
type CommentRepository interface {
	Create(ctx context.Context, comment *domain.Comment) error
	GetByID(ctx context.Context, id uint) (*domain.Comment, error)
	// Delete removes the comment with its likes.
	Delete(ctx context.Context, id uint) error
}

// LikeRepository persists post and comment likes.
type LikeRepository interface {
	LikePost(ctx context.Context, like *domain.PostLike) error
	UnlikePost(ctx context.Context, userID, postID uint) error
	ListPostLikes(ctx context.Context, postID uint) ([]domain.PostLike, error)
	LikeComment(ctx context.Context, like *domain.CommentLike) error
	UnlikeComment(ctx context.Context, userID, commentID uint) error
	ListCommentLikes(ctx context.Context, commentID uint) ([]domain.CommentLike, error)
}

// FollowRepository defines persistence operations for follow relationships.
type FollowRepository interface {
	Follow(ctx context.Context, followerID, followingID uint) (*domain.Follow, error)
	Unfollow(ctx context.Context, followerID, followingID uint) error
	IsFollowing(ctx context.Context, followerID, followingID uint) (bool, error)
	GetFollowersCount(ctx context.Context, userID uint) (int64, error)
	GetFollowingCount(ctx context.Context, userID uint) (int64, error)
	ListFollowers(ctx context.Context, userID uint, limit int) ([]domain.User, error)
	ListFollowing(ctx context.Context, userID uint, limit int) ([]domain.User, error)
}

// NotificationRepository persists notifications.
type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	ListForRecipient(ctx context.Context, recipientID uint, limit int) ([]domain.Notification, error)
	MarkAllRead(ctx context.Context, recipientID uint) (int64, error)
	MarkRead(ctx context.Context, recipientID, id uint) (*domain.Notification, error)
	PurgeReadBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
