package service

import (
	"context"
	"errors"
	"io"

	"github.com/weiawesome/yaycha/internal/consumer"
	"github.com/weiawesome/yaycha/internal/domain"
)

var (
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrUserNotFound         = errors.New("user not found")
	ErrUsernameTaken        = errors.New("username already taken")
	ErrPostNotFound         = errors.New("post not found")
	ErrCommentNotFound      = errors.New("comment not found")
	ErrForbidden            = errors.New("forbidden")
	ErrAlreadyLiked         = errors.New("already liked")
	ErrLikeNotFound         = errors.New("like not found")
	ErrSelfFollow           = errors.New("cannot follow yourself")
	ErrAlreadyFollowing     = errors.New("already following")
	ErrNotFollowing         = errors.New("not following")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrUnsupportedImage     = errors.New("unsupported image")
)

// UserService defines the interface for user business logic.
type UserService interface {
	Register(ctx context.Context, req *domain.RegisterRequest) (*domain.User, error)
	Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error)
	// Verify returns the user a token was issued to.
	Verify(ctx context.Context, userID uint) (*domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	// GetProfile loads userID as seen by viewerID. Zero means anonymous.
	GetProfile(ctx context.Context, viewerID, userID uint) (*domain.UserProfile, error)
	Search(ctx context.Context, query string) ([]domain.User, error)
	// UploadImage replaces the avatar or cover of targetID. Only the user
	// themselves may do so.
	UploadImage(ctx context.Context, callerID, targetID uint, kind domain.ImageKind, filename string, r io.Reader) (*domain.User, error)
}

// ContentService handles posts and comments.
type ContentService interface {
	ListPosts(ctx context.Context) ([]domain.Post, error)
	FollowingFeed(ctx context.Context, userID uint) ([]domain.Post, error)
	GetPost(ctx context.Context, postID uint) (*domain.Post, error)
	CreatePost(ctx context.Context, userID uint, req *domain.CreatePostRequest) (*domain.Post, error)
	DeletePost(ctx context.Context, userID, postID uint) error
	CreateComment(ctx context.Context, userID uint, req *domain.CreateCommentRequest) (*domain.Comment, error)
	DeleteComment(ctx context.Context, userID, commentID uint) error
}

// LikeService handles post and comment likes.
type LikeService interface {
	LikePost(ctx context.Context, userID, postID uint) (*domain.PostLike, error)
	UnlikePost(ctx context.Context, userID, postID uint) error
	PostLikes(ctx context.Context, postID uint) ([]domain.PostLike, error)
	LikeComment(ctx context.Context, userID, commentID uint) (*domain.CommentLike, error)
	UnlikeComment(ctx context.Context, userID, commentID uint) error
	CommentLikes(ctx context.Context, commentID uint) ([]domain.CommentLike, error)
}

// SocialGraphService defines the business logic for the social graph.
type SocialGraphService interface {
	Follow(ctx context.Context, followerID, followingID uint) (*domain.Follow, error)
	Unfollow(ctx context.Context, followerID, followingID uint) error
	GetFollowersCount(ctx context.Context, userID uint) (int64, error)
	GetFollowingCount(ctx context.Context, userID uint) (int64, error)
	IsFollowing(ctx context.Context, followerID, followingID uint) (bool, error)
	ListFollowers(ctx context.Context, userID uint) ([]domain.User, error)
	ListFollowing(ctx context.Context, userID uint) ([]domain.User, error)
	HandleCDCEvent(ctx context.Context, event *consumer.DebeziumMessage) error
}

// Notifier records a notification for its recipient.
type Notifier interface {
	Notify(ctx context.Context, n *domain.Notification) error
}

// NotificationService stores, lists and delivers notifications.
type NotificationService interface {
	Notifier
	List(ctx context.Context, userID uint) ([]domain.Notification, error)
	MarkAllRead(ctx context.Context, userID uint) error
	MarkRead(ctx context.Context, userID, notificationID uint) (*domain.Notification, error)
	// PurgeRead deletes read notifications older than the retention window.
	PurgeRead(ctx context.Context) (int64, error)
}

// TokenIssuer issues access tokens. *jwt.Manager satisfies it.
type TokenIssuer interface {
	GenerateToken(userID uint, username string) (string, int64, error)
}

// ImageProcessor normalises and stores uploaded images. *media.Processor
// satisfies it.
type ImageProcessor interface {
	Process(ctx context.Context, kind domain.ImageKind, r io.Reader) (key string, err error)
	Remove(ctx context.Context, key string) error
}
