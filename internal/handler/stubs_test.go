package handler

import (
	"context"
	"io"

	"github.com/weiawesome/yaycha/internal/consumer"
	"github.com/weiawesome/yaycha/internal/domain"
	"github.com/weiawesome/yaycha/internal/service"
)

type stubUserService struct {
	service.UserService
	registerErr error
	loginErr    error
	profileErr  error
	uploadErr   error
	uploaded    []string
	searched    string
	viewer      uint
}

func (s *stubUserService) Register(_ context.Context, req *domain.RegisterRequest) (*domain.User, error) {
	if s.registerErr != nil {
		return nil, s.registerErr
	}
	return &domain.User{ID: 1, Name: req.Name, Username: req.Username}, nil
}

func (s *stubUserService) Login(_ context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error) {
	if s.loginErr != nil {
		return nil, s.loginErr
	}
	return &domain.LoginResponse{Token: "tok", User: &domain.User{ID: 1, Username: req.Username}}, nil
}

func (s *stubUserService) Verify(_ context.Context, userID uint) (*domain.User, error) {
	return &domain.User{ID: userID}, nil
}

func (s *stubUserService) GetProfile(_ context.Context, viewerID, userID uint) (*domain.UserProfile, error) {
	if s.profileErr != nil {
		return nil, s.profileErr
	}
	s.viewer = viewerID
	return &domain.UserProfile{User: &domain.User{ID: userID}, FollowersCount: 2, IsFollowing: viewerID == 1}, nil
}

func (s *stubUserService) Search(_ context.Context, q string) ([]domain.User, error) {
	s.searched = q
	return []domain.User{}, nil
}

func (s *stubUserService) UploadImage(_ context.Context, callerID, targetID uint, kind domain.ImageKind, filename string, r io.Reader) (*domain.User, error) {
	if s.uploadErr != nil {
		return nil, s.uploadErr
	}
	data, _ := io.ReadAll(r)
	s.uploaded = append(s.uploaded, string(kind)+":"+filename+":"+string(data))
	return &domain.User{ID: targetID, ProfilePicture: "avatars/x.jpg"}, nil
}

type stubContentService struct {
	service.ContentService
	deleteErr error
	deleted   []uint
	created   *domain.CreatePostRequest
	commented *domain.CreateCommentRequest
}

func (s *stubContentService) CreatePost(_ context.Context, userID uint, req *domain.CreatePostRequest) (*domain.Post, error) {
	s.created = req
	return &domain.Post{ID: 5, UserID: userID, Content: req.Content}, nil
}

func (s *stubContentService) CreateComment(_ context.Context, userID uint, req *domain.CreateCommentRequest) (*domain.Comment, error) {
	s.commented = req
	return &domain.Comment{ID: 9, UserID: userID, PostID: uint(req.PostID), Content: req.Content}, nil
}

func (s *stubContentService) DeletePost(_ context.Context, _ uint, postID uint) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deleted = append(s.deleted, postID)
	return nil
}

func (s *stubContentService) ListPosts(context.Context) ([]domain.Post, error) {
	return nil, errBoom
}

type stubLikeService struct {
	service.LikeService
	unliked []uint
}

func (s *stubLikeService) LikePost(_ context.Context, userID, postID uint) (*domain.PostLike, error) {
	if postID == 404 {
		return nil, service.ErrPostNotFound
	}
	return &domain.PostLike{ID: 1, UserID: userID, PostID: postID}, nil
}

func (s *stubLikeService) UnlikePost(_ context.Context, _ uint, postID uint) error {
	s.unliked = append(s.unliked, postID)
	return nil
}

type stubGraphService struct {
	service.SocialGraphService
}

func (stubGraphService) Follow(_ context.Context, followerID, followingID uint) (*domain.Follow, error) {
	switch {
	case followerID == followingID:
		return nil, service.ErrSelfFollow
	case followingID == 9:
		return nil, service.ErrAlreadyFollowing
	}
	return &domain.Follow{ID: 1, FollowerID: followerID, FollowingID: followingID}, nil
}

func (stubGraphService) Unfollow(context.Context, uint, uint) error {
	return service.ErrNotFollowing
}

func (stubGraphService) HandleCDCEvent(context.Context, *consumer.DebeziumMessage) error {
	return nil
}

type stubNotificationService struct {
	service.NotificationService
}

func (stubNotificationService) MarkRead(_ context.Context, userID, id uint) (*domain.Notification, error) {
	if id != 1 {
		return nil, service.ErrNotificationNotFound
	}
	return &domain.Notification{ID: id, RecipientID: userID, Read: true}, nil
}
