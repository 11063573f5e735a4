package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/weiawesome/yaycha/internal/audit"
	"github.com/weiawesome/yaycha/internal/cache"
	"github.com/weiawesome/yaycha/internal/domain"
	"github.com/weiawesome/yaycha/internal/media"
	"github.com/weiawesome/yaycha/internal/repository"
	"github.com/weiawesome/yaycha/internal/search"
	"github.com/weiawesome/yaycha/pkg/log"
	"github.com/weiawesome/yaycha/pkg/metrics"
)

const (
	userListLimit    = 20
	searchLimit      = 20
	profilePostLimit = 100
	passwordCost     = 10
)

// UserServiceConfig holds cache lifetimes for the user service.
type UserServiceConfig struct {
	UserTTL   time.Duration
	SearchTTL time.Duration
}

// userServiceImpl implements UserService interface.
type userServiceImpl struct {
	users       repository.UserRepository
	posts       repository.PostRepository
	graph       SocialGraphService
	userCache   cache.UserCache
	backend     search.Backend
	searchCache cache.SearchCache
	tokens      TokenIssuer
	images      ImageProcessor
	cfg         UserServiceConfig
	sf          singleflight.Group
}

// NewUserService creates a new user service.
func NewUserService(
	users repository.UserRepository,
	posts repository.PostRepository,
	graph SocialGraphService,
	userCache cache.UserCache,
	backend search.Backend,
	searchCache cache.SearchCache,
	tokens TokenIssuer,
	images ImageProcessor,
	cfg UserServiceConfig,
) UserService {
	return &userServiceImpl{
		users:       users,
		posts:       posts,
		graph:       graph,
		userCache:   userCache,
		backend:     backend,
		searchCache: searchCache,
		tokens:      tokens,
		images:      images,
		cfg:         cfg,
	}
}

// Register registers a new user.
func (s *userServiceImpl) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.User, error) {
	l := log.Ctx(ctx)

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), passwordCost)
	if err != nil {
		l.Error().Err(err).Msg("failed to hash password")
		return nil, err
	}

	user := &domain.User{
		Name:     strings.TrimSpace(req.Name),
		Username: strings.TrimSpace(req.Username),
		Bio:      req.Bio,
		Password: string(hashedPassword),
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUsernameExists) {
			return nil, ErrUsernameTaken
		}
		l.Error().Err(err).Msg("failed to create user")
		return nil, err
	}

	s.asyncIndex(ctx, user)

	metrics.RecordEvent(metrics.EventUserRegistered)
	audit.Log(ctx, audit.ActionRegister, user.ID, "user registered")

	return user, nil
}

// Login authenticates a user.
func (s *userServiceImpl) Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error) {
	l := log.Ctx(ctx)

	user, err := s.users.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			audit.LogWithDetail(ctx, audit.ActionLoginFailed, 0, req.Username, "login failed: user not found")
			return nil, ErrInvalidCredentials
		}
		l.Error().Err(err).Msg("failed to get user by username")
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		audit.LogWithDetail(ctx, audit.ActionLoginFailed, user.ID, req.Username, "login failed: wrong password")
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.GenerateToken(user.ID, user.Username)
	if err != nil {
		l.Error().Err(err).Uint(log.FieldUserID, user.ID).Msg("failed to generate token after login")
		return nil, err
	}

	audit.Log(ctx, audit.ActionLogin, user.ID, "user logged in")

	return &domain.LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      user,
	}, nil
}

// Verify returns the token owner, served from the user cache when warm.
func (s *userServiceImpl) Verify(ctx context.Context, userID uint) (*domain.User, error) {
	l := log.Ctx(ctx)

	cached, err := s.userCache.Get(ctx, userID)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		l.Warn().Err(err).Uint(log.FieldUserID, userID).Msg("cache get error")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		l.Error().Err(err).Uint(log.FieldUserID, userID).Msg("failed to get user")
		return nil, err
	}

	if err := s.userCache.Set(ctx, user, s.cfg.UserTTL); err != nil {
		l.Warn().Err(err).Uint(log.FieldUserID, userID).Msg("cache set error")
	}
	return user, nil
}

func (s *userServiceImpl) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.users.ListLatest(ctx, userListLimit)
}

// GetProfile loads the user with posts and follow edges, then the counters
// and the viewer's follow state concurrently.
func (s *userServiceImpl) GetProfile(ctx context.Context, viewerID, userID uint) (*domain.UserProfile, error) {
	user, err := s.users.GetProfile(ctx, userID, profilePostLimit)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	profile := &domain.UserProfile{User: user}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		profile.FollowersCount, err = s.graph.GetFollowersCount(gCtx, userID)
		return err
	})

	g.Go(func() error {
		var err error
		profile.FollowingCount, err = s.graph.GetFollowingCount(gCtx, userID)
		return err
	})

	g.Go(func() error {
		var err error
		profile.PostsCount, err = s.posts.CountByUser(gCtx, userID)
		return err
	})

	if viewerID != 0 && viewerID != userID {
		g.Go(func() error {
			var err error
			profile.IsFollowing, err = s.graph.IsFollowing(gCtx, viewerID, userID)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).Uint(log.FieldTargetUserID, userID).Msg("failed to load profile counters")
		return nil, err
	}

	return profile, nil
}

// Search matches users by name or username. Identical concurrent queries
// share one backend call.
func (s *userServiceImpl) Search(ctx context.Context, query string) ([]domain.User, error) {
	query = strings.TrimSpace(query)
	cacheKey := s.searchCache.BuildKey(s.backend.Name(), query, searchLimit)

	result, err, _ := s.sf.Do(cacheKey, func() (interface{}, error) {
		cached, err := s.searchCache.Get(ctx, cacheKey)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			l := log.Ctx(ctx)
			l.Warn().Err(err).Msg("cache get error")
		}

		users, err := s.backend.SearchUsers(ctx, query, searchLimit)
		if err != nil {
			return nil, err
		}
		if users == nil {
			users = []domain.User{}
		}

		s.asyncSearchCacheSet(ctx, cacheKey, users)

		return users, nil
	})

	if err != nil {
		return nil, err
	}

	return result.([]domain.User), nil
}

func (s *userServiceImpl) UploadImage(ctx context.Context, callerID, targetID uint, kind domain.ImageKind, filename string, r io.Reader) (*domain.User, error) {
	l := log.Ctx(ctx)

	if callerID != targetID {
		return nil, ErrForbidden
	}
	if !media.AllowedExtension(filename) {
		return nil, ErrUnsupportedImage
	}

	user, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	key, err := s.images.Process(ctx, kind, r)
	if err != nil {
		if errors.Is(err, media.ErrDecode) || errors.Is(err, media.ErrUnsupportedType) {
			return nil, ErrUnsupportedImage
		}
		l.Error().Err(err).Uint(log.FieldUserID, targetID).Msg("failed to process image")
		return nil, err
	}

	if err := s.users.UpdateImage(ctx, targetID, kind, key); err != nil {
		// The row is unchanged; drop the orphaned file.
		if rmErr := s.images.Remove(ctx, key); rmErr != nil {
			l.Warn().Err(rmErr).Msg("failed to remove orphaned image")
		}
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	var previous string
	action := audit.ActionUploadAvatar
	if kind == domain.ImageCover {
		previous, user.CoverPhoto = user.CoverPhoto, key
		action = audit.ActionUploadCover
	} else {
		previous, user.ProfilePicture = user.ProfilePicture, key
	}

	if err := s.images.Remove(ctx, previous); err != nil {
		l.Warn().Err(err).Str(log.FieldStorageKey, previous).Msg("failed to remove previous image")
	}
	if err := s.userCache.Delete(ctx, targetID); err != nil {
		l.Warn().Err(err).Uint(log.FieldUserID, targetID).Msg("cache delete error")
	}

	metrics.RecordEvent(metrics.EventUploaded)
	audit.LogWithDetail(ctx, action, targetID, key, "image uploaded")

	return user, nil
}

func (s *userServiceImpl) asyncIndex(ctx context.Context, user *domain.User) {
	row := *user
	go func() {
		ctx, cancel := context.WithTimeout(log.Detach(ctx), 5*time.Second)
		defer cancel()

		if err := s.backend.IndexUser(ctx, &row); err != nil {
			l := log.Ctx(ctx)
			l.Warn().Err(err).Uint(log.FieldUserID, row.ID).Msg("failed to index user")
		}
	}()
}

func (s *userServiceImpl) asyncSearchCacheSet(ctx context.Context, key string, users []domain.User) {
	go func() {
		ctx, cancel := context.WithTimeout(log.Detach(ctx), 2*time.Second)
		defer cancel()

		if err := s.searchCache.Set(ctx, key, users, s.cfg.SearchTTL); err != nil {
			l := log.Ctx(ctx)
			l.Warn().Err(err).Str("key", key).Msg("cache set error")
		}
	}()
}

var _ UserService = (*userServiceImpl)(nil)
