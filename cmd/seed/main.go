package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/weiawesome/yaycha/internal/config"
	"github.com/weiawesome/yaycha/internal/domain"
	"github.com/weiawesome/yaycha/internal/repository"
	"github.com/weiawesome/yaycha/internal/search"
	"github.com/weiawesome/yaycha/pkg/database"
	pkglog "github.com/weiawesome/yaycha/pkg/log"
)

const (
	userCount   = 10
	postCount   = 20
	likeCount   = 40
	followCount = 25

	seedPassword  = "password"
	avatarBaseURL = "https://avatar-placeholder.iran.liara.run/public"
	coverBaseURL  = "https://picsum.photos"
)

var (
	firstNames = []string{"Aung", "Hla", "Mya", "Kyaw", "Su", "Thiri", "Zaw", "Nandar", "Min", "Ei", "Htet", "Phyo"}
	lastNames  = []string{"Win", "Myint", "Oo", "Htun", "Aye", "Naing", "Lwin", "Zin", "Thu", "Soe"}
	phrases    = []string{
		"Just finished a long run by the lake.",
		"Anyone else trying the new noodle place downtown?",
		"Reading about distributed systems again.",
		"Rainy season is here.",
		"Shipped a side project this weekend!",
		"Coffee first, code later.",
		"What is everyone listening to lately?",
		"Sunset from the rooftop tonight.",
	}
)

func main() {
	reindexOnly := flag.Bool("reindex", false, "Skip seeding and backfill the configured search backend from the user table")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		l := pkglog.L()
		l.Fatal().Err(err).Msg("failed to load config")
	}

	pkglog.Init(pkglog.Config{Level: cfg.Log.Level, Pretty: true, ServiceName: "yaycha-seed"})
	logger := pkglog.L()
	ctx := pkglog.WithLogger(context.Background(), logger)

	db, err := database.New(&cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := repository.Migrate(db); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}

	userRepo := repository.NewGormUserRepository(db)
	backend, err := search.New(ctx, cfg.Search, userRepo)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create search backend")
	}

	if *reindexOnly {
		if _, err := search.Reindex(ctx, backend, userRepo, 0); err != nil {
			logger.Fatal().Err(err).Msg("reindex failed")
		}
		return
	}

	s := &seeder{
		users:   userRepo,
		posts:   repository.NewGormPostRepository(db),
		likes:   repository.NewGormLikeRepository(db),
		follows: repository.NewGormFollowRepository(db),
		rnd:     rand.New(rand.NewSource(42)),
	}

	userIDs, err := s.seedUsers(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("user seeding failed")
	}
	postIDs, err := s.seedPosts(ctx, userIDs)
	if err != nil {
		logger.Fatal().Err(err).Msg("post seeding failed")
	}
	likes, err := s.seedLikes(ctx, userIDs, postIDs)
	if err != nil {
		logger.Fatal().Err(err).Msg("like seeding failed")
	}
	follows, err := s.seedFollows(ctx, userIDs)
	if err != nil {
		logger.Fatal().Err(err).Msg("follow seeding failed")
	}

	// Seeded rows bypass the user service, so the index is filled here.
	if _, err := search.Reindex(ctx, backend, userRepo, 0); err != nil {
		logger.Fatal().Err(err).Msg("reindex failed")
	}

	logger.Info().
		Int("users", len(userIDs)).
		Int("posts", len(postIDs)).
		Int("likes", likes).
		Int("follows", follows).
		Msg("seeding done")
}

type seeder struct {
	users   *repository.GormUserRepository
	posts   *repository.GormPostRepository
	likes   *repository.GormLikeRepository
	follows *repository.GormFollowRepository
	rnd     *rand.Rand
}

func (s *seeder) pick(list []string) string {
	return list[s.rnd.Intn(len(list))]
}

// seedUsers creates userCount users, reusing any that already exist.
func (s *seeder) seedUsers(ctx context.Context) ([]uint, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(seedPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, userCount)
	seen := make(map[string]bool)
	for len(ids) < userCount {
		first, last := s.pick(firstNames), s.pick(lastNames)
		username := strings.ToLower(first + last[:1])
		if seen[username] {
			continue
		}
		seen[username] = true

		user := &domain.User{
			Name:           first + " " + last,
			Username:       username,
			Bio:            s.pick(phrases),
			Password:       string(hash),
			ProfilePicture: fmt.Sprintf("%s/%d", avatarBaseURL, s.rnd.Intn(100)+1),
			CoverPhoto:     fmt.Sprintf("%s/id/%d/1500/500", coverBaseURL, s.rnd.Intn(1000)+1),
		}
		err := s.users.Create(ctx, user)
		if errors.Is(err, repository.ErrUsernameExists) {
			existing, err := s.users.GetByUsername(ctx, username)
			if err != nil {
				return nil, err
			}
			ids = append(ids, existing.ID)
			continue
		}
		if err != nil {
			return nil, err
		}
		ids = append(ids, user.ID)
	}
	return ids, nil
}

func (s *seeder) seedPosts(ctx context.Context, userIDs []uint) ([]uint, error) {
	ids := make([]uint, 0, postCount)
	for i := 0; i < postCount; i++ {
		post := &domain.Post{
			Content: s.pick(phrases),
			UserID:  userIDs[s.rnd.Intn(len(userIDs))],
		}
		if err := s.posts.Create(ctx, post); err != nil {
			return nil, err
		}
		ids = append(ids, post.ID)
	}
	return ids, nil
}

// seedLikes draws random (user, post) pairs; repeats are skipped.
func (s *seeder) seedLikes(ctx context.Context, userIDs, postIDs []uint) (int, error) {
	created := 0
	for i := 0; i < likeCount; i++ {
		like := &domain.PostLike{
			UserID: userIDs[s.rnd.Intn(len(userIDs))],
			PostID: postIDs[s.rnd.Intn(len(postIDs))],
		}
		err := s.likes.LikePost(ctx, like)
		if errors.Is(err, repository.ErrAlreadyLiked) {
			continue
		}
		if err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

func (s *seeder) seedFollows(ctx context.Context, userIDs []uint) (int, error) {
	created := 0
	for i := 0; i < followCount; i++ {
		follower := userIDs[s.rnd.Intn(len(userIDs))]
		following := userIDs[s.rnd.Intn(len(userIDs))]
		if follower == following {
			continue
		}
		_, err := s.follows.Follow(ctx, follower, following)
		if errors.Is(err, repository.ErrAlreadyFollowing) {
			continue
		}
		if err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}
