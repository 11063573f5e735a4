package service

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/weiawesome/yaycha/internal/cache"
	"github.com/weiawesome/yaycha/internal/domain"
	"github.com/weiawesome/yaycha/internal/repository"
)

var errBoom = errors.New("boom")

type fakeUserRepo struct {
	mu     sync.Mutex
	users  map[uint]*domain.User
	nextID uint
}

func newFakeUserRepo(users ...*domain.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[uint]*domain.User)}
	for _, u := range users {
		r.users[u.ID] = u
		if u.ID > r.nextID {
			r.nextID = u.ID
		}
	}
	return r
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == user.Username {
			return repository.ErrUsernameExists
		}
	}
	r.nextID++
	user.ID = r.nextID
	row := *user
	r.users[user.ID] = &row
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id uint) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	row := *u
	return &row, nil
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			row := *u
			return &row, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (r *fakeUserRepo) GetProfile(ctx context.Context, id uint, _ int) (*domain.User, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeUserRepo) ListLatest(_ context.Context, limit int) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	users := make([]domain.User, 0, len(r.users))
	for _, u := range r.users {
		users = append(users, *u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID > users[j].ID })
	if len(users) > limit {
		users = users[:limit]
	}
	return users, nil
}

func (r *fakeUserRepo) ListByIDs(ctx context.Context, ids []uint) ([]domain.User, error) {
	var users []domain.User
	for _, id := range ids {
		if u, err := r.GetByID(ctx, id); err == nil {
			users = append(users, *u)
		}
	}
	return users, nil
}

func (r *fakeUserRepo) Search(_ context.Context, query string, limit int) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var users []domain.User
	q := strings.ToLower(query)
	for _, u := range r.users {
		if strings.Contains(strings.ToLower(u.Name), q) || strings.Contains(strings.ToLower(u.Username), q) {
			users = append(users, *u)
		}
	}
	return users, nil
}

func (r *fakeUserRepo) UpdateImage(_ context.Context, id uint, kind domain.ImageKind, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	if kind == domain.ImageCover {
		u.CoverPhoto = value
	} else {
		u.ProfilePicture = value
	}
	return nil
}

func (r *fakeUserRepo) Exists(_ context.Context, id uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.users[id]
	return ok, nil
}

type fakePostRepo struct {
	posts   map[uint]*domain.Post
	nextID  uint
	deleted []uint
}

func newFakePostRepo(posts ...*domain.Post) *fakePostRepo {
	r := &fakePostRepo{posts: make(map[uint]*domain.Post)}
	for _, p := range posts {
		r.posts[p.ID] = p
		if p.ID > r.nextID {
			r.nextID = p.ID
		}
	}
	return r
}

func (r *fakePostRepo) Create(_ context.Context, post *domain.Post) error {
	r.nextID++
	post.ID = r.nextID
	row := *post
	r.posts[post.ID] = &row
	return nil
}

func (r *fakePostRepo) GetByID(_ context.Context, id uint) (*domain.Post, error) {
	p, ok := r.posts[id]
	if !ok {
		return nil, repository.ErrPostNotFound
	}
	row := *p
	return &row, nil
}

func (r *fakePostRepo) GetDetail(ctx context.Context, id uint) (*domain.Post, error) {
	return r.GetByID(ctx, id)
}

func (r *fakePostRepo) ListLatest(_ context.Context, _ int) ([]domain.Post, error) {
	var posts []domain.Post
	for _, p := range r.posts {
		posts = append(posts, *p)
	}
	return posts, nil
}

func (r *fakePostRepo) ListByFollowing(_ context.Context, _ uint, _ int) ([]domain.Post, error) {
	return nil, nil
}

func (r *fakePostRepo) CountByUser(_ context.Context, userID uint) (int64, error) {
	var n int64
	for _, p := range r.posts {
		if p.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (r *fakePostRepo) Delete(_ context.Context, id uint) error {
	if _, ok := r.posts[id]; !ok {
		return repository.ErrPostNotFound
	}
	delete(r.posts, id)
	r.deleted = append(r.deleted, id)
	return nil
}

type fakeCommentRepo struct {
	comments map[uint]*domain.Comment
	nextID   uint
}

func newFakeCommentRepo(comments ...*domain.Comment) *fakeCommentRepo {
	r := &fakeCommentRepo{comments: make(map[uint]*domain.Comment)}
	for _, c := range comments {
		r.comments[c.ID] = c
		if c.ID > r.nextID {
			r.nextID = c.ID
		}
	}
	return r
}

func (r *fakeCommentRepo) Create(_ context.Context, comment *domain.Comment) error {
	r.nextID++
	comment.ID = r.nextID
	row := *comment
	r.comments[comment.ID] = &row
	return nil
}

func (r *fakeCommentRepo) GetByID(_ context.Context, id uint) (*domain.Comment, error) {
	c, ok := r.comments[id]
	if !ok {
		return nil, repository.ErrCommentNotFound
	}
	row := *c
	return &row, nil
}

func (r *fakeCommentRepo) Delete(_ context.Context, id uint) error {
	if _, ok := r.comments[id]; !ok {
		return repository.ErrCommentNotFound
	}
	delete(r.comments, id)
	return nil
}

type likeKey struct{ user, target uint }

type fakeLikeRepo struct {
	postLikes    map[likeKey]bool
	commentLikes map[likeKey]bool
}

func newFakeLikeRepo() *fakeLikeRepo {
	return &fakeLikeRepo{postLikes: map[likeKey]bool{}, commentLikes: map[likeKey]bool{}}
}

func (r *fakeLikeRepo) LikePost(_ context.Context, like *domain.PostLike) error {
	k := likeKey{like.UserID, like.PostID}
	if r.postLikes[k] {
		return repository.ErrAlreadyLiked
	}
	r.postLikes[k] = true
	like.ID = uint(len(r.postLikes))
	return nil
}

func (r *fakeLikeRepo) UnlikePost(_ context.Context, userID, postID uint) error {
	k := likeKey{userID, postID}
	if !r.postLikes[k] {
		return repository.ErrLikeNotFound
	}
	delete(r.postLikes, k)
	return nil
}

func (r *fakeLikeRepo) ListPostLikes(_ context.Context, postID uint) ([]domain.PostLike, error) {
	var likes []domain.PostLike
	for k := range r.postLikes {
		if k.target == postID {
			likes = append(likes, domain.PostLike{UserID: k.user, PostID: postID})
		}
	}
	return likes, nil
}

func (r *fakeLikeRepo) LikeComment(_ context.Context, like *domain.CommentLike) error {
	k := likeKey{like.UserID, like.CommentID}
	if r.commentLikes[k] {
		return repository.ErrAlreadyLiked
	}
	r.commentLikes[k] = true
	return nil
}

func (r *fakeLikeRepo) UnlikeComment(_ context.Context, userID, commentID uint) error {
	k := likeKey{userID, commentID}
	if !r.commentLikes[k] {
		return repository.ErrLikeNotFound
	}
	delete(r.commentLikes, k)
	return nil
}

func (r *fakeLikeRepo) ListCommentLikes(_ context.Context, commentID uint) ([]domain.CommentLike, error) {
	var likes []domain.CommentLike
	for k := range r.commentLikes {
		if k.target == commentID {
			likes = append(likes, domain.CommentLike{UserID: k.user, CommentID: commentID})
		}
	}
	return likes, nil
}

type edge struct{ follower, following uint }

type fakeFollowRepo struct {
	mu    sync.Mutex
	edges map[edge]bool
	dbHit int
}

func newFakeFollowRepo(edges ...edge) *fakeFollowRepo {
	r := &fakeFollowRepo{edges: make(map[edge]bool)}
	for _, e := range edges {
		r.edges[e] = true
	}
	return r
}

func (r *fakeFollowRepo) Follow(_ context.Context, followerID, followingID uint) (*domain.Follow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := edge{followerID, followingID}
	if r.edges[e] {
		return nil, repository.ErrAlreadyFollowing
	}
	r.edges[e] = true
	return &domain.Follow{ID: uint(len(r.edges)), FollowerID: followerID, FollowingID: followingID}, nil
}

func (r *fakeFollowRepo) Unfollow(_ context.Context, followerID, followingID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := edge{followerID, followingID}
	if !r.edges[e] {
		return repository.ErrFollowNotFound
	}
	delete(r.edges, e)
	return nil
}

func (r *fakeFollowRepo) IsFollowing(_ context.Context, followerID, followingID uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.edges[edge{followerID, followingID}], nil
}

func (r *fakeFollowRepo) GetFollowersCount(_ context.Context, userID uint) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dbHit++
	var n int64
	for e := range r.edges {
		if e.following == userID {
			n++
		}
	}
	return n, nil
}

func (r *fakeFollowRepo) GetFollowingCount(_ context.Context, userID uint) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for e := range r.edges {
		if e.follower == userID {
			n++
		}
	}
	return n, nil
}

func (r *fakeFollowRepo) ListFollowers(_ context.Context, userID uint, _ int) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var users []domain.User
	for e := range r.edges {
		if e.following == userID {
			users = append(users, domain.User{ID: e.follower})
		}
	}
	return users, nil
}

func (r *fakeFollowRepo) ListFollowing(_ context.Context, userID uint, _ int) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var users []domain.User
	for e := range r.edges {
		if e.follower == userID {
			users = append(users, domain.User{ID: e.following})
		}
	}
	return users, nil
}

type fakeNotificationRepo struct {
	mu      sync.Mutex
	rows    []*domain.Notification
	cutoffs []time.Time
}

func (r *fakeNotificationRepo) Create(_ context.Context, n *domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n.ID = uint(len(r.rows) + 1)
	r.rows = append(r.rows, n)
	return nil
}

func (r *fakeNotificationRepo) ListForRecipient(_ context.Context, recipientID uint, limit int) ([]domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Notification
	for i := len(r.rows) - 1; i >= 0 && len(out) < limit; i-- {
		if r.rows[i].RecipientID == recipientID {
			out = append(out, *r.rows[i])
		}
	}
	return out, nil
}

func (r *fakeNotificationRepo) MarkAllRead(_ context.Context, recipientID uint) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, row := range r.rows {
		if row.RecipientID == recipientID && !row.Read {
			row.Read = true
			n++
		}
	}
	return n, nil
}

func (r *fakeNotificationRepo) MarkRead(_ context.Context, recipientID, id uint) (*domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.ID == id && row.RecipientID == recipientID {
			row.Read = true
			out := *row
			return &out, nil
		}
	}
	return nil, repository.ErrNotificationNotFound
}

func (r *fakeNotificationRepo) PurgeReadBefore(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cutoffs = append(r.cutoffs, cutoff)
	return 3, nil
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []*domain.Notification
	err  error
}

func (n *recordingNotifier) Notify(_ context.Context, noti *domain.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, noti)
	return n.err
}

type fakeTokens struct{}

func (fakeTokens) GenerateToken(userID uint, username string) (string, int64, error) {
	return "token-" + username, 1700000000, nil
}

type fakeImages struct {
	key     string
	err     error
	removed []string
}

func (f *fakeImages) Process(_ context.Context, _ domain.ImageKind, r io.Reader) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	io.Copy(io.Discard, r)
	return f.key, nil
}

func (f *fakeImages) Remove(_ context.Context, key string) error {
	if key != "" {
		f.removed = append(f.removed, key)
	}
	return nil
}

type mapUserCache struct {
	mu      sync.Mutex
	users   map[uint]domain.User
	deleted []uint
}

func newMapUserCache() *mapUserCache {
	return &mapUserCache{users: make(map[uint]domain.User)}
}

func (c *mapUserCache) Get(_ context.Context, userID uint) (*domain.User, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	u, ok := c.users[userID]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return &u, nil
}

func (c *mapUserCache) Set(_ context.Context, user *domain.User, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.users[user.ID] = *user
	return nil
}

func (c *mapUserCache) Delete(_ context.Context, userIDs ...uint) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range userIDs {
		delete(c.users, id)
		c.deleted = append(c.deleted, id)
	}
	return nil
}

type countingBackend struct {
	mu      sync.Mutex
	calls   int
	users   []domain.User
	indexed chan uint
}

func (b *countingBackend) Name() string { return "fake" }

func (b *countingBackend) SearchUsers(_ context.Context, _ string, _ int) ([]domain.User, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
	return b.users, nil
}

func (b *countingBackend) IndexUser(_ context.Context, user *domain.User) error {
	if b.indexed != nil {
		b.indexed <- user.ID
	}
	return nil
}
