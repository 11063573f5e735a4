package domain

import (
	"time"

	"gorm.io/gorm"
)

// User is a Yaycha account.
type User struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Name           string    `gorm:"type:varchar(100);not null" json:"name"`
	Username       string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"username"`
	Bio            string    `gorm:"type:text" json:"bio"`
	Password       string    `gorm:"type:varchar(255);not null" json:"-"`
	ProfilePicture string    `gorm:"type:varchar(512)" json:"profilePicture"`
	CoverPhoto     string    `gorm:"type:varchar(512)" json:"coverPhoto"`
	Created        time.Time `gorm:"autoCreateTime" json:"created"`

	Posts    []Post    `gorm:"foreignKey:UserID" json:"posts,omitempty"`
	Comments []Comment `gorm:"foreignKey:UserID" json:"comments,omitempty"`
	// Followers holds edges pointing at this user, Following the edges it owns.
	Followers []Follow `gorm:"foreignKey:FollowingID" json:"followers,omitempty"`
	Following []Follow `gorm:"foreignKey:FollowerID" json:"following,omitempty"`
}

func (User) TableName() string { return "users" }

// Post is a status update.
type Post struct {
	ID      uint      `gorm:"primaryKey" json:"id"`
	Content string    `gorm:"type:text;not null" json:"content"`
	UserID  uint      `gorm:"index;not null" json:"userId"`
	Created time.Time `gorm:"autoCreateTime;index" json:"created"`

	User     *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Comments []Comment  `gorm:"foreignKey:PostID" json:"comments,omitempty"`
	Likes    []PostLike `gorm:"foreignKey:PostID" json:"likes,omitempty"`
	Count    *PostCount `gorm:"-" json:"_count,omitempty"`
}

func (Post) TableName() string { return "posts" }

// PostCount carries aggregate counts shown with a post.
type PostCount struct {
	Comments int64 `json:"comments"`
	Likes    int64 `json:"likes"`
}

// Comment is a reply to a post.
type Comment struct {
	ID      uint      `gorm:"primaryKey" json:"id"`
	Content string    `gorm:"type:text;not null" json:"content"`
	UserID  uint      `gorm:"index;not null" json:"userId"`
	PostID  uint      `gorm:"index;not null" json:"postId"`
	Created time.Time `gorm:"autoCreateTime" json:"created"`

	User  *User         `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Likes []CommentLike `gorm:"foreignKey:CommentID" json:"likes,omitempty"`
}

func (Comment) TableName() string { return "comments" }

// PostLike records one user liking one post.
type PostLike struct {
	ID      uint      `gorm:"primaryKey" json:"id"`
	UserID  uint      `gorm:"not null;uniqueIndex:idx_post_likes_user_post" json:"userId"`
	PostID  uint      `gorm:"not null;uniqueIndex:idx_post_likes_user_post;index" json:"postId"`
	Created time.Time `gorm:"autoCreateTime" json:"created"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (PostLike) TableName() string { return "post_likes" }

// CommentLike records one user liking one comment.
type CommentLike struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_comment_likes_user_comment" json:"userId"`
	CommentID uint      `gorm:"not null;uniqueIndex:idx_comment_likes_user_comment;index" json:"commentId"`
	Created   time.Time `gorm:"autoCreateTime" json:"created"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (CommentLike) TableName() string { return "comment_likes" }

// Follow is a directed edge from FollowerID to FollowingID. Unfollowing
// soft-deletes the row so a later re-follow restores it.
type Follow struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	FollowerID  uint           `gorm:"not null;index" json:"followerId"`
	FollowingID uint           `gorm:"not null;index" json:"followingId"`
	Created     time.Time      `gorm:"autoCreateTime" json:"created"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	Follower  *User `gorm:"foreignKey:FollowerID" json:"follower,omitempty"`
	Following *User `gorm:"foreignKey:FollowingID" json:"following,omitempty"`
}

func (Follow) TableName() string { return "follows" }

// Notification types.
const (
	NotificationLike    = "like"
	NotificationComment = "comment"
	NotificationFollow  = "follow"
)

// Notification tells RecipientID that ActorID did something.
type Notification struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Type        string    `gorm:"type:varchar(20);not null" json:"type"`
	Content     string    `gorm:"type:text" json:"content"`
	RecipientID uint      `gorm:"not null;index:idx_notifications_recipient_read" json:"recipientId"`
	ActorID     uint      `gorm:"not null" json:"actorId"`
	PostID      *uint     `json:"postId"`
	Read        bool      `gorm:"not null;default:false;index:idx_notifications_recipient_read" json:"read"`
	Created     time.Time `gorm:"autoCreateTime;index" json:"created"`

	Actor *User `gorm:"foreignKey:ActorID" json:"user,omitempty"`
}

func (Notification) TableName() string { return "notifications" }

// Models lists every table for AutoMigrate, parents first.
func Models() []interface{} {
	return []interface{}{
		&User{},
		&Post{},
		&Comment{},
		&PostLike{},
		&CommentLike{},
		&Follow{},
		&Notification{},
	}
}
