package domain

import "strings"

// RegisterRequest is the body of POST /users.
type RegisterRequest struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Bio      string `json:"bio"`
	Password string `json:"password"`
}

// Missing lists the required fields that are empty.
func (r *RegisterRequest) Missing() []string {
	var missing []string
	if strings.TrimSpace(r.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(r.Username) == "" {
		missing = append(missing, "username")
	}
	if r.Password == "" {
		missing = append(missing, "password")
	}
	return missing
}

// LoginRequest is the body of POST /login.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries the issued token and the logged-in user.
type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expiresAt"`
	User      *User  `json:"user"`
}

// UserProfile is a user with their posts, follow edges and counts.
type UserProfile struct {
	*User
	FollowersCount int64 `json:"followersCount"`
	FollowingCount int64 `json:"followingCount"`
	PostsCount     int64 `json:"postsCount"`
	// IsFollowing is whether the viewer follows this user.
	IsFollowing bool `json:"isFollowing"`
}

// SearchRequest is the query of GET /search.
type SearchRequest struct {
	Query string `form:"q"`
}

// ImageKind selects how an upload is normalised and which column it updates.
type ImageKind string

const (
	ImageAvatar ImageKind = "avatar"
	ImageCover  ImageKind = "cover"
)
