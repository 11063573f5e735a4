package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// CreatePostRequest is the body of POST /content/posts.
type CreatePostRequest struct {
	Content string `json:"content" binding:"required"`
}

// Blank reports whether content is empty once trimmed.
func (r *CreatePostRequest) Blank() bool {
	return strings.TrimSpace(r.Content) == ""
}

// CreateCommentRequest is the body of POST /content/comments.
type CreateCommentRequest struct {
	Content string   `json:"content" binding:"required"`
	PostID  StringID `json:"postId" binding:"required"`
}

// Blank reports whether content is empty once trimmed.
func (r *CreateCommentRequest) Blank() bool {
	return strings.TrimSpace(r.Content) == ""
}

// StringID is an id that decodes from a JSON number or a numeric string.
// Web clients pass route params such as "5" straight through.
type StringID uint

func (id *StringID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		b = []byte(strings.TrimSpace(s))
	}
	n, err := strconv.ParseUint(string(b), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %s: %w", b, err)
	}
	*id = StringID(n)
	return nil
}

// LikeResponse wraps a created like the way clients expect: {"like": {...}}.
type LikeResponse struct {
	Like interface{} `json:"like"`
}
