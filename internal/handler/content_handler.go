package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/weiawesome/yaycha/internal/domain"
	"github.com/weiawesome/yaycha/internal/service"
	"github.com/weiawesome/yaycha/pkg/log"
	"github.com/weiawesome/yaycha/pkg/middleware"
	"github.com/weiawesome/yaycha/pkg/response"
)

// ContentHandler serves posts, comments and likes under /content.
type ContentHandler struct {
	content service.ContentService
	likes   service.LikeService
	auth    *middleware.AuthMiddleware
}

func NewContentHandler(content service.ContentService, likes service.LikeService, auth *middleware.AuthMiddleware) *ContentHandler {
	return &ContentHandler{content: content, likes: likes, auth: auth}
}

// RegisterRoutes registers all routes.
func (h *ContentHandler) RegisterRoutes(r gin.IRouter) {
	content := r.Group("/content")
	{
		content.GET("/posts", h.ListPosts)
		content.GET("/posts/:id", h.GetPost)
		content.GET("/likes/posts/:id", h.PostLikes)
		content.GET("/likes/comments/:id", h.CommentLikes)
	}

	authed := content.Group("")
	authed.Use(h.auth.RequireAuth())
	{
		authed.GET("/following/posts", h.FollowingFeed)
		authed.POST("/posts", h.CreatePost)
		authed.DELETE("/posts/:id", h.DeletePost)
		authed.POST("/comments", h.CreateComment)
		authed.DELETE("/comments/:id", h.DeleteComment)

		authed.POST("/like/posts/:id", h.LikePost)
		authed.DELETE("/unlike/posts/:id", h.UnlikePost)
		authed.POST("/unlike/posts/:id", h.UnlikePost)
		authed.POST("/like/comments/:id", h.LikeComment)
		authed.DELETE("/unlike/comments/:id", h.UnlikeComment)
		authed.POST("/unlike/comments/:id", h.UnlikeComment)
	}
}

func (h *ContentHandler) ListPosts(c *gin.Context) {
	posts, err := h.content.ListPosts(c.Request.Context())
	if err != nil {
		writeError(c, err, "failed to list posts")
		return
	}
	response.Success(c, posts)
}

// FollowingFeed lists the latest posts of users the caller follows.
func (h *ContentHandler) FollowingFeed(c *gin.Context) {
	posts, err := h.content.FollowingFeed(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		writeError(c, err, "failed to load feed")
		return
	}
	response.Success(c, posts)
}

func (h *ContentHandler) GetPost(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	post, err := h.content.GetPost(c.Request.Context(), id)
	if err != nil {
		writeError(c, err, "failed to get post")
		return
	}
	response.Success(c, post)
}

func (h *ContentHandler) CreatePost(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	var req domain.CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Blank() {
		l.Warn().Err(err).Msg("invalid create post request")
		response.BadRequest(c, "content required")
		return
	}

	post, err := h.content.CreatePost(ctx, middleware.GetUserID(c), &req)
	if err != nil {
		writeError(c, err, "failed to create post")
		return
	}
	response.Created(c, post)
}

func (h *ContentHandler) DeletePost(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.content.DeletePost(c.Request.Context(), middleware.GetUserID(c), id); err != nil {
		writeError(c, err, "failed to delete post")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ContentHandler) CreateComment(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	var req domain.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Blank() {
		l.Warn().Err(err).Msg("invalid create comment request")
		response.BadRequest(c, "content and postId required")
		return
	}

	comment, err := h.content.CreateComment(ctx, middleware.GetUserID(c), &req)
	if err != nil {
		writeError(c, err, "failed to create comment")
		return
	}
	response.Created(c, comment)
}

func (h *ContentHandler) DeleteComment(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.content.DeleteComment(c.Request.Context(), middleware.GetUserID(c), id); err != nil {
		writeError(c, err, "failed to delete comment")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ContentHandler) LikePost(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	like, err := h.likes.LikePost(c.Request.Context(), middleware.GetUserID(c), id)
	if err != nil {
		writeError(c, err, "failed to like post")
		return
	}
	response.Created(c, domain.LikeResponse{Like: like})
}

func (h *ContentHandler) UnlikePost(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.likes.UnlikePost(c.Request.Context(), middleware.GetUserID(c), id); err != nil {
		writeError(c, err, "failed to unlike post")
		return
	}
	response.Message(c, "Unliked")
}

func (h *ContentHandler) PostLikes(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	likes, err := h.likes.PostLikes(c.Request.Context(), id)
	if err != nil {
		writeError(c, err, "failed to list likes")
		return
	}
	response.Success(c, likes)
}

func (h *ContentHandler) LikeComment(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	like, err := h.likes.LikeComment(c.Request.Context(), middleware.GetUserID(c), id)
	if err != nil {
		writeError(c, err, "failed to like comment")
		return
	}
	response.Created(c, domain.LikeResponse{Like: like})
}

func (h *ContentHandler) UnlikeComment(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.likes.UnlikeComment(c.Request.Context(), middleware.GetUserID(c), id); err != nil {
		writeError(c, err, "failed to unlike comment")
		return
	}
	response.Message(c, "Unliked")
}

func (h *ContentHandler) CommentLikes(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	likes, err := h.likes.CommentLikes(c.Request.Context(), id)
	if err != nil {
		writeError(c, err, "failed to list likes")
		return
	}
	response.Success(c, likes)
}
