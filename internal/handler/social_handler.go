package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/weiawesome/yaycha/internal/service"
	"github.com/weiawesome/yaycha/pkg/middleware"
	"github.com/weiawesome/yaycha/pkg/response"
)

// SocialHandler serves follow edges.
type SocialHandler struct {
	graph service.SocialGraphService
	auth  *middleware.AuthMiddleware
}

func NewSocialHandler(graph service.SocialGraphService, auth *middleware.AuthMiddleware) *SocialHandler {
	return &SocialHandler{graph: graph, auth: auth}
}

// RegisterRoutes registers all routes.
func (h *SocialHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/users/:id/followers", h.ListFollowers)
	r.GET("/users/:id/following", h.ListFollowing)
	r.POST("/follow/:id", h.auth.RequireAuth(), h.Follow)
	r.DELETE("/unfollow/:id", h.auth.RequireAuth(), h.Unfollow)
}

func (h *SocialHandler) Follow(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	follow, err := h.graph.Follow(c.Request.Context(), middleware.GetUserID(c), id)
	if err != nil {
		writeError(c, err, "failed to follow user")
		return
	}
	response.Created(c, follow)
}

func (h *SocialHandler) Unfollow(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.graph.Unfollow(c.Request.Context(), middleware.GetUserID(c), id); err != nil {
		writeError(c, err, "failed to unfollow user")
		return
	}
	response.Message(c, "Unfollowed")
}

func (h *SocialHandler) ListFollowers(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	users, err := h.graph.ListFollowers(c.Request.Context(), id)
	if err != nil {
		writeError(c, err, "failed to list followers")
		return
	}
	response.Success(c, users)
}

func (h *SocialHandler) ListFollowing(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	users, err := h.graph.ListFollowing(c.Request.Context(), id)
	if err != nil {
		writeError(c, err, "failed to list following")
		return
	}
	response.Success(c, users)
}
